// Package transport maintains the persistent bidirectional channel that
// carries chat frames between the client and the MeetingMuse backend. One
// Session owns at most one live WebSocket at a time, keyed by the identity
// it was constructed with.
package transport

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/meetingmuse/musechat/schema"
)

// Endpoint builds channel addresses from a base URL. The channel address is
// the base, the client id as a path segment under /ws/, and the session id
// as a query parameter.
type Endpoint struct {
	base *url.URL
}

// ParseEndpoint parses a base endpoint. http and https schemes are mapped to
// their WebSocket equivalents so the same base_url config value serves both
// the REST collaborators and the channel.
func ParseEndpoint(raw string) (Endpoint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Endpoint{}, fmt.Errorf("endpoint is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse endpoint: %w", err)
	}
	switch parsed.Scheme {
	case "ws", "wss":
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return Endpoint{}, fmt.Errorf("unsupported endpoint scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return Endpoint{}, fmt.Errorf("endpoint host is required")
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return Endpoint{base: parsed}, nil
}

// URL returns the dial address for the given identity pair. The client id
// is one opaque path segment; any '/' inside it is percent-encoded rather
// than splitting the path.
func (e Endpoint) URL(clientID schema.ClientID, sessionID schema.SessionID) string {
	address := *e.base
	address.Path = e.base.Path + "/ws/" + string(clientID)
	address.RawPath = e.base.EscapedPath() + "/ws/" + url.PathEscape(string(clientID))
	query := address.Query()
	query.Set("session_id", string(sessionID))
	address.RawQuery = query.Encode()
	return address.String()
}
