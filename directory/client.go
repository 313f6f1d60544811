// Package directory consumes the contacts lookup service: a free-text query
// plus a session id in, a list of candidate contacts out. The service is an
// external collaborator; this client only normalizes its responses.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meetingmuse/musechat/schema"
	"pkt.systems/pslog"
)

const (
	defaultTimeout = 10 * time.Second

	// maxResponseSize bounds lookup response bodies.
	maxResponseSize = 1 << 20
)

// Config carries Client construction options.
type Config struct {
	// BaseURL is the HTTP base of the directory service. Required.
	BaseURL string
	// HTTPClient overrides the HTTP client. Optional.
	HTTPClient *http.Client
	// Logger receives lookup diagnostics. Optional.
	Logger pslog.Logger
}

// Client performs contact searches against the directory service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        pslog.Logger
}

// NewClient constructs a directory client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("directory base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Client{baseURL: base, httpClient: httpClient, log: logger}, nil
}

// searchBody tolerates the two wrapped response shapes. The bare-array shape
// is tried first during decoding.
type searchBody struct {
	Contacts []string `json:"contacts"`
	Emails   []string `json:"emails"`
}

// Search queries the directory for candidates matching query. An empty query
// returns no candidates without touching the network. Addresses that fail
// validation are dropped; a missing display name is derived from the
// address's local part.
func (c *Client) Search(ctx context.Context, query string, sessionID schema.SessionID) ([]schema.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	address := c.baseURL + "/contacts/search?" + url.Values{
		"query":      {query},
		"session_id": {string(sessionID)},
	}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contacts search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("contacts search: status %d", resp.StatusCode)
	}

	addresses, ok := decodeAddresses(body)
	if !ok {
		c.log.Warn("directory response shape not recognized", "body_len", len(body))
		return nil, nil
	}

	contacts := make([]schema.Contact, 0, len(addresses))
	dropped := 0
	for _, addr := range addresses {
		if !schema.ValidAddress(addr) {
			dropped++
			continue
		}
		contacts = append(contacts, schema.Contact{
			Address: addr,
			Name:    schema.DisplayNameForAddress(addr),
		})
	}
	c.log.Debug("directory search done", "query", query, "candidates", len(contacts), "dropped", dropped)
	return contacts, nil
}

// decodeAddresses accepts the three known body shapes: a bare array of
// address strings, {"contacts":[...]}, or {"emails":[...]}. Anything else
// yields no addresses rather than an error.
func decodeAddresses(body []byte) ([]string, bool) {
	var bare []string
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, true
	}
	var wrapped searchBody
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, false
	}
	if wrapped.Contacts != nil {
		return wrapped.Contacts, true
	}
	if wrapped.Emails != nil {
		return wrapped.Emails, true
	}
	return nil, false
}
