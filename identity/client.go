// Package identity consumes the OAuth identity provider. The provider is an
// opaque collaborator: it hands out a login URL, reports whether a client is
// authenticated, and issues the session identifier the transport needs. No
// OAuth mechanics live in this package.
package identity

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

const defaultTimeout = 15 * time.Second

// LoginChallenge starts an authentication flow. The caller opens
// AuthorizationURL in a browser and then polls Status.
type LoginChallenge struct {
	AuthorizationURL string          `json:"authorization_url"`
	State            string          `json:"state"`
	ClientID         schema.ClientID `json:"client_id"`
}

// AuthStatus is the provider's view of a client's authentication state.
type AuthStatus struct {
	ClientID      schema.ClientID  `json:"client_id"`
	Authenticated bool             `json:"authenticated"`
	SessionID     schema.SessionID `json:"session_id,omitempty"`
	Message       string           `json:"message"`
}

// Identity converts the status into the identity value threaded through the
// transport and resolver constructors.
func (s AuthStatus) Identity() schema.Identity {
	return schema.Identity{
		ClientID:      s.ClientID,
		SessionID:     s.SessionID,
		Authenticated: s.Authenticated && s.SessionID != "",
	}
}

// Config carries Client construction options.
type Config struct {
	// BaseURL is the HTTP base of the identity provider. Required.
	BaseURL string
	// HTTPClient overrides the HTTP client. Optional.
	HTTPClient *http.Client
	// Logger receives diagnostics. Optional.
	Logger pslog.Logger
}

// Client talks to the identity provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        pslog.Logger
}

// NewClient constructs an identity client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("identity base url is required")
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

// BeginLogin asks the provider to start an authentication flow for clientID.
func (c *Client) BeginLogin(ctx context.Context, clientID schema.ClientID) (LoginChallenge, error) {
	var challenge LoginChallenge
	if err := c.getJSON(ctx, http.MethodGet, "/auth/login/"+url.PathEscape(string(clientID)), &challenge); err != nil {
		return LoginChallenge{}, fmt.Errorf("begin login: %w", err)
	}
	c.log.Debug("identity login started", "client", clientID, "state", challenge.State)
	return challenge, nil
}

// Status returns the provider's authentication state for clientID.
func (c *Client) Status(ctx context.Context, clientID schema.ClientID) (AuthStatus, error) {
	var status AuthStatus
	if err := c.getJSON(ctx, http.MethodGet, "/auth/status/"+url.PathEscape(string(clientID)), &status); err != nil {
		return AuthStatus{}, fmt.Errorf("auth status: %w", err)
	}
	return status, nil
}

// Logout invalidates the client's session with the provider.
func (c *Client) Logout(ctx context.Context, clientID schema.ClientID) error {
	if err := c.getJSON(ctx, http.MethodPost, "/auth/logout/"+url.PathEscape(string(clientID)), nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.log.Info("identity logout", "client", clientID)
	return nil
}

// WaitAuthenticated polls Status at the given interval until the provider
// reports an authenticated session or ctx is done.
func (c *Client) WaitAuthenticated(ctx context.Context, clientID schema.ClientID, interval time.Duration) (schema.Identity, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		status, err := c.Status(ctx, clientID)
		if err != nil {
			c.log.Warn("identity status poll failed", "err", err)
		} else if id := status.Identity(); id.Authenticated {
			return id, nil
		}
		select {
		case <-ctx.Done():
			return schema.Identity{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) getJSON(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
