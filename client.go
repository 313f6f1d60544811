// Package musechat is the headless client core for the MeetingMuse chat
// backend. A Client composes the identity flow, the WebSocket transport,
// and the contact directory behind one surface a front end can drive.
package musechat

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"pkt.systems/pslog"

	"github.com/meetingmuse/musechat/directory"
	"github.com/meetingmuse/musechat/identity"
	"github.com/meetingmuse/musechat/mention"
	"github.com/meetingmuse/musechat/schema"
	"github.com/meetingmuse/musechat/transport"
)

// Config configures the client compositor.
type Config struct {
	// BaseURL is the backend root, e.g. http://localhost:8000. Required.
	BaseURL string
	// StateDir holds the durable client id. Required.
	StateDir string
	// HandshakeTimeout bounds the WebSocket handshake. Optional.
	HandshakeTimeout time.Duration
	// PollInterval paces the login status poll. Optional.
	PollInterval time.Duration
	// Timezone overrides the IANA zone stamped on outbound messages.
	Timezone string
	// MentionDebounce delays directory lookups while typing. Optional.
	MentionDebounce time.Duration
	// MaxCandidates caps the mention picker size. Optional.
	MaxCandidates int
	// HTTPClient overrides the client used for identity and directory
	// requests. Optional.
	HTTPClient *http.Client
	// EventSinks receive messages and status changes.
	EventSinks []EventSink
	// Logger receives client diagnostics. Optional.
	Logger pslog.Logger
}

// Client drives one chat identity end to end: durable client id, login
// flow, message channel, and mention resolution.
type Client struct {
	cfg       Config
	log       pslog.Logger
	endpoint  transport.Endpoint
	idClient  *identity.Client
	store     *identity.Store
	directory *directory.Client
	sink      EventSink

	mu       sync.Mutex
	identity schema.Identity
	session  *transport.Session
	disposes []func()
	messages []schema.DisplayMessage
}

// New constructs a Client. It validates the base URL and opens the durable
// client-id store but performs no network I/O.
func New(cfg Config) (*Client, error) {
	endpoint, err := transport.ParseEndpoint(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	store, err := identity.NewStore(cfg.StateDir, logger)
	if err != nil {
		return nil, err
	}
	idClient, err := identity.NewClient(identity.Config{
		BaseURL:    cfg.BaseURL,
		HTTPClient: cfg.HTTPClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	dir, err := directory.NewClient(directory.Config{
		BaseURL:    cfg.BaseURL,
		HTTPClient: cfg.HTTPClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	var sink EventSink
	switch len(cfg.EventSinks) {
	case 0:
		sink = eventFanout{}
	case 1:
		sink = cfg.EventSinks[0]
	default:
		sink = eventFanout{sinks: cfg.EventSinks}
	}
	return &Client{
		cfg:       cfg,
		log:       logger,
		endpoint:  endpoint,
		idClient:  idClient,
		store:     store,
		directory: dir,
		sink:      sink,
	}, nil
}

// ClientID returns the durable client id, generating one on first use.
func (c *Client) ClientID() (schema.ClientID, error) {
	return c.store.ClientID()
}

// BeginLogin starts the login flow and returns the authorization URL the
// user must open.
func (c *Client) BeginLogin(ctx context.Context) (identity.LoginChallenge, error) {
	clientID, err := c.store.ClientID()
	if err != nil {
		return identity.LoginChallenge{}, err
	}
	return c.idClient.BeginLogin(ctx, clientID)
}

// WaitAuthenticated polls the backend until the login completes and caches
// the resulting identity.
func (c *Client) WaitAuthenticated(ctx context.Context) (schema.Identity, error) {
	clientID, err := c.store.ClientID()
	if err != nil {
		return schema.Identity{}, err
	}
	interval := c.cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	id, err := c.idClient.WaitAuthenticated(ctx, clientID, interval)
	if err != nil {
		return schema.Identity{}, err
	}
	c.mu.Lock()
	c.identity = id
	c.mu.Unlock()
	return id, nil
}

// Status fetches the current auth state and caches the identity when the
// backend reports an authenticated session.
func (c *Client) Status(ctx context.Context) (identity.AuthStatus, error) {
	clientID, err := c.store.ClientID()
	if err != nil {
		return identity.AuthStatus{}, err
	}
	status, err := c.idClient.Status(ctx, clientID)
	if err != nil {
		return identity.AuthStatus{}, err
	}
	if id := status.Identity(); id.Authenticated {
		c.mu.Lock()
		c.identity = id
		c.mu.Unlock()
	}
	return status, nil
}

// Logout ends the backend session and tears down the channel.
func (c *Client) Logout(ctx context.Context) error {
	clientID, err := c.store.ClientID()
	if err != nil {
		return err
	}
	c.Disconnect()
	c.mu.Lock()
	c.identity = schema.Identity{}
	c.mu.Unlock()
	return c.idClient.Logout(ctx, clientID)
}

// Identity returns the cached identity.
func (c *Client) Identity() schema.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Connect opens the message channel for the cached identity, resolving it
// through the auth status endpoint when missing. A previous channel is torn
// down first.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	id := c.identity
	c.mu.Unlock()
	if !id.Authenticated || id.SessionID == "" {
		if _, err := c.Status(ctx); err != nil {
			return err
		}
		c.mu.Lock()
		id = c.identity
		c.mu.Unlock()
		if !id.Authenticated || id.SessionID == "" {
			return schema.ErrNotAuthenticated
		}
	}

	c.teardownSession()

	handshake := c.cfg.HandshakeTimeout
	if handshake <= 0 {
		handshake = 10 * time.Second
	}
	session := transport.NewSession(id, transport.Config{
		Endpoint: c.endpoint,
		Dialer:   &websocket.Dialer{HandshakeTimeout: handshake},
		Timezone: c.cfg.Timezone,
		Logger:   c.log,
	})
	offMessage := session.OnMessage(func(frame schema.Frame) {
		msg := schema.NewDisplayMessage(frame)
		c.mu.Lock()
		c.messages = append(c.messages, msg)
		c.mu.Unlock()
		c.sink.OnMessage(msg)
	})
	offStatus := session.OnStatus(c.sink.OnStatus)

	c.mu.Lock()
	c.session = session
	c.disposes = []func(){offMessage, offStatus}
	c.mu.Unlock()

	return session.Connect(ctx)
}

// teardownSession drops the old channel quietly: observers are disposed
// before the close so a superseded session cannot emit a trailing
// disconnect on top of the new one.
func (c *Client) teardownSession() {
	c.mu.Lock()
	session := c.session
	disposes := c.disposes
	c.session = nil
	c.disposes = nil
	c.mu.Unlock()
	for _, off := range disposes {
		off()
	}
	if session != nil {
		session.Disconnect()
	}
}

// Disconnect closes the message channel if open.
func (c *Client) Disconnect() {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session != nil {
		session.Disconnect()
	}
}

// Connected reports whether the message channel is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	return session != nil && session.Connected()
}

// Send echoes the message locally with a delivery status and writes it to
// the channel. The echo lands in the history and the sinks before the send
// outcome is known; the final status is delivered as a second event for the
// same message id.
func (c *Client) Send(content string) schema.DisplayMessage {
	msg := schema.NewUserDisplayMessage(content)
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	idx := len(c.messages) - 1
	session := c.session
	c.mu.Unlock()
	c.sink.OnMessage(msg)

	if session != nil && session.Connected() {
		session.SendMessage(content)
		msg.Status = schema.StatusSent
	} else {
		c.log.Warn("send while disconnected", "message", msg.ID)
		msg.Status = schema.StatusError
	}

	c.mu.Lock()
	if idx < len(c.messages) && c.messages[idx].ID == msg.ID {
		c.messages[idx] = msg
	}
	c.mu.Unlock()
	c.sink.OnMessage(msg)
	return msg
}

// Messages returns the accumulated history in arrival order.
func (c *Client) Messages() []schema.DisplayMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]schema.DisplayMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Composer returns a mention resolver bound to the cached identity and the
// contact directory. Each draft gets its own resolver.
func (c *Client) Composer() *mention.Resolver {
	c.mu.Lock()
	id := c.identity
	c.mu.Unlock()
	var searcher mention.Searcher = c.directory
	if c.cfg.MaxCandidates > 0 {
		searcher = limitSearcher{inner: searcher, max: c.cfg.MaxCandidates}
	}
	return mention.NewResolver(id, mention.Config{
		Searcher: searcher,
		Debounce: c.cfg.MentionDebounce,
		Logger:   c.log,
	})
}

// Close tears down the channel and drops observer registrations.
func (c *Client) Close() {
	c.Disconnect()
	c.mu.Lock()
	disposes := c.disposes
	c.disposes = nil
	c.session = nil
	c.mu.Unlock()
	for _, off := range disposes {
		off()
	}
}

// limitSearcher caps directory results for the mention picker.
type limitSearcher struct {
	inner mention.Searcher
	max   int
}

func (l limitSearcher) Search(ctx context.Context, query string, sessionID schema.SessionID) ([]schema.Contact, error) {
	results, err := l.inner.Search(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	if len(results) > l.max {
		results = results[:l.max]
	}
	return results, nil
}
