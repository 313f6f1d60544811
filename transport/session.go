package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/meetingmuse/musechat/schema"
	"pkt.systems/pslog"
)

// State is the lifecycle phase of the channel owned by a Session.
type State string

const (
	// StateIdle means no connect has been attempted yet.
	StateIdle State = "idle"
	// StateConnecting means the handshake is in progress.
	StateConnecting State = "connecting"
	// StateOpen means the channel is ready for frames.
	StateOpen State = "open"
	// StateClosed means the channel ended; a new Connect opens a fresh one.
	StateClosed State = "closed"
)

// Config carries Session construction options.
type Config struct {
	// Endpoint is the channel address builder. Required.
	Endpoint Endpoint
	// Dialer overrides the WebSocket dialer. Optional.
	Dialer *websocket.Dialer
	// Timezone is the IANA zone stamped on outbound frames. Defaults to the
	// process-local zone.
	Timezone string
	// Logger receives transport diagnostics. Optional.
	Logger pslog.Logger
}

// Session owns one WebSocket channel bound to a fixed identity. The channel
// is never shared; callers interact only through Connect, SendMessage, the
// observer registrations, and Disconnect. A Session whose identity became
// stale (logout, new login) is discarded and a new one constructed.
type Session struct {
	identity schema.Identity
	endpoint Endpoint
	dialer   *websocket.Dialer
	timezone string
	log      pslog.Logger

	messages observers[schema.Frame]
	statuses observers[bool]

	mu      sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
	state   State
}

// NewSession constructs a session for the given identity.
func NewSession(identity schema.Identity, cfg Config) *Session {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	}
	timezone := cfg.Timezone
	if timezone == "" {
		timezone = time.Now().Location().String()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Session{
		identity: identity,
		endpoint: cfg.Endpoint,
		dialer:   dialer,
		timezone: timezone,
		log:      logger.With("client", identity.ClientID),
		state:    StateIdle,
	}
}

// Connect opens the channel. The identity must carry a session id; calling
// without one is a precondition violation rejected before any network I/O.
// An already open channel is torn down first so at most one channel lives
// per identity. On success status observers receive connected=true.
func (s *Session) Connect(ctx context.Context) error {
	if s.identity.ClientID == "" {
		return schema.ErrMissingClient
	}
	if s.identity.SessionID == "" {
		return schema.ErrMissingSession
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.Disconnect()

	s.mu.Lock()
	s.state = StateConnecting
	s.mu.Unlock()

	address := s.endpoint.URL(s.identity.ClientID, s.identity.SessionID)
	s.log.Debug("transport connect start", "state", StateConnecting)
	conn, _, err := s.dialer.DialContext(ctx, address, nil)
	if err != nil {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		s.log.Warn("transport connect failed", "err", err)
		s.statuses.notify(false)
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.state = StateOpen
	s.mu.Unlock()

	s.log.Info("transport connected", "session", s.identity.SessionID)
	s.statuses.notify(true)
	go s.readPump(conn)
	return nil
}

// SendMessage serializes a user_message frame and writes it to the channel.
// When the channel is not open the message is dropped with a diagnostic log;
// callers gate the send affordance on connection state.
func (s *Session) SendMessage(content string) {
	s.mu.Lock()
	conn := s.conn
	open := s.state == StateOpen
	s.mu.Unlock()
	if !open || conn == nil {
		s.log.Warn("transport send dropped", "reason", "not connected", "state", s.State())
		return
	}

	frame := schema.UserMessage{
		Type:      schema.MessageUser,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		SessionID: s.identity.SessionID,
		Timezone:  s.timezone,
	}
	s.writeMu.Lock()
	err := conn.WriteJSON(frame)
	s.writeMu.Unlock()
	if err != nil {
		s.log.Warn("transport send failed", "err", err)
		return
	}
	s.log.Debug("transport frame sent", "content_len", len(content))
}

// OnMessage registers a frame observer and returns its disposer. Observers
// run in registration order on the goroutine that reads the channel.
func (s *Session) OnMessage(fn func(schema.Frame)) func() {
	return s.messages.subscribe(fn)
}

// OnStatus registers a connection-status observer and returns its disposer.
func (s *Session) OnStatus(fn func(connected bool)) func() {
	return s.statuses.subscribe(fn)
}

// Disconnect closes the channel if open. It is idempotent and safe to call
// before Connect. Status observers see connected=false exactly once per
// closed channel.
func (s *Session) Disconnect() {
	s.mu.Lock()
	conn := s.conn
	wasOpen := s.state == StateOpen && conn != nil
	s.conn = nil
	if s.state != StateIdle {
		s.state = StateClosed
	}
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if wasOpen {
		s.log.Info("transport disconnected")
		s.statuses.notify(false)
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the channel is open.
func (s *Session) Connected() bool {
	return s.State() == StateOpen
}

// Identity returns the identity the session was constructed with.
func (s *Session) Identity() schema.Identity {
	return s.identity
}

// readPump delivers inbound frames to observers in channel order. Malformed
// payloads are dropped and logged without stopping the pump; a read error
// ends the channel and surfaces as a single connected=false notification.
func (s *Session) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			current := s.conn == conn
			if current {
				s.conn = nil
				s.state = StateClosed
			}
			s.mu.Unlock()
			if current {
				s.log.Warn("transport channel closed", "err", err)
				s.statuses.notify(false)
			}
			return
		}
		frame, err := schema.ParseFrame(data)
		if err != nil {
			s.log.Warn("transport frame dropped", "err", err, "payload_len", len(data))
			continue
		}
		s.messages.notify(frame)
	}
}
