package schema

// ClientID identifies a client installation. It is generated once and
// persisted, surviving logins and logouts.
type ClientID string

// SessionID identifies an authenticated session issued by the identity
// provider. It changes on every successful authentication and becomes
// invalid on logout.
type SessionID string

// Identity binds a client installation to its current session. Components
// hold read-only copies; a new Identity value means the previous transport
// channel must be torn down before a new one opens.
type Identity struct {
	ClientID      ClientID
	SessionID     SessionID
	Authenticated bool
}

// Contact is a directory lookup candidate.
type Contact struct {
	Address string `json:"email"`
	Name    string `json:"name,omitempty"`
}

// DisplayName returns the candidate's name, deriving one from the
// address's local part when the directory supplied none.
func (c Contact) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return DisplayNameForAddress(c.Address)
}
