package schema

import "errors"

var (
	// ErrMissingSession indicates a transport connect without a session id.
	ErrMissingSession = errors.New("session id is required")
	// ErrMissingClient indicates a transport connect without a client id.
	ErrMissingClient = errors.New("client id is required")
	// ErrNotConnected indicates an operation that requires an open channel.
	ErrNotConnected = errors.New("not connected")
	// ErrNotAuthenticated indicates the identity has no valid session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidAddress indicates a contact address failed validation.
	ErrInvalidAddress = errors.New("invalid contact address")
	// ErrInvalidFrame indicates an inbound payload that is not valid JSON.
	ErrInvalidFrame = errors.New("invalid frame")
)
