package schema

import (
	"time"

	"github.com/google/uuid"
)

// DisplayKind is the presentation category of a display message.
type DisplayKind string

const (
	// KindUser marks a locally originated user message.
	KindUser DisplayKind = "user"
	// KindAI marks an assistant response, including unknown frame shapes.
	KindAI DisplayKind = "ai"
	// KindSystem marks a system notice.
	KindSystem DisplayKind = "system"
	// KindError marks an error frame.
	KindError DisplayKind = "error"
)

// DeliveryStatus tracks an outbound message through the send path.
type DeliveryStatus string

const (
	// StatusSending marks a message handed to the transport but not confirmed.
	StatusSending DeliveryStatus = "sending"
	// StatusSent marks a message written to the channel.
	StatusSent DeliveryStatus = "sent"
	// StatusError marks a message dropped because the channel was not open.
	StatusError DeliveryStatus = "error"
)

// DisplayMessage is the locally synthesized projection of a wire frame (or
// of local user input). It is never transmitted and lives only as long as
// the session view.
type DisplayMessage struct {
	ID         string
	Kind       DisplayKind
	Content    string
	Timestamp  string
	Status     DeliveryStatus
	UIElements *UIElements
}

// NewDisplayMessage projects an inbound frame into a display message.
func NewDisplayMessage(frame Frame) DisplayMessage {
	ts := frame.Timestamp
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}
	return DisplayMessage{
		ID:         "msg-" + uuid.NewString(),
		Kind:       frame.Kind(),
		Content:    frame.DisplayContent(),
		Timestamp:  ts,
		UIElements: frame.UIElements,
	}
}

// NewUserDisplayMessage creates the local projection of an outbound message.
func NewUserDisplayMessage(content string) DisplayMessage {
	return DisplayMessage{
		ID:        "user-" + uuid.NewString(),
		Kind:      KindUser,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    StatusSending,
	}
}
