package schema

import (
	"encoding/json"
	"strings"
)

// MessageType is the discriminant tag of a wire frame.
type MessageType string

const (
	// MessageUser is an outbound user message.
	MessageUser MessageType = "user_message"
	// MessageBot is an assistant response.
	MessageBot MessageType = "bot_response"
	// MessageSystem is a server-originated system notice.
	MessageSystem MessageType = "system_message"
	// MessageError is a server-reported error.
	MessageError MessageType = "error"
)

// UnknownContent is rendered when a frame carries no usable text. The
// taxonomy degrades to this placeholder instead of rejecting the frame.
const UnknownContent = "Unknown message"

// UserMessage is the outbound frame written by the transport on send.
type UserMessage struct {
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp string      `json:"timestamp"`
	SessionID SessionID   `json:"session_id"`
	Timezone  string      `json:"timezone,omitempty"`
}

// UIButton is an action button attached to a bot response.
type UIButton struct {
	ActionType string `json:"action_type"`
	Label      string `json:"label"`
	Value      string `json:"value"`
	Variant    string `json:"variant,omitempty"`
}

// UIElements groups optional interactive elements on a bot response.
type UIElements struct {
	Buttons []UIButton `json:"buttons,omitempty"`
}

// Frame is the permissive envelope for inbound frames. The tag determines
// which fields are meaningful; unknown tags and extra fields are tolerated
// so the taxonomy stays forward-compatible.
type Frame struct {
	Type           MessageType    `json:"type"`
	Content        string         `json:"content,omitempty"`
	Message        string         `json:"message,omitempty"`
	Timestamp      string         `json:"timestamp,omitempty"`
	SessionID      SessionID      `json:"session_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	UIElements     *UIElements    `json:"ui_elements,omitempty"`
	ErrorCode      string         `json:"error_code,omitempty"`
	RetrySuggested bool           `json:"retry_suggested,omitempty"`
}

// ParseFrame decodes an inbound payload into a Frame. It fails only when the
// payload is not valid JSON; any JSON object yields a classifiable frame.
func ParseFrame(data []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Frame{}, ErrInvalidFrame
	}
	return frame, nil
}

// Kind classifies the frame. Order matters: error first, then system,
// then the general response kind which also absorbs unknown tags.
func (f Frame) Kind() DisplayKind {
	switch f.Type {
	case MessageError:
		return KindError
	case MessageSystem:
		return KindSystem
	default:
		return KindAI
	}
}

// DisplayContent returns the renderable text of the frame: content when
// present, else message, else the UnknownContent placeholder.
func (f Frame) DisplayContent() string {
	if strings.TrimSpace(f.Content) != "" {
		return f.Content
	}
	if strings.TrimSpace(f.Message) != "" {
		return f.Message
	}
	return UnknownContent
}
