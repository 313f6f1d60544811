// Package format renders chat events as plain terminal lines.
package format

import (
	"fmt"
	"strings"

	"github.com/meetingmuse/musechat/schema"
)

// Markers prefix rendered lines by message kind.
const (
	UserMarker   = "you> "
	AIMarker     = "muse> "
	SystemMarker = "* "
	ErrorMarker  = "err> "
)

// PlainRenderer formats messages as plain text lines.
type PlainRenderer struct{}

// NewPlainRenderer returns a default plain-text renderer.
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// FormatMessage converts a DisplayMessage into user-facing lines.
func (p *PlainRenderer) FormatMessage(msg schema.DisplayMessage) []string {
	lines := markLines(markerFor(msg.Kind), splitLines(msg.Content))
	switch msg.Status {
	case schema.StatusSending:
		if len(lines) > 0 {
			lines[len(lines)-1] += " ..."
		}
	case schema.StatusError:
		lines = append(lines, ErrorMarker+"message failed to send")
	}
	lines = append(lines, formatButtons(msg.UIElements)...)
	return lines
}

// FormatStatus renders a connection status change.
func (p *PlainRenderer) FormatStatus(connected bool) string {
	if connected {
		return SystemMarker + "connected"
	}
	return SystemMarker + "disconnected"
}

// FormatCandidates renders the mention picker, one numbered line per
// contact.
func (p *PlainRenderer) FormatCandidates(candidates []schema.Contact) []string {
	if len(candidates) == 0 {
		return nil
	}
	lines := make([]string, 0, len(candidates))
	for i, c := range candidates {
		lines = append(lines, fmt.Sprintf("  [%d] %s <%s>", i+1, c.DisplayName(), c.Address))
	}
	return lines
}

func markerFor(kind schema.DisplayKind) string {
	switch kind {
	case schema.KindUser:
		return UserMarker
	case schema.KindSystem:
		return SystemMarker
	case schema.KindError:
		return ErrorMarker
	default:
		return AIMarker
	}
}

func formatButtons(elements *schema.UIElements) []string {
	if elements == nil || len(elements.Buttons) == 0 {
		return nil
	}
	lines := make([]string, 0, len(elements.Buttons))
	for _, b := range elements.Buttons {
		label := strings.TrimSpace(b.Label)
		if label == "" {
			label = b.Value
		}
		lines = append(lines, fmt.Sprintf("  (%s)", label))
	}
	return lines
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func markLines(marker string, lines []string) []string {
	if marker == "" || len(lines) == 0 {
		return lines
	}
	marked := make([]string, 0, len(lines))
	for _, line := range lines {
		marked = append(marked, marker+line)
	}
	return marked
}
