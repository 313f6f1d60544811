// Package eventbus bridges client callbacks onto channels so a terminal
// front end can select on them from its own goroutine.
package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"

	"github.com/meetingmuse/musechat/schema"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventMessage carries a rendered chat message.
	EventMessage EventType = "message"
	// EventStatus carries a connection status change.
	EventStatus EventType = "status"
	// EventCandidates carries refreshed mention candidates.
	EventCandidates EventType = "candidates"
)

// Event represents a UI-facing event emitted by the client.
type Event struct {
	Type       EventType
	Message    schema.DisplayMessage
	Connected  bool
	Candidates []schema.Contact
}

// Bus fans events out to subscriber channels without blocking the emitter.
type Bus struct {
	mu    sync.Mutex
	subs  map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber and returns its channel plus a cancel
// func that closes it.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	b.log.Debug("eventbus subscribe", "subs", count)
	return ch, func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
		b.log.Debug("eventbus unsubscribe")
	}
}

// OnMessage publishes a chat message event.
func (b *Bus) OnMessage(msg schema.DisplayMessage) {
	b.publish(Event{Type: EventMessage, Message: msg})
}

// OnStatus publishes a connection status event.
func (b *Bus) OnStatus(connected bool) {
	b.publish(Event{Type: EventStatus, Connected: connected})
}

// OnCandidates publishes a mention candidate refresh.
func (b *Bus) OnCandidates(candidates []schema.Contact) {
	b.publish(Event{Type: EventCandidates, Candidates: candidates})
}

func (b *Bus) publish(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	subs := make([]chan Event, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()
	if len(subs) == 0 {
		return
	}
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.log.Trace("eventbus dropped", "count", dropped)
	}
}
