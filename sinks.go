package musechat

import "github.com/meetingmuse/musechat/schema"

// EventSink receives client events: rendered messages and connection status
// changes. Implementations must not block; delivery happens on the client's
// transport goroutine.
type EventSink interface {
	OnMessage(msg schema.DisplayMessage)
	OnStatus(connected bool)
}

type eventFanout struct {
	sinks []EventSink
}

func (f eventFanout) OnMessage(msg schema.DisplayMessage) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnMessage(msg)
	}
}

func (f eventFanout) OnStatus(connected bool) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnStatus(connected)
	}
}
