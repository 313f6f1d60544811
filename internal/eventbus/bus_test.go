package eventbus

import (
	"testing"
	"time"

	"github.com/meetingmuse/musechat/schema"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe()
	defer cancel()

	msg := schema.DisplayMessage{ID: "msg-1", Kind: schema.KindAI, Content: "hi"}
	bus.OnMessage(msg)
	bus.OnStatus(true)

	select {
	case got := <-ch:
		if got.Type != EventMessage || got.Message.ID != "msg-1" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for message event")
	}
	select {
	case got := <-ch:
		if got.Type != EventStatus || !got.Connected {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for status event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
}

func TestPublishDoesNotBlockWhenFull(t *testing.T) {
	bus := New(nil)
	bus.depth = 1
	_, cancel := bus.Subscribe()
	defer cancel()

	var sendCh chan Event
	bus.mu.Lock()
	for ch := range bus.subs {
		sendCh = ch
		break
	}
	bus.mu.Unlock()
	if sendCh == nil {
		t.Fatalf("expected subscriber channel")
	}
	sendCh <- Event{Type: EventMessage}
	done := make(chan struct{})
	go func() {
		bus.OnStatus(false)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("publish blocked on full channel")
	}
}
