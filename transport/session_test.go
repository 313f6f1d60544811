package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/meetingmuse/musechat/schema"
)

var testIdentity = schema.Identity{
	ClientID:      "client-test",
	SessionID:     "session-test",
	Authenticated: true,
}

// wsTestServer upgrades incoming connections and hands them to serve.
func wsTestServer(t *testing.T, serve func(conn *websocket.Conn, r *http.Request)) (*httptest.Server, Endpoint) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		serve(conn, r)
	}))
	t.Cleanup(srv.Close)
	endpoint, err := ParseEndpoint(srv.URL)
	if err != nil {
		t.Fatalf("parse endpoint: %v", err)
	}
	return srv, endpoint
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func TestConnectRequiresSession(t *testing.T) {
	endpoint, err := ParseEndpoint("ws://127.0.0.1:1")
	if err != nil {
		t.Fatalf("parse endpoint: %v", err)
	}
	session := NewSession(schema.Identity{ClientID: "c1"}, Config{Endpoint: endpoint})

	err = session.Connect(context.Background())
	if !errors.Is(err, schema.ErrMissingSession) {
		t.Fatalf("err = %v, want ErrMissingSession", err)
	}
	if got := session.State(); got != StateIdle {
		t.Fatalf("state = %q, want idle (no dial attempted)", got)
	}
}

func TestConnectRequiresClient(t *testing.T) {
	endpoint, err := ParseEndpoint("ws://127.0.0.1:1")
	if err != nil {
		t.Fatalf("parse endpoint: %v", err)
	}
	session := NewSession(schema.Identity{SessionID: "s1"}, Config{Endpoint: endpoint})
	if err := session.Connect(context.Background()); !errors.Is(err, schema.ErrMissingClient) {
		t.Fatalf("err = %v, want ErrMissingClient", err)
	}
}

func TestConnectDeliversStatusAndFrames(t *testing.T) {
	frames := []string{
		`{"type":"system_message","content":"welcome"}`,
		`this is not json`,
		`{"type":"bot_response","content":"after the bad frame"}`,
	}
	done := make(chan struct{})
	_, endpoint := wsTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/ws/client-test") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("session_id"); got != "session-test" {
			t.Errorf("session_id = %q", got)
		}
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				t.Errorf("server write: %v", err)
				return
			}
		}
		<-done
	})

	session := NewSession(testIdentity, Config{Endpoint: endpoint})
	statusCh := make(chan bool, 4)
	frameCh := make(chan schema.Frame, 4)
	session.OnStatus(func(connected bool) { statusCh <- connected })
	session.OnMessage(func(frame schema.Frame) { frameCh <- frame })

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer session.Disconnect()
	defer close(done)

	if connected := waitFor(t, statusCh, "connected status"); !connected {
		t.Fatalf("first status = false, want true")
	}
	if !session.Connected() {
		t.Fatalf("expected session to report connected")
	}

	first := waitFor(t, frameCh, "first frame")
	if first.Kind() != schema.KindSystem || first.DisplayContent() != "welcome" {
		t.Fatalf("unexpected first frame: %+v", first)
	}

	// The malformed payload is dropped; the next valid frame still arrives.
	second := waitFor(t, frameCh, "frame after malformed payload")
	if second.DisplayContent() != "after the bad frame" {
		t.Fatalf("unexpected second frame: %+v", second)
	}
}

func TestSendMessageFrameShape(t *testing.T) {
	received := make(chan schema.UserMessage, 1)
	done := make(chan struct{})
	_, endpoint := wsTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("server read: %v", err)
			return
		}
		var frame schema.UserMessage
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Errorf("server decode: %v", err)
			return
		}
		received <- frame
		<-done
	})

	session := NewSession(testIdentity, Config{Endpoint: endpoint, Timezone: "Europe/Stockholm"})
	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer session.Disconnect()
	defer close(done)

	session.SendMessage("hello there")

	frame := waitFor(t, received, "outbound frame")
	if frame.Type != schema.MessageUser {
		t.Fatalf("type = %q, want %q", frame.Type, schema.MessageUser)
	}
	if frame.Content != "hello there" {
		t.Fatalf("content = %q", frame.Content)
	}
	if frame.SessionID != testIdentity.SessionID {
		t.Fatalf("session_id = %q", frame.SessionID)
	}
	if frame.Timezone != "Europe/Stockholm" {
		t.Fatalf("timezone = %q", frame.Timezone)
	}
	if _, err := time.Parse(time.RFC3339, frame.Timestamp); err != nil {
		t.Fatalf("timestamp %q not RFC3339: %v", frame.Timestamp, err)
	}
}

func TestSendWhileDisconnected(t *testing.T) {
	endpoint, err := ParseEndpoint("ws://127.0.0.1:1")
	if err != nil {
		t.Fatalf("parse endpoint: %v", err)
	}
	session := NewSession(testIdentity, Config{Endpoint: endpoint})

	// Must be a silent no-op, not a panic or an error.
	session.SendMessage("dropped")

	session.Disconnect()
	session.SendMessage("still dropped")
}

func TestDisconnectIdempotent(t *testing.T) {
	done := make(chan struct{})
	_, endpoint := wsTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		<-done
	})

	session := NewSession(testIdentity, Config{Endpoint: endpoint})
	statusCh := make(chan bool, 8)
	session.OnStatus(func(connected bool) { statusCh <- connected })

	session.Disconnect() // before connect: no-op

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if connected := waitFor(t, statusCh, "connected status"); !connected {
		t.Fatalf("expected connected=true")
	}

	session.Disconnect()
	if connected := waitFor(t, statusCh, "disconnected status"); connected {
		t.Fatalf("expected connected=false")
	}
	session.Disconnect()
	session.Disconnect()
	close(done)

	// Give the read pump a moment; no further notifications may arrive.
	select {
	case extra := <-statusCh:
		t.Fatalf("unexpected extra status notification: %v", extra)
	case <-time.After(100 * time.Millisecond):
	}
	if got := session.State(); got != StateClosed {
		t.Fatalf("state = %q, want closed", got)
	}
}

func TestServerCloseNotifiesOnce(t *testing.T) {
	_, endpoint := wsTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		// Close immediately after the handshake.
	})

	session := NewSession(testIdentity, Config{Endpoint: endpoint})
	statusCh := make(chan bool, 8)
	session.OnStatus(func(connected bool) { statusCh <- connected })

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if connected := waitFor(t, statusCh, "connected status"); !connected {
		t.Fatalf("expected connected=true")
	}
	if connected := waitFor(t, statusCh, "disconnected status"); connected {
		t.Fatalf("expected connected=false after server close")
	}
	if got := session.State(); got != StateClosed {
		t.Fatalf("state = %q, want closed", got)
	}

	select {
	case extra := <-statusCh:
		t.Fatalf("unexpected extra status notification: %v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}
