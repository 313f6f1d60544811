package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestBeginLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login/client-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"authorization_url":"https://auth.example.com/consent","state":"st-9","client_id":"client-1"}`))
	})

	challenge, err := client.BeginLogin(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("begin login: %v", err)
	}
	if challenge.AuthorizationURL != "https://auth.example.com/consent" {
		t.Fatalf("authorization url = %q", challenge.AuthorizationURL)
	}
	if challenge.State != "st-9" || challenge.ClientID != "client-1" {
		t.Fatalf("unexpected challenge: %+v", challenge)
	}
}

func TestStatusIdentity(t *testing.T) {
	cases := []struct {
		name          string
		body          string
		authenticated bool
		session       string
	}{
		{
			name:          "authenticated",
			body:          `{"client_id":"c1","authenticated":true,"session_id":"s1","message":"ok"}`,
			authenticated: true,
			session:       "s1",
		},
		{
			name:          "not-authenticated",
			body:          `{"client_id":"c1","authenticated":false,"message":"login required"}`,
			authenticated: false,
		},
		{
			// authenticated without a session id is not a usable identity
			name:          "authenticated-without-session",
			body:          `{"client_id":"c1","authenticated":true,"message":"pending"}`,
			authenticated: false,
		},
	}

	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/status/c1" {
				t.Errorf("path = %q", r.URL.Path)
			}
			w.Write([]byte(tc.body))
		})
		status, err := client.Status(context.Background(), "c1")
		if err != nil {
			t.Fatalf("case %q: status failed: %v", tc.name, err)
		}
		id := status.Identity()
		if id.Authenticated != tc.authenticated {
			t.Fatalf("case %q: authenticated = %v, want %v", tc.name, id.Authenticated, tc.authenticated)
		}
		if string(id.SessionID) != tc.session {
			t.Fatalf("case %q: session = %q, want %q", tc.name, id.SessionID, tc.session)
		}
	}
}

func TestLogoutUsesPost(t *testing.T) {
	var gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Write([]byte(`{"message":"logged out"}`))
	})

	if err := client.Logout(context.Background(), "c1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("method = %q, want POST", gotMethod)
	}
}

func TestStatusErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	if _, err := client.Status(context.Background(), "c1"); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestWaitAuthenticated(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.Write([]byte(`{"client_id":"c1","authenticated":false,"message":"pending"}`))
			return
		}
		w.Write([]byte(`{"client_id":"c1","authenticated":true,"session_id":"s1","message":"ok"}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := client.WaitAuthenticated(ctx, "c1", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !id.Authenticated || id.SessionID != "s1" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if calls < 3 {
		t.Fatalf("expected at least 3 polls, got %d", calls)
	}
}

func TestWaitAuthenticatedHonorsContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"client_id":"c1","authenticated":false,"message":"pending"}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.WaitAuthenticated(ctx, "c1", 10*time.Millisecond); err == nil {
		t.Fatalf("expected context error")
	}
}
