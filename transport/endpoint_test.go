package transport

import "testing"

func TestParseEndpointSchemes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"http", "http://localhost:8000", "ws://localhost:8000/ws/c1?session_id=s1"},
		{"https", "https://chat.example.com", "wss://chat.example.com/ws/c1?session_id=s1"},
		{"ws", "ws://localhost:8000", "ws://localhost:8000/ws/c1?session_id=s1"},
		{"trailing-slash", "http://localhost:8000/", "ws://localhost:8000/ws/c1?session_id=s1"},
		{"base-path", "http://localhost:8000/api", "ws://localhost:8000/api/ws/c1?session_id=s1"},
	}

	for _, tc := range cases {
		endpoint, err := ParseEndpoint(tc.raw)
		if err != nil {
			t.Fatalf("case %q: parse failed: %v", tc.name, err)
		}
		if got := endpoint.URL("c1", "s1"); got != tc.want {
			t.Fatalf("case %q: url = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseEndpointRejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"ftp", "ftp://example.com"},
		{"no-host", "http://"},
	}

	for _, tc := range cases {
		if _, err := ParseEndpoint(tc.raw); err == nil {
			t.Fatalf("case %q: expected error for %q", tc.name, tc.raw)
		}
	}
}

func TestEndpointEscapesClientID(t *testing.T) {
	endpoint, err := ParseEndpoint("ws://localhost:8000")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := endpoint.URL("client/with spaces", "s 1")
	want := "ws://localhost:8000/ws/client%2Fwith%20spaces?session_id=s+1"
	if got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}
}
