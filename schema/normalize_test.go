package schema

import "testing"

func TestValidAddress(t *testing.T) {
	cases := []struct {
		name    string
		address string
		valid   bool
	}{
		{"simple", "john@example.com", true},
		{"dotted-local", "john.doe@example.com", true},
		{"subdomain", "a@mail.example.com", true},
		{"empty", "", false},
		{"no-at", "john.example.com", false},
		{"no-domain-dot", "john@example", false},
		{"double-at", "john@@example.com", false},
		{"trailing-dot", "john@example.", false},
		{"leading-domain-dot", "john@.com", false},
		{"whitespace", "john doe@example.com", false},
		{"empty-local", "@example.com", false},
	}

	for _, tc := range cases {
		if got := ValidAddress(tc.address); got != tc.valid {
			t.Fatalf("case %q: ValidAddress(%q) = %v, want %v", tc.name, tc.address, got, tc.valid)
		}
	}
}

func TestDisplayNameForAddress(t *testing.T) {
	cases := []struct {
		address string
		want    string
	}{
		{"john.doe@example.com", "John Doe"},
		{"alice@example.com", "Alice"},
		{"mary.jane.watson@example.com", "Mary Jane Watson"},
		{"x@example.com", "X"},
	}

	for _, tc := range cases {
		if got := DisplayNameForAddress(tc.address); got != tc.want {
			t.Fatalf("DisplayNameForAddress(%q) = %q, want %q", tc.address, got, tc.want)
		}
	}
}

func TestContactDisplayName(t *testing.T) {
	named := Contact{Address: "john@example.com", Name: "John Doe"}
	if got := named.DisplayName(); got != "John Doe" {
		t.Fatalf("named contact display = %q", got)
	}
	bare := Contact{Address: "john@example.com"}
	if got := bare.DisplayName(); got != "John" {
		t.Fatalf("bare contact display = %q", got)
	}
	dotted := Contact{Address: "john.doe@example.com"}
	if got := dotted.DisplayName(); got != "John Doe" {
		t.Fatalf("dotted contact display = %q", got)
	}
}
