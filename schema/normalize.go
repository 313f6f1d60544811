package schema

import (
	"strings"
	"unicode"
)

// ValidAddress reports whether the string looks like a local@domain address.
// The check matches what the directory service itself enforces: non-empty
// local part, one '@', non-empty domain containing a dot, no whitespace.
func ValidAddress(address string) bool {
	at := strings.IndexByte(address, '@')
	if at <= 0 || at != strings.LastIndexByte(address, '@') {
		return false
	}
	local, domain := address[:at], address[at+1:]
	dot := strings.IndexByte(domain, '.')
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}
	for _, r := range address {
		if unicode.IsSpace(r) {
			return false
		}
	}
	return local != ""
}

// DisplayNameForAddress derives a human-readable name from the address's
// local part: dot-separated segments are capitalized and space-joined, so
// "john.doe@example.com" becomes "John Doe".
func DisplayNameForAddress(address string) string {
	local := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		local = address[:at]
	}
	if local == "" {
		return address
	}
	parts := strings.Split(local, ".")
	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
