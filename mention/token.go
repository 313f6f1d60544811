package mention

import "unicode"

// Token is an in-progress @query: the span being typed between an '@' and
// the caret, not yet resolved to a contact.
type Token struct {
	// Start is the rune offset of the '@' in the display buffer.
	Start int
	// Query is the text between the '@' and the caret.
	Query string
}

// DetectToken inspects the substring ending at the caret and reports the
// active mention token, if any. The nearest preceding '@' opens a token only
// when it sits at a word boundary: start of text, or right after whitespace.
// A query containing whitespace means the user moved past the token.
// Offsets are rune offsets.
func DetectToken(text []rune, caret int) (Token, bool) {
	if caret < 0 {
		caret = 0
	}
	if caret > len(text) {
		caret = len(text)
	}

	at := -1
	for i := caret - 1; i >= 0; i-- {
		if text[i] == '@' {
			at = i
			break
		}
	}
	if at == -1 {
		return Token{}, false
	}
	if at > 0 && !unicode.IsSpace(text[at-1]) {
		return Token{}, false
	}

	query := text[at+1 : caret]
	for _, r := range query {
		if unicode.IsSpace(r) {
			return Token{}, false
		}
	}
	return Token{Start: at, Query: string(query)}, true
}
