package query

import "strings"

// Normalize lowercases text, replaces anything outside [a-z0-9] with spaces,
// and collapses runs of whitespace. The result is lowercase, ASCII
// alphanumeric and single-spaced. Idempotent and total.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true // swallow leading spaces
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// Tokens returns the whitespace-split tokens of the normalized form of text.
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}

// TokenSet returns the normalized tokens of text as a membership set.
func TokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokens(text) {
		set[tok] = true
	}
	return set
}
