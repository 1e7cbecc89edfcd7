package domain

import (
	"strings"
	"unicode"
)

// CleanText normalises whitespace and strips control characters. Runs of
// whitespace collapse to a single space; the result is trimmed. Cleaning
// that leaves an empty string means the message carries no content and is
// dropped from the corpus.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsControl(r):
			// Non-whitespace control characters are stripped outright.
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokenize splits text into lowercase index tokens on non-alphanumeric
// boundaries. No stemming is applied.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TokenCount is the number of index tokens in s.
func TokenCount(s string) int {
	return len(Tokenize(s))
}
