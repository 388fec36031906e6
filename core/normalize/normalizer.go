// Package normalize canonicalizes extracted text for tolerant comparison.
// The result is a comparison key only: anchors always store and display
// the original captured string.
package normalize

import (
	"strings"
	"unicode"
)

// Text folds a string into its comparison key: characters outside
// letters, digits and whitespace are dropped, whitespace runs collapse to
// a single space, everything is lowercased and trimmed. Deterministic and
// total; the empty string maps to itself.
func Text(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
