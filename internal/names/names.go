// Package names normalizes person names into email local-part tokens.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops combining marks and recomposes,
// turning "José Müller" into "Jose Muller".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Split extracts the first and last name tokens from a full name.
// Middle tokens are ignored. A single-token name yields last == "".
// ok is false when the name contains no usable token.
func Split(fullName string) (first, last string, ok bool) {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return "", "", false
	}

	first = Token(fields[0])
	if len(fields) > 1 {
		last = Token(fields[len(fields)-1])
	}
	if first == "" {
		// The leading token was all punctuation or digits; a name we
		// cannot turn into a local part is not usable.
		return "", "", false
	}
	return first, last, true
}

// Token normalizes one name token for use in an email local part:
// lowercase, diacritics folded to base Latin letters, and anything
// outside [a-z0-9._-] removed.
func Token(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._-")
}

// Initial returns the first rune of a normalized token, or "".
func Initial(token string) string {
	if token == "" {
		return ""
	}
	return token[:1]
}
