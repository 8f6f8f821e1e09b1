package check

import (
	"strings"
	"unicode"

	"github.com/optimode/leadscout/internal/parse"
)

// Syntax validates an address against RFC 5321/5322 constraints with
// RFC 6531 (SMTPUTF8) local parts. It never touches the network.
// Returns ok plus a human-readable reason on failure.
func Syntax(email parse.Email) (bool, string) {
	if email.Raw == "" {
		return false, "empty address"
	}
	if !email.Valid {
		return false, "not a parsable address"
	}

	// RFC 5321 length limits.
	if len(email.Raw) > 254 {
		return false, "address exceeds 254 characters"
	}
	if len(email.Local) > 64 {
		return false, "local part exceeds 64 characters"
	}

	// net/mail strips the quotes from quoted local parts, so the raw
	// input decides whether quoted-form rules apply.
	if !quotedLocal(rawLocal(email.Raw)) {
		if reason := checkLocal(email.Local); reason != "" {
			return false, reason
		}
	}

	if reason := checkDomain(email.DomainUnicode); reason != "" {
		return false, reason
	}

	return true, ""
}

// rawLocal returns everything before the last @ of the raw input.
func rawLocal(raw string) string {
	at := strings.LastIndex(raw, "@")
	if at < 1 {
		return ""
	}
	return raw[:at]
}

// quotedLocal reports a quoted-string local part ("john doe"@x.com), in
// which any printable character is allowed.
func quotedLocal(local string) bool {
	return strings.HasPrefix(local, `"`) && strings.HasSuffix(local, `"`) && len(local) >= 2
}

// checkLocal validates an unquoted local part. Returns "" when ok.
func checkLocal(local string) string {
	if local == "" {
		return "local part is empty"
	}

	const special = "!#$%&'*+/=?^_`{|}~-."
	for _, ch := range local {
		switch {
		case ch > 127:
			// RFC 6531 allows non-ASCII except control characters.
			if unicode.IsControl(ch) {
				return "local part contains control character"
			}
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case strings.ContainsRune(special, ch):
		default:
			return "local part contains invalid character: " + string(ch)
		}
	}

	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return "local part cannot start or end with a dot"
	}
	if strings.Contains(local, "..") {
		return "local part cannot contain consecutive dots"
	}
	return ""
}

// checkDomain validates the domain part in its Unicode form (IDNA2008
// validation already ran during parsing). Returns "" when ok.
func checkDomain(domain string) string {
	if domain == "" {
		return "domain is empty"
	}

	// IP literal: accepted, not validated further.
	if strings.HasPrefix(domain, "[") && strings.HasSuffix(domain, "]") {
		return ""
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return "domain must have at least two labels"
	}

	for _, label := range labels {
		if label == "" {
			return "domain contains an empty label"
		}
		if len(label) > 63 {
			return "domain label exceeds 63 characters"
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return "domain label cannot start or end with a hyphen"
		}
		for _, ch := range label {
			if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '-' {
				return "domain label contains invalid character: " + string(ch)
			}
		}
	}

	tld := labels[len(labels)-1]
	if strings.IndexFunc(tld, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		return "TLD cannot be all digits"
	}
	return ""
}
