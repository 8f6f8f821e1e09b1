// Package parse splits email addresses into their local and domain parts
// with IDNA2008 handling, so the validation stages can work on a single
// well-defined representation.
package parse

import (
	"net/mail"
	"strings"

	"golang.org/x/net/idna"
)

// Email is the parsed representation consumed by the check/ stages.
type Email struct {
	Raw           string // the original, trimmed input
	Local         string // the part before @
	Domain        string // the part after @, ASCII/Punycode form (for DNS/SMTP)
	DomainUnicode string // the part after @, Unicode form (for display)
	Valid         bool   // false if Raw cannot be parsed
}

// Canonical returns the lowercase local@domain form used as the run-scoped
// validation cache key. For unparsable input it returns the raw string.
func (e Email) Canonical() string {
	if !e.Valid {
		return strings.ToLower(e.Raw)
	}
	return strings.ToLower(e.Local) + "@" + e.Domain
}

// NewEmail parses raw into an Email. Parsing never fails hard: if the
// input cannot be split, Valid is false and Raw is still populated.
func NewEmail(raw string) Email {
	raw = strings.TrimSpace(raw)

	// net/mail handles the common ASCII forms including display names.
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		addr, err = mail.ParseAddress("<" + raw + ">")
	}

	var local, domain string
	if err == nil {
		parts := strings.SplitN(addr.Address, "@", 2)
		if len(parts) != 2 {
			return Email{Raw: raw}
		}
		local, domain = parts[0], parts[1]
	} else {
		// Manual split for addresses net/mail rejects, such as Unicode
		// local parts (RFC 6531 SMTPUTF8).
		at := strings.LastIndex(raw, "@")
		if at < 1 || at >= len(raw)-1 {
			return Email{Raw: raw}
		}
		local, domain = raw[:at], raw[at+1:]
	}

	if local == "" || domain == "" {
		return Email{Raw: raw}
	}

	ascii, unicode, ok := domainForms(strings.ToLower(domain))
	if !ok {
		return Email{Raw: raw}
	}

	return Email{
		Raw:           raw,
		Local:         local,
		Domain:        ascii,
		DomainUnicode: unicode,
		Valid:         true,
	}
}

// domainForms converts a lowercase domain into both its ASCII/Punycode
// form (used on the wire) and its Unicode display form. ok is false when
// a non-ASCII domain fails IDNA2008 validation.
func domainForms(domain string) (ascii, unicode string, ok bool) {
	for _, r := range domain {
		if r > 127 {
			a, err := idna.Lookup.ToASCII(domain)
			if err != nil {
				return "", "", false
			}
			return a, domain, true
		}
	}

	// Pure ASCII: recover the display form of existing Punycode labels
	// (xn--mnchen-3ya.de -> münchen.de).
	u, err := idna.Display.ToUnicode(domain)
	if err != nil {
		u = domain
	}
	return domain, u, true
}
