// Package webmail identifies consumer webmail domains. The discovery
// orchestrator uses it as a deny list so generated addresses on personal
// domains never enter the validation pipeline, and as a typo detector for
// the run's target domain.
package webmail

import (
	_ "embed"
	"strings"

	"github.com/optimode/leadscout/internal/levenshtein"
)

//go:embed list.txt
var rawList string

var denySet map[string]struct{}

// majorProviders is the subset used for typo suggestions. A target domain
// within a small edit distance of one of these was probably mistyped.
var majorProviders = []string{
	"gmail.com", "googlemail.com",
	"yahoo.com", "ymail.com",
	"outlook.com", "hotmail.com", "live.com",
	"icloud.com", "me.com",
	"protonmail.com", "proton.me",
	"aol.com", "zoho.com",
	"yandex.com", "mail.com",
	"gmx.com", "gmx.net",
	"fastmail.com", "tutanota.com",
}

func init() {
	denySet = make(map[string]struct{})
	for _, line := range strings.Split(rawList, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		denySet[strings.ToLower(line)] = struct{}{}
	}
}

// IsWebmail reports whether domain is on the consumer webmail deny list.
func IsWebmail(domain string) bool {
	_, ok := denySet[strings.ToLower(domain)]
	return ok
}

// Suggest returns the closest major provider within maxDistance edits of
// domain, or "" when domain matches a provider exactly or nothing is close
// enough. Used to warn about probable typos in the target domain.
func Suggest(domain string, maxDistance int) string {
	domain = strings.ToLower(domain)

	best := maxDistance + 1
	match := ""
	for _, provider := range majorProviders {
		if domain == provider {
			return ""
		}
		// Short provider names sit within a couple of edits of unrelated
		// corporate domains (acme.com is two deletions from me.com), so
		// only providers of comparable length count as typo candidates.
		if diff := len(domain) - len(provider); diff > 1 || diff < -1 {
			continue
		}
		if d := levenshtein.Distance(domain, provider); d <= maxDistance && d < best {
			best = d
			match = provider
		}
	}
	return match
}
