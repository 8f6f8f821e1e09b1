package search

import (
	"regexp"
	"strings"
	"unicode"
)

// Parsed is a successfully extracted candidate from one listing. Listings
// that cannot yield a plausible name are rejected outright, never coerced
// into half-filled records.
type Parsed struct {
	Name       string
	Title      string
	ProfileURL string
}

// DefaultTitle is used when a listing yields a name but no recognizable
// title text.
const DefaultTitle = "HR/Recruiting Professional"

var (
	profileSlugRe = regexp.MustCompile(`linkedin\.com/in/([^/?#]+)`)
	slugSuffixRe  = regexp.MustCompile(`-\d+[a-z0-9]*$`)

	// titleRes match common role phrasings in listing snippets, cut at
	// the separators search engines insert.
	titleRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(Recruiter[^•|–-]*)`),
		regexp.MustCompile(`(?i)(Talent Acquisition[^•|–-]*)`),
		regexp.MustCompile(`(?i)(HR Manager[^•|–-]*)`),
		regexp.MustCompile(`(?i)(Human Resources[^•|–-]*)`),
		regexp.MustCompile(`(?i)(People Operations[^•|–-]*)`),
		regexp.MustCompile(`(?i)(Head of [^•|–-]*)`),
		regexp.MustCompile(`(?i)(Director of [^•|–-]*)`),
		regexp.MustCompile(`(?i)(VP of [^•|–-]*)`),
		regexp.MustCompile(`(?i)(Chief People Officer)`),
	}

	// textSeparators split a listing's display text into name and title.
	textSeparators = []string{" - ", " – ", " — ", " | ", " · "}
)

// ParseListing extracts a candidate from one listing. The profile URL's
// slug is the preferred name source; the display text is the fallback.
// ok is false when no plausible name can be extracted.
func ParseListing(l Listing) (Parsed, bool) {
	name := nameFromProfileURL(l.URL)
	if name == "" {
		name, _ = splitText(l.Text)
	}
	if !plausibleName(name) {
		return Parsed{}, false
	}

	title := titleFromText(l.Text)
	if title == "" {
		title = DefaultTitle
	}

	return Parsed{Name: name, Title: title, ProfileURL: l.URL}, true
}

// nameFromProfileURL recovers "John Doe" from .../in/john-doe-12345.
func nameFromProfileURL(u string) string {
	m := profileSlugRe.FindStringSubmatch(u)
	if m == nil {
		return ""
	}
	slug := slugSuffixRe.ReplaceAllString(m[1], "")

	var words []string
	for _, part := range strings.Split(slug, "-") {
		if part == "" {
			continue
		}
		words = append(words, capitalize(part))
	}
	return strings.Join(words, " ")
}

// splitText divides display text at the first known separator.
func splitText(text string) (name, rest string) {
	for _, sep := range textSeparators {
		if i := strings.Index(text, sep); i > 0 {
			return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+len(sep):])
		}
	}
	return strings.TrimSpace(text), ""
}

// titleFromText extracts a role title from the listing's display text.
func titleFromText(text string) string {
	for _, re := range titleRes {
		if m := re.FindStringSubmatch(text); m != nil {
			title := strings.Join(strings.Fields(m[1]), " ")
			if len(title) > 100 {
				title = title[:100]
			}
			return strings.TrimSpace(title)
		}
	}
	return ""
}

// plausibleName requires at least one alphabetic rune and a sane length.
func plausibleName(name string) bool {
	if name == "" || len(name) > 50 {
		return false
	}
	for _, r := range name {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return ""
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
