package pattern

import (
	"fmt"
	"strings"
)

// CleanDomain normalizes user-supplied domain input: scheme, "www."
// prefix, path, port and surrounding whitespace are stripped, and the
// remainder must look like a registrable domain.
func CleanDomain(input string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(input))
	for _, scheme := range []string{"https://", "http://"} {
		d = strings.TrimPrefix(d, scheme)
	}
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.IndexByte(d, ':'); i >= 0 {
		d = d[:i]
	}
	d = strings.Trim(d, ".")

	if d == "" || !strings.Contains(d, ".") || strings.ContainsAny(d, " @") {
		return "", fmt.Errorf("invalid domain %q", input)
	}
	return d, nil
}
