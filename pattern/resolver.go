// Package pattern resolves the company-wide email address template for a
// domain, falling back to a ranked ladder of common templates when no
// provider data is available.
package pattern

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/optimode/leadscout/internal/fetch"
	"github.com/optimode/leadscout/types"
)

// ErrNoPattern is returned by an API when it has no data for the domain.
// The resolver treats it as a soft miss, not a failure.
var ErrNoPattern = errors.New("pattern: no data for domain")

// Info is one provider answer: the template in provider syntax plus the
// number of observed addresses backing it.
type Info struct {
	Template string
	Samples  int
}

// API answers domain-pattern queries. Implementations must be safe for
// concurrent use.
type API interface {
	DomainPattern(ctx context.Context, domain string) (Info, error)
}

// FallbackTemplates is the ranked ladder used when no provider data is
// available, most common corporate convention first.
var FallbackTemplates = []types.Template{
	types.TemplateFirstDotLast,
	types.TemplateFirstLast,
	types.TemplateFLast,
	types.TemplateFirst,
}

// Config tunes pattern resolution.
type Config struct {
	// VerifiedThreshold is the minimum sample count for a provider answer
	// to be reported as verified rather than inferred.
	VerifiedThreshold int
}

func (c Config) withDefaults() Config {
	if c.VerifiedThreshold <= 0 {
		c.VerifiedThreshold = 10
	}
	return c
}

// Resolver answers "which template does this domain use" at most once per
// domain per run. It never returns an error: every failure mode degrades
// to the fallback ladder with a warning.
type Resolver struct {
	api     API
	limiter *fetch.Limiter
	budget  *fetch.Budget
	policy  fetch.Policy
	cfg     Config

	mu    sync.Mutex
	cache map[string]types.EmailPattern
}

// NewResolver wires an API (nil for offline runs) to the run's limiter,
// budget and retry policy.
func NewResolver(api API, limiter *fetch.Limiter, budget *fetch.Budget, policy fetch.Policy, cfg Config) *Resolver {
	return &Resolver{
		api:     api,
		limiter: limiter,
		budget:  budget,
		policy:  policy,
		cfg:     cfg.withDefaults(),
		cache:   make(map[string]types.EmailPattern),
	}
}

// Resolve returns the pattern for domain, from cache when already
// resolved this run. The warnings describe any degradation to fallback.
func (r *Resolver) Resolve(ctx context.Context, domain string) (types.EmailPattern, []string) {
	domain = strings.ToLower(domain)

	r.mu.Lock()
	if pat, ok := r.cache[domain]; ok {
		r.mu.Unlock()
		return pat, nil
	}
	r.mu.Unlock()

	pat, warns := r.resolve(ctx, domain)

	r.mu.Lock()
	// First writer wins if two goroutines raced past the cache check.
	if cached, ok := r.cache[domain]; ok {
		pat = cached
	} else {
		r.cache[domain] = pat
	}
	r.mu.Unlock()

	return pat, warns
}

func (r *Resolver) resolve(ctx context.Context, domain string) (types.EmailPattern, []string) {
	if r.api == nil {
		return fallbackPattern(), nil
	}

	if err := r.budget.Draw(); err != nil {
		return fallbackPattern(), []string{
			fmt.Sprintf("pattern lookup for %s skipped: call budget exhausted", domain),
		}
	}

	info, err := fetch.Do(ctx, r.limiter, fetch.ClassPattern, r.policy, func(ctx context.Context) (Info, error) {
		return r.api.DomainPattern(ctx, domain)
	})
	switch {
	case errors.Is(err, ErrNoPattern):
		return fallbackPattern(), []string{
			fmt.Sprintf("no pattern data for %s; using ranked defaults", domain),
		}
	case err != nil:
		log.WithError(err).WithField("domain", domain).Warn("pattern lookup failed")
		return fallbackPattern(), []string{
			fmt.Sprintf("pattern lookup for %s failed: %v; using ranked defaults", domain, err),
		}
	}

	tmpl, ok := ParseTemplate(info.Template)
	if !ok {
		return fallbackPattern(), []string{
			fmt.Sprintf("unrecognized pattern %q for %s; using ranked defaults", info.Template, domain),
		}
	}

	confidence := types.ConfidenceInferred
	if info.Samples >= r.cfg.VerifiedThreshold {
		confidence = types.ConfidenceVerified
	}
	return types.EmailPattern{
		Template:   tmpl,
		Confidence: confidence,
		MatchCount: info.Samples,
	}, nil
}

func fallbackPattern() types.EmailPattern {
	return types.EmailPattern{
		Template:   FallbackTemplates[0],
		Confidence: types.ConfidenceFallback,
	}
}

// providerTemplates maps provider placeholder syntax to templates.
var providerTemplates = map[string]types.Template{
	"{first}.{last}": types.TemplateFirstDotLast,
	"{first}{last}":  types.TemplateFirstLast,
	"{f}{last}":      types.TemplateFLast,
	"{f}.{last}":     types.TemplateFDotLast,
	"{first}":        types.TemplateFirst,
	"{first}{l}":     types.TemplateFirstL,
	"{last}.{first}": types.TemplateLastDotFirst,
}

// ParseTemplate converts a provider pattern string, either placeholder
// syntax like "{first}.{last}" or an already-canonical template name, to
// a Template. ok is false for unrecognized patterns.
func ParseTemplate(s string) (types.Template, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if tmpl, ok := providerTemplates[s]; ok {
		return tmpl, true
	}
	switch s {
	case types.TemplateFirstDotLast, types.TemplateFirstLast, types.TemplateFLast,
		types.TemplateFDotLast, types.TemplateFirst, types.TemplateFirstL,
		types.TemplateLastDotFirst:
		return s, true
	}
	return "", false
}
