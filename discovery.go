package leadscout

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/optimode/leadscout/internal/webmail"
	"github.com/optimode/leadscout/pattern"
	"github.com/optimode/leadscout/search"
	"github.com/optimode/leadscout/types"
)

// Discoverer composes collection, pattern resolution, generation and
// validation into runs. Configure it with the With* builder methods,
// then call Run once per company; each run gets its own caches, rate
// limiter and call budget.
type Discoverer struct {
	searcher   search.Searcher
	patternAPI pattern.API

	search  SearchOptions
	pattern PatternOptions
	smtp    SMTPOptions
	limits  LimitOptions

	mxFallbackToA bool
	mxLookup      func(ctx context.Context, domain string) ([]*net.MX, error)
}

// New returns a Discoverer with default options and no collaborators.
// A searcher must be configured before Run.
func New() *Discoverer {
	return &Discoverer{}
}

// WithSearcher sets the search collaborator candidates are collected
// from.
func (d *Discoverer) WithSearcher(s search.Searcher) *Discoverer {
	d.searcher = s
	return d
}

// WithPatternAPI sets the pattern-API collaborator. Without one, every
// run uses the fallback template ladder.
func (d *Discoverer) WithPatternAPI(api pattern.API) *Discoverer {
	d.patternAPI = api
	return d
}

// WithSearchOptions overrides collection options.
func (d *Discoverer) WithSearchOptions(o SearchOptions) *Discoverer {
	d.search = o
	return d
}

// WithPatternOptions overrides pattern-resolution options.
func (d *Discoverer) WithPatternOptions(o PatternOptions) *Discoverer {
	d.pattern = o
	return d
}

// WithSMTP configures the optional mailbox-probe stage.
func (d *Discoverer) WithSMTP(o SMTPOptions) *Discoverer {
	d.smtp = o
	return d
}

// WithLimits overrides throttling, retry and concurrency options.
func (d *Discoverer) WithLimits(o LimitOptions) *Discoverer {
	d.limits = o
	return d
}

// WithMXFallbackToA accepts an A record as an implicit mail exchanger
// for domains without MX records.
func (d *Discoverer) WithMXFallbackToA(enabled bool) *Discoverer {
	d.mxFallbackToA = enabled
	return d
}

// WithMXLookup overrides the MX resolver, for tests.
func (d *Discoverer) WithMXLookup(lookup func(ctx context.Context, domain string) ([]*net.MX, error)) *Discoverer {
	d.mxLookup = lookup
	return d
}

// Run executes one discovery run for the company at domain. It returns
// a report with severity-ordered results and non-fatal warnings; an
// error is returned only for unusable configuration, a refused domain,
// or when every search variation failed.
func (d *Discoverer) Run(ctx context.Context, company, domain string) (*Report, error) {
	if d.searcher == nil {
		return nil, ErrNoSearcher
	}
	if err := d.smtp.validate(); err != nil {
		return nil, err
	}

	domain, err := pattern.CleanDomain(domain)
	if err != nil {
		return nil, err
	}
	if webmail.IsWebmail(domain) {
		return nil, fmt.Errorf("%w: %s", ErrPersonalDomain, domain)
	}

	rc := d.newRunContext()
	defer rc.close()

	report := &Report{
		RunID:     rc.id,
		Company:   company,
		Domain:    domain,
		StartedAt: time.Now(),
	}
	logger := log.WithFields(log.Fields{"run": rc.id, "company": company, "domain": domain})
	logger.Info("starting discovery run")

	if s := webmail.Suggest(domain, 2); s != "" && s != domain {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("domain %s resembles %s; check for a typo", domain, s))
	}

	opts := d.search.withDefaults()
	cands, warns, err := rc.collector.Collect(ctx, company, domain, opts.MaxResults)
	report.Warnings = append(report.Warnings, warns...)
	if err != nil {
		report.FinishedAt = time.Now()
		return report, err
	}
	cands = search.FilterByTitle(cands, opts.TitleKeywords)
	logger.WithField("candidates", len(cands)).Info("candidates collected")

	pat, pwarns := rc.resolver.Resolve(ctx, domain)
	report.Warnings = append(report.Warnings, pwarns...)
	report.Pattern = pat

	var guesses []types.EmailCandidate
	for _, cand := range cands {
		guesses = append(guesses, Generate(cand, pat, domain)...)
	}

	guesses, dropped := dropPersonalDomains(guesses)
	report.Warnings = append(report.Warnings, dropped...)

	d.validateAll(ctx, rc, guesses)

	sort.SliceStable(guesses, func(i, j int) bool {
		return types.StatusRank(guesses[i].Validation.Status) < types.StatusRank(guesses[j].Validation.Status)
	})
	report.Results = guesses
	report.FinishedAt = time.Now()
	logger.Info(report.Summary())
	return report, nil
}

// dropPersonalDomains discards guesses addressed at consumer webmail
// providers before any network call. Policy enforcement, not a
// validation outcome.
func dropPersonalDomains(guesses []types.EmailCandidate) ([]types.EmailCandidate, []string) {
	kept := guesses[:0]
	var warns []string
	for _, g := range guesses {
		if at := strings.LastIndexByte(g.Address, '@'); at >= 0 && webmail.IsWebmail(g.Address[at+1:]) {
			warns = append(warns, fmt.Sprintf("discarded %s: personal webmail domain", g.Address))
			continue
		}
		kept = append(kept, g)
	}
	return kept, warns
}

// validateAll runs the pipeline over the unique addresses with a bounded
// worker pool and merges results back in place. Workers own their
// address; the run cache inside the pipeline is the only shared state.
func (d *Discoverer) validateAll(ctx context.Context, rc *runContext, guesses []types.EmailCandidate) {
	unique := make([]string, 0, len(guesses))
	seen := make(map[string]struct{}, len(guesses))
	for _, g := range guesses {
		if _, dup := seen[g.Address]; dup {
			continue
		}
		seen[g.Address] = struct{}{}
		unique = append(unique, g.Address)
	}

	results := make(map[string]types.ValidationResult, len(unique))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limits.withDefaults().Workers)
	for _, addr := range unique {
		g.Go(func() error {
			r := rc.pipeline.Validate(gctx, addr)
			mu.Lock()
			results[addr] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	for i := range guesses {
		guesses[i].Validation = results[guesses[i].Address]
	}
}
