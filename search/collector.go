package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/optimode/leadscout/internal/fetch"
	"github.com/optimode/leadscout/types"
)

// DiscoveryError aggregates the per-variation failures of a collection
// run in which every query variation failed.
type DiscoveryError struct {
	Errs []error
}

func (e *DiscoveryError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("all %d query variations failed: %s", len(e.Errs), strings.Join(msgs, "; "))
}

func (e *DiscoveryError) Unwrap() []error { return e.Errs }

// CollectorConfig tunes the collection fan-out.
type CollectorConfig struct {
	Fanout   int // concurrent query variations; small, to respect limits
	PerQuery int // listings requested per variation
}

func (c CollectorConfig) withDefaults() CollectorConfig {
	if c.Fanout <= 0 {
		c.Fanout = 2
	}
	if c.PerQuery <= 0 {
		c.PerQuery = 5
	}
	return c
}

// Collector turns search listings into deduplicated Candidate records.
type Collector struct {
	searcher Searcher
	limiter  *fetch.Limiter
	budget   *fetch.Budget
	policy   fetch.Policy
	cfg      CollectorConfig
}

// NewCollector wires a Searcher to the run's limiter, budget and retry
// policy.
func NewCollector(s Searcher, limiter *fetch.Limiter, budget *fetch.Budget, policy fetch.Policy, cfg CollectorConfig) *Collector {
	return &Collector{
		searcher: s,
		limiter:  limiter,
		budget:   budget,
		policy:   policy,
		cfg:      cfg.withDefaults(),
	}
}

// Collect gathers up to max unique candidates for the company. Query
// variations run concurrently up to the configured fan-out, in fixed
// priority order; a variation is skipped once earlier variations already
// supplied enough unique candidates. Failed variations are logged and
// skipped; Collect returns a DiscoveryError only when every variation
// fails. The warnings describe non-fatal degradations.
func (c *Collector) Collect(ctx context.Context, company, domain string, max int) ([]types.Candidate, []string, error) {
	queries := Queries(company, domain)

	perQuery := make([][]types.Candidate, len(queries))
	failures := make([]error, len(queries))
	skipped := make([]bool, len(queries))

	// seen tracks unique keys across in-flight variations, only to decide
	// when later variations are unnecessary. The authoritative dedup runs
	// over the priority-ordered merge below, so output stays deterministic.
	var mu sync.Mutex
	seen := make(map[string]struct{})

	enough := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= max
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Fanout)

	for i, query := range queries {
		if enough() {
			skipped[i] = true
			continue
		}
		g.Go(func() error {
			if enough() {
				skipped[i] = true
				return nil
			}
			if err := c.budget.Draw(); err != nil {
				skipped[i] = true
				failures[i] = err
				return nil
			}

			listings, err := fetch.Do(gctx, c.limiter, fetch.ClassSearch, c.policy, func(ctx context.Context) ([]Listing, error) {
				return c.searcher.Search(ctx, query, c.cfg.PerQuery)
			})
			if err != nil {
				log.WithError(err).WithField("query", query).Warn("search variation failed")
				failures[i] = fmt.Errorf("query %d: %w", i+1, err)
				return nil
			}

			var found []types.Candidate
			for _, l := range listings {
				parsed, ok := ParseListing(l)
				if !ok {
					// Unparsable listings are discarded, not errors.
					continue
				}
				cand := types.Candidate{
					FullName:   parsed.Name,
					Title:      parsed.Title,
					ProfileURL: parsed.ProfileURL,
				}
				found = append(found, cand)
				mu.Lock()
				seen[cand.Key()] = struct{}{}
				mu.Unlock()
			}
			perQuery[i] = found
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Merge in priority order, deduplicate, truncate.
	var (
		out   []types.Candidate
		keys  = make(map[string]struct{})
		warns []string
	)
	for _, cands := range perQuery {
		for _, cand := range cands {
			if len(out) >= max {
				break
			}
			if _, dup := keys[cand.Key()]; dup {
				continue
			}
			keys[cand.Key()] = struct{}{}
			out = append(out, cand)
		}
	}

	var hardFailures []error
	ranAny := false
	for i := range queries {
		if failures[i] != nil {
			if errors.Is(failures[i], fetch.ErrBudgetExhausted) {
				warns = append(warns, fmt.Sprintf("search variation %d skipped: call budget exhausted", i+1))
			} else {
				warns = append(warns, fmt.Sprintf("search variation %d failed: %v", i+1, failures[i]))
				hardFailures = append(hardFailures, failures[i])
			}
			continue
		}
		if !skipped[i] {
			ranAny = true
		}
	}

	if !ranAny && len(hardFailures) > 0 {
		return nil, warns, &DiscoveryError{Errs: hardFailures}
	}
	return out, warns, nil
}

// FilterByTitle keeps candidates whose title contains any of the given
// keywords (case-insensitive). An empty keyword list keeps everything.
func FilterByTitle(cands []types.Candidate, keywords []string) []types.Candidate {
	if len(keywords) == 0 {
		return cands
	}
	var out []types.Candidate
	for _, cand := range cands {
		title := strings.ToLower(cand.Title)
		for _, kw := range keywords {
			if strings.Contains(title, strings.ToLower(kw)) {
				out = append(out, cand)
				break
			}
		}
	}
	return out
}
