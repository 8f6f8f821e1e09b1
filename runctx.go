package leadscout

import (
	"context"
	"net"

	"github.com/google/uuid"

	"github.com/optimode/leadscout/check"
	"github.com/optimode/leadscout/internal/dnscache"
	"github.com/optimode/leadscout/internal/fetch"
	"github.com/optimode/leadscout/internal/smtppool"
	"github.com/optimode/leadscout/pattern"
	"github.com/optimode/leadscout/search"
)

// runContext owns everything scoped to a single run: the limiter, the
// call budget, the DNS and validation caches, and the pooled SMTP
// sessions. Nothing in it outlives the run, so no process-wide state
// leaks between companies.
type runContext struct {
	id        string
	limiter   *fetch.Limiter
	budget    *fetch.Budget
	collector *search.Collector
	resolver  *pattern.Resolver
	pipeline  *pipeline
	pool      *smtppool.Pool
}

func (d *Discoverer) newRunContext() *runContext {
	limits := d.limits.withDefaults()

	limiter := fetch.NewLimiter(fetch.Limits{}).
		Override(fetch.ClassSearch, limits.Search).
		Override(fetch.ClassPattern, limits.Pattern).
		Override(fetch.ClassMX, limits.MX).
		Override(fetch.ClassSMTP, limits.SMTP)
	budget := fetch.NewBudget(limits.CallBudget)

	mxLookup := d.mxLookup
	if mxLookup == nil {
		mxLookup = func(ctx context.Context, domain string) ([]*net.MX, error) {
			return net.DefaultResolver.LookupMX(ctx, domain)
		}
	}
	dns := dnscache.New(func(ctx context.Context, domain string) ([]*net.MX, error) {
		return fetch.Do(ctx, limiter, fetch.ClassMX, limits.Policy, func(ctx context.Context) ([]*net.MX, error) {
			return mxLookup(ctx, domain)
		})
	}, limits.DNSCacheTTL)

	rc := &runContext{
		id:      uuid.NewString(),
		limiter: limiter,
		budget:  budget,
	}
	rc.collector = search.NewCollector(d.searcher, limiter, budget, limits.Policy, d.search.collectorConfig())
	rc.resolver = pattern.NewResolver(d.patternAPI, limiter, budget, limits.Policy, d.pattern.resolverConfig())

	mx := check.NewMXChecker(dns, check.MXConfig{FallbackToA: d.mxFallbackToA})

	var prober *check.SMTPProber
	if d.smtp.Enabled {
		rc.pool = smtppool.New(smtppool.Config{
			HeloDomain:     d.smtp.HeloDomain,
			MailFrom:       d.smtp.MailFrom,
			Port:           d.smtp.Port,
			ConnectTimeout: d.smtp.ConnectTimeout,
			CommandTimeout: d.smtp.CommandTimeout,
			Dial:           d.smtp.Dial,
		})
		prober = check.NewSMTPProber(check.SMTPConfig{
			MaxMXHosts: d.smtp.MaxMXHosts,
			Table:      d.smtp.Table,
		}, rc.pool, limiter, limits.Policy)
	}
	rc.pipeline = newPipeline(mx, prober, budget, d.smtp.Enabled)
	return rc
}

func (rc *runContext) close() {
	if rc.pool != nil {
		rc.pool.Close()
	}
}
