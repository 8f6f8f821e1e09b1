package check

import (
	"context"
	"fmt"

	"github.com/optimode/leadscout/internal/fetch"
	"github.com/optimode/leadscout/internal/smtppool"
	"github.com/optimode/leadscout/types"
)

// CodeRule maps an inclusive SMTP response-code range to a verdict.
type CodeRule struct {
	Min     int
	Max     int
	Verdict types.SMTPVerdict
}

// CodeTable classifies RCPT TO response codes into probe verdicts. Real
// servers disagree on code semantics, so the mapping is configuration,
// not a constant.
type CodeTable []CodeRule

// Classify returns the verdict for code; codes matching no rule are
// inconclusive.
func (t CodeTable) Classify(code int) types.SMTPVerdict {
	for _, r := range t {
		if code >= r.Min && code <= r.Max {
			return r.Verdict
		}
	}
	return types.VerdictInconclusive
}

// DefaultCodeTable treats 2xx as accepted, 5xx as rejected, and anything
// else (greylisting, throttling, local policy) as inconclusive.
func DefaultCodeTable() CodeTable {
	return CodeTable{
		{Min: 200, Max: 299, Verdict: types.VerdictAccepted},
		{Min: 500, Max: 599, Verdict: types.VerdictRejected},
	}
}

// SMTPConfig configures the probe stage.
type SMTPConfig struct {
	MaxMXHosts int       // exchangers to try in preference order
	Table      CodeTable // code classification, DefaultCodeTable when nil
}

// SMTPResult is the outcome of the probe stage for one address.
type SMTPResult struct {
	Verdict types.SMTPVerdict
	Code    int
	Host    string
	Detail  string
}

// SMTPProber runs mailbox-existence probes through the shared session
// pool, one limiter token per host attempt.
type SMTPProber struct {
	cfg     SMTPConfig
	pool    *smtppool.Pool
	limiter *fetch.Limiter
	policy  fetch.Policy
}

// NewSMTPProber creates the probe stage.
func NewSMTPProber(cfg SMTPConfig, pool *smtppool.Pool, limiter *fetch.Limiter, policy fetch.Policy) *SMTPProber {
	if cfg.MaxMXHosts <= 0 {
		cfg.MaxMXHosts = 2
	}
	if cfg.Table == nil {
		cfg.Table = DefaultCodeTable()
	}
	return &SMTPProber{cfg: cfg, pool: pool, limiter: limiter, policy: policy}
}

// Probe walks the exchangers in preference order until one yields a
// decisive verdict. Transport failures and ambiguous codes on every host
// leave the probe inconclusive; probing can prove or disprove a mailbox,
// never half of one.
func (p *SMTPProber) Probe(ctx context.Context, hosts []string, address string) SMTPResult {
	if len(hosts) == 0 {
		return SMTPResult{Verdict: types.VerdictInconclusive, Detail: "no exchanger to probe"}
	}

	maxHosts := p.cfg.MaxMXHosts
	if maxHosts > len(hosts) {
		maxHosts = len(hosts)
	}

	var lastDetail string
	for i := 0; i < maxHosts; i++ {
		if ctx.Err() != nil {
			return SMTPResult{Verdict: types.VerdictInconclusive, Detail: "cancelled"}
		}
		host := hosts[i]

		type reply struct {
			code int
			msg  string
		}
		r, err := fetch.Do(ctx, p.limiter, fetch.ClassSMTP, p.policy, func(context.Context) (reply, error) {
			code, msg, err := p.pool.Probe(host, address)
			return reply{code: code, msg: msg}, err
		})
		if err != nil {
			lastDetail = fmt.Sprintf("%s: %v", host, err)
			continue
		}

		verdict := p.cfg.Table.Classify(r.code)
		res := SMTPResult{
			Verdict: verdict,
			Code:    r.code,
			Host:    host,
			Detail:  r.msg,
		}
		if verdict != types.VerdictInconclusive {
			return res
		}
		// Ambiguous reply; a lower-preference exchanger may be clearer.
		lastDetail = fmt.Sprintf("%s: ambiguous reply %d", host, r.code)
	}

	return SMTPResult{Verdict: types.VerdictInconclusive, Detail: lastDetail}
}
