package leadscout

import (
	"context"
	"sync"
	"time"

	"github.com/optimode/leadscout/check"
	"github.com/optimode/leadscout/internal/fetch"
	"github.com/optimode/leadscout/internal/parse"
	"github.com/optimode/leadscout/types"
)

// pipeline runs the staged validation for one run: syntax, MX, then the
// optional SMTP probe, short-circuiting on the first disqualifying stage.
// Results are cached by exact address so pattern collisions across
// candidates cost one set of network calls.
type pipeline struct {
	mx      *check.MXChecker
	smtp    *check.SMTPProber
	budget  *fetch.Budget
	smtpOn  bool

	mu    sync.Mutex
	cache map[string]types.ValidationResult
}

func newPipeline(mx *check.MXChecker, smtp *check.SMTPProber, budget *fetch.Budget, smtpOn bool) *pipeline {
	return &pipeline{
		mx:     mx,
		smtp:   smtp,
		budget: budget,
		smtpOn: smtpOn,
		cache:  make(map[string]types.ValidationResult),
	}
}

// Validate returns the validation result for address, computing it at
// most once per run.
func (p *pipeline) Validate(ctx context.Context, address string) types.ValidationResult {
	p.mu.Lock()
	if r, ok := p.cache[address]; ok {
		p.mu.Unlock()
		return r
	}
	p.mu.Unlock()

	r := p.validate(ctx, address)

	p.mu.Lock()
	if cached, ok := p.cache[address]; ok {
		r = cached
	} else {
		p.cache[address] = r
	}
	p.mu.Unlock()
	return r
}

func (p *pipeline) validate(ctx context.Context, address string) types.ValidationResult {
	r := types.ValidationResult{
		MX:        types.MXNotChecked,
		SMTP:      types.VerdictNotAttempted,
		CheckedAt: time.Now(),
	}

	email := parse.NewEmail(address)
	ok, reason := check.Syntax(email)
	r.SyntaxValid = ok
	if !ok {
		r.Status = types.StatusInvalid
		r.Detail = reason
		return r
	}

	if ctx.Err() != nil {
		r.Status = types.StatusUnverifiable
		r.Detail = "cancelled"
		return r
	}
	if err := p.budget.Draw(); err != nil {
		r.Status = types.StatusUnverifiable
		r.Detail = "call budget exhausted"
		return r
	}

	mxRes := p.mx.Check(ctx, email.Domain)
	r.MX = mxRes.State

	var hosts []string
	switch mxRes.State {
	case types.MXNone:
		r.Status = types.StatusInvalid
		r.Detail = mxRes.Detail
		return r
	case types.MXUnknown:
		if ctx.Err() != nil || !p.smtpOn {
			r.Status = types.StatusUnverifiable
			r.Detail = mxRes.Detail
			return r
		}
		// Probing is explicitly enabled; the domain itself is the only
		// exchanger candidate we have.
		hosts = []string{email.Domain}
	default:
		hosts = mxRes.Hosts
	}

	if !p.smtpOn {
		r.Status = types.StatusProbable
		r.Detail = mxRes.Detail
		return r
	}

	if err := p.budget.Draw(); err != nil {
		r.Status = types.StatusUnverifiable
		r.Detail = "call budget exhausted"
		return r
	}

	sRes := p.smtp.Probe(ctx, hosts, address)
	r.SMTP = sRes.Verdict
	r.Detail = sRes.Detail
	switch sRes.Verdict {
	case types.VerdictAccepted:
		r.Status = types.StatusValid
	case types.VerdictRejected:
		r.Status = types.StatusInvalid
	default:
		if ctx.Err() != nil {
			r.Status = types.StatusUnverifiable
			r.Detail = "cancelled"
			return r
		}
		// Greylisting and catch-all servers leave the mailbox plausible
		// but unproven.
		r.Status = types.StatusProbable
	}
	return r
}
