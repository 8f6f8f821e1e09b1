// Package fetch wraps every outbound network call with token-bucket rate
// limiting, a per-attempt timeout, and jittered exponential-backoff retry.
// Each external service class (search, pattern API, MX, SMTP) gets its own
// bucket so a slow SMTP host cannot starve search queries.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

// Class identifies the external service a call belongs to.
type Class string

const (
	ClassSearch  Class = "search"
	ClassPattern Class = "pattern"
	ClassMX      Class = "mx"
	ClassSMTP    Class = "smtp"
)

// Limits configures one token bucket.
type Limits struct {
	PerWindow int           // max requests per window
	Window    time.Duration // window duration
	Burst     int           // bucket size; defaults to PerWindow
}

func (l Limits) limiter() *rate.Limiter {
	if l.PerWindow <= 0 || l.Window <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := l.Burst
	if burst <= 0 {
		burst = l.PerWindow
	}
	return rate.NewLimiter(rate.Limit(float64(l.PerWindow)/l.Window.Seconds()), burst)
}

// Limiter holds one token bucket per service class.
type Limiter struct {
	buckets map[Class]*rate.Limiter
}

// NewLimiter creates a limiter applying def to all service classes.
func NewLimiter(def Limits) *Limiter {
	l := &Limiter{buckets: make(map[Class]*rate.Limiter)}
	for _, c := range []Class{ClassSearch, ClassPattern, ClassMX, ClassSMTP} {
		l.buckets[c] = def.limiter()
	}
	return l
}

// Override replaces the bucket for one service class.
func (l *Limiter) Override(c Class, lim Limits) *Limiter {
	l.buckets[c] = lim.limiter()
	return l
}

// Wait blocks until a token for the class is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context, c Class) error {
	b, ok := l.buckets[c]
	if !ok {
		return nil
	}
	return b.Wait(ctx)
}

// Policy is the retry policy consumed by Do.
type Policy struct {
	MaxRetries  int           // retries after the first attempt
	BackoffBase time.Duration // initial backoff interval
	BackoffMax  time.Duration // backoff cap
	Timeout     time.Duration // per-attempt timeout
}

func (p Policy) withDefaults() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = 500 * time.Millisecond
	}
	if p.BackoffMax <= 0 {
		p.BackoffMax = 10 * time.Second
	}
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	return p
}

// TransientError marks an error as retryable.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Transient wraps err so Do retries it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// HTTPError is a non-2xx HTTP response.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// StatusError converts an HTTP status into an error: nil for 2xx,
// retryable for 429 and 5xx, permanent otherwise.
func StatusError(status int, body string) error {
	if status >= 200 && status < 300 {
		return nil
	}
	err := &HTTPError{Status: status, Body: body}
	if status == 429 || status >= 500 {
		return Transient(err)
	}
	return err
}

// IsTransient reports whether err should be retried: explicitly marked
// transient errors, timeouts, and connection resets.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var ne interface {
		error
		Timeout() bool
	}
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// ErrBudgetExhausted is returned by Budget.Draw when the run's global call
// cap has been reached.
var ErrBudgetExhausted = errors.New("fetch: call budget exhausted")

// Budget is a run-scoped cap on total external calls. The zero cap (or any
// non-positive cap) means unlimited.
type Budget struct {
	unlimited bool
	remaining atomic.Int64
}

// NewBudget creates a budget allowing n external calls.
func NewBudget(n int) *Budget {
	b := &Budget{}
	if n <= 0 {
		b.unlimited = true
		return b
	}
	b.remaining.Store(int64(n))
	return b
}

// Draw consumes one call from the budget. Draw happens once per logical
// call, before any retries, so backoff cannot silently burn the budget.
func (b *Budget) Draw() error {
	if b == nil || b.unlimited {
		return nil
	}
	if b.remaining.Add(-1) < 0 {
		return ErrBudgetExhausted
	}
	return nil
}

// Remaining returns the calls left, or -1 for an unlimited budget.
func (b *Budget) Remaining() int64 {
	if b == nil || b.unlimited {
		return -1
	}
	if r := b.remaining.Load(); r > 0 {
		return r
	}
	return 0
}

// Do executes op under the class's rate limit with the given retry policy.
// Each attempt waits for a limiter token and runs under its own timeout.
// Transient failures are retried with exponential backoff jittered by up
// to 20%; anything else fails immediately.
func Do[T any](ctx context.Context, lim *Limiter, class Class, pol Policy, op func(context.Context) (T, error)) (T, error) {
	pol = pol.withDefaults()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = pol.BackoffBase
	exp.MaxInterval = pol.BackoffMax
	exp.RandomizationFactor = 0.2

	return backoff.Retry(ctx, func() (T, error) {
		var zero T

		if lim != nil {
			if err := lim.Wait(ctx, class); err != nil {
				if ctx.Err() != nil {
					return zero, backoff.Permanent(err)
				}
				// A limiter wait cut short by the attempt deadline is a
				// transient condition.
				return zero, err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, pol.Timeout)
		defer cancel()

		v, err := op(attemptCtx)
		if err == nil {
			return v, nil
		}
		if IsTransient(err) {
			return v, err
		}
		return v, backoff.Permanent(err)
	}, backoff.WithBackOff(exp), backoff.WithMaxTries(uint(pol.MaxRetries)+1))
}
