package leadscout

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/optimode/leadscout/check"
	"github.com/optimode/leadscout/internal/fetch"
	"github.com/optimode/leadscout/internal/parse"
	"github.com/optimode/leadscout/pattern"
	"github.com/optimode/leadscout/search"
)

// SearchOptions configures candidate collection.
type SearchOptions struct {
	// MaxResults caps the number of unique candidates per run.
	MaxResults int
	// PerQuery is the number of listings requested per query variation.
	PerQuery int
	// Fanout is the number of query variations running concurrently.
	Fanout int
	// TitleKeywords, when set, keeps only candidates whose title contains
	// one of the keywords (case-insensitive).
	TitleKeywords []string
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.MaxResults <= 0 {
		o.MaxResults = 10
	}
	return o
}

// SMTPOptions configures the optional mailbox-probe stage.
type SMTPOptions struct {
	// Enabled turns the SMTP stage on. Off, a syntactically valid address
	// with found MX records resolves to probable.
	Enabled bool
	// HeloDomain is the fully qualified domain announced in EHLO.
	HeloDomain string
	// MailFrom is the sender identity used in MAIL FROM.
	MailFrom string
	// Port overrides the SMTP port, for tests.
	Port string
	// MaxMXHosts is how many exchangers to try per address.
	MaxMXHosts int
	// Table overrides the response-code classification.
	Table check.CodeTable

	ConnectTimeout time.Duration
	CommandTimeout time.Duration

	// Dial overrides the SMTP dialer, for tests.
	Dial func(network, address string, timeout time.Duration) (net.Conn, error)
}

func (o SMTPOptions) validate() error {
	if !o.Enabled {
		return nil
	}
	if !strings.Contains(o.HeloDomain, ".") {
		return fmt.Errorf("%w: HeloDomain %q is not a fully qualified domain", ErrInvalidSMTPOptions, o.HeloDomain)
	}
	if !parse.NewEmail(o.MailFrom).Valid {
		return fmt.Errorf("%w: MailFrom %q is not a valid address", ErrInvalidSMTPOptions, o.MailFrom)
	}
	return nil
}

// LimitOptions configures run-wide throttling and concurrency.
type LimitOptions struct {
	// Per-service-class token buckets. A zero Limits value means no limit
	// for that class.
	Search  fetch.Limits
	Pattern fetch.Limits
	MX      fetch.Limits
	SMTP    fetch.Limits

	// CallBudget caps total external calls per run; zero means unlimited.
	// Once exhausted, remaining validations report unverifiable.
	CallBudget int

	// Policy is the retry policy applied to every external call.
	Policy fetch.Policy

	// Workers bounds the validation worker pool.
	Workers int

	// DNSCacheTTL bounds MX cache entries within the run.
	DNSCacheTTL time.Duration
}

func (o LimitOptions) withDefaults() LimitOptions {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.DNSCacheTTL <= 0 {
		o.DNSCacheTTL = 5 * time.Minute
	}
	return o
}

// PatternOptions configures pattern resolution.
type PatternOptions struct {
	// VerifiedThreshold is the minimum provider sample count for a
	// verified pattern; below it the pattern is inferred.
	VerifiedThreshold int
}

func (o PatternOptions) resolverConfig() pattern.Config {
	return pattern.Config{VerifiedThreshold: o.VerifiedThreshold}
}

func (o SearchOptions) collectorConfig() search.CollectorConfig {
	return search.CollectorConfig{Fanout: o.Fanout, PerQuery: o.PerQuery}
}
