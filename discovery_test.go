package leadscout

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/leadscout/pattern"
	"github.com/optimode/leadscout/search"
	"github.com/optimode/leadscout/types"
)

// stubSearcher returns the same listings for every query variation.
type stubSearcher struct {
	listings []search.Listing
	err      error
}

func (s *stubSearcher) Search(ctx context.Context, query string, limit int) ([]search.Listing, error) {
	return s.listings, s.err
}

// stubPatternAPI returns a fixed provider answer.
type stubPatternAPI struct {
	info pattern.Info
	err  error
}

func (s *stubPatternAPI) DomainPattern(ctx context.Context, domain string) (pattern.Info, error) {
	return s.info, s.err
}

func acmeListings() []search.Listing {
	return []search.Listing{
		{Text: "John Doe - Recruiter at Acme", URL: "https://linkedin.com/in/john-doe"},
		{Text: "Jane Smith - HR Manager at Acme", URL: "https://linkedin.com/in/jane-smith"},
		{Text: "X - Intern at Acme"},
	}
}

func staticMX(hosts ...string) func(ctx context.Context, domain string) ([]*net.MX, error) {
	return func(ctx context.Context, domain string) ([]*net.MX, error) {
		return mxRecords(hosts...), nil
	}
}

func TestRun_EndToEnd(t *testing.T) {
	d := New().
		WithSearcher(&stubSearcher{listings: acmeListings()}).
		WithPatternAPI(&stubPatternAPI{info: pattern.Info{Template: "{first}.{last}", Samples: 25}}).
		WithMXLookup(staticMX("mx.acme.com"))

	report, err := d.Run(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)

	assert.Equal(t, "acme.com", report.Domain)
	assert.Equal(t, types.TemplateFirstDotLast, report.Pattern.Template)
	assert.Equal(t, types.ConfidenceVerified, report.Pattern.Confidence)
	assert.NotEmpty(t, report.RunID)

	require.Len(t, report.Results, 3)
	assert.Equal(t, []string{
		"john.doe@acme.com",
		"jane.smith@acme.com",
		"x@acme.com",
	}, addresses(report.Results))

	// The single-token candidate degraded to a single-slot fallback guess.
	var single types.EmailCandidate
	for _, ec := range report.Results {
		if ec.Address == "x@acme.com" {
			single = ec
		}
	}
	assert.Equal(t, types.ConfidenceFallback, single.Pattern.Confidence)
	assert.Equal(t, types.TemplateFirst, single.Pattern.Template)

	// SMTP disabled: syntactically valid addresses with MX resolve to
	// probable.
	for _, ec := range report.Results {
		assert.Equal(t, types.StatusProbable, ec.Validation.Status, ec.Address)
		assert.Equal(t, types.VerdictNotAttempted, ec.Validation.SMTP)
	}
}

func TestRun_Idempotent(t *testing.T) {
	build := func() *Discoverer {
		return New().
			WithSearcher(&stubSearcher{listings: acmeListings()}).
			WithPatternAPI(&stubPatternAPI{info: pattern.Info{Template: "{first}.{last}", Samples: 25}}).
			WithMXLookup(staticMX("mx.acme.com"))
	}

	first, err := build().Run(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)
	second, err := build().Run(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)

	assert.Equal(t, addresses(first.Results), addresses(second.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Validation.Status, second.Results[i].Validation.Status)
	}
}

func TestRun_RequiresSearcher(t *testing.T) {
	_, err := New().Run(context.Background(), "Acme", "acme.com")
	assert.ErrorIs(t, err, ErrNoSearcher)
}

func TestRun_RejectsInvalidSMTPOptions(t *testing.T) {
	d := New().
		WithSearcher(&stubSearcher{}).
		WithSMTP(SMTPOptions{Enabled: true, HeloDomain: "localhost", MailFrom: "probe@probe.test"})

	_, err := d.Run(context.Background(), "Acme", "acme.com")
	assert.ErrorIs(t, err, ErrInvalidSMTPOptions)
}

func TestRun_RejectsPersonalDomain(t *testing.T) {
	d := New().WithSearcher(&stubSearcher{})

	_, err := d.Run(context.Background(), "Gmail", "gmail.com")
	assert.ErrorIs(t, err, ErrPersonalDomain)
}

func TestRun_RejectsBadDomain(t *testing.T) {
	d := New().WithSearcher(&stubSearcher{})

	_, err := d.Run(context.Background(), "Acme", "not a domain")
	assert.Error(t, err)
}

func TestRun_CleansDomainInput(t *testing.T) {
	d := New().
		WithSearcher(&stubSearcher{listings: acmeListings()}).
		WithMXLookup(staticMX("mx.acme.com"))

	report, err := d.Run(context.Background(), "Acme", "https://www.acme.com/careers")
	require.NoError(t, err)
	assert.Equal(t, "acme.com", report.Domain)
}

func TestRun_TypoWarning(t *testing.T) {
	d := New().
		WithSearcher(&stubSearcher{}).
		WithMXLookup(staticMX())

	report, err := d.Run(context.Background(), "Acme", "gmial.com")
	require.NoError(t, err)

	found := false
	for _, w := range report.Warnings {
		if w == "domain gmial.com resembles gmail.com; check for a typo" {
			found = true
		}
	}
	assert.True(t, found, "warnings: %v", report.Warnings)
}

func TestRun_NoTypoWarningForUnrelatedDomain(t *testing.T) {
	d := New().
		WithSearcher(&stubSearcher{listings: acmeListings()}).
		WithMXLookup(staticMX("mx.acme.com"))

	// acme.com is within two edits of me.com but is not a typo of it.
	report, err := d.Run(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)

	for _, w := range report.Warnings {
		assert.NotContains(t, w, "resembles", "warnings: %v", report.Warnings)
	}
}

func TestRun_AllSearchVariationsFail(t *testing.T) {
	d := New().
		WithSearcher(&stubSearcher{err: errors.New("upstream down")}).
		WithMXLookup(staticMX("mx.acme.com"))

	report, err := d.Run(context.Background(), "Acme", "acme.com")
	require.Error(t, err)

	var de *search.DiscoveryError
	assert.ErrorAs(t, err, &de)
	require.NotNil(t, report)
	assert.Empty(t, report.Results)
	assert.NotEmpty(t, report.Warnings)
}

func TestRun_TitleFilter(t *testing.T) {
	d := New().
		WithSearcher(&stubSearcher{listings: acmeListings()}).
		WithMXLookup(staticMX("mx.acme.com")).
		WithSearchOptions(SearchOptions{TitleKeywords: []string{"recruiter"}})

	report, err := d.Run(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)
	require.Len(t, report.Results, 4) // fallback ladder for one candidate
	for _, ec := range report.Results {
		assert.Equal(t, "John Doe", ec.Candidate.FullName)
	}
}

func TestRun_CapEnforcement(t *testing.T) {
	listings := make([]search.Listing, 20)
	for i := range listings {
		listings[i] = search.Listing{
			URL: fmt.Sprintf("https://linkedin.com/in/user%02d-test%02d", i, i),
		}
	}

	// Budget 7: one search variation, one pattern call, then exactly five
	// validations before the cap bites.
	d := New().
		WithSearcher(&stubSearcher{listings: listings}).
		WithPatternAPI(&stubPatternAPI{info: pattern.Info{Template: "{first}.{last}", Samples: 25}}).
		WithMXLookup(staticMX("mx.acme.com")).
		WithSearchOptions(SearchOptions{MaxResults: 20, PerQuery: 20, Fanout: 1}).
		WithLimits(LimitOptions{CallBudget: 7})

	report, err := d.Run(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)
	require.Len(t, report.Results, 20)

	assert.Len(t, report.ByStatus(types.StatusProbable), 5)
	assert.Len(t, report.ByStatus(types.StatusUnverifiable), 15)

	// Severity ordering: every probable result precedes every
	// unverifiable one.
	for i, ec := range report.Results {
		if i < 5 {
			assert.Equal(t, types.StatusProbable, ec.Validation.Status)
		} else {
			assert.Equal(t, types.StatusUnverifiable, ec.Validation.Status)
		}
	}
}

func TestRun_CacheReuseForCollidingAddresses(t *testing.T) {
	var mxLookups, dials atomic.Int64

	d := New().
		WithSearcher(&stubSearcher{listings: []search.Listing{
			{Text: "John Doe - Recruiter", URL: "https://linkedin.com/in/john-doe"},
			{Text: "Jon Doe - Recruiter", URL: "https://linkedin.com/in/jon-doe"},
		}}).
		WithPatternAPI(&stubPatternAPI{info: pattern.Info{Template: "{f}{last}", Samples: 25}}).
		WithMXLookup(func(ctx context.Context, domain string) ([]*net.MX, error) {
			mxLookups.Add(1)
			return mxRecords("mx.acme.com"), nil
		}).
		WithSMTP(SMTPOptions{
			Enabled:        true,
			HeloDomain:     "probe.test",
			MailFrom:       "verify@probe.test",
			ConnectTimeout: time.Second,
			CommandTimeout: time.Second,
			Dial: func(network, address string, timeout time.Duration) (net.Conn, error) {
				dials.Add(1)
				client, server := net.Pipe()
				go scriptedSMTP(server, "250 OK")
				return client, nil
			},
		})

	report, err := d.Run(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)

	// Both candidates collapse to jdoe@acme.com: one MX lookup, one SMTP
	// session, one shared result.
	require.Len(t, report.Results, 2)
	assert.Equal(t, "jdoe@acme.com", report.Results[0].Address)
	assert.Equal(t, "jdoe@acme.com", report.Results[1].Address)
	assert.Equal(t, report.Results[0].Validation, report.Results[1].Validation)
	assert.Equal(t, types.StatusValid, report.Results[0].Validation.Status)
	assert.Equal(t, int64(1), mxLookups.Load())
	assert.Equal(t, int64(1), dials.Load())
}

func TestDropPersonalDomains(t *testing.T) {
	guesses := []types.EmailCandidate{
		{Address: "john.doe@gmail.com"},
		{Address: "john.doe@acme.com"},
	}
	kept, warns := dropPersonalDomains(guesses)
	require.Len(t, kept, 1)
	assert.Equal(t, "john.doe@acme.com", kept[0].Address)
	assert.Len(t, warns, 1)
}

func TestReport_Summary(t *testing.T) {
	r := &Report{Results: []types.EmailCandidate{
		{Validation: types.ValidationResult{Status: types.StatusValid}},
		{Validation: types.ValidationResult{Status: types.StatusProbable}},
		{Validation: types.ValidationResult{Status: types.StatusProbable}},
		{Validation: types.ValidationResult{Status: types.StatusInvalid}},
	}}
	assert.Equal(t, "4 contacts: 1 valid, 2 probable, 0 unverifiable, 1 invalid", r.Summary())
}
