package pattern_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/leadscout/internal/fetch"
	"github.com/optimode/leadscout/pattern"
	"github.com/optimode/leadscout/types"
)

type fakeAPI struct {
	info  pattern.Info
	err   error
	calls atomic.Int64
}

func (f *fakeAPI) DomainPattern(ctx context.Context, domain string) (pattern.Info, error) {
	f.calls.Add(1)
	return f.info, f.err
}

func testPolicy() fetch.Policy {
	return fetch.Policy{MaxRetries: 0, BackoffBase: time.Millisecond, Timeout: time.Second}
}

func newResolver(api pattern.API, budget *fetch.Budget, cfg pattern.Config) *pattern.Resolver {
	return pattern.NewResolver(api, nil, budget, testPolicy(), cfg)
}

func TestResolve_Verified(t *testing.T) {
	api := &fakeAPI{info: pattern.Info{Template: "{first}.{last}", Samples: 25}}

	pat, warns := newResolver(api, fetch.NewBudget(0), pattern.Config{VerifiedThreshold: 10}).
		Resolve(context.Background(), "acme.com")
	assert.Empty(t, warns)
	assert.Equal(t, types.TemplateFirstDotLast, pat.Template)
	assert.Equal(t, types.ConfidenceVerified, pat.Confidence)
	assert.Equal(t, 25, pat.MatchCount)
}

func TestResolve_Inferred(t *testing.T) {
	api := &fakeAPI{info: pattern.Info{Template: "{f}{last}", Samples: 3}}

	pat, warns := newResolver(api, fetch.NewBudget(0), pattern.Config{VerifiedThreshold: 10}).
		Resolve(context.Background(), "acme.com")
	assert.Empty(t, warns)
	assert.Equal(t, types.TemplateFLast, pat.Template)
	assert.Equal(t, types.ConfidenceInferred, pat.Confidence)
}

func TestResolve_NoDataFallsBack(t *testing.T) {
	api := &fakeAPI{err: pattern.ErrNoPattern}

	pat, warns := newResolver(api, fetch.NewBudget(0), pattern.Config{}).
		Resolve(context.Background(), "acme.com")
	assert.Len(t, warns, 1)
	assert.Equal(t, types.ConfidenceFallback, pat.Confidence)
	assert.Equal(t, pattern.FallbackTemplates[0], pat.Template)
}

func TestResolve_APIFailureFallsBack(t *testing.T) {
	api := &fakeAPI{err: errors.New("upstream down")}

	pat, warns := newResolver(api, fetch.NewBudget(0), pattern.Config{}).
		Resolve(context.Background(), "acme.com")
	assert.Len(t, warns, 1)
	assert.Equal(t, types.ConfidenceFallback, pat.Confidence)
}

func TestResolve_NilAPIFallsBack(t *testing.T) {
	pat, warns := newResolver(nil, fetch.NewBudget(0), pattern.Config{}).
		Resolve(context.Background(), "acme.com")
	assert.Empty(t, warns)
	assert.Equal(t, types.ConfidenceFallback, pat.Confidence)
}

func TestResolve_CachedPerDomain(t *testing.T) {
	api := &fakeAPI{info: pattern.Info{Template: "{first}.{last}", Samples: 25}}
	r := newResolver(api, fetch.NewBudget(0), pattern.Config{})

	first, _ := r.Resolve(context.Background(), "acme.com")
	second, _ := r.Resolve(context.Background(), "Acme.COM")
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), api.calls.Load())

	r.Resolve(context.Background(), "other.com")
	assert.Equal(t, int64(2), api.calls.Load())
}

func TestResolve_BudgetExhausted(t *testing.T) {
	api := &fakeAPI{info: pattern.Info{Template: "{first}.{last}", Samples: 25}}
	budget := fetch.NewBudget(1)
	require.NoError(t, budget.Draw())

	pat, warns := newResolver(api, budget, pattern.Config{}).
		Resolve(context.Background(), "acme.com")
	assert.Len(t, warns, 1)
	assert.Equal(t, types.ConfidenceFallback, pat.Confidence)
	assert.Equal(t, int64(0), api.calls.Load())
}

func TestParseTemplate(t *testing.T) {
	cases := []struct {
		in   string
		want types.Template
		ok   bool
	}{
		{"{first}.{last}", types.TemplateFirstDotLast, true},
		{"{first}{last}", types.TemplateFirstLast, true},
		{"{f}{last}", types.TemplateFLast, true},
		{"{f}.{last}", types.TemplateFDotLast, true},
		{"{first}", types.TemplateFirst, true},
		{"{first}{l}", types.TemplateFirstL, true},
		{"{last}.{first}", types.TemplateLastDotFirst, true},
		{" {First}.{Last} ", types.TemplateFirstDotLast, true},
		{"first.last", types.TemplateFirstDotLast, true},
		{"{initial}{last}", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := pattern.ParseTemplate(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestHunterClient_DomainPattern(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme.com", r.URL.Query().Get("domain"))
		assert.Equal(t, "key123", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"data":{"pattern":"{first}.{last}","emails":[{"value":"a@acme.com","confidence":90},{"value":"b@acme.com","confidence":80}]}}`))
	}))
	defer srv.Close()

	c := &pattern.HunterClient{Endpoint: srv.URL, APIKey: "key123", Client: srv.Client()}
	info, err := c.DomainPattern(context.Background(), "acme.com")
	require.NoError(t, err)
	assert.Equal(t, "{first}.{last}", info.Template)
	assert.Equal(t, 2, info.Samples)
}

func TestHunterClient_NoPattern(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"pattern":null,"emails":[]}}`))
	}))
	defer srv.Close()

	c := &pattern.HunterClient{Endpoint: srv.URL, Client: srv.Client()}
	_, err := c.DomainPattern(context.Background(), "acme.com")
	assert.ErrorIs(t, err, pattern.ErrNoPattern)
}

func TestHunterClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &pattern.HunterClient{Endpoint: srv.URL, Client: srv.Client()}
	_, err := c.DomainPattern(context.Background(), "acme.com")
	assert.True(t, fetch.IsTransient(err))
}

func TestCleanDomain(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"acme.com", "acme.com", false},
		{"https://www.acme.com/careers", "acme.com", false},
		{"http://acme.com:8080", "acme.com", false},
		{"  ACME.COM  ", "acme.com", false},
		{"www.acme.co.uk/", "acme.co.uk", false},
		{"acme", "", true},
		{"", "", true},
		{"not a domain.com", "", true},
	}
	for _, tc := range cases {
		got, err := pattern.CleanDomain(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		assert.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}
