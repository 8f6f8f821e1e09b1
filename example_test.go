package leadscout_test

import (
	"context"
	"fmt"
	"net"

	"github.com/optimode/leadscout"
	"github.com/optimode/leadscout/pattern"
	"github.com/optimode/leadscout/search"
)

// exampleSearcher stands in for a real SERP-proxy endpoint.
type exampleSearcher struct{}

func (exampleSearcher) Search(ctx context.Context, query string, limit int) ([]search.Listing, error) {
	return []search.Listing{
		{Text: "John Doe - Recruiter at Acme", URL: "https://linkedin.com/in/john-doe"},
		{Text: "Jane Smith - HR Manager at Acme", URL: "https://linkedin.com/in/jane-smith"},
	}, nil
}

type examplePatternAPI struct{}

func (examplePatternAPI) DomainPattern(ctx context.Context, domain string) (pattern.Info, error) {
	return pattern.Info{Template: "{first}.{last}", Samples: 42}, nil
}

func ExampleDiscoverer_Run() {
	d := leadscout.New().
		WithSearcher(exampleSearcher{}).
		WithPatternAPI(examplePatternAPI{}).
		WithMXLookup(func(ctx context.Context, domain string) ([]*net.MX, error) {
			return []*net.MX{{Host: "mx.acme.com", Pref: 10}}, nil
		})

	report, err := d.Run(context.Background(), "Acme", "acme.com")
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, ec := range report.Results {
		fmt.Printf("%-22s %s\n", ec.Address, ec.Validation.Status)
	}
	// Output:
	// john.doe@acme.com      probable
	// jane.smith@acme.com    probable
}

func ExampleReport_Summary() {
	d := leadscout.New().
		WithSearcher(exampleSearcher{}).
		WithPatternAPI(examplePatternAPI{}).
		WithMXLookup(func(ctx context.Context, domain string) ([]*net.MX, error) {
			return nil, &net.DNSError{Err: "no such host", IsNotFound: true}
		})

	report, _ := d.Run(context.Background(), "Acme", "acme.com")
	fmt.Println(report.Summary())
	// Output: 2 contacts: 0 valid, 0 probable, 0 unverifiable, 2 invalid
}

func ExampleGenerate() {
	guesses := leadscout.Generate(
		leadscout.Candidate{FullName: "José Müller"},
		leadscout.EmailPattern{Template: "flast", Confidence: "verified"},
		"acme.com",
	)
	for _, g := range guesses {
		fmt.Println(g.Address)
	}
	// Output: jmuller@acme.com
}
