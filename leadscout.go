// Package leadscout discovers likely professional contacts at a target
// company and produces validated, probable email addresses for follow-up
// outreach.
//
// Given a company name and domain, a run collects candidate people from a
// search surface, resolves the company's address pattern, generates
// per-candidate guesses, and validates each guess through a layered
// pipeline (syntax, MX, optional SMTP probe) under shared rate limits and
// a global call budget.
//
// The entry point is the Discoverer builder:
//
//	report, err := leadscout.New().
//		WithSearcher(searcher).
//		WithPatternAPI(pattern.NewHunterClient(apiKey)).
//		WithSMTP(leadscout.SMTPOptions{Enabled: true, HeloDomain: "mail.example.com", MailFrom: "probe@example.com"}).
//		Run(ctx, "Acme", "acme.com")
package leadscout

import "github.com/optimode/leadscout/types"

// Re-exported result types, so most callers only import this package.
type (
	Candidate        = types.Candidate
	EmailPattern     = types.EmailPattern
	EmailCandidate   = types.EmailCandidate
	ValidationResult = types.ValidationResult
	FinalStatus      = types.FinalStatus
)

const (
	StatusValid        = types.StatusValid
	StatusProbable     = types.StatusProbable
	StatusInvalid      = types.StatusInvalid
	StatusUnverifiable = types.StatusUnverifiable
)
