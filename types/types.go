// Package types contains the shared types for leadscout.
// This package does not import anything from other leadscout packages
// to avoid circular imports.
package types

import (
	"strings"
	"time"
)

// Candidate is a person discovered as a potential contact.
// Candidates are immutable after collection.
type Candidate struct {
	FullName   string `json:"fullName"`
	Title      string `json:"title,omitempty"`
	ProfileURL string `json:"profileUrl,omitempty"`
}

// Key returns the uniqueness key used for deduplication within a run:
// the normalized lowercase full name plus the profile URL when present.
func (c Candidate) Key() string {
	name := strings.ToLower(strings.Join(strings.Fields(c.FullName), " "))
	if c.ProfileURL == "" {
		return name
	}
	return name + "|" + strings.ToLower(c.ProfileURL)
}

// Template identifies an email address pattern. Each template maps a
// person's (first, last) name pair to a local part.
type Template = string

const (
	TemplateFirstDotLast Template = "first.last" // john.doe
	TemplateFirstLast    Template = "firstlast"  // johndoe
	TemplateFLast        Template = "flast"      // jdoe
	TemplateFDotLast     Template = "f.last"     // j.doe
	TemplateFirst        Template = "first"      // john
	TemplateFirstL       Template = "firstl"     // johnd
	TemplateLastDotFirst Template = "last.first" // doe.john
)

// PatternConfidence describes how an EmailPattern was obtained.
type PatternConfidence = string

const (
	// ConfidenceVerified means the pattern API returned the pattern with a
	// match count above the configured threshold.
	ConfidenceVerified PatternConfidence = "verified"
	// ConfidenceInferred means the pattern API returned the pattern but the
	// match count was low or ambiguous.
	ConfidenceInferred PatternConfidence = "inferred"
	// ConfidenceFallback means the pattern API was unavailable and a default
	// ranked guess is used instead.
	ConfidenceFallback PatternConfidence = "fallback"
)

// EmailPattern is a company-wide address template resolved once per domain
// per run.
type EmailPattern struct {
	Template   Template          `json:"template"`
	Confidence PatternConfidence `json:"confidence"`
	MatchCount int               `json:"matchCount,omitempty"`
}

// MXState is the tri-state outcome of the MX lookup stage. Unknown means
// the lookup itself failed or timed out, which is distinct from a domain
// that verifiably has no mail exchangers.
type MXState = string

const (
	MXNotChecked MXState = "not_checked"
	MXFound      MXState = "found"
	MXNone       MXState = "none"
	MXUnknown    MXState = "unknown"
)

// SMTPVerdict is the three-way outcome of the mailbox probe.
type SMTPVerdict = string

const (
	VerdictNotAttempted SMTPVerdict = "not_attempted"
	VerdictAccepted     SMTPVerdict = "accepted"
	VerdictRejected     SMTPVerdict = "rejected"
	VerdictInconclusive SMTPVerdict = "inconclusive"
)

// FinalStatus is the overall verdict for one address.
type FinalStatus = string

const (
	StatusValid        FinalStatus = "valid"
	StatusProbable     FinalStatus = "probable"
	StatusInvalid      FinalStatus = "invalid"
	StatusUnverifiable FinalStatus = "unverifiable"
)

// StatusRank orders final statuses for result sorting, best first.
// Unknown statuses sort last.
func StatusRank(s FinalStatus) int {
	switch s {
	case StatusValid:
		return 0
	case StatusProbable:
		return 1
	case StatusUnverifiable:
		return 2
	case StatusInvalid:
		return 3
	}
	return 4
}

// ValidationResult is the outcome of the validation pipeline for one
// address. Produced once per address per run, then immutable.
type ValidationResult struct {
	SyntaxValid bool        `json:"syntaxValid"`
	MX          MXState     `json:"mx"`
	SMTP        SMTPVerdict `json:"smtp"`
	Status      FinalStatus `json:"status"`
	Detail      string      `json:"detail,omitempty"`
	CheckedAt   time.Time   `json:"checkedAt"`
}

// EmailCandidate is one generated guess tied to a Candidate. The address
// domain always equals the run's target domain.
type EmailCandidate struct {
	Address    string           `json:"address"`
	Candidate  Candidate        `json:"candidate"`
	Pattern    EmailPattern     `json:"pattern"`
	Validation ValidationResult `json:"validation"`
}
