package leadscout

import (
	"strings"

	"github.com/optimode/leadscout/internal/names"
	"github.com/optimode/leadscout/pattern"
	"github.com/optimode/leadscout/types"
)

// slot builds a local part from normalized (first, last) name tokens.
type slot struct {
	build        func(first, last string) string
	requiresLast bool
}

var templateSlots = map[types.Template]slot{
	types.TemplateFirstDotLast: {func(f, l string) string { return f + "." + l }, true},
	types.TemplateFirstLast:    {func(f, l string) string { return f + l }, true},
	types.TemplateFLast:        {func(f, l string) string { return names.Initial(f) + l }, true},
	types.TemplateFDotLast:     {func(f, l string) string { return names.Initial(f) + "." + l }, true},
	types.TemplateFirst:        {func(f, l string) string { return f }, false},
	types.TemplateFirstL:       {func(f, l string) string { return f + names.Initial(l) }, true},
	types.TemplateLastDotFirst: {func(f, l string) string { return l + "." + f }, true},
}

// Generate applies the resolved pattern to one candidate, producing
// lowercase address guesses at the target domain. A fallback-confidence
// pattern emits one guess per ladder template to maximize recall under
// uncertainty; otherwise exactly one guess. Single-token names are
// restricted to templates that do not require a last name, degrading the
// resolved template to the single-slot fallbacks when necessary. Names
// that normalize to nothing produce no guesses.
func Generate(cand types.Candidate, pat types.EmailPattern, domain string) []types.EmailCandidate {
	first, last, ok := names.Split(cand.FullName)
	if !ok {
		return nil
	}
	single := last == ""
	domain = strings.ToLower(domain)

	type guess struct {
		template   types.Template
		confidence types.PatternConfidence
	}
	var guesses []guess
	switch {
	case pat.Confidence == types.ConfidenceFallback:
		for _, tmpl := range pattern.FallbackTemplates {
			guesses = append(guesses, guess{tmpl, types.ConfidenceFallback})
		}
	case single && templateSlots[pat.Template].requiresLast:
		// The resolved template needs a last name this candidate does not
		// have; degrade to the single-slot fallbacks for this one.
		for _, tmpl := range pattern.FallbackTemplates {
			guesses = append(guesses, guess{tmpl, types.ConfidenceFallback})
		}
	default:
		guesses = append(guesses, guess{pat.Template, pat.Confidence})
	}

	var (
		out  []types.EmailCandidate
		seen = make(map[string]struct{})
	)
	for _, g := range guesses {
		s, ok := templateSlots[g.template]
		if !ok {
			continue
		}
		if single && s.requiresLast {
			continue
		}
		local := s.build(first, last)
		if local == "" {
			continue
		}
		addr := local + "@" + domain
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}

		used := types.EmailPattern{
			Template:   g.template,
			Confidence: g.confidence,
		}
		if g.confidence == pat.Confidence && g.template == pat.Template {
			used.MatchCount = pat.MatchCount
		}
		out = append(out, types.EmailCandidate{
			Address:   addr,
			Candidate: cand,
			Pattern:   used,
			Validation: types.ValidationResult{
				MX:   types.MXNotChecked,
				SMTP: types.VerdictNotAttempted,
			},
		})
	}
	return out
}
