package leadscout

import (
	"fmt"
	"time"

	"github.com/optimode/leadscout/types"
)

// Report is the outcome of one discovery run. Results are ordered by
// status severity (valid, probable, unverifiable, invalid), ties broken
// by discovery order.
type Report struct {
	RunID      string                `json:"runId"`
	Company    string                `json:"company"`
	Domain     string                `json:"domain"`
	Pattern    types.EmailPattern    `json:"pattern"`
	Results    []types.EmailCandidate `json:"results"`
	Warnings   []string              `json:"warnings,omitempty"`
	StartedAt  time.Time             `json:"startedAt"`
	FinishedAt time.Time             `json:"finishedAt"`
}

// ByStatus returns the results with the given final status, in report
// order.
func (r *Report) ByStatus(status types.FinalStatus) []types.EmailCandidate {
	var out []types.EmailCandidate
	for _, ec := range r.Results {
		if ec.Validation.Status == status {
			out = append(out, ec)
		}
	}
	return out
}

// Summary returns a one-line count breakdown for logs and CLI output.
func (r *Report) Summary() string {
	counts := make(map[types.FinalStatus]int)
	for _, ec := range r.Results {
		counts[ec.Validation.Status]++
	}
	return fmt.Sprintf("%d contacts: %d valid, %d probable, %d unverifiable, %d invalid",
		len(r.Results),
		counts[types.StatusValid],
		counts[types.StatusProbable],
		counts[types.StatusUnverifiable],
		counts[types.StatusInvalid])
}
