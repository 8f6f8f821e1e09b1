// Package export serializes discovery reports for follow-up outreach.
// The orchestrator knows nothing about output formats; this package is
// the only consumer of its result shape.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/optimode/leadscout"
)

// DefaultFilename is where the CLI writes results unless told otherwise.
const DefaultFilename = "followup_contacts.csv"

var header = []string{
	"name",
	"title",
	"email",
	"linkedin_url",
	"status",
	"pattern",
	"confidence",
	"syntax_valid",
	"mx",
	"smtp",
	"detail",
	"company_domain",
	"checked_at",
}

// WriteCSV writes the report's results to w in report order, one row per
// address guess, with a header row.
func WriteCSV(w io.Writer, report *leadscout.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, ec := range report.Results {
		checkedAt := ""
		if !ec.Validation.CheckedAt.IsZero() {
			checkedAt = ec.Validation.CheckedAt.Format(time.RFC3339)
		}
		row := []string{
			ec.Candidate.FullName,
			ec.Candidate.Title,
			ec.Address,
			ec.Candidate.ProfileURL,
			ec.Validation.Status,
			ec.Pattern.Template,
			ec.Pattern.Confidence,
			strconv.FormatBool(ec.Validation.SyntaxValid),
			ec.Validation.MX,
			ec.Validation.SMTP,
			ec.Validation.Detail,
			report.Domain,
			checkedAt,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", ec.Address, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the report to path, creating or truncating it.
func WriteFile(path string, report *leadscout.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := WriteCSV(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
