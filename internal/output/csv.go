// Package output serializes harvested records for download. One row per
// record; multi-valued fields are flattened to delimited strings so the
// file opens cleanly in spreadsheet tools.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Nmcnevin/Lead-System/pkg/leads"
)

// Header lists the CSV columns in their fixed order.
var Header = []string{
	"Business Name",
	"Email ID",
	"Phone Number",
	"Location/Address",
	"Business Category",
	"Website URL",
	"Social Media",
	"Rating",
}

// CSVWriter writes lead records as CSV.
type CSVWriter struct{}

// NewCSVWriter creates a CSV output writer.
func NewCSVWriter() *CSVWriter { return &CSVWriter{} }

func (w *CSVWriter) Name() string { return "csv" }

// Write serializes records to out, header first.
func (w *CSVWriter) Write(out io.Writer, records []leads.LeadRecord) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(Row(rec)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile serializes records to a file at path.
func (w *CSVWriter) WriteFile(path string, records []leads.LeadRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return w.Write(f, records)
}

// Row flattens one record into its eight columns.
func Row(rec leads.LeadRecord) []string {
	return []string{
		rec.Name,
		joinEmails(rec.Emails),
		rec.Phone,
		rec.Address,
		rec.Category,
		rec.Website,
		joinSocial(rec.Social),
		rec.Rating,
	}
}

// DefaultFilename returns a timestamped output filename.
func DefaultFilename(now time.Time) string {
	return "leads_" + now.Format("20060102_150405") + ".csv"
}

func joinEmails(emails []string) string {
	if len(emails) == 0 {
		return leads.Unknown
	}
	return strings.Join(emails, ", ")
}

func joinSocial(social map[string]string) string {
	if len(social) == 0 {
		return leads.Unknown
	}
	var parts []string
	for _, platform := range leads.SocialPlatforms {
		if url, ok := social[platform]; ok {
			parts = append(parts, platform+": "+url)
		}
	}
	if len(parts) == 0 {
		return leads.Unknown
	}
	return strings.Join(parts, " | ")
}
