// Package leads defines the public data model for the lead extraction
// pipeline. External tools can import this package to consume harvested
// records without depending on the pipeline internals.
package leads

import "time"

// Unknown is the sentinel stored in any record field that could not be
// resolved. Fields are never left empty or nil, so downstream consumers
// can treat every record uniformly.
const Unknown = "N/A"

// SocialPlatforms lists the platforms the enricher looks for, in the
// order used for display and CSV flattening.
var SocialPlatforms = []string{"facebook", "instagram", "twitter", "linkedin"}

// LeadRecord is one harvested business.
type LeadRecord struct {
	Name     string            `json:"name"`
	Category string            `json:"category"` // search keyword, not scraped
	Phone    string            `json:"phone"`
	Address  string            `json:"address"`
	Website  string            `json:"website"`
	Rating   string            `json:"rating"`
	Emails   []string          `json:"emails,omitempty"`
	Social   map[string]string `json:"social,omitempty"`
}

// NewRecord creates a record with every optional field set to Unknown.
// Name must be non-empty; callers reject pages that yield no name.
func NewRecord(name, category string) *LeadRecord {
	return &LeadRecord{
		Name:     name,
		Category: category,
		Phone:    Unknown,
		Address:  Unknown,
		Website:  Unknown,
		Rating:   Unknown,
	}
}

// HasWebsite reports whether the record carries a resolvable website URL.
func (r *LeadRecord) HasWebsite() bool {
	return r.Website != "" && r.Website != Unknown
}

// RunStats holds counters for a single pipeline run.
type RunStats struct {
	Found     int `json:"found"`
	Extracted int `json:"extracted"`
	Enriched  int `json:"enriched"`
	Errors    int `json:"errors"`
}

// ErrorLogEntry records one recoverable failure encountered during a run.
// Entries are appended as events occur and handed back with the result.
type ErrorLogEntry struct {
	Time    time.Time `json:"time"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

// ProgressSink receives human-readable status updates during a run.
// It decouples the pipeline from any specific rendering mechanism.
type ProgressSink func(status string)
