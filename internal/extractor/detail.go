package extractor

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/Nmcnevin/Lead-System/internal/pacing"
	"github.com/Nmcnevin/Lead-System/internal/session"
	"github.com/Nmcnevin/Lead-System/pkg/leads"
)

// DetailExtractor navigates to one business's detail page and builds a
// LeadRecord from it.
type DetailExtractor struct {
	settle pacing.Delay
	logger *log.Logger
}

// NewDetailExtractor creates a detail extractor with the given settle
// delay applied after navigation, before the page is inspected.
func NewDetailExtractor(settle pacing.Delay, logger *log.Logger) *DetailExtractor {
	return &DetailExtractor{settle: settle, logger: logger}
}

// Extract loads url and populates a record. A page that never resolves a
// business name is unusable and yields nil; every other failure degrades
// to Unknown fields. Nothing propagates to the caller as an error.
func (d *DetailExtractor) Extract(ctx context.Context, sess *session.Session, url, category string) *leads.LeadRecord {
	if err := sess.Navigate(url); err != nil {
		d.logf("detail navigation failed", "url", url, "err", err)
		return nil
	}

	// Client-side rendering continues after load; give it room.
	d.settle.Sleep(ctx)

	if err := WaitHeading(sess.Page()); err != nil {
		d.logf("no heading rendered", "url", url)
		return nil
	}

	pg := sess.Page().Timeout(sess.ElementWait())

	name := Name(pg)
	if name == leads.Unknown {
		return nil
	}

	rec := leads.NewRecord(name, category)
	rec.Phone = Phone(pg)
	rec.Address = Address(pg)
	rec.Website = Website(pg)
	rec.Rating = Rating(pg)

	d.logf("extracted", "name", rec.Name)
	return rec
}

func (d *DetailExtractor) logf(msg string, kv ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, kv...)
	}
}
