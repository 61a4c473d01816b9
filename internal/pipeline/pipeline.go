// Package pipeline sequences a full lead-extraction run: acquire a
// browser session, harvest entry links, extract each detail page,
// enrich contacts, and hand back records plus stats and an error log.
// One run owns one session and processes links strictly sequentially;
// browser state is single-threaded per session.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Nmcnevin/Lead-System/internal/enrich"
	"github.com/Nmcnevin/Lead-System/internal/extractor"
	"github.com/Nmcnevin/Lead-System/internal/harvest"
	"github.com/Nmcnevin/Lead-System/internal/session"
	"github.com/Nmcnevin/Lead-System/pkg/leads"
)

// Run-fatal failure classes. Wrapped into the result error so callers
// can distinguish them with errors.Is; harvest contributes
// ErrPanelNotFound and ErrNoResults to the same taxonomy.
var (
	ErrDriver     = errors.New("browser failed to start")
	ErrNavigation = errors.New("failed to load search page")
)

// State identifies where in the run the pipeline currently is.
type State string

const (
	StateIdle             State = "idle"
	StateAcquiringSession State = "acquiring_session"
	StateNavigating       State = "navigating"
	StateHarvesting       State = "harvesting"
	StateExtracting       State = "extracting"
	StateEnriching        State = "enriching"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// Request is one run's input, as collected by the front-end collaborator.
type Request struct {
	Keyword        string
	Location       string // empty in global mode
	MaxResults     int
	EnrichContacts bool
}

// Result is everything a run hands back. Err is non-nil only on total
// failure; a successful run with zero usable pages still returns nil Err.
type Result struct {
	Records []leads.LeadRecord
	Stats   leads.RunStats
	Errors  []leads.ErrorLogEntry
	Err     error
}

// SessionManager acquires and releases browser sessions.
type SessionManager interface {
	Acquire() (*session.Session, error)
	Release(*session.Session)
}

// Harvester loads the search page and collects entry links from it.
type Harvester interface {
	Navigate(ctx context.Context, sess *session.Session, q harvest.Query, sink leads.ProgressSink) error
	Collect(ctx context.Context, sess *session.Session, q harvest.Query, sink leads.ProgressSink) ([]string, error)
}

// DetailExtractor builds a record from one detail page, or nil when the
// page is unusable.
type DetailExtractor interface {
	Extract(ctx context.Context, sess *session.Session, url, category string) *leads.LeadRecord
}

// Enricher adds emails and social links to a record with a known website.
type Enricher interface {
	Enrich(ctx context.Context, rec *leads.LeadRecord) error
}

// Runner drives one run at a time through the component chain.
type Runner struct {
	cfg       *Config
	sessions  SessionManager
	harvester Harvester
	details   DetailExtractor
	enricher  Enricher
	logger    *log.Logger
	state     State
}

// New wires a runner with the real browser-backed components.
func New(cfg *Config, logger *log.Logger) *Runner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Runner{
		cfg:       cfg,
		sessions:  session.NewManager(cfg.Session, sub(logger, "session")),
		harvester: harvest.New(cfg.Harvest, sub(logger, "harvest")),
		details:   extractor.NewDetailExtractor(cfg.Pacing.DetailSettle, sub(logger, "extract")),
		enricher:  enrich.New(cfg.Enrich, sub(logger, "enrich")),
		logger:    logger,
		state:     StateIdle,
	}
}

// State returns the runner's current state.
func (r *Runner) State() State { return r.state }

// runContext carries one run's accumulated state. It replaces the
// process-wide mutable state of earlier designs: created at run start,
// threaded through the run, handed back at run end.
type runContext struct {
	records []leads.LeadRecord
	stats   leads.RunStats
	errors  []leads.ErrorLogEntry
	sink    leads.ProgressSink
}

func (rc *runContext) logError(kind, message, detail string) {
	rc.errors = append(rc.errors, leads.ErrorLogEntry{
		Time:    time.Now(),
		Kind:    kind,
		Message: message,
		Detail:  detail,
	})
}

func (rc *runContext) report(status string) {
	if rc.sink != nil {
		rc.sink(status)
	}
}

func (rc *runContext) result(err error) Result {
	return Result{Records: rc.records, Stats: rc.stats, Errors: rc.errors, Err: err}
}

// Run executes one extraction run. The session is released on every
// exit path. An unanticipated panic is captured as a critical failure;
// records extracted up to that point are returned alongside the error
// rather than discarded.
func (r *Runner) Run(ctx context.Context, req Request, sink leads.ProgressSink) (res Result) {
	rc := &runContext{sink: sink}

	defer func() {
		if p := recover(); p != nil {
			r.state = StateFailed
			rc.logError("CRITICAL", fmt.Sprint(p), "")
			if r.logger != nil {
				r.logger.Error("run aborted", "cause", p)
			}
			res = rc.result(fmt.Errorf("critical failure: %v", p))
		}
	}()

	if req.Keyword == "" {
		r.state = StateFailed
		return rc.result(errors.New("keyword is required"))
	}
	q := harvest.Query{
		Keyword:    req.Keyword,
		Location:   req.Location,
		MaxResults: clampResults(req.MaxResults),
	}

	r.state = StateAcquiringSession
	rc.report("Starting browser...")
	sess, err := r.sessions.Acquire()
	if err != nil {
		r.state = StateFailed
		rc.logError("DRIVER", "browser failed to start", err.Error())
		return rc.result(fmt.Errorf("%w: %w", ErrDriver, err))
	}
	defer r.sessions.Release(sess)

	r.state = StateNavigating
	if err := r.harvester.Navigate(ctx, sess, q, sink); err != nil {
		r.state = StateFailed
		rc.logError("NAVIGATION", "failed to load search page", err.Error())
		return rc.result(fmt.Errorf("%w: %w", ErrNavigation, err))
	}

	r.state = StateHarvesting
	links, err := r.harvester.Collect(ctx, sess, q, sink)
	if err != nil {
		r.state = StateFailed
		rc.logError("HARVEST", err.Error(), "")
		return rc.result(err)
	}
	rc.stats.Found = len(links)
	rc.report(fmt.Sprintf("Found %d businesses", len(links)))

	r.state = StateExtracting
	for i, link := range links {
		if ctx.Err() != nil {
			r.state = StateFailed
			return rc.result(ctx.Err())
		}
		rc.report(fmt.Sprintf("Extracting %d/%d...", i+1, len(links)))

		rec := r.details.Extract(ctx, sess, link, req.Keyword)
		if rec == nil {
			rc.stats.Errors++
			rc.logError("PAGE", "detail page rejected", link)
		} else {
			rc.records = append(rc.records, *rec)
			rc.stats.Extracted++
		}

		r.cfg.Pacing.BetweenDetails.Sleep(ctx)
	}

	if req.EnrichContacts && len(rc.records) > 0 {
		r.state = StateEnriching
		rc.report("Scraping websites for contacts...")
		for i := range rc.records {
			rec := &rc.records[i]
			if !rec.HasWebsite() {
				continue
			}
			if ctx.Err() != nil {
				r.state = StateFailed
				return rc.result(ctx.Err())
			}
			rc.report(fmt.Sprintf("Website %d/%d: %s", i+1, len(rc.records), truncate(rec.Name, 25)))

			if err := r.enricher.Enrich(ctx, rec); err != nil {
				rc.logError("ENRICHMENT", "website fetch failed", err.Error())
				continue
			}
			if len(rec.Emails) > 0 {
				rc.stats.Enriched++
			}

			r.cfg.Pacing.BetweenEnrichments.Sleep(ctx)
		}
	}

	r.state = StateDone
	return rc.result(nil)
}

// truncate shortens s to at most maxLen characters, cutting on rune
// boundaries so multi-byte names stay intact.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

func sub(logger *log.Logger, prefix string) *log.Logger {
	if logger == nil {
		return nil
	}
	return logger.WithPrefix(prefix)
}
