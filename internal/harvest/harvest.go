// Package harvest discovers business detail-page links for a search
// query by driving the directory's results panel: navigate, dismiss
// consent, scroll until the lazy-loaded list stops growing, then collect
// and dedupe entry links.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/Nmcnevin/Lead-System/internal/pacing"
	"github.com/Nmcnevin/Lead-System/internal/session"
	"github.com/Nmcnevin/Lead-System/pkg/leads"
)

const searchBaseURL = "https://www.google.com/maps/search/"

// placeFragment marks a URL as a business detail page.
const placeFragment = "/maps/place/"

// Harvest-level failures abort the run; they are distinguished so the
// caller can report panel problems separately from empty result sets.
var (
	ErrPanelNotFound = errors.New("no results panel found")
	ErrNoResults     = errors.New("no businesses found")
)

// Config bounds the scroll loop and names the locator chains.
type Config struct {
	MaxScrolls     int           // iteration budget for the scroll loop
	StableRounds   int           // unchanged-height rounds before early stop
	PanelWait      time.Duration // bounded wait per panel selector
	PanelSelectors []string      // role-based first, class-based fallback
	LinkSelectors  []string
	ScrollSettle   pacing.Delay
	FinalSettle    pacing.Delay
	SearchSettle   pacing.Delay
}

// DefaultConfig returns the production harvest settings.
func DefaultConfig(policy pacing.Policy) Config {
	return Config{
		MaxScrolls:     12,
		StableRounds:   2,
		PanelWait:      12 * time.Second,
		PanelSelectors: []string{"div[role='feed']", "div.m6QErb.DxyBCb"},
		LinkSelectors:  []string{"a[href*='/maps/place/']", "a.hfpxzc"},
		ScrollSettle:   policy.ScrollSettle,
		FinalSettle:    policy.FinalSettle,
		SearchSettle:   policy.SearchSettle,
	}
}

// Query is one search request.
type Query struct {
	Keyword    string
	Location   string // empty in global mode
	MaxResults int
}

// Harvester locates and drains the scrollable results panel.
type Harvester struct {
	cfg    Config
	logger *log.Logger
}

// New creates a harvester.
func New(cfg Config, logger *log.Logger) *Harvester {
	return &Harvester{cfg: cfg, logger: logger}
}

// BuildSearchURL composes the directory search URL for a query:
// "<keyword> in <location>" when a location is given, plus-encoded.
func BuildSearchURL(keyword, location string) string {
	query := keyword
	if location != "" {
		query = keyword + " in " + location
	}
	return searchBaseURL + strings.ReplaceAll(url.PathEscape(query), "%20", "+")
}

// Navigate loads the search page for q, lets client-side rendering
// settle, and dismisses the consent prompt when one appears. A load
// failure aborts the run.
func (h *Harvester) Navigate(ctx context.Context, sess *session.Session, q Query, sink leads.ProgressSink) error {
	report(sink, "Loading search results...")
	if err := sess.Navigate(BuildSearchURL(q.Keyword, q.Location)); err != nil {
		return fmt.Errorf("load search page: %w", err)
	}
	h.cfg.SearchSettle.Sleep(ctx)
	h.dismissConsent(sess.Page())
	return nil
}

// Collect locates the results panel, scrolls it until exhausted, and
// returns up to q.MaxResults detail-page URLs in discovery order.
func (h *Harvester) Collect(ctx context.Context, sess *session.Session, q Query, sink leads.ProgressSink) ([]string, error) {
	report(sink, "Finding results panel...")
	panel := h.findPanel(sess.Page())
	if panel == nil {
		return nil, ErrPanelNotFound
	}

	h.scrollPanel(ctx, sess.Page(), panel, sink)

	report(sink, "Collecting business links...")
	links := DedupeLinks(h.collectHrefs(sess.Page()), q.MaxResults)
	if len(links) == 0 {
		return nil, ErrNoResults
	}
	return links, nil
}

// dismissConsent clicks through a cookie prompt if one is shown. The
// prompt only appears for some regions and sessions; absence is normal.
func (h *Harvester) dismissConsent(pg *rod.Page) {
	els, err := pg.ElementsX("//button[contains(text(),'Accept')]")
	if err != nil || len(els) == 0 {
		return
	}
	if err := els[0].Click(proto.InputMouseButtonLeft, 1); err == nil {
		time.Sleep(time.Second)
	}
}

func (h *Harvester) findPanel(pg *rod.Page) *rod.Element {
	for _, sel := range h.cfg.PanelSelectors {
		el, err := pg.Timeout(h.cfg.PanelWait).Element(sel)
		if err != nil {
			continue
		}
		h.logf("results panel located", "selector", sel)
		return el
	}
	return nil
}

// scrollPanel repeatedly scrolls the container to its bottom so the
// directory lazy-loads more entries, stopping early once the content
// height stabilizes.
func (h *Harvester) scrollPanel(ctx context.Context, pg *rod.Page, panel *rod.Element, sink leads.ProgressSink) {
	st := newStability(h.cfg.StableRounds)
	for i := 0; i < h.cfg.MaxScrolls; i++ {
		if ctx.Err() != nil {
			return
		}
		if _, err := panel.Eval(`() => this.scrollTo(0, this.scrollHeight)`); err != nil {
			return
		}
		h.cfg.ScrollSettle.Sleep(ctx)

		obj, err := panel.Eval(`() => this.scrollHeight`)
		if err != nil {
			return
		}
		height := obj.Value.Num()

		if els, err := pg.Elements(h.cfg.LinkSelectors[0]); err == nil {
			report(sink, fmt.Sprintf("Scroll %d: found %d businesses", i+1, len(els)))
		}

		if st.observe(height) {
			break
		}
	}
	// Trailing async renders still land after the last scroll.
	h.cfg.FinalSettle.Sleep(ctx)
}

func (h *Harvester) collectHrefs(pg *rod.Page) []string {
	var hrefs []string
	for _, sel := range h.cfg.LinkSelectors {
		els, err := pg.Elements(sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if v, err := el.Attribute("href"); err == nil && v != nil {
				hrefs = append(hrefs, *v)
			}
		}
	}
	return hrefs
}

// DedupeLinks filters hrefs to detail-page URLs, collapses duplicates
// preserving discovery order, and truncates to max (0 means unlimited).
func DedupeLinks(hrefs []string, max int) []string {
	seen := make(map[string]struct{}, len(hrefs))
	var links []string
	for _, href := range hrefs {
		if href == "" || !strings.Contains(href, placeFragment) {
			continue
		}
		if _, dup := seen[href]; dup {
			continue
		}
		seen[href] = struct{}{}
		links = append(links, href)
		if max > 0 && len(links) == max {
			break
		}
	}
	return links
}

// stability tracks the panel's content height across scroll iterations
// and signals when it has stopped changing.
type stability struct {
	lastHeight float64
	same       int
	threshold  int
}

func newStability(threshold int) *stability {
	return &stability{threshold: threshold}
}

// observe records a height reading and reports whether the content is
// exhausted: the height must hold steady for threshold consecutive rounds.
func (s *stability) observe(height float64) bool {
	if height == s.lastHeight {
		s.same++
		return s.same >= s.threshold
	}
	s.same = 0
	s.lastHeight = height
	return false
}

func report(sink leads.ProgressSink, status string) {
	if sink != nil {
		sink(status)
	}
}

func (h *Harvester) logf(msg string, kv ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, kv...)
	}
}
