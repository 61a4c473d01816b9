package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nmcnevin/Lead-System/pkg/leads"
)

func newTestEnricher(t *testing.T) *Enricher {
	t.Helper()
	cfg := DefaultConfig()
	cfg.VerifyMX = false
	return New(cfg, nil)
}

func TestExtractEmails(t *testing.T) {
	e := newTestEnricher(t)

	text := `Contact us at Sales@Acme.io or support@acme.io.
	Noise: noreply@sentry.wixpress.com, hello@example.com, admin@domain.com.`

	emails := e.ExtractEmails(text)
	assert.Equal(t, []string{"sales@acme.io", "support@acme.io"}, emails,
		"lowercased, deduplicated, denylist filtered")
}

func TestExtractEmailsIdempotent(t *testing.T) {
	e := newTestEnricher(t)
	text := "a@acme.io b@acme.io a@acme.io"

	first := e.ExtractEmails(text)
	second := e.ExtractEmails(text)
	assert.Equal(t, first, second)
}

func TestExtractEmailsCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEmails = 2
	e := New(cfg, nil)

	emails := e.ExtractEmails("a@acme.io b@acme.io c@acme.io d@acme.io")
	assert.Len(t, emails, 2)
}

func TestExtractSocial(t *testing.T) {
	html := `<html><body>
		<a href="https://www.facebook.com/acme">fb</a>
		<a href="https://www.facebook.com/acme-second">fb again</a>
		<a href="https://instagram.com/acme?hl=en">ig</a>
		<a href="https://example.com/about">plain</a>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	social := ExtractSocial(doc)
	assert.Equal(t, "https://www.facebook.com/acme", social["facebook"], "first match per platform wins")
	assert.Equal(t, "https://instagram.com/acme?hl=en", social["instagram"], "href kept raw")
	assert.NotContains(t, social, "twitter")
	assert.NotContains(t, social, "linkedin")
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://acme.io", NormalizeURL("acme.io"))
	assert.Equal(t, "http://acme.io", NormalizeURL("http://acme.io"))
	assert.Equal(t, "https://acme.io", NormalizeURL("  https://acme.io  "))
	assert.Equal(t, "", NormalizeURL(""))
}

func TestEnrichFetchesSelfSignedSite(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			Reach us: info@acme.io
			<a href="https://twitter.com/acme">tw</a>
		</body></html>`))
	}))
	defer srv.Close()

	e := newTestEnricher(t)
	rec := leads.NewRecord("Acme", "agency")
	rec.Website = srv.URL

	require.NoError(t, e.Enrich(context.Background(), rec))
	assert.Equal(t, []string{"info@acme.io"}, rec.Emails)
	assert.Equal(t, "https://twitter.com/acme", rec.Social["twitter"])
}

func TestEnrichFailureLeavesRecordUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse subsequent connections

	e := newTestEnricher(t)
	rec := leads.NewRecord("Acme", "agency")
	rec.Website = srv.URL

	err := e.Enrich(context.Background(), rec)
	assert.Error(t, err)
	assert.Empty(t, rec.Emails)
	assert.Empty(t, rec.Social)
}

func TestEnrichRateLimitPacesFetches(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>hi@acme.io</body></html>"))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.RatePerSecond = 10 // 100ms between fetches
	e := New(cfg, nil)

	first := leads.NewRecord("Alpha", "agency")
	first.Website = srv.URL + "/a"
	second := leads.NewRecord("Beta", "agency")
	second.Website = srv.URL + "/b"

	start := time.Now()
	require.NoError(t, e.Enrich(context.Background(), first))
	require.NoError(t, e.Enrich(context.Background(), second))

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond,
		"second fetch waits out the limiter")
}

func TestEnrichSkipsRecordsWithoutWebsite(t *testing.T) {
	e := newTestEnricher(t)
	rec := leads.NewRecord("Acme", "agency")

	require.NoError(t, e.Enrich(context.Background(), rec))
	assert.Empty(t, rec.Emails)
}
