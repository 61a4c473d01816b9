// Package enrich mines contact data from a business's own website. It
// fetches over plain HTTP, independent of the browser session: the
// target is an ordinary site, not the directory, so a full render is
// wasted effort.
package enrich

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/gocolly/colly/v2"
	"github.com/miekg/dns"
	"golang.org/x/time/rate"

	"github.com/Nmcnevin/Lead-System/pkg/leads"
)

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

// emailDenylist filters placeholder and infrastructure addresses that
// show up in page templates but are not real contacts.
var emailDenylist = []string{"example", "test", "sentry", "wix", "domain.com"}

// socialDomains maps each platform key to the domain that identifies it
// in an anchor target. Each platform contributes at most one entry.
var socialDomains = map[string]string{
	"facebook":  "facebook.com",
	"instagram": "instagram.com",
	"twitter":   "twitter.com",
	"linkedin":  "linkedin.com",
}

// Config holds enrichment fetch and filtering settings.
type Config struct {
	Timeout     time.Duration
	UserAgent   string
	MaxEmails   int
	MaxBodySize int
	// VerifyMX drops mined emails whose domain has no MX record.
	VerifyMX bool
	// RatePerSecond caps fetches across callers; <=0 disables the limiter.
	RatePerSecond float64
}

// DefaultConfig returns the production enrichment settings.
func DefaultConfig() Config {
	return Config{
		Timeout:     5 * time.Second,
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		MaxEmails:   3,
		MaxBodySize: 2 * 1024 * 1024,
	}
}

// Enricher fetches business websites and extracts emails and social links.
type Enricher struct {
	cfg     Config
	base    *colly.Collector
	limiter *rate.Limiter
	logger  *log.Logger
}

// New creates an enricher.
func New(cfg Config, logger *log.Logger) *Enricher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxEmails == 0 {
		cfg.MaxEmails = 3
	}

	c := colly.NewCollector()
	c.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	if cfg.MaxBodySize > 0 {
		c.MaxBodySize = cfg.MaxBodySize
	}

	e := &Enricher{cfg: cfg, base: c, logger: logger}
	if cfg.RatePerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return e
}

// Enrich fetches rec's website and fills in Emails and Social. Any
// failure leaves the record untouched and is reported as an error; the
// caller treats enrichment failure as non-fatal.
func (e *Enricher) Enrich(ctx context.Context, rec *leads.LeadRecord) error {
	if !rec.HasWebsite() {
		return nil
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	doc, err := e.fetch(NormalizeURL(rec.Website))
	if err != nil {
		return fmt.Errorf("fetch website: %w", err)
	}

	emails := e.ExtractEmails(doc.Text())
	if len(emails) > 0 {
		rec.Emails = emails
	}
	if social := ExtractSocial(doc); len(social) > 0 {
		rec.Social = social
	}
	if e.logger != nil {
		e.logger.Debug("enriched", "website", rec.Website, "emails", len(rec.Emails), "social", len(rec.Social))
	}
	return nil
}

// fetch retrieves the page body with a clean collector per request.
// Certificate validation is off: the targets are uncontrolled third
// parties and enrichment is best-effort.
func (e *Enricher) fetch(target string) (*goquery.Document, error) {
	c := e.base.Clone()
	c.WithTransport(&http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	})
	c.SetRequestTimeout(e.cfg.Timeout)

	var body []byte
	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(target); err != nil {
		if !strings.Contains(err.Error(), "already visited") {
			return nil, err
		}
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// ExtractEmails pulls candidate addresses out of visible text,
// deduplicates, drops denylisted noise, and caps the result. Re-running
// on the same text yields the same set.
func (e *Enricher) ExtractEmails(text string) []string {
	seen := make(map[string]struct{})
	var emails []string
	for _, m := range emailPattern.FindAllString(text, -1) {
		email := strings.ToLower(strings.TrimSpace(m))
		if _, dup := seen[email]; dup || denylisted(email) {
			continue
		}
		if e.cfg.VerifyMX && !hasMXRecords(email) {
			continue
		}
		seen[email] = struct{}{}
		emails = append(emails, email)
		if len(emails) == e.cfg.MaxEmails {
			break
		}
	}
	return emails
}

// ExtractSocial scans all anchor targets and records the first matching
// href per platform, raw and unmodified.
func ExtractSocial(doc *goquery.Document) map[string]string {
	social := make(map[string]string)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}
		lower := strings.ToLower(href)
		for platform, domain := range socialDomains {
			if _, taken := social[platform]; taken {
				continue
			}
			if strings.Contains(lower, domain) {
				social[platform] = href
			}
		}
	})
	return social
}

// NormalizeURL prepends a secure scheme when the stored website URL
// lacks one.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http") {
		return "https://" + raw
	}
	return raw
}

func denylisted(email string) bool {
	for _, bad := range emailDenylist {
		if strings.Contains(email, bad) {
			return true
		}
	}
	return false
}

// hasMXRecords checks the address's domain for MX records against public
// resolvers. A miss means the address cannot receive mail.
func hasMXRecords(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return false
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(parts[1]), dns.TypeMX)
	msg.RecursionDesired = true

	client := new(dns.Client)
	for _, server := range []string{"8.8.8.8:53", "1.1.1.1:53"} {
		resp, _, err := client.Exchange(msg, server)
		if err != nil {
			continue
		}
		if resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0 {
			return true
		}
	}
	return false
}
