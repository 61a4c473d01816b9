// Package extractor pulls individual business fields out of a loaded
// detail page. The directory's markup is unstable and varies by locale
// and experiment, so every field tries an ordered list of locators,
// most specific first, and falls back to the Unknown sentinel instead
// of failing.
package extractor

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/Nmcnevin/Lead-System/pkg/leads"
)

// NameWait bounds the wait for a name-bearing heading to render.
const NameWait = 8 * time.Second

// phonePattern matches a leading + or digit followed by at least seven
// digit/space/hyphen/paren characters.
var phonePattern = regexp.MustCompile(`[\+\d][\d\s\-\(\)]{7,}`)

var nameSelectors = []string{
	"h1.DUwDvf",
	"h1.fontHeadlineLarge",
	"div[role='main'] h1",
}

var phoneXPaths = []string{
	"//button[@data-item-id='phone:tel']",
	"//button[contains(@aria-label,'Phone')]",
	"//a[starts-with(@href,'tel:')]",
}

var addressXPaths = []string{
	"//button[@data-item-id='address']",
	"//button[contains(@aria-label,'Address')]",
	"//div[contains(@class,'rogA2c')]",
}

var websiteXPaths = []string{
	"//a[@data-item-id='authority']",
	"//a[contains(@aria-label,'Website')]",
	"//a[contains(@href,'http') and not(contains(@href,'google'))]",
}

const ratingXPath = "//div[@class='F7nice']//span[@aria-hidden='true']"

// WaitHeading blocks until a name-bearing heading is present, bounded by
// NameWait. A timeout means the page never rendered into a usable state.
func WaitHeading(pg *rod.Page) error {
	_, err := pg.Timeout(NameWait).Element("h1.DUwDvf, h1.fontHeadlineLarge")
	return err
}

// Name returns the business name, or Unknown if no heading yields text.
func Name(pg *rod.Page) string {
	for _, sel := range nameSelectors {
		els, err := pg.Elements(sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			txt, err := el.Text()
			if err != nil {
				continue
			}
			if txt = strings.TrimSpace(txt); txt != "" {
				return txt
			}
		}
	}
	return leads.Unknown
}

// Phone scans each phone affordance's accessible label, tel: link target
// and visible text, in that order; the first phone-shaped match wins.
func Phone(pg *rod.Page) string {
	for _, xp := range phoneXPaths {
		els, err := pg.ElementsX(xp)
		if err != nil {
			continue
		}
		for _, el := range els {
			aria := attr(el, "aria-label")
			href := attr(el, "href")
			txt, _ := el.Text()
			if m := MatchPhone([]string{aria, strings.TrimPrefix(href, "tel:"), txt}); m != "" {
				return m
			}
		}
	}
	return leads.Unknown
}

// Address prefers the accessible label (value after the last colon) over
// the element's visible text.
func Address(pg *rod.Page) string {
	for _, xp := range addressXPaths {
		els, err := pg.ElementsX(xp)
		if err != nil || len(els) == 0 {
			continue
		}
		el := els[0]
		if aria := attr(el, "aria-label"); aria != "" {
			return AddressFromLabel(aria)
		}
		if txt, err := el.Text(); err == nil {
			if txt = strings.TrimSpace(txt); txt != "" {
				return txt
			}
		}
	}
	return leads.Unknown
}

// Website returns the first outbound link that does not point back into
// the directory's own domain. The href is returned unmodified.
func Website(pg *rod.Page) string {
	for _, xp := range websiteXPaths {
		els, err := pg.ElementsX(xp)
		if err != nil {
			continue
		}
		for _, el := range els {
			href := attr(el, "href")
			if ExternalWebsite(href) {
				return href
			}
		}
	}
	return leads.Unknown
}

// Rating reads the aggregate rating element's hidden-to-humans numeric child.
func Rating(pg *rod.Page) string {
	els, err := pg.ElementsX(ratingXPath)
	if err != nil || len(els) == 0 {
		return leads.Unknown
	}
	txt, err := els[0].Text()
	if err != nil {
		return leads.Unknown
	}
	if txt = strings.TrimSpace(txt); txt != "" {
		return txt
	}
	return leads.Unknown
}

// MatchPhone applies the phone pattern to each candidate string in order
// and returns the first match, trimmed.
func MatchPhone(candidates []string) string {
	for _, s := range candidates {
		if s == "" {
			continue
		}
		if m := phonePattern.FindString(s); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// AddressFromLabel extracts the address value from an accessible label.
// Labels take the form "Address: 1 Main St"; the substring after the
// last colon is the value.
func AddressFromLabel(label string) string {
	label = strings.TrimSpace(label)
	if idx := strings.LastIndex(label, ":"); idx != -1 {
		return strings.TrimSpace(label[idx+1:])
	}
	return label
}

// ExternalWebsite reports whether href is a usable outbound business
// website rather than a link back into the directory.
func ExternalWebsite(href string) bool {
	return strings.Contains(href, "http") && !strings.Contains(href, "google")
}

func attr(el *rod.Element, name string) string {
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}
