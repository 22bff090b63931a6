package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// indieWebMarkers are HTML conventions of independently run personal sites:
// microformats, webmention endpoints and rel=me identity links.
var indieWebMarkers = []string{
	`rel="me"`,
	`rel='me'`,
	"h-card",
	"h-entry",
	"h-feed",
	"p-name",
	"u-url",
	"webmention",
	"indieauth",
	"microformats",
}

func hasIndieWebMarkers(lowerHTML string) bool {
	for _, marker := range indieWebMarkers {
		if strings.Contains(lowerHTML, marker) {
			return true
		}
	}
	return false
}

// parkedMarkers identify placeholder pages served by registrars and parking
// services; these must never be admitted to the catalog.
var parkedMarkers = []string{
	"this domain is for sale",
	"domain for sale",
	"buy this domain",
	"domain is parked",
	"parked free, courtesy of godaddy",
	"sedoparking",
	"parkingcrew",
	"domain parking",
	"hugedomains",
	"dan.com",
	"afternic",
	"this web page is parked",
	"related searches",
}

func isParked(lowerHTML string) bool {
	for _, marker := range parkedMarkers {
		if strings.Contains(lowerHTML, marker) {
			return true
		}
	}
	return false
}

var personalPhrases = []string{
	"my blog", "my website", "my site", "my homepage", "my thoughts",
	"personal blog", "personal website", "personal site", "my projects",
	"about me", "i write about", "i'm a", "i am a", "welcome to my",
}

// personalDomainPattern matches hosting conventions of individual sites:
// user pages on github/gitlab/neocities and name-shaped apex domains.
var personalDomainPattern = regexp.MustCompile(
	`(github\.io|gitlab\.io|neocities\.org|bearblog\.dev|omg\.lol|tilde\.|` +
		`^[a-z]+[-.]?[a-z]+\.(me|name|blog|im|xyz|dev|page)$)`)

func isPersonalSite(text, pageURL string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range personalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return IsPersonalDomain(pageURL)
}

// IsPersonalDomain reports whether pageURL's host looks like an individual's
// domain rather than an organization's.
func IsPersonalDomain(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return personalDomainPattern.MatchString(strings.ToLower(u.Hostname()))
}

// techSignature detects a site generator or framework from either the
// generator meta tag or a raw HTML fingerprint.
type techSignature struct {
	name        string
	generator   string
	htmlPattern string
}

var techSignatures = []techSignature{
	{name: "Hugo", generator: "hugo"},
	{name: "Jekyll", generator: "jekyll"},
	{name: "Eleventy", generator: "eleventy"},
	{name: "Astro", generator: "astro", htmlPattern: "astro-island"},
	{name: "Gatsby", generator: "gatsby", htmlPattern: "___gatsby"},
	{name: "Next.js", htmlPattern: "__next"},
	{name: "Nuxt", htmlPattern: "__nuxt"},
	{name: "WordPress", generator: "wordpress", htmlPattern: "wp-content"},
	{name: "Ghost", generator: "ghost"},
	{name: "Squarespace", htmlPattern: "squarespace.com"},
	{name: "Wix", htmlPattern: "wix.com"},
	{name: "Blogger", generator: "blogger"},
	{name: "React", htmlPattern: `id="root"`},
}

func detectTechStack(doc *goquery.Document, lowerHTML string) []string {
	generator, _ := doc.Find(`meta[name="generator"]`).First().Attr("content")
	generator = strings.ToLower(generator)

	var stack []string
	seen := make(map[string]struct{})
	for _, sig := range techSignatures {
		matched := sig.generator != "" && generator != "" && strings.Contains(generator, sig.generator)
		if !matched && sig.htmlPattern != "" {
			matched = strings.Contains(lowerHTML, strings.ToLower(sig.htmlPattern))
		}
		if !matched {
			continue
		}
		if _, ok := seen[sig.name]; ok {
			continue
		}
		seen[sig.name] = struct{}{}
		stack = append(stack, sig.name)
	}
	return stack
}
