// Package extract parses fetched HTML into a normalized content record.
// Extraction is a pure function over the document: no network access, no
// mutation of shared state, and no errors for degraded inputs. Missing fields
// fall back to neutral defaults.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/littleweb/crawler/internal/crawl"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 500
	maxSnippetLen     = 300
	maxKeywords       = 10
	maxLinks          = 20
)

// fieldSource produces one candidate value for a field. Sources are tried in
// order and the first non-empty trimmed result wins.
type fieldSource func(doc *goquery.Document) string

var titleSources = []fieldSource{
	metaContent(`meta[property="og:title"]`),
	metaContent(`meta[name="twitter:title"]`),
	func(doc *goquery.Document) string { return doc.Find("title").First().Text() },
	func(doc *goquery.Document) string { return doc.Find("h1").First().Text() },
}

var descriptionSources = []fieldSource{
	metaContent(`meta[name="description"]`),
	metaContent(`meta[property="og:description"]`),
	metaContent(`meta[name="twitter:description"]`),
}

var authorSources = []fieldSource{
	metaContent(`meta[name="author"]`),
	metaContent(`meta[property="article:author"]`),
	func(doc *goquery.Document) string {
		return doc.Find(`[rel="author"], .author, .p-author, .byline`).First().Text()
	},
}

// snippetSelectors are tried in order for the main content container.
var snippetSelectors = []string{
	"main", "article", ".content", "#content", ".post", ".entry", ".page", "body",
}

// Extract parses html fetched from pageURL into an ExtractedContent record.
// Malformed HTML still yields a usable record; goquery tolerates tag soup.
func Extract(html, pageURL string, extractAllLinks bool) crawl.ExtractedContent {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Unparseable input degrades to an empty record rather than an error.
		return crawl.ExtractedContent{Title: "Untitled"}
	}

	lowerHTML := strings.ToLower(html)
	bodyText := normalizeSpace(textWithoutChrome(doc, "body"))

	content := crawl.ExtractedContent{
		Title:         truncate(firstNonEmpty(doc, titleSources, "Untitled"), maxTitleLen),
		Description:   truncate(firstNonEmpty(doc, descriptionSources, ""), maxDescriptionLen),
		Snippet:       extractSnippet(doc),
		Author:        truncate(firstNonEmpty(doc, authorSources, ""), maxTitleLen),
		PublishedDate: extractPublishedDate(doc),
		Keywords:      extractKeywords(doc),
		Links:         extractLinks(doc, pageURL, extractAllLinks),
		ContentLength: len(bodyText),
	}
	content.Language = DetectLanguage(bodyText)
	content.HasIndieWebMarkers = hasIndieWebMarkers(lowerHTML)
	content.IsParked = isParked(lowerHTML)
	content.TechStack = detectTechStack(doc, lowerHTML)
	content.IsPersonalSite = isPersonalSite(
		content.Title+" "+content.Description+" "+content.Snippet, pageURL)
	return content
}

func firstNonEmpty(doc *goquery.Document, sources []fieldSource, fallback string) string {
	for _, source := range sources {
		if v := normalizeSpace(source(doc)); v != "" {
			return v
		}
	}
	return fallback
}

func metaContent(selector string) fieldSource {
	return func(doc *goquery.Document) string {
		v, _ := doc.Find(selector).First().Attr("content")
		return v
	}
}

func extractSnippet(doc *goquery.Document) string {
	for _, selector := range snippetSelectors {
		text := normalizeSpace(textWithoutChrome(doc, selector))
		if text != "" {
			return truncate(text, maxSnippetLen)
		}
	}
	return ""
}

// textWithoutChrome returns the text of the first node matching selector with
// script, style and page-chrome subtrees removed.
func textWithoutChrome(doc *goquery.Document, selector string) string {
	node := doc.Find(selector).First()
	if node.Length() == 0 {
		return ""
	}
	clone := node.Clone()
	clone.Find("script, style, noscript, nav, header, footer, aside, .sidebar").Remove()
	return clone.Text()
}

func extractKeywords(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	keywords := make([]string, 0, maxKeywords)

	add := func(word string) {
		word = strings.ToLower(strings.TrimSpace(word))
		if len(word) < 3 || len(keywords) >= maxKeywords {
			return
		}
		if _, ok := seen[word]; ok {
			return
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	if meta, ok := doc.Find(`meta[name="keywords"]`).First().Attr("content"); ok {
		for _, token := range strings.Split(meta, ",") {
			add(token)
		}
	}

	doc.Find("h1, h2, h3").Each(func(_ int, heading *goquery.Selection) {
		added := 0
		for _, word := range strings.Fields(heading.Text()) {
			if !isSignificantWord(word) {
				continue
			}
			add(word)
			added++
			if added >= 3 {
				break
			}
		}
	})

	return keywords
}

func extractLinks(doc *goquery.Document, pageURL string, extractAll bool) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}
	seen := make(map[string]struct{})
	links := make([]string, 0, maxLinks)

	doc.Find("a[href]").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		href, _ := anchor.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") {
			return true
		}
		resolved := href
		if base != nil {
			ref, perr := url.Parse(href)
			if perr != nil {
				return true
			}
			abs := base.ResolveReference(ref)
			if abs.Scheme != "http" && abs.Scheme != "https" {
				return true
			}
			abs.Fragment = ""
			resolved = abs.String()
		}
		if _, ok := seen[resolved]; ok {
			return true
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
		return extractAll || len(links) < maxLinks
	})

	return links
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"from": {}, "your": {}, "about": {}, "are": {}, "was": {}, "have": {},
	"not": {}, "you": {}, "all": {}, "can": {}, "how": {}, "what": {},
}

func isSignificantWord(word string) bool {
	word = strings.ToLower(strings.Trim(word, ".,!?:;\"'()[]"))
	if len(word) < 4 {
		return false
	}
	_, stop := stopWords[word]
	return !stop
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary so multibyte text is not split mid-character.
	runes := []rune(s)
	for len(string(runes)) > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
