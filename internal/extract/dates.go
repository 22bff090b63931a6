package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// dateCandidates yields raw date strings in priority order. Unparseable
// candidates are skipped, never fatal.
var dateCandidates = []fieldSource{
	metaContent(`meta[property="article:published_time"]`),
	metaContent(`meta[name="date"]`),
	metaContent(`meta[name="dc.date"]`),
	func(doc *goquery.Document) string {
		v, _ := doc.Find("time[datetime]").First().Attr("datetime")
		return v
	},
	func(doc *goquery.Document) string {
		return doc.Find(".published, .post-date, .date, .dt-published").First().Text()
	},
}

// extractPublishedDate returns the first parseable candidate normalized to
// YYYY-MM-DD, or "" when no candidate parses.
func extractPublishedDate(doc *goquery.Document) string {
	for _, source := range dateCandidates {
		raw := strings.TrimSpace(source(doc))
		if raw == "" {
			continue
		}
		parsed, err := dateparse.ParseAny(raw)
		if err != nil {
			continue
		}
		return parsed.Format("2006-01-02")
	}
	return ""
}
