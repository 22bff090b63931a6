package score

import (
	"regexp"
	"strings"
	"time"

	"github.com/littleweb/crawler/internal/crawl"
	"github.com/littleweb/crawler/internal/extract"
)

// Each sub-score is an independent pure function over the extracted content,
// returning its points and a human-readable reason when it contributed.

func scoreIndieWeb(c crawl.ExtractedContent) (int, []string) {
	points := 0
	var reasons []string
	if c.HasIndieWebMarkers {
		points += indieWebMarkerCredit
		reasons = append(reasons, "IndieWeb markers present (microformats/webmention/rel=me)")
	}
	if c.Author != "" {
		points += indieWebAuthorBonus
		reasons = append(reasons, "named author found")
	}
	if c.PublishedDate != "" {
		points += indieWebDateBonus
		reasons = append(reasons, "publication date found")
	}
	return clamp(points, IndieWebBand), reasons
}

var firstPersonPattern = regexp.MustCompile(`(?i)\b(i|my|me|mine|i'm|i've|i'll)\b`)

// indiePagePaths are site sections that mostly exist on small personal sites.
var indiePagePaths = []string{"/now", "/guestbook", "/blogroll", "/webring", "/links", "/uses"}

func scorePersonalSite(c crawl.ExtractedContent, pageURL string) (int, []string) {
	points := 0
	var reasons []string

	if c.IsPersonalSite {
		points += personalFlagWeight
		reasons = append(reasons, "personal-site phrasing in title/description")
	}
	if c.HasIndieWebMarkers {
		points += personalMarkerWeight
	}
	if c.Author != "" {
		points += personalAuthorWeight
	}
	if extract.IsPersonalDomain(pageURL) {
		points += personalDomainWeight
		reasons = append(reasons, "personal domain pattern")
	}
	if len(firstPersonPattern.FindAllString(c.Snippet, -1)) >= 3 {
		points += personalNarrativeWeight
		reasons = append(reasons, "first-person narrative voice")
	}
	if c.ContentLength > 0 && c.ContentLength < 50_000 && len(c.Links) <= 30 {
		points += personalScaleWeight
	}
	if hasIndiePages(c.Links) {
		points += personalIndiePagesWeight
		reasons = append(reasons, "indie site sections (/now, /guestbook, ...)")
	}

	return clamp(points, PersonalSiteBand), reasons
}

func hasIndiePages(links []string) bool {
	for _, link := range links {
		lower := strings.ToLower(link)
		for _, p := range indiePagePaths {
			if strings.HasSuffix(lower, p) || strings.Contains(lower, p+"/") {
				return true
			}
		}
	}
	return false
}

func scoreContentQuality(c crawl.ExtractedContent) (int, []string) {
	points := 0
	var reasons []string

	if c.ContentLength > 100 {
		points += contentBaseline
	}
	if c.ContentLength > 1000 {
		points += contentLongBonus
	}
	if c.Description != "" {
		points += contentDescBonus
	}
	if len(c.Keywords) >= 3 {
		points += contentKeywordBonus
	}
	if points > 0 {
		reasons = append(reasons, "substantive content")
	}

	// Link-farm shape: many links, hardly any prose.
	if len(c.Links) > 25 && c.ContentLength < 500 {
		points -= linkFarmPenalty
		reasons = append(reasons, "penalty: link farm shape (many links, little text)")
	}
	if len(c.Keywords) >= 10 && c.ContentLength < 300 {
		points -= keywordStuffingPenalty
		reasons = append(reasons, "penalty: keyword stuffing")
	}

	if points < 0 {
		points = 0
	}
	return clamp(points, ContentQualityBand), reasons
}

var staticGenerators = map[string]struct{}{
	"Hugo": {}, "Jekyll": {}, "Eleventy": {}, "Astro": {}, "Gatsby": {},
}

var blogCMSes = map[string]struct{}{
	"WordPress": {}, "Ghost": {}, "Blogger": {},
}

func scoreTechStack(c crawl.ExtractedContent) (int, []string) {
	if len(c.TechStack) == 0 {
		return techNoneScore, []string{"no detected framework (hand-written HTML)"}
	}
	best := techSiteBuilderScore
	for _, tech := range c.TechStack {
		if _, ok := staticGenerators[tech]; ok && techStaticGenScore > best {
			best = techStaticGenScore
		}
		if _, ok := blogCMSes[tech]; ok && techBlogCMSScore > best {
			best = techBlogCMSScore
		}
	}
	return clamp(best, TechStackBand),
		[]string{"tech stack: " + strings.Join(c.TechStack, ", ")}
}

func scoreLanguage(c crawl.ExtractedContent) (int, []string) {
	if c.Language != "" {
		return languageDetectedScore, []string{"language detected: " + c.Language}
	}
	return languageUnknownScore, nil
}

// scoreFreshness rewards recent content but keeps a non-zero floor for old
// pages: timelessness is not penalized.
func scoreFreshness(c crawl.ExtractedContent, now time.Time) (int, []string) {
	if c.PublishedDate == "" {
		return freshnessFloorScore, nil
	}
	published, err := time.Parse("2006-01-02", c.PublishedDate)
	if err != nil {
		return freshnessFloorScore, nil
	}
	age := now.Sub(published)
	switch {
	case age < 365*24*time.Hour:
		return freshnessRecentScore, []string{"recently updated"}
	case age < 3*365*24*time.Hour:
		return freshnessAgingScore, nil
	default:
		return freshnessFloorScore, nil
	}
}

func clamp(v, max int) int {
	if v > max {
		return max
	}
	if v < 0 {
		return 0
	}
	return v
}
