package score

import (
	"strings"

	"github.com/littleweb/crawler/internal/crawl"
)

// categoryRule maps text patterns to a site archetype. Rules are ordered by
// specificity; the first match wins.
type categoryRule struct {
	category Category
	patterns []string
}

var categoryRules = []categoryRule{
	{CategoryWebring, []string{"webring", "web ring"}},
	{CategoryGuestbook, []string{"guestbook", "sign my book"}},
	{CategoryCommunity, []string{"forum", "community", "discussion board", "members"}},
	{CategoryResource, []string{"directory", "resources", "link collection", "awesome list", "bookmarks"}},
	{CategoryPortfolio, []string{"portfolio", "my work", "selected works", "case work"}},
}

// deriveCategory picks the site archetype from content patterns. The numeric
// score never feeds into this.
func deriveCategory(c crawl.ExtractedContent) Category {
	text := strings.ToLower(c.Title + " " + c.Description + " " + c.Snippet)
	for _, rule := range categoryRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(text, pattern) {
				return rule.category
			}
		}
	}
	if c.IsPersonalSite || c.HasIndieWebMarkers {
		return CategoryPersonalBlog
	}
	return CategoryOther
}
