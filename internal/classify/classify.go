// Package classify supplies the domain-level classification consumed by the
// quality scorer. The production implementation is a static rule table; the
// scorer treats any Classifier as an opaque pure function.
package classify

import (
	"net/url"
	"strings"

	"github.com/littleweb/crawler/internal/score"
)

// Classifier produces a domain classification for a URL.
type Classifier interface {
	Classify(rawURL string) score.Classification
}

type domainRule struct {
	suffixes      []string
	platformType  string
	scoreModifier float64
	purpose       score.IndexingPurpose
	reason        string
}

// rules are ordered; the first host match wins.
var rules = []domainRule{
	{
		suffixes:      []string{"linkedin.com", "facebook.com", "crunchbase.com", "glassdoor.com", "yelp.com"},
		platformType:  "corporate_profile",
		scoreModifier: 0,
		purpose:       score.PurposeLinkExtraction,
		reason:        "corporate profile platform",
	},
	{
		suffixes:      []string{"medium.com", "substack.com", "blogspot.com", "wordpress.com", "tumblr.com"},
		platformType:  "hosted_blog",
		scoreModifier: 0.9,
		purpose:       "",
		reason:        "hosted blog platform",
	},
	{
		suffixes:      []string{"github.io", "gitlab.io", "neocities.org", "bearblog.dev", "omg.lol"},
		platformType:  "indie_hosting",
		scoreModifier: 1.1,
		purpose:       "",
		reason:        "indie hosting platform",
	},
	{
		suffixes:      []string{"amazonaws.com", "azurewebsites.net", "sedoparking.com", "parkingcrew.net"},
		platformType:  "infrastructure",
		scoreModifier: 0.5,
		purpose:       "",
		reason:        "infrastructure or parking host",
	},
}

// RuleTable is the static production Classifier.
type RuleTable struct{}

// NewRuleTable builds the default classifier.
func NewRuleTable() *RuleTable { return &RuleTable{} }

// Classify matches rawURL's host against the rule table. Unknown domains get
// a neutral classification.
func (t *RuleTable) Classify(rawURL string) score.Classification {
	host := hostOf(rawURL)
	if host == "" {
		return neutral()
	}
	for _, rule := range rules {
		for _, suffix := range rule.suffixes {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return score.Classification{
					PlatformType:    rule.platformType,
					ScoreModifier:   rule.scoreModifier,
					IndexingPurpose: rule.purpose,
					Reasons:         []string{rule.reason},
				}
			}
		}
	}
	return neutral()
}

func neutral() score.Classification {
	return score.Classification{ScoreModifier: 1.0}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
