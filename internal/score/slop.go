package score

import (
	"regexp"
	"strings"

	"github.com/littleweb/crawler/internal/crawl"
)

// corporatePattern matches organizational language that marks a site as a
// company presence rather than a personal one.
var corporatePattern = regexp.MustCompile(`(?i)\b(` +
	`our (team|clients|mission|services|company)|enterprise|b2b|saas platform|` +
	`industry[- ]leading|leading provider|request a demo|book a demo|` +
	`trusted by|case stud(y|ies)|roi|synergy|stakeholders|` +
	`terms of service apply|all rights reserved\. [a-z]+ inc` +
	`)\b`)

// corporateShape is the structural threshold typical of organizations:
// long boilerplate description plus heavy navigation.
const (
	corporateTextThreshold = 30_000
	corporateLinkThreshold = 40
)

func corporateScorePenalty(c crawl.ExtractedContent) (int, string) {
	combined := c.Title + " " + c.Description + " " + c.Snippet
	if corporatePattern.MatchString(combined) {
		return CorporatePenalty, "penalty: corporate language"
	}
	if c.ContentLength > corporateTextThreshold && len(c.Links) > corporateLinkThreshold {
		return CorporatePenalty, "penalty: organization-scale page shape"
	}
	return 0, ""
}

// slopPhrases are filler constructions common in generated or farmed text.
var slopPhrases = []string{
	"in today's fast-paced world",
	"in today's digital age",
	"it's important to note",
	"it is important to note",
	"in this article, we will",
	"in this blog post, we will",
	"unlock the power of",
	"unleash the potential",
	"game-changer",
	"revolutionize the way",
	"seamlessly integrate",
	"delve into",
	"dive deep into",
	"in conclusion,",
	"look no further",
	"elevate your",
	"a testament to",
	"navigating the landscape",
	"ever-evolving",
}

const slopHeavyCount = 3

// listiclePattern matches the generic numbered-skeleton shape of generated
// articles ("1. Introduction ... 2. Benefits ...").
var listiclePattern = regexp.MustCompile(
	`(?i)1\.\s*introduction.{0,400}2\.\s*(benefits|advantages|why)`)

// Lexical diversity below this ratio suggests generated or stuffed content.
// The word floor is sized to the bounded snippet sample, not full-page text.
const (
	diversityMinWords = 40
	diversityFloor    = 0.3
)

// slopScorePenalty combines three independent generated-text signals: known
// filler phrases (staged), the listicle skeleton, and abnormally low lexical
// diversity. Each contributes its own reason entry.
func slopScorePenalty(c crawl.ExtractedContent) (int, []string) {
	text := strings.ToLower(c.Snippet + " " + c.Description)
	penalty := 0
	var reasons []string

	matches := 0
	for _, phrase := range slopPhrases {
		if strings.Contains(text, phrase) {
			matches++
		}
	}
	switch {
	case matches >= slopHeavyCount:
		penalty += SlopHeavyPenalty
		reasons = append(reasons, "penalty: heavy AI-filler phrasing")
	case matches > 0:
		penalty += SlopBasePenalty
		reasons = append(reasons, "penalty: AI-filler phrasing")
	}

	if listiclePattern.MatchString(text) {
		penalty += SlopListiclePenalty
		reasons = append(reasons, "penalty: generic listicle structure")
	}

	if div, enough := lexicalDiversity(c.Snippet + " " + c.Description); enough && div < diversityFloor {
		penalty += SlopRepetitionPenalty
		reasons = append(reasons, "penalty: low lexical diversity")
	}

	return penalty, reasons
}

// lexicalDiversity returns unique/total word ratio and whether the sample is
// long enough to judge.
func lexicalDiversity(text string) (float64, bool) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < diversityMinWords {
		return 1, false
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	return float64(len(unique)) / float64(len(words)), true
}
