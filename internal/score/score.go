package score

import (
	"fmt"
	"time"

	"github.com/littleweb/crawler/internal/crawl"
)

// corporateProfilePlatform marks domains (LinkedIn-style company profiles,
// business directories) that are only useful as link sources.
const corporateProfilePlatform = "corporate_profile"

// Assess scores one (content, url) pair. It is deterministic: identical
// inputs always yield an identical QualityScore. cls may be nil, in which
// case a neutral classification applies.
func Assess(c crawl.ExtractedContent, pageURL string, isUserSubmission bool, cls *Classification, now time.Time) QualityScore {
	cls = normalizeClassification(cls)

	// Corporate-profile platforms short-circuit: valuable only as link
	// sources, never as catalog entries.
	if cls.PlatformType == corporateProfilePlatform {
		return QualityScore{
			TotalScore:      0,
			Category:        deriveCategory(c),
			IndexingPurpose: PurposeLinkExtraction,
			PlatformType:    cls.PlatformType,
			Reasons: append(append([]string{}, cls.Reasons...),
				"corporate profile platform: link extraction only",
				"auto-submit: no"),
		}
	}

	var bd Breakdown
	var reasons, rs []string

	bd.IndieWeb, rs = scoreIndieWeb(c)
	reasons = append(reasons, rs...)
	bd.PersonalSite, rs = scorePersonalSite(c, pageURL)
	reasons = append(reasons, rs...)
	bd.ContentQuality, rs = scoreContentQuality(c)
	reasons = append(reasons, rs...)
	bd.TechStack, rs = scoreTechStack(c)
	reasons = append(reasons, rs...)
	bd.Language, rs = scoreLanguage(c)
	reasons = append(reasons, rs...)
	bd.Freshness, rs = scoreFreshness(c, now)
	reasons = append(reasons, rs...)

	if isUserSubmission {
		bd.Submission = UserSubmissionBonus
		reasons = append(reasons, "user submission bonus")
	}

	total := bd.IndieWeb + bd.PersonalSite + bd.ContentQuality +
		bd.TechStack + bd.Language + bd.Freshness + bd.Submission
	if total > MaxScore {
		total = MaxScore
	}

	// Post-sum adjustments, in fixed order: corporate penalty, slop penalty,
	// then the domain-classification multiplier.
	if p, reason := corporateScorePenalty(c); p > 0 {
		bd.CorporatePenalty = p
		total -= p
		reasons = append(reasons, reason)
	}
	if p, slopReasons := slopScorePenalty(c); p > 0 {
		bd.SlopPenalty = p
		total -= p
		reasons = append(reasons, slopReasons...)
	}
	if c.IsParked {
		bd.ParkedPenalty = ParkedPenalty
		total -= ParkedPenalty
		reasons = append(reasons, "penalty: parked domain")
	}

	total = int(float64(total) * cls.ScoreModifier)
	if cls.ScoreModifier != 1.0 {
		reasons = append(reasons,
			fmt.Sprintf("domain classification modifier ×%.2f", cls.ScoreModifier))
	}
	reasons = append(reasons, cls.Reasons...)

	purpose := cls.IndexingPurpose
	if purpose == "" {
		purpose = derivePurpose(total, c)
	}

	autoSubmit := total >= AutoSubmitThreshold &&
		purpose != PurposeLinkExtraction && purpose != PurposeRejected
	if autoSubmit {
		reasons = append(reasons, fmt.Sprintf("auto-submit: yes (score %d >= %d)", total, AutoSubmitThreshold))
	} else {
		reasons = append(reasons, "auto-submit: no")
	}

	return QualityScore{
		TotalScore:       total,
		Breakdown:        bd,
		ShouldAutoSubmit: autoSubmit,
		Reasons:          reasons,
		Category:         deriveCategory(c),
		IndexingPurpose:  purpose,
		PlatformType:     cls.PlatformType,
	}
}

func normalizeClassification(cls *Classification) *Classification {
	if cls == nil {
		return &Classification{ScoreModifier: 1.0}
	}
	out := *cls
	if out.ScoreModifier == 0 {
		out.ScoreModifier = 1.0
	}
	return &out
}

func derivePurpose(total int, c crawl.ExtractedContent) IndexingPurpose {
	switch {
	case c.IsParked:
		return PurposeRejected
	case total >= AutoSubmitThreshold:
		return PurposeFullIndex
	default:
		return PurposePendingReview
	}
}
