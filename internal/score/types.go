// Package score turns extracted content into a quality verdict that gates
// automatic admission into the catalog. Scoring is deterministic and free of
// I/O; the only external input is a pre-computed domain classification.
package score

// IndexingPurpose states what a crawled site is useful for.
type IndexingPurpose string

// Indexing purposes, in descending order of usefulness.
const (
	PurposeFullIndex      IndexingPurpose = "full_index"
	PurposeLinkExtraction IndexingPurpose = "link_extraction"
	PurposePendingReview  IndexingPurpose = "pending_review"
	PurposeRejected       IndexingPurpose = "rejected"
)

// Category is a site archetype derived from content patterns, not from the
// numeric score.
type Category string

// Site archetypes.
const (
	CategoryWebring      Category = "webring"
	CategoryGuestbook    Category = "guestbook"
	CategoryPortfolio    Category = "portfolio"
	CategoryPersonalBlog Category = "personal_blog"
	CategoryCommunity    Category = "community"
	CategoryResource     Category = "resource"
	CategoryOther        Category = "other"
)

// Classification is the externally supplied domain-level verdict. It scales
// the heuristic score without overriding it outright.
type Classification struct {
	PlatformType    string          `json:"platform_type"`
	ScoreModifier   float64         `json:"score_modifier"`
	IndexingPurpose IndexingPurpose `json:"indexing_purpose"`
	Reasons         []string        `json:"reasons"`
}

// Breakdown holds the named sub-scores that sum into the total.
type Breakdown struct {
	IndieWeb         int `json:"indieweb"`
	PersonalSite     int `json:"personal_site"`
	ContentQuality   int `json:"content_quality"`
	TechStack        int `json:"tech_stack"`
	Language         int `json:"language"`
	Freshness        int `json:"freshness"`
	Submission       int `json:"submission"`
	CorporatePenalty int `json:"corporate_penalty"`
	SlopPenalty      int `json:"slop_penalty"`
	ParkedPenalty    int `json:"parked_penalty"`
}

// QualityScore is the immutable result of assessing one page.
type QualityScore struct {
	TotalScore       int             `json:"total_score"`
	Breakdown        Breakdown       `json:"breakdown"`
	ShouldAutoSubmit bool            `json:"should_auto_submit"`
	Reasons          []string        `json:"reasons"`
	Category         Category        `json:"category"`
	IndexingPurpose  IndexingPurpose `json:"indexing_purpose"`
	PlatformType     string          `json:"platform_type,omitempty"`
}
