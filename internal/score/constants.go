package score

// Sub-score bands. Each detector is capped to its own band so no single
// signal can dominate the total.
const (
	IndieWebBand       = 40
	PersonalSiteBand   = 40
	ContentQualityBand = 20
	TechStackBand      = 15
	LanguageBand       = 10
	FreshnessBand      = 5
)

// IndieWeb sub-score weights.
const (
	indieWebMarkerCredit = 25
	indieWebAuthorBonus  = 8
	indieWebDateBonus    = 7
)

// Personal-site indicator weights.
const (
	personalFlagWeight       = 10
	personalMarkerWeight     = 6
	personalAuthorWeight     = 5
	personalDomainWeight     = 7
	personalNarrativeWeight  = 7
	personalScaleWeight      = 3
	personalIndiePagesWeight = 4
)

// Content-quality weights.
const (
	contentBaseline        = 10
	contentLongBonus       = 3
	contentDescBonus       = 3
	contentKeywordBonus    = 2
	linkFarmPenalty        = 8
	keywordStuffingPenalty = 4
)

// Tech-stack scores. Absence of any detected stack scores highest: minimal
// hand-written HTML is exactly the kind of site this catalog wants.
const (
	techNoneScore        = 15
	techStaticGenScore   = 10
	techBlogCMSScore     = 6
	techSiteBuilderScore = 3
)

// Language and freshness.
const (
	languageDetectedScore = 10
	languageUnknownScore  = 4
	freshnessRecentScore  = 5
	freshnessAgingScore   = 4
	freshnessFloorScore   = 2
)

// UserSubmissionBonus reflects higher trust in explicit human curation.
const UserSubmissionBonus = 30

// Penalties applied after summing, before the classification modifier.
const (
	CorporatePenalty      = 15
	SlopBasePenalty       = 10
	SlopHeavyPenalty      = 25
	SlopListiclePenalty   = 8
	SlopRepetitionPenalty = 10
	ParkedPenalty         = 50
)

// Auto-admission thresholds. These are intentionally distinct policy knobs,
// not one shared value: the inline gate, the human review queue, and the
// failed-item rescue path each have their own bar.
const (
	AutoSubmitThreshold  = 40
	ReviewQueueThreshold = 50
	RescueThreshold      = 70
)

// MaxScore is the conceptual cap applied before late penalties.
const MaxScore = 100
