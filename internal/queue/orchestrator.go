// Package queue drives the durable crawl queue: claiming pending items,
// crawling them, scoring results, updating the catalog, rescheduling
// failures and discovering new links under hard bounds.
package queue

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/littleweb/crawler/internal/classify"
	"github.com/littleweb/crawler/internal/crawl"
	"github.com/littleweb/crawler/internal/crawler"
	"github.com/littleweb/crawler/internal/metrics"
	"github.com/littleweb/crawler/internal/score"
)

// Notifier signals the downstream auto-validation process after a batch
// admits at least one new site. Failures are logged, never fatal.
type Notifier interface {
	Notify(ctx context.Context) error
}

// Config controls batch sizing, retry policy and discovery bounds.
type Config struct {
	BatchSize       int
	MaxAttempts     int
	PendingCap      int
	LinkCap         int
	HubLinkCap      int
	RescheduleBase  time.Duration
	RetentionPeriod time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.PendingCap <= 0 {
		c.PendingCap = 5000
	}
	if c.LinkCap <= 0 {
		c.LinkCap = 10
	}
	if c.HubLinkCap <= 0 {
		c.HubLinkCap = 100
	}
	if c.RescheduleBase <= 0 {
		c.RescheduleBase = 5 * time.Minute
	}
	if c.RetentionPeriod <= 0 {
		c.RetentionPeriod = 30 * 24 * time.Hour
	}
	return c
}

// Orchestrator owns the queue state machine. Runs are triggered externally
// and are safe to overlap: items are claimed before any network I/O.
type Orchestrator struct {
	queueStore   crawl.QueueStore
	catalogStore crawl.CatalogStore
	siteCrawler  *crawler.SiteCrawler
	classifier   classify.Classifier
	notifier     Notifier
	clock        crawl.Clock
	cfg          Config
	logger       *zap.Logger
}

// New constructs an Orchestrator.
func New(
	queueStore crawl.QueueStore,
	catalogStore crawl.CatalogStore,
	siteCrawler *crawler.SiteCrawler,
	classifier classify.Classifier,
	notifier Notifier,
	clock crawl.Clock,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		queueStore:   queueStore,
		catalogStore: catalogStore,
		siteCrawler:  siteCrawler,
		classifier:   classifier,
		notifier:     notifier,
		clock:        clock,
		cfg:          cfg.withDefaults(),
		logger:       logger,
	}
}

// RunBatch processes one slice of the queue. Item-level failures are
// isolated and collected; only a failure to select or claim aborts the run.
func (o *Orchestrator) RunBatch(ctx context.Context) (crawl.BatchReport, error) {
	report := crawl.BatchReport{}
	now := o.clock.Now()

	eligible, err := o.queueStore.SelectEligible(ctx, now, o.cfg.BatchSize, o.cfg.MaxAttempts)
	if err != nil {
		return report, fmt.Errorf("select eligible items: %w", err)
	}
	if len(eligible) == 0 {
		return report, nil
	}

	ids := make([]string, len(eligible))
	for i, item := range eligible {
		ids[i] = item.ID
	}
	// Claim before any suspending I/O so overlapping runs cannot double-crawl.
	claimed, err := o.queueStore.Claim(ctx, ids, now)
	if err != nil {
		return report, fmt.Errorf("claim items: %w", err)
	}
	report.Claimed = len(claimed)
	o.logger.Info("batch claimed", zap.Int("items", len(claimed)))

	targets := make([]crawler.Target, len(claimed))
	for i, item := range claimed {
		targets[i] = crawler.Target{URL: item.URL, ExtractAllLinks: item.ExtractAllLinks}
	}
	results := o.siteCrawler.CrawlMany(ctx, targets)

	for i, item := range claimed {
		if err := o.handleResult(ctx, item, results[i], &report); err != nil {
			// One item's persistence failure must not abort its siblings.
			report.Errors = append(report.Errors,
				fmt.Sprintf("%s: %v", item.URL, err))
			o.markFailedQuietly(ctx, item, err.Error())
		}
	}

	if report.Admitted > 0 && o.notifier != nil {
		if err := o.notifier.Notify(ctx); err != nil {
			o.logger.Warn("auto-validation notify failed", zap.Error(err))
		}
	}

	metrics.ObserveBatch(report.Completed, report.Failed, report.Discovered)
	return report, nil
}

func (o *Orchestrator) handleResult(ctx context.Context, item crawl.QueueItem, result crawl.Result, report *crawl.BatchReport) error {
	now := o.clock.Now()

	if !result.Success {
		return o.handleFailure(ctx, item, result.Error, report)
	}

	assessment := o.assess(*result.Content, item.URL)

	existing, err := o.catalogStore.GetByURL(ctx, item.URL)
	if err != nil {
		return fmt.Errorf("catalog lookup: %w", err)
	}

	switch {
	case existing != nil:
		entry := entryFromCrawl(item.URL, *result.Content, assessment, now)
		entry.ID = existing.ID
		if err := o.catalogStore.UpdateCrawlFields(ctx, entry); err != nil {
			return fmt.Errorf("catalog update: %w", err)
		}
		discovered, err := o.discoverLinks(ctx, item, *result.Content)
		if err != nil {
			o.logger.Warn("link discovery failed",
				zap.String("url", item.URL), zap.Error(err))
		}
		report.Discovered += discovered
	case assessment.ShouldAutoSubmit:
		entry := entryFromCrawl(item.URL, *result.Content, assessment, now)
		// Flagged for downstream auto-validation, not validated inline.
		if err := o.catalogStore.Create(ctx, entry); err != nil {
			return fmt.Errorf("catalog create: %w", err)
		}
		report.Admitted++
		metrics.ObserveAdmission()
		o.logger.Info("site admitted to catalog",
			zap.String("url", item.URL),
			zap.Int("score", assessment.TotalScore),
			zap.String("category", string(assessment.Category)))
	default:
		o.logger.Info("site assessed below admission bar",
			zap.String("url", item.URL),
			zap.Int("score", assessment.TotalScore),
			zap.Strings("reasons", assessment.Reasons))
	}

	// Completion reflects "crawl succeeded", not "site was admitted".
	if err := o.queueStore.MarkCompleted(ctx, item.ID, now); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	report.Completed++
	return nil
}

func (o *Orchestrator) handleFailure(ctx context.Context, item crawl.QueueItem, errMsg string, report *crawl.BatchReport) error {
	now := o.clock.Now()
	attempts := item.Attempts + 1

	if attempts >= o.cfg.MaxAttempts {
		if err := o.queueStore.MarkFailed(ctx, item.ID, attempts, now, errMsg); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		report.Failed++
		o.logger.Warn("queue item failed terminally",
			zap.String("url", item.URL), zap.String("error", errMsg))
		return nil
	}

	// Exponential reschedule: base·2^attempts from now.
	delay := o.cfg.RescheduleBase * (1 << attempts)
	if err := o.queueStore.Reschedule(ctx, item.ID, attempts, now.Add(delay), now, errMsg); err != nil {
		return fmt.Errorf("reschedule: %w", err)
	}
	report.Rescheduled++
	return nil
}

// discoverLinks enqueues a bounded set of a crawled site's outbound links.
// Discovery never grows the queue past the pending cap, and discovered items
// do not inherit the triggering site's extract-all flag.
func (o *Orchestrator) discoverLinks(ctx context.Context, item crawl.QueueItem, content crawl.ExtractedContent) (int, error) {
	limit := o.cfg.LinkCap
	if item.ExtractAllLinks {
		limit = o.cfg.HubLinkCap
	}

	candidates := normalizeCandidates(content.Links, item.URL)
	if len(candidates) == 0 {
		return 0, nil
	}

	pending, err := o.queueStore.PendingCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("pending count: %w", err)
	}
	capacity := o.cfg.PendingCap - pending
	if capacity <= 0 {
		return 0, nil
	}

	candidates, err = o.catalogStore.FilterKnownURLs(ctx, candidates)
	if err != nil {
		return 0, fmt.Errorf("filter cataloged: %w", err)
	}
	candidates, err = o.queueStore.FilterKnownURLs(ctx, candidates)
	if err != nil {
		return 0, fmt.Errorf("filter queued: %w", err)
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if len(candidates) > capacity {
		candidates = candidates[:capacity]
	}

	queued := 0
	for _, candidate := range candidates {
		if err := o.queueStore.Enqueue(ctx, candidate, 0, false); err != nil {
			o.logger.Warn("enqueue discovered link failed",
				zap.String("url", candidate), zap.Error(err))
			continue
		}
		queued++
	}
	return queued, nil
}

// SweepRetention deletes completed items older than the retention period.
func (o *Orchestrator) SweepRetention(ctx context.Context) (int, error) {
	cutoff := o.clock.Now().Add(-o.cfg.RetentionPeriod)
	deleted, err := o.queueStore.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	if deleted > 0 {
		o.logger.Info("retention sweep", zap.Int("deleted", deleted))
	}
	return deleted, nil
}

func (o *Orchestrator) assess(content crawl.ExtractedContent, rawURL string) score.QualityScore {
	var cls *score.Classification
	if o.classifier != nil {
		c := o.classifier.Classify(rawURL)
		cls = &c
	}
	return score.Assess(content, rawURL, false, cls, o.clock.Now())
}

// normalizeCandidates canonicalizes outbound links, dropping self-links and
// duplicates. Only site roots and http(s) URLs survive.
func normalizeCandidates(links []string, sourceURL string) []string {
	sourceHost := hostOf(sourceURL)
	seen := make(map[string]struct{})
	out := make([]string, 0, len(links))
	for _, link := range links {
		normalized, err := crawl.NormalizeURL(link)
		if err != nil {
			continue
		}
		if hostOf(normalized) == sourceHost {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func (o *Orchestrator) markFailedQuietly(ctx context.Context, item crawl.QueueItem, errMsg string) {
	now := o.clock.Now()
	if err := o.queueStore.MarkFailed(ctx, item.ID, item.Attempts+1, now, errMsg); err != nil {
		o.logger.Error("mark failed after persistence error",
			zap.String("url", item.URL), zap.Error(err))
	}
}

func entryFromCrawl(rawURL string, content crawl.ExtractedContent, assessment score.QualityScore, now time.Time) crawl.CatalogEntry {
	seedingScore := assessment.TotalScore
	return crawl.CatalogEntry{
		URL:               rawURL,
		Title:             content.Title,
		Description:       content.Description,
		DiscoveryMethod:   crawl.DiscoveryCrawl,
		SiteType:          string(assessment.Category),
		SeedingScore:      &seedingScore,
		SeedingReasons:    assessment.Reasons,
		ExtractedKeywords: content.Keywords,
		DetectedLanguage:  content.Language,
		ContentSample:     content.Snippet,
		LastCrawled:       &now,
		CrawlStatus:       crawl.CrawlStatusOK,
		SSLEnabled:        strings.HasPrefix(rawURL, "https://"),
		OutboundLinks:     content.Links,
		DiscoveredAt:      now,
	}
}
