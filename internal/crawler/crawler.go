// Package crawler composes robots policy, per-origin rate limiting, the
// retrying fetcher and content extraction into single-URL and batched crawl
// operations.
package crawler

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/littleweb/crawler/internal/crawl"
	"github.com/littleweb/crawler/internal/extract"
	"github.com/littleweb/crawler/internal/fetch"
	"github.com/littleweb/crawler/internal/metrics"
	"github.com/littleweb/crawler/internal/robots"
)

// robotsDisallowedError is the operator-visible message for policy denials.
const robotsDisallowedError = "Disallowed by robots.txt"

// RobotsResolver decides fetch permission and courtesy delay per origin.
type RobotsResolver interface {
	Resolve(ctx context.Context, rawURL string) (robots.Policy, error)
}

// Throttler paces fetches per origin.
type Throttler interface {
	Throttle(ctx context.Context, rawURL string, delayHint time.Duration) error
}

// Fetcher retrieves one HTML document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Response, error)
}

// Target is one URL to crawl within a batch.
type Target struct {
	URL             string
	ExtractAllLinks bool
}

// Config controls batch windowing.
type Config struct {
	WindowSize       int
	InterWindowPause time.Duration
}

// SiteCrawler crawls URLs politely: robots first, then the origin courtesy
// window, then a bounded fetch, then pure extraction.
type SiteCrawler struct {
	robots  RobotsResolver
	limiter Throttler
	fetcher Fetcher
	cfg     Config
	logger  *zap.Logger
}

// New constructs a SiteCrawler.
func New(robotsResolver RobotsResolver, limiter Throttler, fetcher Fetcher, cfg Config, logger *zap.Logger) *SiteCrawler {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 3
	}
	if cfg.InterWindowPause < 0 {
		cfg.InterWindowPause = 0
	}
	return &SiteCrawler{
		robots:  robotsResolver,
		limiter: limiter,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
	}
}

// Crawl fetches and extracts a single URL. Every failure mode yields a
// Result describing it; the error return is reserved for context failures.
func (c *SiteCrawler) Crawl(ctx context.Context, rawURL string, extractAllLinks bool) crawl.Result {
	started := time.Now()
	result := crawl.Result{URL: rawURL}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		result.Error = "invalid URL"
		result.CrawlTimeMs = time.Since(started).Milliseconds()
		return result
	}

	policy, err := c.robots.Resolve(ctx, rawURL)
	if err != nil {
		result.Error = err.Error()
		result.CrawlTimeMs = time.Since(started).Milliseconds()
		return result
	}
	result.RobotsAllowed = policy.Allowed
	result.RobotsDelay = policy.CrawlDelay
	if !policy.Allowed {
		result.Error = robotsDisallowedError
		result.CrawlTimeMs = time.Since(started).Milliseconds()
		return result
	}

	if err := c.limiter.Throttle(ctx, rawURL, policy.CrawlDelay); err != nil {
		result.Error = err.Error()
		result.CrawlTimeMs = time.Since(started).Milliseconds()
		return result
	}

	resp, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		result.Error = err.Error()
		result.CrawlTimeMs = time.Since(started).Milliseconds()
		c.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(err))
		metrics.ObserveCrawl(false, 0)
		return result
	}

	content := extract.Extract(string(resp.Body), rawURL, extractAllLinks)
	result.Success = true
	result.StatusCode = resp.StatusCode
	result.Content = &content
	result.CrawlTimeMs = time.Since(started).Milliseconds()
	metrics.ObserveCrawl(true, len(resp.Body))
	return result
}

// CrawlMany crawls targets in fixed-size windows: each window runs fully in
// parallel, with a short pause before the next. This bounds peak concurrent
// connections while still overlapping I/O.
func (c *SiteCrawler) CrawlMany(ctx context.Context, targets []Target) []crawl.Result {
	results := make([]crawl.Result, len(targets))

	for start := 0; start < len(targets); start += c.cfg.WindowSize {
		end := start + c.cfg.WindowSize
		if end > len(targets) {
			end = len(targets)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = c.Crawl(gctx, targets[i].URL, targets[i].ExtractAllLinks)
				return nil
			})
		}
		// Workers never return errors; results carry per-URL failures.
		_ = g.Wait()

		if end < len(targets) && c.cfg.InterWindowPause > 0 {
			timer := time.NewTimer(c.cfg.InterWindowPause)
			select {
			case <-ctx.Done():
				timer.Stop()
				for i := end; i < len(targets); i++ {
					results[i] = crawl.Result{URL: targets[i].URL, Error: ctx.Err().Error()}
				}
				return results
			case <-timer.C:
			}
		}
	}
	return results
}
