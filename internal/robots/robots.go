// Package robots resolves robots.txt policy per origin, with caching.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

const (
	fetchTimeout   = 5 * time.Second
	maxRobotsBytes = 1 << 20

	// conservativeDelay applies when robots.txt cannot be fetched: never
	// block crawling on a politeness failure, but never be aggressive either.
	conservativeDelay = 2 * time.Second
	// defaultDelay applies when robots.txt exists but names no crawl-delay.
	defaultDelay = 1 * time.Second
)

// Policy is the resolved robots decision for one URL.
type Policy struct {
	Allowed    bool
	CrawlDelay time.Duration
	UserAgent  string
}

type cacheEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// Resolver fetches, parses and caches robots.txt rules per origin.
type Resolver struct {
	client    *http.Client
	userAgent string
	cacheTTL  time.Duration
	logger    *zap.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewResolver builds a Resolver identifying itself as userAgent.
func NewResolver(userAgent string, cacheTTL time.Duration, logger *zap.Logger) *Resolver {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Resolver{
		client:    &http.Client{Timeout: fetchTimeout},
		userAgent: userAgent,
		cacheTTL:  cacheTTL,
		logger:    logger,
		cache:     make(map[string]cacheEntry),
	}
}

// Resolve decides whether rawURL may be fetched and with what courtesy delay.
// A robots.txt that cannot be fetched or parsed fails open.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (Policy, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return Policy{}, fmt.Errorf("parse url %q: %w", rawURL, errInvalidURL(err))
	}

	data, err := r.load(ctx, parsed)
	if err != nil {
		r.logger.Warn("robots fetch failed; allowing with conservative delay",
			zap.String("host", parsed.Host), zap.Error(err))
		return Policy{Allowed: true, CrawlDelay: conservativeDelay, UserAgent: r.userAgent}, nil
	}

	group := data.FindGroup(r.userAgent)
	if group == nil {
		return Policy{Allowed: true, CrawlDelay: defaultDelay, UserAgent: r.userAgent}, nil
	}

	delay := group.CrawlDelay
	if delay <= 0 {
		delay = defaultDelay
	}
	requestPath := parsed.Path
	if requestPath == "" {
		requestPath = "/"
	}
	return Policy{
		Allowed:    group.Test(requestPath),
		CrawlDelay: delay,
		UserAgent:  r.userAgent,
	}, nil
}

func (r *Resolver) load(ctx context.Context, parsed *url.URL) (*robotstxt.RobotsData, error) {
	originKey := strings.ToLower(parsed.Scheme + "://" + parsed.Host)

	r.mu.Lock()
	entry, ok := r.cache[originKey]
	r.mu.Unlock()
	if ok && time.Since(entry.fetchedAt) < r.cacheTTL {
		return entry.data, nil
	}

	robotsURL := url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: "/robots.txt"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new robots request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			r.logger.Debug("close robots body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("robots status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}

	r.mu.Lock()
	r.cache[originKey] = cacheEntry{data: data, fetchedAt: time.Now()}
	r.mu.Unlock()
	return data, nil
}

func errInvalidURL(err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("missing host")
}
