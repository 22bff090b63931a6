package crawl

import (
	"context"
	"time"
)

// QueueStore persists queue items and their state transitions.
type QueueStore interface {
	// SelectEligible returns up to limit items with status=pending,
	// scheduled_for <= now and attempts < maxAttempts, new-to-catalog URLs
	// first, then priority descending, then scheduled_for ascending.
	SelectEligible(ctx context.Context, now time.Time, limit, maxAttempts int) ([]QueueItem, error)
	// Claim atomically marks the given items processing. Items whose status
	// changed since selection are skipped; the claimed subset is returned.
	Claim(ctx context.Context, ids []string, now time.Time) ([]QueueItem, error)
	MarkCompleted(ctx context.Context, id string, now time.Time) error
	// Reschedule returns the item to pending with a future scheduled_for and
	// the attempt recorded.
	Reschedule(ctx context.Context, id string, attempts int, scheduledFor, now time.Time, errMsg string) error
	MarkFailed(ctx context.Context, id string, attempts int, now time.Time, errMsg string) error
	Enqueue(ctx context.Context, url string, priority int, extractAllLinks bool) error
	PendingCount(ctx context.Context) (int, error)
	// FilterKnownURLs removes URLs already present in the queue from urls.
	FilterKnownURLs(ctx context.Context, urls []string) ([]string, error)
	Stats(ctx context.Context) (QueueStats, error)
	List(ctx context.Context, status QueueStatus, limit, offset int) ([]QueueItem, error)
	RetryFailed(ctx context.Context, now time.Time) (int, error)
	// DeleteCompletedBefore removes completed items older than cutoff.
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// CatalogStore reads and writes catalog entries.
type CatalogStore interface {
	GetByURL(ctx context.Context, url string) (*CatalogEntry, error)
	// FilterKnownURLs removes URLs already cataloged from urls.
	FilterKnownURLs(ctx context.Context, urls []string) ([]string, error)
	Create(ctx context.Context, entry CatalogEntry) error
	// UpdateCrawlFields refreshes crawl-derived fields on an existing entry.
	// Empty title/description values never overwrite curator-set ones.
	UpdateCrawlFields(ctx context.Context, entry CatalogEntry) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
