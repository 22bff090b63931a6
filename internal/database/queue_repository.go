package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/littleweb/crawler/internal/crawl"
)

// queueSelectColumns lists columns for SELECT queries on crawl_queue.
const queueSelectColumns = `id, url, priority, scheduled_for, attempts, status,
	last_attempt, error_message, extract_all_links, created_at`

// QueueRepository implements crawl.QueueStore on PostgreSQL.
type QueueRepository struct {
	db *sqlx.DB
}

// NewQueueRepository creates a new queue repository.
func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// SelectEligible returns pending items whose time has come, new-to-catalog
// URLs first so discovery work is not starved by refresh work.
func (r *QueueRepository) SelectEligible(ctx context.Context, now time.Time, limit, maxAttempts int) ([]crawl.QueueItem, error) {
	query := `
		SELECT ` + queueSelectColumns + `
		FROM crawl_queue q
		WHERE status = $1 AND scheduled_for <= $2 AND attempts < $3
		ORDER BY
			EXISTS (SELECT 1 FROM catalog c WHERE c.url = q.url) ASC,
			priority DESC,
			scheduled_for ASC
		LIMIT $4
	`

	var items []crawl.QueueItem
	if err := r.db.SelectContext(ctx, &items, query, crawl.StatusPending, now, maxAttempts, limit); err != nil {
		return nil, fmt.Errorf("select eligible queue items: %w", err)
	}
	return items, nil
}

// Claim transitions the given items from pending to processing in one
// statement. Items that changed status since selection are silently skipped.
func (r *QueueRepository) Claim(ctx context.Context, ids []string, now time.Time) ([]crawl.QueueItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		UPDATE crawl_queue
		SET status = $1, last_attempt = $2
		WHERE id = ANY($3) AND status = $4
		RETURNING ` + queueSelectColumns

	var claimed []crawl.QueueItem
	if err := r.db.SelectContext(ctx, &claimed, query,
		crawl.StatusProcessing, now, pq.Array(ids), crawl.StatusPending); err != nil {
		return nil, fmt.Errorf("claim queue items: %w", err)
	}
	return claimed, nil
}

// MarkCompleted records a successful crawl.
func (r *QueueRepository) MarkCompleted(ctx context.Context, id string, now time.Time) error {
	query := `UPDATE crawl_queue SET status = $1, last_attempt = $2, error_message = NULL WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, crawl.StatusCompleted, now, id)
	return requireRow(res, err, "queue item", id)
}

// Reschedule returns a failed item to pending with a future scheduled_for.
func (r *QueueRepository) Reschedule(ctx context.Context, id string, attempts int, scheduledFor, now time.Time, errMsg string) error {
	query := `
		UPDATE crawl_queue
		SET status = $1, attempts = $2, scheduled_for = $3, last_attempt = $4, error_message = $5
		WHERE id = $6
	`

	res, err := r.db.ExecContext(ctx, query, crawl.StatusPending, attempts, scheduledFor, now, errMsg, id)
	return requireRow(res, err, "queue item", id)
}

// MarkFailed records a terminal failure.
func (r *QueueRepository) MarkFailed(ctx context.Context, id string, attempts int, now time.Time, errMsg string) error {
	query := `
		UPDATE crawl_queue
		SET status = $1, attempts = $2, last_attempt = $3, error_message = $4
		WHERE id = $5
	`

	res, err := r.db.ExecContext(ctx, query, crawl.StatusFailed, attempts, now, errMsg, id)
	return requireRow(res, err, "queue item", id)
}

// Enqueue adds a URL to the queue. Duplicate URLs are ignored.
func (r *QueueRepository) Enqueue(ctx context.Context, url string, priority int, extractAllLinks bool) error {
	query := `
		INSERT INTO crawl_queue (id, url, priority, scheduled_for, attempts, status, extract_all_links, created_at)
		VALUES ($1, $2, $3, NOW(), 0, $4, $5, NOW())
		ON CONFLICT (url) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, uuid.New().String(), url, priority, crawl.StatusPending, extractAllLinks); err != nil {
		return fmt.Errorf("enqueue %s: %w", url, err)
	}
	return nil
}

// PendingCount returns the number of items with status pending.
func (r *QueueRepository) PendingCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM crawl_queue WHERE status = $1`, crawl.StatusPending); err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}

// FilterKnownURLs removes URLs already present in the queue, preserving order.
func (r *QueueRepository) FilterKnownURLs(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	var known []string
	query := `SELECT url FROM crawl_queue WHERE url = ANY($1)`
	if err := r.db.SelectContext(ctx, &known, query, pq.Array(urls)); err != nil {
		return nil, fmt.Errorf("filter known queue urls: %w", err)
	}

	return subtract(urls, known), nil
}

// Stats summarizes queue state.
func (r *QueueRepository) Stats(ctx context.Context) (crawl.QueueStats, error) {
	var stats crawl.QueueStats
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending')    AS pending,
			COUNT(*) FILTER (WHERE status = 'processing') AS processing,
			COUNT(*) FILTER (WHERE status = 'completed')  AS completed,
			COUNT(*) FILTER (WHERE status = 'failed')     AS failed,
			MIN(scheduled_for) FILTER (WHERE status = 'pending')  AS oldest_pending,
			MAX(last_attempt) FILTER (WHERE status = 'completed') AS newest_completed
		FROM crawl_queue
	`

	row := r.db.QueryRowxContext(ctx, query)
	if err := row.Scan(&stats.Pending, &stats.Processing, &stats.Completed, &stats.Failed,
		&stats.OldestPending, &stats.NewestCompleted); err != nil {
		return crawl.QueueStats{}, fmt.Errorf("queue stats: %w", err)
	}
	return stats, nil
}

// List returns queue items with the given status, newest first.
func (r *QueueRepository) List(ctx context.Context, status crawl.QueueStatus, limit, offset int) ([]crawl.QueueItem, error) {
	query := `
		SELECT ` + queueSelectColumns + `
		FROM crawl_queue
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var items []crawl.QueueItem
	if err := r.db.SelectContext(ctx, &items, query, status, limit, offset); err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	return items, nil
}

// RetryFailed resets all terminally failed items to pending with a clean
// attempt counter. Returns the number of items reset.
func (r *QueueRepository) RetryFailed(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE crawl_queue
		SET status = $1, attempts = 0, scheduled_for = $2, error_message = NULL
		WHERE status = $3
	`

	res, err := r.db.ExecContext(ctx, query, crawl.StatusPending, now, crawl.StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return int(n), nil
}

// DeleteCompletedBefore removes completed items older than cutoff.
func (r *QueueRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM crawl_queue WHERE status = $1 AND last_attempt < $2`

	res, err := r.db.ExecContext(ctx, query, crawl.StatusCompleted, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete completed items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete completed items: %w", err)
	}
	return int(n), nil
}

// requireRow converts a zero-rows-affected update into a not-found error.
func requireRow(res sql.Result, err error, kind, id string) error {
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %s", kind, id)
	}
	return nil
}

// subtract returns the elements of urls not present in known, in order.
func subtract(urls, known []string) []string {
	if len(known) == 0 {
		return urls
	}
	seen := make(map[string]struct{}, len(known))
	for _, u := range known {
		seen[u] = struct{}{}
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}
