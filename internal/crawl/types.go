// Package crawl defines the core types and interfaces for the ingestion
// pipeline: queue items, crawl results, extracted content, and the contracts
// of the external repositories the orchestrator talks to.
package crawl

import (
	"time"
)

// QueueStatus represents the lifecycle state of a queue item.
type QueueStatus string

// Queue status values persisted in the queue store.
const (
	StatusPending    QueueStatus = "pending"
	StatusProcessing QueueStatus = "processing"
	StatusCompleted  QueueStatus = "completed"
	StatusFailed     QueueStatus = "failed"
)

// QueueItem is one unit of pending crawl work.
type QueueItem struct {
	ID              string      `db:"id" json:"id"`
	URL             string      `db:"url" json:"url"`
	Priority        int         `db:"priority" json:"priority"`
	ScheduledFor    time.Time   `db:"scheduled_for" json:"scheduled_for"`
	Attempts        int         `db:"attempts" json:"attempts"`
	Status          QueueStatus `db:"status" json:"status"`
	LastAttempt     *time.Time  `db:"last_attempt" json:"last_attempt,omitempty"`
	ErrorMessage    *string     `db:"error_message" json:"error_message,omitempty"`
	ExtractAllLinks bool        `db:"extract_all_links" json:"extract_all_links"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
}

// ExtractedContent is the normalized result of parsing one HTML document.
// It is created once per fetch and never mutated afterwards.
type ExtractedContent struct {
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	Snippet            string   `json:"snippet"`
	Language           string   `json:"language,omitempty"`
	PublishedDate      string   `json:"published_date,omitempty"`
	Author             string   `json:"author,omitempty"`
	Keywords           []string `json:"keywords"`
	Links              []string `json:"links"`
	ContentLength      int      `json:"content_length"`
	HasIndieWebMarkers bool     `json:"has_indieweb_markers"`
	IsPersonalSite     bool     `json:"is_personal_site"`
	IsParked           bool     `json:"is_parked"`
	TechStack          []string `json:"tech_stack,omitempty"`
}

// Result captures the outcome of crawling a single URL.
type Result struct {
	URL           string            `json:"url"`
	Success       bool              `json:"success"`
	StatusCode    int               `json:"status_code,omitempty"`
	Content       *ExtractedContent `json:"content,omitempty"`
	Error         string            `json:"error,omitempty"`
	CrawlTimeMs   int64             `json:"crawl_time_ms"`
	RobotsAllowed bool              `json:"robots_allowed"`
	RobotsDelay   time.Duration     `json:"robots_delay,omitempty"`
}

// CatalogEntry is the narrow view of a cataloged site this subsystem
// creates and refreshes. The catalog store owns the full record.
type CatalogEntry struct {
	ID                string     `db:"id"`
	URL               string     `db:"url"`
	Title             string     `db:"title"`
	Description       string     `db:"description"`
	DiscoveryMethod   string     `db:"discovery_method"`
	SiteType          string     `db:"site_type"`
	SeedingScore      *int       `db:"seeding_score"`
	SeedingReasons    []string   `db:"-"`
	ExtractedKeywords []string   `db:"-"`
	DetectedLanguage  string     `db:"detected_language"`
	ContentSample     string     `db:"content_sample"`
	LastCrawled       *time.Time `db:"last_crawled"`
	CrawlStatus       string     `db:"crawl_status"`
	SSLEnabled        bool       `db:"ssl_enabled"`
	OutboundLinks     []string   `db:"-"`
	DiscoveredAt      time.Time  `db:"discovered_at"`
}

// Discovery methods recorded on catalog entries.
const (
	DiscoveryCrawl      = "auto_crawl"
	DiscoverySubmission = "user_submission"
)

// Crawl status values recorded on catalog entries.
const (
	CrawlStatusOK     = "ok"
	CrawlStatusFailed = "failed"
)

// QueueStats summarizes queue state for the operational surface.
type QueueStats struct {
	Pending         int        `json:"pending"`
	Processing      int        `json:"processing"`
	Completed       int        `json:"completed"`
	Failed          int        `json:"failed"`
	OldestPending   *time.Time `json:"oldest_pending,omitempty"`
	NewestCompleted *time.Time `json:"newest_completed,omitempty"`
}

// BatchReport is returned from one orchestrator run.
type BatchReport struct {
	Claimed    int      `json:"claimed"`
	Completed  int      `json:"completed"`
	Rescheduled int     `json:"rescheduled"`
	Failed     int      `json:"failed"`
	Admitted   int      `json:"admitted"`
	Discovered int      `json:"discovered"`
	Errors     []string `json:"errors,omitempty"`
}
