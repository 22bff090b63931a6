package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/littleweb/crawler/internal/crawl"
)

// CatalogRepository implements crawl.CatalogStore on PostgreSQL.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// catalogRow mirrors the catalog table shape, with array columns mapped
// through pq wrappers.
type catalogRow struct {
	ID                string         `db:"id"`
	URL               string         `db:"url"`
	Title             string         `db:"title"`
	Description       string         `db:"description"`
	DiscoveryMethod   string         `db:"discovery_method"`
	SiteType          string         `db:"site_type"`
	SeedingScore      *int           `db:"seeding_score"`
	SeedingReasons    pq.StringArray `db:"seeding_reasons"`
	ExtractedKeywords pq.StringArray `db:"extracted_keywords"`
	DetectedLanguage  string         `db:"detected_language"`
	ContentSample     string         `db:"content_sample"`
	LastCrawled       *time.Time     `db:"last_crawled"`
	CrawlStatus       string         `db:"crawl_status"`
	SSLEnabled        bool           `db:"ssl_enabled"`
	OutboundLinks     pq.StringArray `db:"outbound_links"`
	DiscoveredAt      time.Time      `db:"discovered_at"`
}

const catalogSelectColumns = `id, url, title, description, discovery_method, site_type,
	seeding_score, seeding_reasons, extracted_keywords, detected_language,
	content_sample, last_crawled, crawl_status, ssl_enabled, outbound_links, discovered_at`

func (row catalogRow) entry() *crawl.CatalogEntry {
	return &crawl.CatalogEntry{
		ID:                row.ID,
		URL:               row.URL,
		Title:             row.Title,
		Description:       row.Description,
		DiscoveryMethod:   row.DiscoveryMethod,
		SiteType:          row.SiteType,
		SeedingScore:      row.SeedingScore,
		SeedingReasons:    row.SeedingReasons,
		ExtractedKeywords: row.ExtractedKeywords,
		DetectedLanguage:  row.DetectedLanguage,
		ContentSample:     row.ContentSample,
		LastCrawled:       row.LastCrawled,
		CrawlStatus:       row.CrawlStatus,
		SSLEnabled:        row.SSLEnabled,
		OutboundLinks:     row.OutboundLinks,
		DiscoveredAt:      row.DiscoveredAt,
	}
}

// GetByURL returns the catalog entry for url, or nil when none exists.
func (r *CatalogRepository) GetByURL(ctx context.Context, url string) (*crawl.CatalogEntry, error) {
	query := `SELECT ` + catalogSelectColumns + ` FROM catalog WHERE url = $1`

	var row catalogRow
	err := r.db.GetContext(ctx, &row, query, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog entry: %w", err)
	}
	return row.entry(), nil
}

// FilterKnownURLs removes URLs already cataloged, preserving order.
func (r *CatalogRepository) FilterKnownURLs(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	var known []string
	query := `SELECT url FROM catalog WHERE url = ANY($1)`
	if err := r.db.SelectContext(ctx, &known, query, pq.Array(urls)); err != nil {
		return nil, fmt.Errorf("filter known catalog urls: %w", err)
	}
	return subtract(urls, known), nil
}

// Create inserts a new catalog entry.
func (r *CatalogRepository) Create(ctx context.Context, entry crawl.CatalogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO catalog (id, url, title, description, discovery_method, site_type,
			seeding_score, seeding_reasons, extracted_keywords, detected_language,
			content_sample, last_crawled, crawl_status, ssl_enabled, outbound_links, discovered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.URL, entry.Title, entry.Description, entry.DiscoveryMethod,
		entry.SiteType, entry.SeedingScore, pq.Array(entry.SeedingReasons),
		pq.Array(entry.ExtractedKeywords), entry.DetectedLanguage, entry.ContentSample,
		entry.LastCrawled, entry.CrawlStatus, entry.SSLEnabled,
		pq.Array(entry.OutboundLinks), entry.DiscoveredAt)
	if err != nil {
		return fmt.Errorf("create catalog entry: %w", err)
	}
	return nil
}

// UpdateCrawlFields refreshes the crawl-derived columns of an existing entry.
// Empty title and description values never overwrite curated ones.
func (r *CatalogRepository) UpdateCrawlFields(ctx context.Context, entry crawl.CatalogEntry) error {
	query := `
		UPDATE catalog
		SET title = COALESCE(NULLIF($2, ''), title),
			description = COALESCE(NULLIF($3, ''), description),
			extracted_keywords = $4,
			detected_language = $5,
			content_sample = $6,
			last_crawled = $7,
			crawl_status = $8,
			ssl_enabled = $9,
			outbound_links = $10
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Title, entry.Description,
		pq.Array(entry.ExtractedKeywords), entry.DetectedLanguage, entry.ContentSample,
		entry.LastCrawled, entry.CrawlStatus, entry.SSLEnabled,
		pq.Array(entry.OutboundLinks))
	return requireRow(res, err, "catalog entry", entry.ID)
}
