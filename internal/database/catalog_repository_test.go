package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/littleweb/crawler/internal/crawl"
)

var catalogColumns = []string{
	"id", "url", "title", "description", "discovery_method", "site_type",
	"seeding_score", "seeding_reasons", "extracted_keywords", "detected_language",
	"content_sample", "last_crawled", "crawl_status", "ssl_enabled", "outbound_links", "discovered_at",
}

func TestCatalogRepository_GetByURL_Found(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(catalogColumns).AddRow(
		"cat-1", "https://a.example.org/", "A Site", "desc", "auto_crawl", "personal_blog",
		55, pq.StringArray{"reason"}, pq.StringArray{"gardening"}, "en",
		"sample", now, "ok", true, pq.StringArray{"https://b.example.org/"}, now)

	mock.ExpectQuery(`SELECT (.+) FROM catalog WHERE url = \$1`).
		WithArgs("https://a.example.org/").
		WillReturnRows(rows)

	entry, err := repo.GetByURL(context.Background(), "https://a.example.org/")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, "cat-1", entry.ID)
	require.Equal(t, []string{"gardening"}, entry.ExtractedKeywords)
	require.NotNil(t, entry.SeedingScore)
	require.Equal(t, 55, *entry.SeedingScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_GetByURL_MissingReturnsNil(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM catalog WHERE url = \$1`).
		WillReturnRows(sqlmock.NewRows(catalogColumns))

	entry, err := repo.GetByURL(context.Background(), "https://missing.example.org/")
	require.NoError(t, err)
	require.Nil(t, entry)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_Create_AssignsIDWhenEmpty(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)
	now := time.Now().UTC()
	scoreVal := 62

	mock.ExpectExec(`INSERT INTO catalog`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := crawl.CatalogEntry{
		URL:             "https://a.example.org/",
		Title:           "A Site",
		DiscoveryMethod: crawl.DiscoveryCrawl,
		SiteType:        "personal_blog",
		SeedingScore:    &scoreVal,
		CrawlStatus:     crawl.CrawlStatusOK,
		SSLEnabled:      true,
		DiscoveredAt:    now,
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_UpdateCrawlFields(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE catalog\s+SET title = COALESCE\(NULLIF\(\$2, ''\), title\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := crawl.CatalogEntry{
		ID:          "cat-1",
		Title:       "",
		LastCrawled: &now,
		CrawlStatus: crawl.CrawlStatusOK,
	}
	require.NoError(t, repo.UpdateCrawlFields(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_UpdateCrawlFields_MissingRowErrors(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)

	mock.ExpectExec(`UPDATE catalog`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCrawlFields(context.Background(), crawl.CatalogEntry{ID: "missing"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_FilterKnownURLs(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)

	mock.ExpectQuery(`SELECT url FROM catalog WHERE url = ANY\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"url"}).AddRow("https://known.example.org/"))

	out, err := repo.FilterKnownURLs(context.Background(),
		[]string{"https://known.example.org/", "https://new.example.org/"})
	require.NoError(t, err)
	require.Equal(t, []string{"https://new.example.org/"}, out)
	require.NoError(t, mock.ExpectationsWereMet())
}
