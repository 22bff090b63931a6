package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/littleweb/crawler/internal/crawl"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

var queueColumns = []string{
	"id", "url", "priority", "scheduled_for", "attempts", "status",
	"last_attempt", "error_message", "extract_all_links", "created_at",
}

func TestQueueRepository_SelectEligible(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(queueColumns).
		AddRow("id-1", "https://a.example.org/", 5, now.Add(-time.Hour), 0, "pending",
			nil, nil, false, now.Add(-2*time.Hour)).
		AddRow("id-2", "https://b.example.org/", 0, now.Add(-time.Minute), 1, "pending",
			nil, nil, true, now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT (.+) FROM crawl_queue q\s+WHERE status = \$1 AND scheduled_for <= \$2 AND attempts < \$3`).
		WithArgs(string(crawl.StatusPending), now, 3, 10).
		WillReturnRows(rows)

	items, err := repo.SelectEligible(context.Background(), now, 10, 3)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "https://a.example.org/", items[0].URL)
	require.True(t, items[1].ExtractAllLinks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepository_Claim_ReturnsOnlyTransitionedRows(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(queueColumns).
		AddRow("id-1", "https://a.example.org/", 0, now, 0, "processing",
			now, nil, false, now)

	mock.ExpectQuery(`UPDATE crawl_queue\s+SET status = \$1, last_attempt = \$2\s+WHERE id = ANY\(\$3\) AND status = \$4\s+RETURNING`).
		WillReturnRows(rows)

	claimed, err := repo.Claim(context.Background(), []string{"id-1", "id-2"}, now)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, crawl.StatusProcessing, claimed[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepository_Claim_EmptyIDsSkipsQuery(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)

	claimed, err := repo.Claim(context.Background(), nil, time.Now())
	require.NoError(t, err)
	require.Empty(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepository_Reschedule(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)
	now := time.Now().UTC()
	later := now.Add(10 * time.Minute)

	mock.ExpectExec(`UPDATE crawl_queue`).
		WithArgs(string(crawl.StatusPending), 1, later, now, "connection refused", "id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Reschedule(context.Background(), "id-1", 1, later, now, "connection refused"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepository_MarkFailed_MissingRowErrors(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)

	mock.ExpectExec(`UPDATE crawl_queue`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkFailed(context.Background(), "missing", 3, time.Now(), "boom")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepository_Enqueue_IgnoresDuplicates(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)

	mock.ExpectExec(`INSERT INTO crawl_queue (.+) ON CONFLICT \(url\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Enqueue(context.Background(), "https://a.example.org/", 0, false))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepository_FilterKnownURLs(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)

	mock.ExpectQuery(`SELECT url FROM crawl_queue WHERE url = ANY\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"url"}).AddRow("https://b.example.org/"))

	out, err := repo.FilterKnownURLs(context.Background(),
		[]string{"https://a.example.org/", "https://b.example.org/", "https://c.example.org/"})
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.example.org/", "https://c.example.org/"}, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepository_Stats(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)
	oldest := time.Now().Add(-time.Hour)

	mock.ExpectQuery(`SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{
			"pending", "processing", "completed", "failed", "oldest_pending", "newest_completed",
		}).AddRow(12, 2, 100, 3, oldest, nil))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 12, stats.Pending)
	require.Equal(t, 100, stats.Completed)
	require.NotNil(t, stats.OldestPending)
	require.Nil(t, stats.NewestCompleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepository_RetryFailed_ReturnsCount(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)

	mock.ExpectExec(`UPDATE crawl_queue`).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.RetryFailed(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepository_DeleteCompletedBefore(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)

	mock.ExpectExec(`DELETE FROM crawl_queue WHERE status = \$1 AND last_attempt < \$2`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteCompletedBefore(context.Background(), time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
