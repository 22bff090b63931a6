package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(maxRetries int, maxBody int64) *Client {
	return NewClient(Config{
		UserAgent:    "littleweb-crawler/1.0",
		Timeout:      2 * time.Second,
		MaxBodyBytes: maxBody,
		MaxRetries:   maxRetries,
		BackoffBase:  time.Millisecond,
		BackoffMax:   5 * time.Millisecond,
	}, zap.NewNop())
}

func TestClient_Fetch_ReturnsHTML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "littleweb-crawler/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	c := newTestClient(2, 1<<20)
	resp, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "hello")
}

func TestClient_Fetch_TransportFailureUsesExactlyMaxAttempts(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		_ = conn.Close()
	}))
	defer srv.Close()

	c := newTestClient(3, 1<<20)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "retries exhausted")
	require.Equal(t, int32(3), attempts.Load())
}

func TestClient_Fetch_BadStatusNotRetried(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(3, 1<<20)
	_, err := c.Fetch(context.Background(), srv.URL)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.Code)
	require.Equal(t, int32(1), attempts.Load())
}

func TestClient_Fetch_NonHTMLRejectedWithoutRetry(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	c := newTestClient(3, 1<<20)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrNotHTML)
	require.Equal(t, int32(1), attempts.Load())
}

func TestClient_Fetch_DeclaredOversizeRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Length", "2048")
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	c := newTestClient(1, 1024)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestClient_Fetch_StreamedOversizeRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		// Chunked transfer hides the true size until read.
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	c := newTestClient(1, 1024)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestClient_Fetch_MissingContentTypeAccepted(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	c := newTestClient(1, 1<<20)
	resp, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Body)
}

func TestClient_Fetch_CanceledContextStopsRetrying(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		_ = conn.Close()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(Config{
		UserAgent:    "littleweb-crawler/1.0",
		Timeout:      2 * time.Second,
		MaxBodyBytes: 1 << 20,
		MaxRetries:   5,
		BackoffBase:  200 * time.Millisecond,
		BackoffMax:   time.Second,
	}, zap.NewNop())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Fetch(ctx, srv.URL)
	require.Error(t, err)
	require.Less(t, attempts.Load(), int32(5))
}

func TestRetryPolicy_Backoff_GrowsAndCaps(t *testing.T) {
	t.Parallel()

	p := newRetryPolicy(5, 100*time.Millisecond, 300*time.Millisecond)
	require.Equal(t, 100*time.Millisecond, p.backoff(0))
	require.Equal(t, 200*time.Millisecond, p.backoff(1))
	require.Equal(t, 300*time.Millisecond, p.backoff(2))
	require.Equal(t, 300*time.Millisecond, p.backoff(10))
}

func TestRetryPolicy_ShouldRetry_ClassifiesErrors(t *testing.T) {
	t.Parallel()

	p := newRetryPolicy(3, time.Millisecond, time.Millisecond)
	ctx := context.Background()
	transportErr := errors.New("connection reset")

	require.True(t, p.shouldRetry(ctx, transportErr))
	require.False(t, p.shouldRetry(ctx, &StatusError{Code: 500}))
	require.False(t, p.shouldRetry(ctx, ErrNotHTML))
	require.False(t, p.shouldRetry(ctx, ErrTooLarge))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	require.False(t, p.shouldRetry(canceled, transportErr))
}
