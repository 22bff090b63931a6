package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newResolver(ttl time.Duration) *Resolver {
	return NewResolver("littleweb-crawler/1.0", ttl, zap.NewNop())
}

func TestResolver_Resolve_SpecificAllowBeatsBroadDisallow(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/robots.txt", r.URL.Path)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\nAllow: /private/public/\n"))
	}))
	defer srv.Close()

	r := newResolver(time.Hour)

	denied, err := r.Resolve(context.Background(), srv.URL+"/private/page")
	require.NoError(t, err)
	require.False(t, denied.Allowed)

	allowed, err := r.Resolve(context.Background(), srv.URL+"/private/public/page")
	require.NoError(t, err)
	require.True(t, allowed.Allowed)

	root, err := r.Resolve(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	require.True(t, root.Allowed)
}

func TestResolver_Resolve_CrawlDelayHonored(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nCrawl-delay: 3\n"))
	}))
	defer srv.Close()

	r := newResolver(time.Hour)

	policy, err := r.Resolve(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	require.True(t, policy.Allowed)
	require.Equal(t, 3*time.Second, policy.CrawlDelay)
}

func TestResolver_Resolve_FetchFailureFailsOpenConservatively(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := newResolver(time.Hour)

	policy, err := r.Resolve(context.Background(), srv.URL+"/anything")
	require.NoError(t, err)
	require.True(t, policy.Allowed)
	require.Equal(t, conservativeDelay, policy.CrawlDelay)
}

func TestResolver_Resolve_UnreachableHostFailsOpen(t *testing.T) {
	t.Parallel()

	r := newResolver(time.Hour)

	policy, err := r.Resolve(context.Background(), "http://127.0.0.1:1/page")
	require.NoError(t, err)
	require.True(t, policy.Allowed)
	require.Equal(t, conservativeDelay, policy.CrawlDelay)
}

func TestResolver_Resolve_CachesPerOrigin(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow:\n"))
	}))
	defer srv.Close()

	r := newResolver(time.Hour)

	for i := 0; i < 5; i++ {
		_, err := r.Resolve(context.Background(), srv.URL+"/page")
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), hits.Load())
}

func TestResolver_Resolve_ExpiredCacheRefetches(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow:\n"))
	}))
	defer srv.Close()

	r := newResolver(time.Nanosecond)

	_, err := r.Resolve(context.Background(), srv.URL+"/a")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = r.Resolve(context.Background(), srv.URL+"/b")
	require.NoError(t, err)

	require.Equal(t, int32(2), hits.Load())
}
