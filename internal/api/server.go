// Package api exposes the HTTP operational surface of the ingestion service.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/littleweb/crawler/internal/classify"
	"github.com/littleweb/crawler/internal/crawl"
	"github.com/littleweb/crawler/internal/crawler"
	"github.com/littleweb/crawler/internal/metrics"
	"github.com/littleweb/crawler/internal/score"
)

const (
	requestTimeout   = 60 * time.Second
	defaultListLimit = 50
	maxListLimit     = 200
)

// Server wires HTTP handlers to the queue store and the site crawler.
type Server struct {
	router      chi.Router
	queueStore  crawl.QueueStore
	siteCrawler *crawler.SiteCrawler
	classifier  classify.Classifier
	clock       crawl.Clock
	logger      *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	queueStore crawl.QueueStore,
	siteCrawler *crawler.SiteCrawler,
	classifier classify.Classifier,
	clock crawl.Clock,
	logger *zap.Logger,
) *Server {
	s := &Server{
		queueStore:  queueStore,
		siteCrawler: siteCrawler,
		classifier:  classifier,
		clock:       clock,
		logger:      logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/queue", func(r chi.Router) {
			r.Get("/stats", s.queueStats)
			r.Get("/items", s.listItems)
			r.Post("/items", s.enqueue)
			r.Post("/retry-failed", s.retryFailed)
		})
		r.Post("/crawl/test", s.testCrawl)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.queueStore.PendingCount(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "queue store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) queueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queueStore.Stats(r.Context())
	if err != nil {
		s.logger.Error("queue stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch queue stats")
		return
	}
	metrics.SetQueuePending(stats.Pending)
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	status := crawl.QueueStatus(r.URL.Query().Get("status"))
	switch status {
	case crawl.StatusPending, crawl.StatusProcessing, crawl.StatusCompleted, crawl.StatusFailed:
	case "":
		status = crawl.StatusPending
	default:
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	limit := queryInt(r, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := queryInt(r, "offset", 0)

	items, err := s.queueStore.List(r.Context(), status, limit, offset)
	if err != nil {
		s.logger.Error("queue list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list queue items")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

type enqueueRequest struct {
	URL             string `json:"url"`
	Priority        int    `json:"priority"`
	ExtractAllLinks bool   `json:"extract_all_links"`
}

func (s *Server) enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	normalized, err := crawl.NormalizeURL(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid URL")
		return
	}

	if err := s.queueStore.Enqueue(r.Context(), normalized, req.Priority, req.ExtractAllLinks); err != nil {
		s.logger.Error("enqueue failed", zap.String("url", normalized), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to enqueue")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"url": normalized, "status": "queued"})
}

func (s *Server) retryFailed(w http.ResponseWriter, r *http.Request) {
	n, err := s.queueStore.RetryFailed(r.Context(), s.clock.Now())
	if err != nil {
		s.logger.Error("retry failed items", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to reset failed items")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"reset": n})
}

type testCrawlRequest struct {
	URL             string `json:"url"`
	ExtractAllLinks bool   `json:"extract_all_links"`
}

type testCrawlResponse struct {
	Result     crawl.Result        `json:"result"`
	Assessment *score.QualityScore `json:"assessment,omitempty"`
}

// testCrawl fetches and scores one URL without touching the queue or catalog.
func (s *Server) testCrawl(w http.ResponseWriter, r *http.Request) {
	var req testCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}

	result := s.siteCrawler.Crawl(r.Context(), req.URL, req.ExtractAllLinks)

	resp := testCrawlResponse{Result: result}
	if result.Success && result.Content != nil {
		cls := s.classifier.Classify(req.URL)
		assessment := score.Assess(*result.Content, req.URL, false, &cls, s.clock.Now())
		resp.Assessment = &assessment
	}
	writeJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
