// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlPagesTotal    *prometheus.CounterVec
	crawlBytesTotal    prometheus.Counter
	batchItemsTotal    *prometheus.CounterVec
	sitesAdmittedTotal prometheus.Counter
	rateLimitDelaySecs prometheus.Histogram
	queuePendingGauge  prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		crawlPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_pages_total",
				Help: "Pages crawled, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		crawlBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_bytes_total",
				Help: "Total HTML bytes fetched.",
			},
		)
		batchItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_batch_items_total",
				Help: "Queue items processed per batch, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		sitesAdmittedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_sites_admitted_total",
				Help: "New sites auto-admitted to the catalog.",
			},
		)
		rateLimitDelaySecs = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawler_rate_limit_delay_seconds",
				Help:    "Politeness wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		)
		queuePendingGauge = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_queue_pending",
				Help: "Queue items currently pending.",
			},
		)
	})
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCrawl records one crawl outcome and its byte count.
func ObserveCrawl(success bool, bytesFetched int) {
	if crawlPagesTotal == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	crawlPagesTotal.WithLabelValues(outcome).Inc()
	if bytesFetched > 0 {
		crawlBytesTotal.Add(float64(bytesFetched))
	}
}

// ObserveBatch records the outcome counts of one orchestrator run.
func ObserveBatch(completed, failed, discovered int) {
	if batchItemsTotal == nil {
		return
	}
	batchItemsTotal.WithLabelValues("completed").Add(float64(completed))
	batchItemsTotal.WithLabelValues("failed").Add(float64(failed))
	batchItemsTotal.WithLabelValues("discovered").Add(float64(discovered))
}

// ObserveAdmission counts a newly admitted site.
func ObserveAdmission() {
	if sitesAdmittedTotal == nil {
		return
	}
	sitesAdmittedTotal.Inc()
}

// ObserveRateLimitDelay records a politeness wait.
func ObserveRateLimitDelay(d time.Duration) {
	if rateLimitDelaySecs == nil {
		return
	}
	rateLimitDelaySecs.Observe(d.Seconds())
}

// SetQueuePending publishes the current pending-queue depth.
func SetQueuePending(n int) {
	if queuePendingGauge == nil {
		return
	}
	queuePendingGauge.Set(float64(n))
}
