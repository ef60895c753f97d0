package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"nordfeed/internal/pkg/config"
)

// HarvestMetrics provides the Prometheus metrics of the harvest worker.
// It embeds the standard ConfigMetrics for configuration monitoring and adds
// harvest-specific metrics, labeled per source so NRK and BBC ticks can be
// observed independently.
//
// Harvest metrics:
//   - worker_harvest_runs_total{source,status}
//   - worker_harvest_duration_seconds{source}
//   - worker_harvest_articles_total{source,outcome}
//   - worker_harvest_last_success_timestamp{source}
type HarvestMetrics struct {
	*config.ConfigMetrics

	HarvestRunsTotal *prometheus.CounterVec

	HarvestDurationSeconds *prometheus.HistogramVec

	// HarvestArticlesTotal counts stored article outcomes: "inserted" for
	// new rows and "duplicated" for idempotent no-ops.
	HarvestArticlesTotal *prometheus.CounterVec

	HarvestLastSuccessTimestamp *prometheus.GaugeVec
}

// NewHarvestMetrics creates a HarvestMetrics instance registered with the
// default Prometheus registry via promauto.
func NewHarvestMetrics() *HarvestMetrics {
	return &HarvestMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		HarvestRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_harvest_runs_total",
			Help: "Total harvest ticks by source and status (success/failure)",
		}, []string{"source", "status"}),

		HarvestDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_harvest_duration_seconds",
			Help:    "Duration of a single source harvest tick in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"source"}),

		HarvestArticlesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_harvest_articles_total",
			Help: "Total stored article outcomes by source (inserted/duplicated)",
		}, []string{"source", "outcome"}),

		HarvestLastSuccessTimestamp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_harvest_last_success_timestamp",
			Help: "Unix timestamp of the last successful harvest tick by source",
		}, []string{"source"}),
	}
}

// RecordRun increments the tick counter for a source. Status is "success"
// or "failure".
func (m *HarvestMetrics) RecordRun(source, status string) {
	m.HarvestRunsTotal.WithLabelValues(source, status).Inc()
}

// RecordDuration observes the duration in seconds of one source tick.
func (m *HarvestMetrics) RecordDuration(source string, seconds float64) {
	m.HarvestDurationSeconds.WithLabelValues(source).Observe(seconds)
}

// RecordArticles adds the inserted and duplicated counts of one tick.
func (m *HarvestMetrics) RecordArticles(source string, inserted, duplicated int) {
	m.HarvestArticlesTotal.WithLabelValues(source, "inserted").Add(float64(inserted))
	m.HarvestArticlesTotal.WithLabelValues(source, "duplicated").Add(float64(duplicated))
}

// RecordLastSuccess marks the current time as the source's last successful
// tick.
func (m *HarvestMetrics) RecordLastSuccess(source string) {
	m.HarvestLastSuccessTimestamp.WithLabelValues(source).SetToCurrentTime()
}
