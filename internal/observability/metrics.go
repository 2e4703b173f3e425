// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "bank_personalization"

// Pipeline stages measured by StageDuration.
const (
	StageLoad     = "load"
	StageFeatures = "features"
	StageSignals  = "signals"
	StageBenefit  = "benefit"
	StageRanking  = "ranking"
	StagePersist  = "persist"
	StageNotify   = "notify"
)

// Client outcomes counted by ClientsProcessed.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeNoData    = "no_data"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Pipeline metrics
	ClientsProcessed       *prometheus.CounterVec
	StageDuration          *prometheus.HistogramVec
	RecommendationsEmitted *prometheus.CounterVec
	RecordsDropped         prometheus.Counter
	Retries                *prometheus.CounterVec

	// Run metrics
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	LastSuccessfulRun prometheus.Gauge

	// Notification metrics
	Notifications       *prometheus.CounterVec
	NotificationLatency prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ClientsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "clients_processed_total",
			Help:      "Total number of clients processed by outcome",
		}, []string{"outcome"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Per-client stage latency in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"stage"}),
		RecommendationsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "recommendations_emitted_total",
			Help:      "Total number of recommendations emitted by product",
		}, []string{"product"}),
		RecordsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "records_dropped_total",
			Help:      "Total number of malformed transactions and transfers skipped",
		}),
		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "retries_total",
			Help:      "Total number of retried collaborator calls by operation",
		}, []string{"operation"}),

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "runs_total",
			Help:      "Total number of batch runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Batch run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last completed run",
		}),

		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "generated_total",
			Help:      "Total number of notification texts by source",
		}, []string{"source"}),
		NotificationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "api_latency_seconds",
			Help:      "Notification API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint serving g.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveStage records the latency of one pipeline stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordClient counts one processed client.
func (m *Metrics) RecordClient(outcome string) {
	if m == nil {
		return
	}
	m.ClientsProcessed.WithLabelValues(outcome).Inc()
}

// RecordRecommendation counts one emitted recommendation.
func (m *Metrics) RecordRecommendation(product string) {
	if m == nil {
		return
	}
	m.RecommendationsEmitted.WithLabelValues(product).Inc()
}

// RecordDropped adds skipped input records.
func (m *Metrics) RecordDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsDropped.Add(float64(n))
}

// RecordRetry counts one retried collaborator call.
func (m *Metrics) RecordRetry(operation string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(operation).Inc()
}

// RecordRun records a finished batch run.
func (m *Metrics) RecordRun(status string, d time.Duration, finishedAt time.Time, completed bool) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
	if completed {
		m.LastSuccessfulRun.Set(float64(finishedAt.Unix()))
	}
}

// RecordNotification counts one notification text by source.
func (m *Metrics) RecordNotification(source string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(source).Inc()
}

// ObserveNotificationAPI records the latency of one notification API call.
func (m *Metrics) ObserveNotificationAPI(d time.Duration) {
	if m == nil {
		return
	}
	m.NotificationLatency.Observe(d.Seconds())
}
