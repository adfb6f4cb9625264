// Package metrics exposes quota, refresh and job activity to Prometheus.
package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/services/refresh"
)

const namespace = "golf"

type Metrics struct {
	QuotaUsed       *prometheus.GaugeVec
	QuotaTotal      prometheus.Gauge
	QuotaCeiling    prometheus.Gauge
	RefreshBatches  *prometheus.CounterVec
	VideosRefreshed *prometheus.CounterVec
	JobRuns         *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QuotaUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quota_operations",
			Help:      "Operations recorded today, by operation.",
		}, []string{"operation"}),
		QuotaTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quota_units_used",
			Help:      "Weighted API units spent today.",
		}),
		QuotaCeiling: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quota_units_ceiling",
			Help:      "Daily API unit ceiling.",
		}),
		RefreshBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_batches_total",
			Help:      "Refresh batches, by job and outcome.",
		}, []string{"job", "outcome"}),
		VideosRefreshed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "videos_refreshed_total",
			Help:      "Video rows updated from fresh statistics, by job.",
		}, []string{"job"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs, by job and status.",
		}, []string{"job", "status"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Scheduled job duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"job"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ops_request_duration_seconds",
			Help:      "Ops HTTP request duration, by path, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
	}

	reg.MustRegister(
		m.QuotaUsed,
		m.QuotaTotal,
		m.QuotaCeiling,
		m.RefreshBatches,
		m.VideosRefreshed,
		m.JobRuns,
		m.JobDuration,
		m.RequestDuration,
	)
	return m
}

// RegisterDBStats exposes connection pool gauges read live from stats.
func RegisterDBStats(reg prometheus.Registerer, stats func() sql.DBStats) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_in_use",
			Help:      "Database connections currently in use.",
		}, func() float64 { return float64(stats().InUse) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Idle database connections.",
		}, func() float64 { return float64(stats().Idle) }),
	)
}

func (m *Metrics) ObserveQuota(usage *models.QuotaUsage, ceiling int64) {
	for _, op := range models.Operations() {
		m.QuotaUsed.WithLabelValues(string(op)).Set(float64(usage.Count(op)))
	}
	m.QuotaTotal.Set(float64(usage.TotalUnits()))
	m.QuotaCeiling.Set(float64(ceiling))
}

func (m *Metrics) ObserveBatch(job string, outcome refresh.Outcome, refreshed int) {
	m.RefreshBatches.WithLabelValues(job, string(outcome)).Inc()
	if refreshed > 0 {
		m.VideosRefreshed.WithLabelValues(job).Add(float64(refreshed))
	}
}

func (m *Metrics) ObserveJob(job string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.JobRuns.WithLabelValues(job, status).Inc()
	m.JobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *Metrics) ObserveRequest(path, method string, status int, d time.Duration) {
	m.RequestDuration.WithLabelValues(path, method, statusLabel(status)).Observe(d.Seconds())
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
