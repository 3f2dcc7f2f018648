package metrics

import "github.com/prometheus/client_golang/prometheus"

// Background job Prometheus metrics.
var (
	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ocrindex",
			Name:      "jobs_total",
			Help:      "Total OCR indexing jobs by terminal outcome",
		},
		[]string{"outcome"}, // "completed" / "not_found" / "retried" / "max_retries" / "error"
	)

	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ocrindex",
			Name:      "job_duration_seconds",
			Help:      "OCR indexing job attempt duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ocrindex",
			Name:      "queue_depth",
			Help:      "Jobs waiting in the ready queue",
		},
	)

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ocrindex",
			Name:      "submissions_total",
			Help:      "OCR submissions by admission result",
		},
		[]string{"result"}, // "accepted" / "rate_limited"
	)
)

var jobMetricsRegistered bool

// RegisterJobMetrics registers job metrics. Must be called once from main.
func RegisterJobMetrics() {
	if jobMetricsRegistered {
		return
	}
	prometheus.MustRegister(JobsTotal)
	prometheus.MustRegister(JobDuration)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(SubmissionsTotal)
	jobMetricsRegistered = true
}
