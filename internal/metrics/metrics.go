// Package metrics provides Prometheus metrics for the question-answering service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeResolved      = "resolved"
	OutcomeFallback      = "fallback"
	OutcomeFallbackError = "fallback_error"
	OutcomeCached        = "cached"
)

var (
	AnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrqa_answers_total",
			Help: "Total number of answered questions by dataset and outcome",
		},
		[]string{"dataset", "outcome"},
	)
	IntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrqa_intents_total",
			Help: "Deterministic answers by matched intent",
		},
		[]string{"intent"},
	)
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hrqa_completion_duration_seconds",
			Help:    "Completion service call duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)
	DatasetRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hrqa_dataset_records",
			Help: "Normalized records loaded per dataset",
		},
		[]string{"dataset"},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrqa_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hrqa_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func RecordAnswer(dataset, outcome string) {
	AnswersTotal.WithLabelValues(dataset, outcome).Inc()
}

func RecordIntent(intent string) {
	IntentsTotal.WithLabelValues(intent).Inc()
}

func RecordCompletion(provider string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	CompletionDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
}

func SetDatasetRecords(dataset string, n int) {
	DatasetRecords.WithLabelValues(dataset).Set(float64(n))
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
