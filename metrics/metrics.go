package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion Metrics
var (
	// FeedbackIngestedTotal tracks new feedback items by source channel and ingestion path
	FeedbackIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_ingested_total",
			Help: "Total feedback items ingested by source and ingestion path",
		},
		[]string{"source", "path"},
	)
)

// Analysis Metrics
var (
	// FeedbackAnalyzedTotal tracks analyzed feedback items by resulting sentiment
	FeedbackAnalyzedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_analyzed_total",
			Help: "Total feedback items analyzed by sentiment",
		},
		[]string{"sentiment"},
	)

	// HighPriorityFeedbackTotal tracks items that scored as high priority
	HighPriorityFeedbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_high_priority_total",
			Help: "Total feedback items scored as high priority",
		},
	)

	// AnalysisBatchesTotal tracks batch runs by outcome
	AnalysisBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_batches_total",
			Help: "Total analysis batch runs by status",
		},
		[]string{"status"},
	)

	// UnanalyzedBacklog tracks the unanalyzed count reported by the last successful batch
	UnanalyzedBacklog = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedback_unanalyzed_backlog",
			Help: "Unanalyzed feedback items remaining after the last batch",
		},
	)
)

// Classifier Metrics
var (
	// ClassifierRequestDuration tracks classifier latency in seconds
	ClassifierRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classifier_request_duration_seconds",
			Help:    "Sentiment classifier request duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)

	// ClassifierErrorsTotal tracks classifier failures by backend
	ClassifierErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_errors_total",
			Help: "Total sentiment classifier errors by backend",
		},
		[]string{"backend"},
	)

	// ClassificationCacheTotal tracks cache lookups by result (hit/miss/error)
	ClassificationCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classification_cache_total",
			Help: "Classification cache lookups by result",
		},
		[]string{"result"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// HTTP Metrics
var (
	// HTTPRequestsTotal tracks API requests by route, method and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration tracks API latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)
