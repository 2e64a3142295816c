// Package metrics provides Prometheus metrics for the task analytics service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AdvisorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpulse_advisor_calls_total",
			Help: "Total number of advisor calls by need and outcome",
		},
		[]string{"need", "outcome"},
	)
	AdvisorLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpulse_advisor_latency_seconds",
			Help:    "Advisor call duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"need"},
	)
	AdvisorCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpulse_advisor_cache_lookups_total",
			Help: "Advisor cache lookups by need and result",
		},
		[]string{"need", "result"},
	)
	ScoreDistribution = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpulse_score",
			Help:    "Distribution of computed productivity and burnout scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
		[]string{"kind"},
	)
	ScheduleItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskpulse_schedule_items",
			Help:    "Number of items in generated day plans",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
	EstimatesBySource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpulse_estimates_total",
			Help: "Total number of duration estimates by source",
		},
		[]string{"source"},
	)
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpulse_store_query_duration_seconds",
			Help:    "Task store query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpulse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpulse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func RecordAdvisorCall(need, outcome string, duration time.Duration) {
	AdvisorCalls.WithLabelValues(need, outcome).Inc()
	AdvisorLatency.WithLabelValues(need).Observe(duration.Seconds())
}

func RecordCacheLookup(need string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	AdvisorCacheLookups.WithLabelValues(need, result).Inc()
}

func RecordScore(kind string, score int) {
	ScoreDistribution.WithLabelValues(kind).Observe(float64(score))
}

func RecordSchedule(items int) {
	ScheduleItems.Observe(float64(items))
}

func RecordEstimate(source string) {
	EstimatesBySource.WithLabelValues(source).Inc()
}

func RecordStoreQuery(err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreQueryDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
