// Package metrics provides Prometheus metrics for the explorer service:
//   - http_request_total, http_request_duration_seconds, http_request_in_flight: HTTP traffic
//   - rate_limiter_buckets_total: IPs tracked by the rate limiter
//   - dataset_rows, dataset_facet_columns, dataset_last_load_timestamp_seconds, dataset_loads_total: catalog loads
//   - llm_requests_total, llm_request_duration_seconds: language-model calls by operation
//   - sessions_actions_total: session reducer actions by type and result
//
// All metrics are registered with the Prometheus default registry during package initialization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	DatasetRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Medicines currently loaded",
		},
	)

	DatasetFacetColumns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_facet_columns",
			Help: "Columns with a facet index",
		},
	)

	DatasetLastLoad = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_last_load_timestamp_seconds",
			Help: "Unix time of the last successful catalog load",
		},
	)

	DatasetLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_loads_total",
			Help: "Catalog load attempts by result",
		},
		[]string{"result"},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Language-model calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Language-model call latency",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 16, 32, 60},
		},
		[]string{"operation"},
	)

	SessionActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_actions_total",
			Help: "Session actions by type and result",
		},
		[]string{"action", "result"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(DatasetRows)
	prometheus.MustRegister(DatasetFacetColumns)
	prometheus.MustRegister(DatasetLastLoad)
	prometheus.MustRegister(DatasetLoadsTotal)
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(SessionActionsTotal)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveDatasetLoad records a catalog load attempt. rows and facetColumns are only used on success.
func ObserveDatasetLoad(rows, facetColumns int, loadedAt time.Time, err error) {
	DatasetLoadsTotal.WithLabelValues(result(err)).Inc()
	if err != nil {
		return
	}
	DatasetRows.Set(float64(rows))
	DatasetFacetColumns.Set(float64(facetColumns))
	DatasetLastLoad.Set(float64(loadedAt.Unix()))
}

// ObserveLLM records one language-model call.
func ObserveLLM(operation string, start time.Time, err error) {
	LLMRequestsTotal.WithLabelValues(operation, result(err)).Inc()
	LLMRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveAction records one session reducer action.
func ObserveAction(action string, err error) {
	SessionActionsTotal.WithLabelValues(action, result(err)).Inc()
}
