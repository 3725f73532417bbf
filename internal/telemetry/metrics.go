// Package telemetry exports the Prometheus metrics of the sitecloner service.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sitecloner"

var (
	// Source fetching
	FetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_attempts_total",
		Help:      "Source page fetch attempts by client and result",
	}, []string{"client", "result"})

	// LLM calls
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_requests_total",
		Help:      "LLM provider calls by provider, mode and result",
	}, []string{"provider", "mode", "result"})

	LLMDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_request_duration_seconds",
		Help:      "LLM provider call latency",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
	}, []string{"provider", "mode"})

	LLMTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_tokens_total",
		Help:      "Tokens consumed by provider, model and kind (input, output)",
	}, []string{"provider", "model", "kind"})

	// Generation pipeline
	Generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generations_total",
		Help:      "Generation requests by source mode and outcome category",
	}, []string{"mode", "outcome"})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "generation_duration_seconds",
		Help:      "End to end generation latency",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 9),
	}, []string{"mode"})

	DiagnosticsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "diagnostics_recorded_total",
		Help:      "Failed model outputs recorded by sink and result",
	}, []string{"sink", "result"})

	// Previews
	Screenshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "screenshots_total",
		Help:      "Screenshot renders by result (ok, error, cache_hit)",
	}, []string{"result"})

	ScreenshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "screenshot_duration_seconds",
		Help:      "Screenshot render latency",
		Buckets:   []float64{1, 2, 5, 10, 20, 40, 60, 90},
	})

	EmbedChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embed_checks_total",
		Help:      "Embeddability checks by verdict",
	}, []string{"embeddable"})
)

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
