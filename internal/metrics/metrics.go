// Package metrics provides Prometheus metrics for the suggestion service.
// All recording methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	SuggestionsTotal   *prometheus.CounterVec
	SuggestionDuration *prometheus.HistogramVec
	CategorizeTotal    *prometheus.CounterVec
	CacheLookups       *prometheus.CounterVec
	LLMTokensTotal     *prometheus.CounterVec
	TasksActive        prometheus.Gauge
	ErrorsTotal        *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SuggestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_suggestions_total",
				Help: "Task suggestions by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		),
		SuggestionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "todo_suggestion_duration_seconds",
				Help:    "Time spent producing a suggestion, by provider.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		CategorizeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_categorize_requests_total",
				Help: "Categorization endpoint requests by status.",
			},
			[]string{"status"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_categorize_cache_lookups_total",
				Help: "Categorization cache lookups by result.",
			},
			[]string{"result"},
		),
		LLMTokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_llm_tokens_total",
				Help: "Model tokens consumed by direction.",
			},
			[]string{"direction"},
		),
		TasksActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "todo_tasks_active",
				Help: "Number of incomplete tasks currently held in the store.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.SuggestionsTotal)
	reg.MustRegister(m.SuggestionDuration)
	reg.MustRegister(m.CategorizeTotal)
	reg.MustRegister(m.CacheLookups)
	reg.MustRegister(m.LLMTokensTotal)
	reg.MustRegister(m.TasksActive)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSuggestion counts a suggestion and observes its duration.
func (m *Metrics) RecordSuggestion(provider, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.SuggestionsTotal.WithLabelValues(provider, outcome).Inc()
	m.SuggestionDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordCategorize counts a categorization endpoint request.
func (m *Metrics) RecordCategorize(status string) {
	if m == nil {
		return
	}
	m.CategorizeTotal.WithLabelValues(status).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordTokens adds model token usage.
func (m *Metrics) RecordTokens(input, output int) {
	if m == nil {
		return
	}
	m.LLMTokensTotal.WithLabelValues("input").Add(float64(input))
	m.LLMTokensTotal.WithLabelValues("output").Add(float64(output))
}

// SetTasks sets the active task count.
func (m *Metrics) SetTasks(count int) {
	if m == nil {
		return
	}
	m.TasksActive.Set(float64(count))
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}
