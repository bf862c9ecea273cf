package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		completionPromptTokens,
		completionOutputTokens,
		completionCostUSD,
		streamDuration,
		streamAborts,
	)
}

var (
	completionPromptTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_prompt_tokens_total",
			Help: "Sum of estimated prompt tokens per model.",
		},
		[]string{"model"},
	)

	completionOutputTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_output_tokens_total",
			Help: "Sum of estimated completion tokens per model.",
		},
		[]string{"model"},
	)

	completionCostUSD = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_cost_usd_total",
			Help: "Accumulated completion cost in USD per model.",
		},
		[]string{"model"},
	)

	streamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "completion_stream_duration_seconds",
			Help:    "Wall-clock duration of completion streams.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 30, 60},
		},
		[]string{"model", "outcome"},
	)

	streamAborts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "completion_stream_aborts_total",
			Help: "Count of user-initiated stream aborts.",
		},
	)
)

// ObserveCompletionUsage folds one completed request into the token and
// cost counters.
func ObserveCompletionUsage(model string, promptTokens, completionTokens int, costUSD float64) {
	completionPromptTokens.WithLabelValues(model).Add(float64(promptTokens))
	completionOutputTokens.WithLabelValues(model).Add(float64(completionTokens))
	completionCostUSD.WithLabelValues(model).Add(costUSD)
}

// ObserveStreamDuration records one stream's lifetime; outcome is one of
// "ok" | "error" | "cancelled".
func ObserveStreamDuration(model, outcome string, seconds float64) {
	streamDuration.WithLabelValues(model, outcome).Observe(seconds)
}

func StreamAborted() {
	streamAborts.Inc()
}
