// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LanguageDetections tracks classifier results.
	LanguageDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "language_detections_total",
			Help: "Messages classified, by detected language label",
		},
		[]string{"label"},
	)

	// TranslationsTotal tracks translation gateway outcomes.
	TranslationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translations_total",
			Help: "Translation requests by direction and outcome",
		},
		[]string{"source", "target", "outcome"},
	)

	// LLMCompletionDuration tracks LLM completion latency.
	LLMCompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "LLM completion duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "outcome"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"provider", "direction"},
	)

	// TTSAttemptsTotal tracks synthesis attempts per strategy.
	TTSAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tts_attempts_total",
			Help: "Speech synthesis attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	// ClipGenerationsTotal tracks lazily generated notification clips.
	ClipGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_generations_total",
			Help: "Notification clips synthesized into the cache",
		},
		[]string{"outcome"},
	)

	// PlaybacksTotal tracks audio playback attempts.
	PlaybacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_playbacks_total",
			Help: "Audio playbacks by outcome",
		},
		[]string{"outcome"},
	)

	// DeviceEventsTotal tracks microcontroller events received.
	DeviceEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "device_events_total",
			Help: "Device events received, by type and ingress",
		},
		[]string{"type", "source"},
	)

	// HistoryEntries tracks the in-memory conversation log size.
	HistoryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "history_entries",
			Help: "Number of entries in the in-memory conversation log",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCompletion records metrics for one LLM completion.
func RecordCompletion(provider, outcome string, duration float64, tokensIn, tokensOut int) {
	LLMCompletionDuration.WithLabelValues(provider, outcome).Observe(duration)
	if tokensIn > 0 {
		LLMTokensTotal.WithLabelValues(provider, "in").Add(float64(tokensIn))
	}
	if tokensOut > 0 {
		LLMTokensTotal.WithLabelValues(provider, "out").Add(float64(tokensOut))
	}
}

// RecordTranslation records the outcome of one translation request.
func RecordTranslation(source, target, outcome string) {
	TranslationsTotal.WithLabelValues(source, target, outcome).Inc()
}

// RecordTTSAttempt records one strategy attempt.
func RecordTTSAttempt(strategy string, ok bool) {
	TTSAttemptsTotal.WithLabelValues(strategy, outcome(ok)).Inc()
}

// RecordPlayback records whether a playback was started.
func RecordPlayback(ok bool) {
	PlaybacksTotal.WithLabelValues(outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
