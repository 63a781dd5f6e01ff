// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vociferous"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsStarted prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionOutcomes *prometheus.CounterVec
	SessionDuration prometheus.Histogram

	// Pipeline metrics
	AudioChunksCaptured  prometheus.Counter
	AudioBytesCaptured   prometheus.Counter
	OverflowBytesDropped prometheus.Counter
	SegmentsDelivered    prometheus.Counter
	StageErrors          *prometheus.CounterVec

	// Transcript metrics
	TranscriptsStored prometheus.Counter
	PolishRequests    prometheus.Counter
	PolishFailures    prometheus.Counter

	// Delivery surface metrics
	WebsocketClients prometheus.Gauge
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of transcription sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently running transcription sessions",
		}),
		SessionOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_outcomes_total",
			Help:      "Total number of finished sessions by outcome",
		}, []string{"outcome"}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall-clock duration of transcription sessions in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),

		AudioChunksCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_captured_total",
			Help:      "Total audio chunks pulled from sources",
		}),
		AudioBytesCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_captured_total",
			Help:      "Total audio bytes pulled from sources",
		}),
		OverflowBytesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_overflow_bytes_dropped_total",
			Help:      "Total buffered audio bytes dropped by the engine overflow guard",
		}),
		SegmentsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_delivered_total",
			Help:      "Total transcript segments delivered to sinks",
		}),
		StageErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Total fatal pipeline stage errors",
		}, []string{"stage"}),

		TranscriptsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_stored_total",
			Help:      "Total transcription results written to storage",
		}),
		PolishRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polish_requests_total",
			Help:      "Total transcript polishing requests issued",
		}),
		PolishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polish_failures_total",
			Help:      "Total transcript polishing requests that failed",
		}),

		WebsocketClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Number of connected websocket clients",
		}),
	}
}

// RecordSessionStart records a session starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsStarted.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a session finishing with the given outcome.
func (m *Metrics) RecordSessionEnd(outcome string, durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionOutcomes.WithLabelValues(outcome).Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordAudioCaptured records one chunk of captured audio.
func (m *Metrics) RecordAudioCaptured(bytes int) {
	m.AudioChunksCaptured.Inc()
	m.AudioBytesCaptured.Add(float64(bytes))
}

// RecordOverflowDropped records audio discarded by the overflow guard.
func (m *Metrics) RecordOverflowDropped(bytes int) {
	m.OverflowBytesDropped.Add(float64(bytes))
}

// RecordSegmentDelivered records a segment handed to a sink.
func (m *Metrics) RecordSegmentDelivered() {
	m.SegmentsDelivered.Inc()
}

// RecordStageError records a fatal error in a pipeline stage.
func (m *Metrics) RecordStageError(stage string) {
	m.StageErrors.WithLabelValues(stage).Inc()
}

// RecordTranscriptStored records a result written to storage.
func (m *Metrics) RecordTranscriptStored() {
	m.TranscriptsStored.Inc()
}

// RecordPolish records a polishing attempt.
func (m *Metrics) RecordPolish(err error) {
	m.PolishRequests.Inc()
	if err != nil {
		m.PolishFailures.Inc()
	}
}
