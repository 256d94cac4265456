package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	PlanRequests        *prometheus.CounterVec
	SpeechRequests      *prometheus.CounterVec
	ProviderErrors      *prometheus.CounterVec
	WSMessages          *prometheus.CounterVec
	SpeechCache         *prometheus.CounterVec
	SpeechChunks        prometheus.Histogram
	SpeechBytes         prometheus.Histogram
	FirstChunkLatency   prometheus.Histogram
	PlanLatency         prometheus.Histogram
	SpeechTotalDuration prometheus.Histogram

	stages *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith registers the instruments on reg. Tests pass a fresh registry.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PlanRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_requests_total",
			Help:      "Plan generation requests by outcome.",
		}, []string{"outcome"}),
		SpeechRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_requests_total",
			Help:      "Speech synthesis requests by outcome.",
		}, []string{"outcome"}),
		ProviderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by provider and kind.",
		}, []string{"provider", "kind"}),
		WSMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		SpeechCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_cache_total",
			Help:      "Speech cache lookups by result.",
		}, []string{"result"}),
		SpeechChunks: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "speech_chunks",
			Help:      "Audio chunks received per synthesis.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		SpeechBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "speech_payload_bytes",
			Help:      "Raw sample bytes per synthesis.",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 2, 10),
		}),
		FirstChunkLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "speech_first_chunk_latency_ms",
			Help:      "Latency to the first audio chunk in milliseconds.",
			Buckets:   []float64{100, 200, 300, 500, 700, 900, 1200, 2000, 4000},
		}),
		PlanLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_latency_ms",
			Help:      "Plan generation latency in milliseconds.",
			Buckets:   []float64{1000, 2500, 5000, 10000, 20000, 40000, 80000},
		}),
		SpeechTotalDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "speech_total_latency_ms",
			Help:      "End-to-end synthesis latency in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 16000, 32000},
		}),
		stages: newStageWindow(256),
	}
}

func (m *Metrics) ObserveFirstChunk(d time.Duration) {
	m.FirstChunkLatency.Observe(float64(d.Milliseconds()))
	m.stages.Observe(StageSpeechFirstChunk, float64(d.Milliseconds()))
}

func (m *Metrics) ObserveSpeech(total time.Duration, chunks, payloadBytes int) {
	m.SpeechTotalDuration.Observe(float64(total.Milliseconds()))
	m.SpeechChunks.Observe(float64(chunks))
	m.SpeechBytes.Observe(float64(payloadBytes))
	m.stages.Observe(StageSpeechTotal, float64(total.Milliseconds()))
}

func (m *Metrics) ObservePlan(d time.Duration) {
	m.PlanLatency.Observe(float64(d.Milliseconds()))
	m.stages.Observe(StagePlanGenerate, float64(d.Milliseconds()))
}

func (m *Metrics) ObserveIndicator(name string) {
	m.stages.ObserveIndicator(name)
}

// SnapshotStages reports the rolling latency window, optionally limited to
// the named stages.
func (m *Metrics) SnapshotStages(names ...string) StageSnapshot {
	return m.stages.Snapshot(names...)
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
