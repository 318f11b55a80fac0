// Package observe provides application-wide observability primitives for
// Veena: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Veena metrics.
const meterName = "github.com/valuenable/veena"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// LLMDuration tracks LLM completion latency.
	LLMDuration metric.Float64Histogram

	// TTSDuration tracks text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// TurnDuration tracks end-to-end chat turn latency, from receiving the
	// user message (or audio) to the persisted reply.
	TurnDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ConversationTurns counts persisted turns. Use with attributes:
	//   attribute.String("type", "user"|"ai"), attribute.Bool("voice", ...)
	ConversationTurns metric.Int64Counter

	// Transcriptions counts voice transcription attempts. Use with attribute:
	//   attribute.String("status", "ok"|"no_speech"|"error")
	Transcriptions metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// Fallbacks counts fallback activations. Use with attribute:
	//   attribute.String("kind", "llm"|"stt"|"tts")
	Fallbacks metric.Int64Counter

	// --- Gauges ---

	// ActiveConversations tracks conversations created but not yet ended.
	ActiveConversations metric.Int64UpDownCounter

	// ActiveStreams tracks open websocket voice streams.
	ActiveStreams metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for chat and voice pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.STTDuration, err = m.Float64Histogram("veena.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("veena.llm.duration",
		metric.WithDescription("Latency of LLM completion."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("veena.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TurnDuration, err = m.Float64Histogram("veena.turn.duration",
		metric.WithDescription("End-to-end chat turn latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("veena.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ConversationTurns, err = m.Int64Counter("veena.conversation.turns",
		metric.WithDescription("Total persisted conversation turns by type and voice origin."),
	); err != nil {
		return nil, err
	}
	if met.Transcriptions, err = m.Int64Counter("veena.transcriptions",
		metric.WithDescription("Total voice transcription attempts by status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("veena.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.Fallbacks, err = m.Int64Counter("veena.fallbacks",
		metric.WithDescription("Total provider fallback activations by kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveConversations, err = m.Int64UpDownCounter("veena.active_conversations",
		metric.WithDescription("Number of conversations created but not yet ended."),
	); err != nil {
		return nil, err
	}
	if met.ActiveStreams, err = m.Int64UpDownCounter("veena.active_streams",
		metric.WithDescription("Number of open websocket voice streams."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("veena.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordTurn is a convenience method that records a persisted conversation
// turn with its type and voice origin.
func (m *Metrics) RecordTurn(ctx context.Context, turnType string, voice bool) {
	m.ConversationTurns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("type", turnType),
			attribute.Bool("voice", voice),
		),
	)
}

// RecordTranscription is a convenience method that records a transcription
// attempt outcome.
func (m *Metrics) RecordTranscription(ctx context.Context, status string) {
	m.Transcriptions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordFallback is a convenience method that records a fallback activation
// for one provider kind.
func (m *Metrics) RecordFallback(ctx context.Context, kind string) {
	m.Fallbacks.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
