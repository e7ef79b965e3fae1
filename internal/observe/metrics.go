// Package observe provides observability primitives for ragcore: OpenTelemetry
// metrics with a Prometheus exporter bridge.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided for
// convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for all ragcore metrics.
const meterName = "github.com/doclinea/ragcore"

// Metrics holds all OpenTelemetry metric instruments for the engine.
// The underlying OTel types handle their own synchronisation.
type Metrics struct {
	// TextGenDuration tracks text-generation latency per provider call.
	TextGenDuration metric.Float64Histogram

	// EmbeddingDuration tracks embedding-generation latency.
	EmbeddingDuration metric.Float64Histogram

	// RetrievalDuration tracks end-to-end context retrieval latency.
	RetrievalDuration metric.Float64Histogram

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("capability", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider failures. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("capability", ...)
	ProviderErrors metric.Int64Counter

	// RerankFallbacks counts re-ranking calls that fell back to raw
	// similarity ordering.
	RerankFallbacks metric.Int64Counter

	// ChunksRetrieved records the deduplicated candidate count per retrieval.
	ChunksRetrieved metric.Int64Histogram
}

// NewMetrics creates all instruments against mp. Pass otel.GetMeterProvider()
// in production or a test-scoped sdkmetric provider in tests.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)

	m := &Metrics{}
	var err error

	if m.TextGenDuration, err = meter.Float64Histogram(
		"ragcore.textgen.duration",
		metric.WithDescription("Text generation latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.EmbeddingDuration, err = meter.Float64Histogram(
		"ragcore.embedding.duration",
		metric.WithDescription("Embedding generation latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.RetrievalDuration, err = meter.Float64Histogram(
		"ragcore.retrieval.duration",
		metric.WithDescription("End-to-end context retrieval latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.ProviderRequests, err = meter.Int64Counter(
		"ragcore.provider.requests",
		metric.WithDescription("Provider API calls"),
	); err != nil {
		return nil, err
	}
	if m.ProviderErrors, err = meter.Int64Counter(
		"ragcore.provider.errors",
		metric.WithDescription("Provider API failures"),
	); err != nil {
		return nil, err
	}
	if m.RerankFallbacks, err = meter.Int64Counter(
		"ragcore.rerank.fallbacks",
		metric.WithDescription("Re-rankings degraded to similarity ordering"),
	); err != nil {
		return nil, err
	}
	if m.ChunksRetrieved, err = meter.Int64Histogram(
		"ragcore.retrieval.chunks",
		metric.WithDescription("Deduplicated candidate chunks per retrieval"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the process-wide [Metrics] built against the global
// meter provider. Instruments that fail to build are left nil; recording on
// them via the helpers below is a no-op.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			m = &Metrics{}
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordProviderCall records one provider request outcome.
func (m *Metrics) RecordProviderCall(ctx context.Context, providerID, capability string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", providerID),
		attribute.String("capability", capability),
		attribute.String("status", status),
	)
	if m.ProviderRequests != nil {
		m.ProviderRequests.Add(ctx, 1, attrs)
	}
	if err != nil && m.ProviderErrors != nil {
		m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", providerID),
			attribute.String("capability", capability),
		))
	}
	switch capability {
	case "text":
		if m.TextGenDuration != nil {
			m.TextGenDuration.Record(ctx, seconds, attrs)
		}
	case "embedding":
		if m.EmbeddingDuration != nil {
			m.EmbeddingDuration.Record(ctx, seconds, attrs)
		}
	}
}
