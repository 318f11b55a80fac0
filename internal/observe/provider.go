package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// defaultService is the service name reported when the config leaves it empty.
const defaultService = "veena"

// ProviderConfig configures the OpenTelemetry SDK providers for the assistant.
type ProviderConfig struct {
	// ServiceName identifies this deployment in telemetry. Default: "veena".
	ServiceName string

	// ServiceVersion is the release reported alongside the service name.
	ServiceVersion string

	// TraceExporter receives finished spans. When nil, spans are recorded in
	// process but never exported, which is what the tests and single-node
	// deployments want; production points this at an OTLP collector.
	TraceExporter sdktrace.SpanExporter
}

// InitProvider registers the global OTel meter and tracer providers for the
// assistant. Metrics flow through a Prometheus exporter so the existing
// /metrics scrape keeps working; traces go to cfg.TraceExporter when set.
//
// The returned function flushes and shuts both providers down; defer it from
// main with a short deadline.
func InitProvider(_ context.Context, cfg ProviderConfig) (shutdown func(context.Context) error, err error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultService
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	mp, err := newMeterProvider(res)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(mp)

	tp := newTracerProvider(res, cfg.TraceExporter)
	otel.SetTracerProvider(tp)

	shutdown = func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}
	return shutdown, nil
}

// newResource describes this service instance for all exported telemetry.
func newResource(cfg ProviderConfig) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
}

// newMeterProvider builds the meter provider backed by the Prometheus bridge.
func newMeterProvider(res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exp, err := promexporter.New()
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exp),
	), nil
}

// newTracerProvider builds the tracer provider, batching to exp when present.
func newTracerProvider(res *resource.Resource, exp sdktrace.SpanExporter) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...)
}
