package tracing

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// NewTracerProvider builds an otel SDK tracer provider identified as
// serviceName, sampling every span, grounded on the teacher's
// pkg/trace/trace_provider.go (resource.New + sdktrace.NewTracerProvider)
// but trimmed of its exporter selection: wiring a span to an external
// collector is an application concern, not part of propagating the active
// span across goroutines. Callers that want spans exported attach their own
// sdktrace.SpanProcessor via the returned provider.
func NewTracerProvider(serviceName string) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}
