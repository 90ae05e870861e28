// Package observability provides OpenTelemetry tracing for Wrangler's
// providers and sinks.
package observability

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
)

const instrumentationName = "github.com/ajitpratap0/wrangler"

// Init installs a global tracer provider exporting to stdout when tracing is
// enabled. With tracing disabled the global no-op provider stays in place.
// The returned function flushes and shuts the provider down.
func Init(cfg config.ObservabilityConfig) (func(context.Context) error, error) {
	if !cfg.EnableTracing {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}
	return InitWithExporter(cfg, exporter)
}

// InitWithExporter is Init with a caller-supplied span exporter.
func InitWithExporter(cfg config.ObservabilityConfig, exporter sdktrace.SpanExporter) (func(context.Context) error, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.TracingSampleRate <= 0:
		sampler = sdktrace.NeverSample()
	case cfg.TracingSampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.TracingSampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// ComponentTracer starts spans named <component>.<operation> and tags them
// with the component kind, e.g. dataset.rt or pipeline.local.
type ComponentTracer struct {
	component string
	kind      string
}

// NewComponentTracer creates a tracer for one provider or sink instance.
func NewComponentTracer(component, kind string) *ComponentTracer {
	return &ComponentTracer{component: component, kind: kind}
}

// StartSpan starts a span for operation. The tracer is resolved from the
// global provider on every call so Init may run after construction.
func (ct *ComponentTracer) StartSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	attrs = append(attrs,
		attribute.String("component", ct.component),
		attribute.String("component.kind", ct.kind),
	)
	return tracer.Start(ctx, ct.component+"."+operation, trace.WithAttributes(attrs...))
}

// End records err on span, if any, then ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", string(errors.TypeOf(err))))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
