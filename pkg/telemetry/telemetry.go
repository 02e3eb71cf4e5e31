// Package telemetry wires OpenTelemetry tracing for the gateway: an OTLP/HTTP
// exporter, W3C trace-context propagation, server middleware and a client
// transport.
//
// Tracing is on only when an OTLP endpoint is configured. Without one Init
// returns a disabled Provider whose middleware and transport still work, so
// callers never branch on it.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoServiceName is returned by Init when the service name is blank.
var ErrNoServiceName = errors.New("telemetry: service name is required")

// Config holds tracing settings.
type Config struct {
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"socialsync-gateway"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Provider owns the tracer provider for the lifetime of the process.
type Provider struct {
	service string
	tp      *sdktrace.TracerProvider
}

// Init configures the global tracer provider and propagator. A blank
// endpoint yields a disabled Provider.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.ServiceName == "" {
		return nil, ErrNoServiceName
	}
	p := &Provider{service: cfg.ServiceName}
	if cfg.Endpoint == "" {
		return p, nil
	}

	exporter, err := newTraceExporter(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	p.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return p, nil
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// Middleware starts a server span per request.
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, p.service)
}

// Transport wraps base (http.DefaultTransport when nil) with client spans
// and trace-context injection.
func (p *Provider) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return otelhttp.NewTransport(base)
}

// Shutdown flushes pending spans. It is a no-op on a disabled Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// TraceID returns a log attribute with the trace id of the span in ctx, or
// an empty attribute when there is none.
func TraceID(ctx context.Context) slog.Attr {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return slog.Attr{}
	}
	return slog.String("trace_id", sc.TraceID().String())
}

func newTraceExporter(ctx context.Context, endpoint string) (*otlptrace.Exporter, error) {
	var opts []otlptracehttp.Option

	parsed, err := url.Parse(endpoint)
	if err == nil && parsed.Scheme != "" {
		if parsed.Host == "" {
			return nil, fmt.Errorf("invalid OTLP endpoint: %s", endpoint)
		}
		opts = append(opts, otlptracehttp.WithEndpoint(parsed.Host))
		if parsed.Path != "" && parsed.Path != "/" {
			opts = append(opts, otlptracehttp.WithURLPath(parsed.Path))
		}
		if parsed.Scheme == "http" {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	}

	return otlptracehttp.New(ctx, opts...)
}
