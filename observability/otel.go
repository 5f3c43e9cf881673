// Package observability wires OpenTelemetry tracing for the usercycle CLI.
//
// The client library only creates spans through the global tracer provider;
// Init installs a provider that exports them over OTLP. When no exporter can
// be built, Init degrades to a no-op provider instead of failing the command.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
)

// Supported OTLP transports.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// exportTimeout bounds how long a CLI run may spend retrying the collector.
const exportTimeout = 5 * time.Second

// Config controls the OpenTelemetry initialization.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Protocol       string // grpc (default) or http
	Headers        map[string]string
	Insecure       bool
}

// Provider owns the installed tracer provider.
type Provider struct {
	tp       *sdktrace.TracerProvider
	degraded bool
}

// Shutdown flushes pending spans. Safe on nil and degraded providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// Fallback reports whether spans are being dropped.
func (p *Provider) Fallback() bool {
	return p != nil && p.degraded
}

// Init installs a global tracer provider exporting to cfg.Endpoint. With the
// default gRPC protocol an HTTP exporter is tried next; if every attempt
// fails the provider is a no-op and Fallback reports true.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("telemetry endpoint required")
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var failures []error
	for _, protocol := range candidates(cfg.Protocol) {
		exporter, err := newExporter(ctx, cfg, protocol)
		if err != nil {
			recordExporterFailure(cfg.ServiceName, protocol)
			failures = append(failures, fmt.Errorf("%s exporter: %w", protocol, err))
			continue
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		install(tp)
		return &Provider{tp: tp}, nil
	}

	otel.Handle(fmt.Errorf("telemetry disabled: %w", errors.Join(failures...)))
	recordExporterFailure(cfg.ServiceName, "degraded")
	install(noop.NewTracerProvider())
	return &Provider{degraded: true}, nil
}

// MustInit panics if Init returns an error.
func MustInit(ctx context.Context, cfg Config) *Provider {
	provider, err := Init(ctx, cfg)
	if err != nil {
		panic(err)
	}
	return provider
}

// candidates lists the protocols to try, in order.
func candidates(protocol string) []string {
	if protocol == "" || protocol == ProtocolGRPC {
		return []string{ProtocolGRPC, ProtocolHTTP}
	}
	return []string{protocol}
}

func install(tp trace.TracerProvider) {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func newExporter(ctx context.Context, cfg Config, protocol string) (*otlptrace.Exporter, error) {
	var client otlptrace.Client
	switch protocol {
	case ProtocolGRPC:
		client = grpcClient(cfg)
	case ProtocolHTTP:
		client = httpClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
	return otlptrace.New(ctx, client)
}

// grpcClient never dials eagerly, so an unreachable collector cannot stall
// a CLI run.
func grpcClient(cfg Config) otlptrace.Client {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithHeaders(cfg.Headers),
		otlptracegrpc.WithRetry(otlptracegrpc.RetryConfig{Enabled: true, InitialInterval: 100 * time.Millisecond, MaxInterval: time.Second, MaxElapsedTime: exportTimeout}),
		otlptracegrpc.WithDialOption(grpc.WithUserAgent(userAgent(cfg))),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.NewClient(opts...)
}

func httpClient(cfg Config) otlptrace.Client {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithHeaders(cfg.Headers),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{Enabled: true, InitialInterval: 100 * time.Millisecond, MaxInterval: time.Second, MaxElapsedTime: exportTimeout}),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.NewClient(opts...)
}

func userAgent(cfg Config) string {
	if cfg.ServiceVersion == "" {
		return cfg.ServiceName
	}
	return cfg.ServiceName + "/" + cfg.ServiceVersion
}
