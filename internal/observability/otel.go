package observability

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/yungbote/quizpages/internal/pkg/logger"
)

type OtelConfig struct {
	ServiceName string
	Environment string
	Version     string
}

// TracingConfig is the exporter side of tracing, read from the standard OTEL_* variables.
type TracingConfig struct {
	Enabled     bool              `env:"OTEL_ENABLED" envDefault:"false"`
	SampleRatio float64           `env:"OTEL_SAMPLER_RATIO" envDefault:"0.1"`
	Endpoint    string            `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool              `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	Headers     map[string]string `env:"OTEL_EXPORTER_OTLP_HEADERS" envKeyValSeparator:"="`
	// BatchTimeout bounds how long finished reconcile and resync spans wait for export.
	BatchTimeout time.Duration `env:"OTEL_BSP_SCHEDULE_DELAY" envDefault:"5s"`
}

func LoadTracingConfig() (TracingConfig, error) {
	return parseTracingConfig(env.Options{})
}

func parseTracingConfig(opts env.Options) (TracingConfig, error) {
	var cfg TracingConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return TracingConfig{}, fmt.Errorf("parse tracing env: %w", err)
	}
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	switch {
	case cfg.SampleRatio < 0:
		cfg.SampleRatio = 0
	case cfg.SampleRatio > 1:
		cfg.SampleRatio = 1
	}
	return cfg, nil
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error
)

// InitOTel installs the global tracer provider once. The returned shutdown is nil when
// tracing is disabled or misconfigured; pagegen spans then go to the no-op provider.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		tc, err := LoadTracingConfig()
		if err != nil {
			log.Warn("Tracing disabled", "error", err)
			return
		}
		if !tc.Enabled {
			log.Debug("Tracing disabled (OTEL_ENABLED=false)")
			return
		}
		tp, err := newTracerProvider(ctx, tc, serviceResource(ctx, log, cfg), log)
		if err != nil {
			log.Warn("Tracing disabled", "error", err)
			return
		}
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		log.Info("Tracing initialized", "endpoint", tc.Endpoint, "sample_ratio", tc.SampleRatio)
	})
	return otelShutdown
}

func serviceResource(ctx context.Context, log *logger.Logger, cfg OtelConfig) *resource.Resource {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "quizpages"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(name),
		semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
		attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
	))
	if err != nil {
		log.Warn("Partial otel resource", "error", err)
	}
	return res
}

func newTracerProvider(ctx context.Context, tc TracingConfig, res *resource.Resource, log *logger.Logger) (*sdktrace.TracerProvider, error) {
	exp, err := traceExporter(ctx, tc, log)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(tc.BatchTimeout)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tc.SampleRatio))),
		sdktrace.WithResource(res),
	), nil
}

// traceExporter ships to OTLP/HTTP when an endpoint is set, otherwise pretty-prints spans.
func traceExporter(ctx context.Context, tc TracingConfig, log *logger.Logger) (sdktrace.SpanExporter, error) {
	if tc.Endpoint == "" {
		log.Warn("No OTLP endpoint configured; exporting spans to stdout")
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(tc.Endpoint)}
	if tc.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(tc.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(tc.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}
