package observability

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/yungbote/collection-listing/internal/platform/logger"
)

const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
	ExporterNone   = "none"

	defaultServiceName = "collection-listing"
	defaultSampleRatio = 0.1
)

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Environment string  `yaml:"environment"`
	Version     string  `yaml:"version"`
	SampleRatio float64 `yaml:"sample_ratio"`
	// Exporter is otlp, stdout or none. Empty means otlp when Endpoint is
	// set and stdout otherwise.
	Exporter string            `yaml:"exporter"`
	Endpoint string            `yaml:"endpoint"`
	Headers  map[string]string `yaml:"headers"`
	Insecure bool              `yaml:"insecure"`
}

func (c OtelConfig) exporterKind() string {
	switch kind := strings.ToLower(strings.TrimSpace(c.Exporter)); kind {
	case "":
		if strings.TrimSpace(c.Endpoint) != "" {
			return ExporterOTLP
		}
		return ExporterStdout
	default:
		return kind
	}
}

func (c OtelConfig) serviceName() string {
	if name := strings.TrimSpace(c.ServiceName); name != "" {
		return name
	}
	return defaultServiceName
}

func (c OtelConfig) sampler() sdktrace.Sampler {
	ratio := c.SampleRatio
	switch {
	case ratio <= 0:
		ratio = defaultSampleRatio
	case ratio > 1:
		ratio = 1
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func (c OtelConfig) resource(ctx context.Context) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(c.serviceName())}
	if env := strings.TrimSpace(c.Environment); env != "" {
		attrs = append(attrs, attribute.String("deployment.environment", env))
	}
	if v := strings.TrimSpace(c.Version); v != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(v))
	}
	return resource.New(ctx, resource.WithAttributes(attrs...))
}

func (c OtelConfig) exporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch kind := c.exporterKind(); kind {
	case ExporterNone:
		return nil, nil
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ExporterOTLP:
		opts := []otlptracehttp.Option{}
		if ep := strings.TrimSpace(c.Endpoint); ep != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(ep))
		}
		if c.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(c.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(c.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", kind)
	}
}

// NewTracerProvider builds a provider from cfg without installing it. Extra
// options are appended after the configured ones.
func NewTracerProvider(ctx context.Context, log *logger.Logger, cfg OtelConfig, extra ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	if log == nil {
		log = logger.Nop()
	}
	opts := []sdktrace.TracerProviderOption{sdktrace.WithSampler(cfg.sampler())}

	res, err := cfg.resource(ctx)
	if err != nil {
		log.Warn("Trace resource incomplete", "error", err)
	}
	if res != nil {
		opts = append(opts, sdktrace.WithResource(res))
	}

	exp, err := cfg.exporter(ctx)
	switch {
	case err != nil:
		log.Warn("Trace exporter unavailable, spans will not be exported", "exporter", cfg.exporterKind(), "error", err)
	case exp != nil:
		opts = append(opts, sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)))
	}
	return sdktrace.NewTracerProvider(append(opts, extra...)...)
}

var (
	otelOnce     sync.Once
	otelShutdown = func(context.Context) error { return nil }
)

// InitOTel installs the global tracer provider and propagator once. The
// returned shutdown is never nil.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		if !cfg.Enabled {
			return
		}
		tp := NewTracerProvider(ctx, log, cfg)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		if log != nil {
			log.Info("Tracing initialized", "service", cfg.serviceName(), "exporter", cfg.exporterKind())
		}
	})
	return otelShutdown
}

// ParseHeaders reads "k1=v1,k2=v2" as used by OTEL_EXPORTER_OTLP_HEADERS.
func ParseHeaders(raw string) map[string]string {
	var headers map[string]string
	for _, part := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(part, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		if headers == nil {
			headers = map[string]string{}
		}
		headers[key] = val
	}
	return headers
}
