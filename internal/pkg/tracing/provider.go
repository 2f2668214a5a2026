// Package tracing настраивает OpenTelemetry трейсинг и связывает его
// с внутренним trace ID, который пишется в логи и вывод команд.
package tracing

import (
	"context"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kargones/backupchain/internal/pkg/logging"
)

// NewTracerProvider создаёт OTel TracerProvider с OTLP HTTP экспортёром
// и регистрирует его глобально. Возвращает shutdown-функцию, которую
// нужно вызвать до выхода, чтобы выгрузить накопленные span-ы.
// При выключенном трейсинге возвращает nop.
func NewTracerProvider(cfg Config, logger logging.Logger) (func(context.Context) error, error) {
	if !cfg.Enabled {
		logger.Debug("трейсинг выключен")
		return NewNopTracerProvider(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// NewSchemaless: resource.Default() и semconv имеют разные Schema URL
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	// WithEndpoint принимает только host:port
	endpoint := cfg.Endpoint
	if u, parseErr := url.Parse(cfg.Endpoint); parseErr == nil && u.Host != "" {
		endpoint = u.Host
	}
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithTimeout(cfg.Timeout),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SamplingRate)),
	)
	otel.SetTracerProvider(tp)

	logger.Info("OpenTelemetry трейсинг инициализирован",
		"endpoint", cfg.Endpoint,
		"service_name", cfg.ServiceName,
		"sampling_rate", cfg.SamplingRate,
	)
	return tp.Shutdown, nil
}

// ContextWithOTelTraceID делает traceIDHex родительским remote span context,
// чтобы span-ы команды несли тот же trace ID, что и логи.
// Невалидный ID оставляет контекст без изменений.
func ContextWithOTelTraceID(ctx context.Context, traceIDHex string) context.Context {
	traceID, err := trace.TraceIDFromHex(traceIDHex)
	if err != nil {
		return ctx
	}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithRemoteSpanContext(ctx, sc)
}

// newSampler: remote parent из ContextWithOTelTraceID всегда помечен sampled,
// поэтому для него тоже применяется rate.
func newSampler(rate float64) sdktrace.Sampler {
	return sdktrace.ParentBased(
		sdktrace.TraceIDRatioBased(rate),
		sdktrace.WithRemoteParentSampled(sdktrace.TraceIDRatioBased(rate)),
	)
}
