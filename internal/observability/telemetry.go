package observability

import (
	"context"
	"time"

	"github.com/annel0/voxedit/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ShutdownFunc завершает экспорт трейсов
type ShutdownFunc func(context.Context) error

// InitTelemetry настраивает OTLP HTTP экспортер (по умолчанию localhost:4318,
// адрес берется из OTEL_EXPORTER_OTLP_ENDPOINT) и устанавливает глобальный
// TracerProvider. Спаны исполнителя операций уходят через него.
func InitTelemetry(ctx context.Context, serviceName string, logger *logging.Logger) (ShutdownFunc, error) {
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}
	return install(ctx, serviceName, trace.WithBatcher(exp), logger)
}

func install(ctx context.Context, serviceName string, processor trace.TracerProviderOption, logger *logging.Logger) (ShutdownFunc, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(processor, trace.WithResource(res))
	otel.SetTracerProvider(tp)
	logger.Info("OpenTelemetry инициализирован (service=%s)", serviceName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}
