package operation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/voxedit/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Metrics - prometheus-метрики исполнителя операций
type Metrics struct {
	steps     prometheus.Counter
	completed *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg (nil - глобальный регистр)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxedit",
			Subsystem: "operation",
			Name:      "steps_total",
			Help:      "Число выполненных шагов отложенных операций.",
		}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxedit",
			Subsystem: "operation",
			Name:      "completed_total",
			Help:      "Завершенные операции по результату (ok, error, cancelled).",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxedit",
			Subsystem: "operation",
			Name:      "duration_seconds",
			Help:      "Длительность выполнения операции целиком.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}

	reg.MustRegister(m.steps, m.completed, m.duration)
	return m
}

// Executor доводит операции до конца
type Executor struct {
	metrics *Metrics
	tracer  trace.Tracer
	logger  *logging.Logger
}

// ExecutorOption настраивает Executor
type ExecutorOption func(*Executor)

// WithMetrics включает prometheus-метрики
func WithMetrics(m *Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// WithTracer задает трассировщик вместо глобального
func WithTracer(t trace.Tracer) ExecutorOption {
	return func(e *Executor) { e.tracer = t }
}

// WithLogger задает логгер
func WithLogger(l *logging.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor создаёт исполнитель
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		tracer: otel.Tracer("github.com/annel0/voxedit/internal/operation"),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Complete выполняет op до завершения. Между шагами проверяется ctx:
// при отмене операция получает Cancel, а вызывающий - ctx.Err().
// Ошибка шага возвращается без изменений.
func (e *Executor) Complete(ctx context.Context, op Operation) error {
	if IsAbsent(op) {
		return nil
	}

	ctx, span := e.tracer.Start(ctx, "operation.Complete",
		trace.WithAttributes(attribute.String("operation.type", fmt.Sprintf("%T", op))))
	defer span.End()

	start := time.Now()
	run := NewRunContext(ctx)
	steps := 0

	var err error
	for !IsAbsent(op) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			op.Cancel()
			err = ctxErr
			break
		}

		op, err = op.Resume(run)
		steps++
		if e.metrics != nil {
			e.metrics.steps.Inc()
		}
		if err != nil {
			break
		}
	}

	span.SetAttributes(attribute.Int("operation.steps", steps))
	result := "ok"
	switch {
	case err == nil:
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		result = "cancelled"
		span.SetStatus(codes.Error, err.Error())
	default:
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if e.metrics != nil {
		e.metrics.completed.WithLabelValues(result).Inc()
		e.metrics.duration.Observe(time.Since(start).Seconds())
	}
	e.logger.Debug("операция завершена: шагов=%d результат=%s за %v", steps, result, time.Since(start))

	return err
}

var defaultExecutor = NewExecutor()

// Complete выполняет op исполнителем по умолчанию (без метрик)
func Complete(ctx context.Context, op Operation) error {
	return defaultExecutor.Complete(ctx, op)
}
