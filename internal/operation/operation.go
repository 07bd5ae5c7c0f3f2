// Package operation описывает отложенные операции, которые ступени цепочки
// экстентов возвращают из Commit и которые выполняет внешний исполнитель.
package operation

import (
	"context"
	"reflect"
)

// Operation - отложенная работа, выполняемая по шагам.
// Resume выполняет очередной шаг и возвращает продолжение; nil означает,
// что операция завершена. Отсутствующая операция представлена nil.
type Operation interface {
	Resume(run *RunContext) (Operation, error)
	Cancel()
}

// RunContext передается каждому шагу операции
type RunContext struct {
	ctx context.Context
}

// NewRunContext создаёт контекст выполнения шага
func NewRunContext(ctx context.Context) *RunContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &RunContext{ctx: ctx}
}

// Context возвращает context.Context исполнителя
func (r *RunContext) Context() context.Context {
	return r.ctx
}

// ShouldContinue сообщает, может ли длинный шаг продолжать работу
func (r *RunContext) ShouldContinue() bool {
	return r.ctx.Err() == nil
}

// Func - одношаговая операция из обычной функции
type Func func(run *RunContext) error

// Resume выполняет функцию и завершает операцию
func (f Func) Resume(run *RunContext) (Operation, error) {
	return nil, f(run)
}

// Cancel ничего не делает: одношаговую операцию нечего прерывать
func (f Func) Cancel() {}

// IsAbsent сообщает, что операции нет (nil или типизированный nil-указатель)
func IsAbsent(op Operation) bool {
	if op == nil {
		return true
	}
	v := reflect.ValueOf(op)
	switch v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Combine объединяет операцию внешней ступени с операцией внутренней цепочки.
// Отсутствующие операции пропускаются; если есть обе, результат - очередь
// ровно из двух элементов [outer, inner].
func Combine(outer, inner Operation) Operation {
	switch {
	case IsAbsent(outer) && IsAbsent(inner):
		return nil
	case IsAbsent(inner):
		return outer
	case IsAbsent(outer):
		return inner
	default:
		return NewQueue(outer, inner)
	}
}
