package extent

import (
	"reflect"

	"github.com/annel0/voxedit/internal/operation"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// Delegate - основа ступени: передает все вызовы внутреннему экстенту.
// Конкретная ступень встраивает *Delegate и переопределяет только нужные методы.
//
// Commit не переопределяется: ступень добавляет свою отложенную работу через
// WithCommitBefore, а Delegate объединяет ее с работой внутренней цепочки.
// Компилятор этого не запрещает; для ступеней пакета stage правило проверяет
// TestStagesDoNotDeclareCommit.
type Delegate struct {
	extent       Extent
	commitBefore func() operation.Operation
}

// DelegateOption настраивает Delegate
type DelegateOption func(*Delegate)

// WithCommitBefore задает отложенную операцию ступени. Она выполняется до
// операции внутренней цепочки.
func WithCommitBefore(fn func() operation.Operation) DelegateOption {
	return func(d *Delegate) { d.commitBefore = fn }
}

// NewDelegate создаёт ступень над inner. Паникует с ErrNilExtent, если inner не задан.
func NewDelegate(inner Extent, opts ...DelegateOption) *Delegate {
	if isNil(inner) {
		panic(ErrNilExtent)
	}

	d := &Delegate{extent: inner}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Extent возвращает внутренний экстент
func (d *Delegate) Extent() Extent {
	return d.extent
}

func (d *Delegate) Block(pos vec.Vec3) block.Block {
	return d.extent.Block(pos)
}

func (d *Delegate) LazyBlock(pos vec.Vec3) block.Block {
	return d.extent.LazyBlock(pos)
}

func (d *Delegate) SetBlock(pos vec.Vec3, b block.Block) (bool, error) {
	return d.extent.SetBlock(pos, b)
}

func (d *Delegate) MinimumPoint() vec.Vec3 {
	return d.extent.MinimumPoint()
}

func (d *Delegate) MaximumPoint() vec.Vec3 {
	return d.extent.MaximumPoint()
}

// Commit собирает операцию ступени и операцию внутренней цепочки.
// Порядок выполнения всегда от внешней ступени к внутренней.
func (d *Delegate) Commit() operation.Operation {
	var ours operation.Operation
	if d.commitBefore != nil {
		ours = d.commitBefore()
	}
	return operation.Combine(ours, d.extent.Commit())
}

func isNil(e Extent) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
