// Package extent описывает цепочку ступеней, через которую проходят чтения
// и записи блоков на пути к хранилищу мира.
package extent

import (
	"github.com/annel0/voxedit/internal/operation"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// Extent - область мира, из которой можно читать блоки и в которую можно их писать.
// Реализуется и хранилищами, и ступенями-декораторами.
type Extent interface {
	// Block возвращает блок в позиции со всем состоянием.
	// Поведение вне границ определяет реализация (обычно воздух).
	Block(pos vec.Vec3) block.Block

	// LazyBlock возвращает блок, допуская неполное состояние.
	// Дешевле Block, когда состояние не нужно.
	LazyBlock(pos vec.Vec3) block.Block

	// SetBlock пытается установить блок. Возвращает true, если что-то изменилось;
	// false - если блок уже такой или запись отфильтрована. Недопустимые позиции
	// и запрещенные правки возвращают *EditError.
	SetBlock(pos vec.Vec3, b block.Block) (bool, error)

	// MinimumPoint и MaximumPoint - включительные границы адресуемой области
	MinimumPoint() vec.Vec3
	MaximumPoint() vec.Vec3

	// Commit возвращает отложенную операцию, которую нужно выполнить после
	// прохода записей, или nil
	Commit() operation.Operation
}
