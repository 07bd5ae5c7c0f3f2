package extent

import (
	"errors"
	"fmt"

	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

var (
	// ErrNilExtent - значение паники при создании ступени без внутреннего экстента
	ErrNilExtent = errors.New("extent: внутренний экстент не задан")

	ErrOutOfBounds     = errors.New("позиция вне границ мира")
	ErrDisallowedBlock = errors.New("блок запрещен")
	ErrChangeLimit     = errors.New("превышен лимит изменений")
)

// EditError - отказ записи блока в позиции
type EditError struct {
	Pos   vec.Vec3
	Block block.Block
	Err   error
}

// NewEditError создаёт ошибку записи
func NewEditError(pos vec.Vec3, b block.Block, err error) *EditError {
	return &EditError{Pos: pos, Block: b, Err: err}
}

func (e *EditError) Error() string {
	return fmt.Sprintf("не удалось установить %s в %s: %v", e.Block.Name(), e.Pos, e.Err)
}

func (e *EditError) Unwrap() error {
	return e.Err
}
