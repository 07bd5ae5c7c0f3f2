package stage

import (
	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/history"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// Tracking записывает каждое состоявшееся изменение в набор изменений
type Tracking struct {
	*extent.Delegate
	changes *history.ChangeSet
}

// NewTracking создаёт ступень; при nil changes заводит новый набор
func NewTracking(inner extent.Extent, changes *history.ChangeSet) *Tracking {
	if changes == nil {
		changes = history.NewChangeSet()
	}
	return &Tracking{Delegate: extent.NewDelegate(inner), changes: changes}
}

// ChangeSet возвращает набор, в который пишет ступень
func (t *Tracking) ChangeSet() *history.ChangeSet {
	return t.changes
}

// Forget убирает из набора изменение, которое так и не дошло до мира
func (t *Tracking) Forget(pos vec.Vec3, b block.Block) bool {
	return t.changes.Discard(pos, b)
}

func (t *Tracking) SetBlock(pos vec.Vec3, b block.Block) (bool, error) {
	before := t.Extent().Block(pos)
	changed, err := t.Delegate.SetBlock(pos, b)
	if err == nil && changed {
		t.changes.Add(pos, before, b)
	}
	return changed, err
}
