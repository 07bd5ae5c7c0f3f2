// Package history хранит изменения блоков и строит операции отмены и повтора.
package history

import (
	"encoding/json"
	"sync"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/operation"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// DefaultBatchSize - сколько изменений применяется за один шаг операции
const DefaultBatchSize = 256

// Change - одно изменение блока
type Change struct {
	Pos    vec.Vec3    `json:"pos"`
	Before block.Block `json:"before"`
	After  block.Block `json:"after"`
}

// ChangeSet - упорядоченный набор изменений одной правки
type ChangeSet struct {
	mu      sync.Mutex
	changes []Change
}

// NewChangeSet создаёт пустой набор
func NewChangeSet() *ChangeSet {
	return &ChangeSet{}
}

// Add записывает изменение
func (c *ChangeSet) Add(pos vec.Vec3, before, after block.Block) {
	c.mu.Lock()
	c.changes = append(c.changes, Change{Pos: pos, Before: before.Clone(), After: after.Clone()})
	c.mu.Unlock()
}

// Discard удаляет последнее изменение pos со значением after.
// Возвращает false, если такого изменения нет.
func (c *ChangeSet) Discard(pos vec.Vec3, after block.Block) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.changes) - 1; i >= 0; i-- {
		ch := c.changes[i]
		if ch.Pos == pos && ch.After.Equal(after) {
			c.changes = append(c.changes[:i], c.changes[i+1:]...)
			return true
		}
	}
	return false
}

// Len возвращает количество изменений
func (c *ChangeSet) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.changes)
}

// Changes возвращает копию списка изменений
func (c *ChangeSet) Changes() []Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Change, len(c.changes))
	copy(out, c.changes)
	return out
}

// Take забирает накопленные изменения в новый набор и очищает текущий
func (c *ChangeSet) Take() *ChangeSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	taken := &ChangeSet{changes: c.changes}
	c.changes = nil
	return taken
}

func (c *ChangeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Changes())
}

func (c *ChangeSet) UnmarshalJSON(data []byte) error {
	var changes []Change
	if err := json.Unmarshal(data, &changes); err != nil {
		return err
	}
	c.mu.Lock()
	c.changes = changes
	c.mu.Unlock()
	return nil
}

// Undo возвращает операцию, которая записывает в target прежние значения
// в обратном порядке. nil, если набор пуст.
func (c *ChangeSet) Undo(target extent.Extent) operation.Operation {
	changes := c.Changes()
	if len(changes) == 0 {
		return nil
	}
	reversed := make([]Change, len(changes))
	for i, ch := range changes {
		reversed[len(changes)-1-i] = Change{Pos: ch.Pos, Before: ch.After, After: ch.Before}
	}
	return &applyOperation{target: target, changes: reversed, batch: DefaultBatchSize}
}

// Redo возвращает операцию, которая повторно применяет изменения в исходном порядке
func (c *ChangeSet) Redo(target extent.Extent) operation.Operation {
	changes := c.Changes()
	if len(changes) == 0 {
		return nil
	}
	return &applyOperation{target: target, changes: changes, batch: DefaultBatchSize}
}

// applyOperation записывает After каждого изменения, batch штук за шаг
type applyOperation struct {
	target  extent.Extent
	changes []Change
	next    int
	batch   int
}

func (a *applyOperation) Resume(run *operation.RunContext) (operation.Operation, error) {
	end := a.next + a.batch
	if end > len(a.changes) {
		end = len(a.changes)
	}

	for ; a.next < end; a.next++ {
		if !run.ShouldContinue() {
			return a, nil
		}
		ch := a.changes[a.next]
		if _, err := a.target.SetBlock(ch.Pos, ch.After); err != nil {
			return nil, err
		}
	}

	if a.next >= len(a.changes) {
		return nil, nil
	}
	return a, nil
}

func (a *applyOperation) Cancel() {
	a.next = len(a.changes)
}
