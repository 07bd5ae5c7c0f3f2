package stage

import (
	"sync"

	"github.com/annel0/voxedit/internal/eventbus"
	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/operation"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// Notify копит состоявшиеся изменения и при выполнении Commit публикует их
// одним событием BlockChanges. Для позиции остается последнее значение.
type Notify struct {
	*extent.Delegate

	bus    eventbus.EventBus
	source string

	mu      sync.Mutex
	pending []eventbus.BlockChange
	index   map[vec.Vec3]int
}

// NewNotify создаёт ступень; source попадает в Envelope.Source
func NewNotify(inner extent.Extent, bus eventbus.EventBus, source string) *Notify {
	n := &Notify{bus: bus, source: source, index: make(map[vec.Vec3]int)}
	n.Delegate = extent.NewDelegate(inner, extent.WithCommitBefore(n.commitBefore))
	return n
}

func (n *Notify) SetBlock(pos vec.Vec3, b block.Block) (bool, error) {
	changed, err := n.Delegate.SetBlock(pos, b)
	if err != nil || !changed {
		return changed, err
	}

	n.mu.Lock()
	if i, ok := n.index[pos]; ok {
		n.pending[i].Block = b.Clone()
	} else {
		n.index[pos] = len(n.pending)
		n.pending = append(n.pending, eventbus.BlockChange{Pos: pos, Block: b.Clone()})
	}
	n.mu.Unlock()
	return true, nil
}

// Pending возвращает число неопубликованных изменений
func (n *Notify) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

func (n *Notify) take() []eventbus.BlockChange {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	n.index = make(map[vec.Vec3]int)
	return out
}

// requeue возвращает неопубликованные изменения в начало буфера.
// Позиции, записанные заново после take, сохраняют новое значение.
func (n *Notify) requeue(changes []eventbus.BlockChange) {
	n.mu.Lock()
	defer n.mu.Unlock()

	merged := make([]eventbus.BlockChange, 0, len(changes)+len(n.pending))
	for _, c := range changes {
		if _, ok := n.index[c.Pos]; !ok {
			merged = append(merged, c)
		}
	}
	merged = append(merged, n.pending...)

	n.pending = merged
	n.index = make(map[vec.Vec3]int, len(merged))
	for i, c := range merged {
		n.index[c.Pos] = i
	}
}

// Операция нужна и при пустом буфере: внешние ступени могут записать
// блоки своими операциями, которые выполнятся раньше.
func (n *Notify) commitBefore() operation.Operation {
	if n.bus == nil {
		return nil
	}
	return operation.Func(n.publish)
}

func (n *Notify) publish(run *operation.RunContext) error {
	changes := n.take()
	if len(changes) == 0 {
		return nil
	}
	ev, err := eventbus.NewEnvelope(n.source, eventbus.EventBlockChanges, eventbus.BlockChanges{Changes: changes})
	if err != nil {
		n.requeue(changes)
		return err
	}
	ev.Priority = eventbus.PriorityReliable
	if err := n.bus.Publish(run.Context(), ev); err != nil {
		n.requeue(changes)
		return err
	}
	return nil
}
