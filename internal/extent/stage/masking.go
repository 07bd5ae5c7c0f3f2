// Package stage содержит ступени цепочки экстентов: каждая встраивает
// *extent.Delegate и переопределяет только то, что ей нужно.
package stage

import (
	"sync"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// Mask решает, можно ли писать в позицию
type Mask interface {
	Test(pos vec.Vec3) bool
}

// MaskFunc - маска из функции
type MaskFunc func(pos vec.Vec3) bool

func (f MaskFunc) Test(pos vec.Vec3) bool { return f(pos) }

// RegionMask пропускает позиции внутри включительного параллелепипеда
type RegionMask struct {
	Min, Max vec.Vec3
}

// NewRegionMask нормализует углы региона
func NewRegionMask(a, b vec.Vec3) RegionMask {
	return RegionMask{Min: a.Min(b), Max: a.Max(b)}
}

func (r RegionMask) Test(pos vec.Vec3) bool { return pos.In(r.Min, r.Max) }

// BlockMask пропускает позиции, где source сейчас содержит один из типов
type BlockMask struct {
	source extent.Extent
	ids    map[block.BlockID]struct{}
}

// NewBlockMask создаёт маску по типам блоков source
func NewBlockMask(source extent.Extent, ids ...block.BlockID) *BlockMask {
	m := &BlockMask{source: source, ids: make(map[block.BlockID]struct{}, len(ids))}
	for _, id := range ids {
		m.ids[id] = struct{}{}
	}
	return m
}

func (m *BlockMask) Test(pos vec.Vec3) bool {
	_, ok := m.ids[m.source.LazyBlock(pos).ID]
	return ok
}

// Masking пропускает запись только там, где маска это разрешает.
// Отклоненная запись - не ошибка: SetBlock возвращает false.
type Masking struct {
	*extent.Delegate

	mu   sync.RWMutex
	mask Mask
}

// NewMasking создаёт ступень; nil маска пропускает все
func NewMasking(inner extent.Extent, mask Mask) *Masking {
	return &Masking{Delegate: extent.NewDelegate(inner), mask: mask}
}

// Mask возвращает текущую маску
func (m *Masking) Mask() Mask {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mask
}

// SetMask заменяет маску
func (m *Masking) SetMask(mask Mask) {
	m.mu.Lock()
	m.mask = mask
	m.mu.Unlock()
}

func (m *Masking) SetBlock(pos vec.Vec3, b block.Block) (bool, error) {
	if mask := m.Mask(); mask != nil && !mask.Test(pos) {
		return false, nil
	}
	return m.Delegate.SetBlock(pos, b)
}
