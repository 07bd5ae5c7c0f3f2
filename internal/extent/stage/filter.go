package stage

import (
	"sync"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// BlockFilter отклоняет запись запрещенных типов блоков
type BlockFilter struct {
	*extent.Delegate

	mu         sync.RWMutex
	disallowed map[block.BlockID]struct{}
}

// NewBlockFilter создаёт фильтр с запрещенными типами
func NewBlockFilter(inner extent.Extent, disallowed ...block.BlockID) *BlockFilter {
	f := &BlockFilter{Delegate: extent.NewDelegate(inner), disallowed: make(map[block.BlockID]struct{})}
	for _, id := range disallowed {
		f.disallowed[id] = struct{}{}
	}
	return f
}

// Allowed сообщает, разрешен ли тип
func (f *BlockFilter) Allowed(id block.BlockID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, denied := f.disallowed[id]
	return !denied
}

func (f *BlockFilter) Disallow(id block.BlockID) {
	f.mu.Lock()
	f.disallowed[id] = struct{}{}
	f.mu.Unlock()
}

func (f *BlockFilter) Allow(id block.BlockID) {
	f.mu.Lock()
	delete(f.disallowed, id)
	f.mu.Unlock()
}

func (f *BlockFilter) SetBlock(pos vec.Vec3, b block.Block) (bool, error) {
	if !f.Allowed(b.ID) {
		return false, extent.NewEditError(pos, b, extent.ErrDisallowedBlock)
	}
	return f.Delegate.SetBlock(pos, b)
}
