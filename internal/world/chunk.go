package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// ChunkSize - размер колонки по X и Z
const ChunkSize = 16

// Chunk представляет колонку мира 16xHx16 блоков.
// Локальная Y отсчитывается от нижней границы мира.
type Chunk struct {
	Coords vec.Vec2 // Координаты колонки в мире
	Height int      // Высота колонки в блоках

	Blocks []block.BlockID             // [y][z][x], развернутый в один срез
	States map[vec.Vec3]block.Metadata // Состояния блоков по локальным координатам

	ChangeCounter int          // Счетчик изменений с последнего сохранения
	Mu            sync.RWMutex // Мьютекс для безопасного доступа
}

// NewChunk создаёт пустую (воздух) колонку
func NewChunk(coords vec.Vec2, height int) *Chunk {
	return &Chunk{
		Coords: coords,
		Height: height,
		Blocks: make([]block.BlockID, ChunkSize*ChunkSize*height),
		States: make(map[vec.Vec3]block.Metadata),
	}
}

func (c *Chunk) index(local vec.Vec3) int {
	return (local.Y*ChunkSize+local.Z)*ChunkSize + local.X
}

// Contains проверяет локальные координаты
func (c *Chunk) Contains(local vec.Vec3) bool {
	return local.X >= 0 && local.X < ChunkSize &&
		local.Z >= 0 && local.Z < ChunkSize &&
		local.Y >= 0 && local.Y < c.Height
}

// GetBlockID возвращает ID блока по локальным координатам
func (c *Chunk) GetBlockID(local vec.Vec3) block.BlockID {
	if !c.Contains(local) {
		return block.AirBlockID
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Blocks[c.index(local)]
}

// GetBlock возвращает блок с копией состояния
func (c *Chunk) GetBlock(local vec.Vec3) block.Block {
	if !c.Contains(local) {
		return block.Air
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return block.Block{
		ID:    c.Blocks[c.index(local)],
		State: c.States[local].Clone(),
	}
}

// SetBlock устанавливает блок по локальным координатам.
// Возвращает true, если содержимое изменилось.
func (c *Chunk) SetBlock(local vec.Vec3, b block.Block) bool {
	if !c.Contains(local) {
		return false
	}

	c.Mu.Lock()
	defer c.Mu.Unlock()

	i := c.index(local)
	current := block.Block{ID: c.Blocks[i], State: c.States[local]}
	if current.Equal(b) {
		return false
	}

	c.Blocks[i] = b.ID
	if len(b.State) > 0 {
		c.States[local] = b.State.Clone()
	} else {
		delete(c.States, local)
	}
	c.ChangeCounter++
	return true
}

// HasChanges возвращает true, если в чанке есть несохраненные изменения
func (c *Chunk) HasChanges() bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	return c.ChangeCounter > 0
}

// ClearChanges сбрасывает счетчик изменений
func (c *Chunk) ClearChanges() {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	c.ChangeCounter = 0
}

// StateEntry - состояние одного блока в снимке
type StateEntry struct {
	Pos   vec.Vec3       `json:"pos"`
	State block.Metadata `json:"state"`
}

// ChunkSnapshot - сериализуемая копия колонки
type ChunkSnapshot struct {
	Coords vec.Vec2        `json:"coords"`
	Height int             `json:"height"`
	Blocks []block.BlockID `json:"blocks"`
	States []StateEntry    `json:"states,omitempty"`
}

// Snapshot копирует содержимое колонки
func (c *Chunk) Snapshot() *ChunkSnapshot {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	snap := &ChunkSnapshot{
		Coords: c.Coords,
		Height: c.Height,
		Blocks: append([]block.BlockID(nil), c.Blocks...),
		States: make([]StateEntry, 0, len(c.States)),
	}
	for pos, state := range c.States {
		snap.States = append(snap.States, StateEntry{Pos: pos, State: state.Clone()})
	}

	// Стабильный порядок, чтобы одинаковые чанки давали одинаковые байты
	sort.Slice(snap.States, func(i, j int) bool {
		a, b := snap.States[i].Pos, snap.States[j].Pos
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	return snap
}

// ChunkFromSnapshot восстанавливает колонку из снимка
func ChunkFromSnapshot(s *ChunkSnapshot) (*Chunk, error) {
	if s.Height <= 0 || len(s.Blocks) != ChunkSize*ChunkSize*s.Height {
		return nil, fmt.Errorf("некорректный снимок чанка %v: высота %d, блоков %d", s.Coords, s.Height, len(s.Blocks))
	}

	c := NewChunk(s.Coords, s.Height)
	copy(c.Blocks, s.Blocks)
	for _, entry := range s.States {
		if !c.Contains(entry.Pos) {
			return nil, fmt.Errorf("состояние вне чанка %v: %v", s.Coords, entry.Pos)
		}
		c.States[entry.Pos] = entry.State.Clone()
	}
	return c, nil
}
