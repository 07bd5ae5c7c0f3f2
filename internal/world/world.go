package world

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/operation"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// Persister сохраняет и загружает колонки мира
type Persister interface {
	// LoadChunk возвращает снимок колонки; found=false, если ее еще не сохраняли
	LoadChunk(ctx context.Context, coords vec.Vec2) (snap *ChunkSnapshot, found bool, err error)
	SaveChunk(ctx context.Context, snap *ChunkSnapshot) error
}

// Options задает границы и источники данных мира
type Options struct {
	Min, Max  vec.Vec3  // Включительные границы мира
	Generator Generator // nil - пустые колонки
	Persister Persister // nil - мир только в памяти
	Logger    *logging.Logger
}

// DefaultOptions возвращает мир 256x64x256 с центром в нуле
func DefaultOptions() Options {
	return Options{
		Min: vec.Vec3{X: -128, Y: 0, Z: -128},
		Max: vec.Vec3{X: 127, Y: 63, Z: 127},
	}
}

// World - хранилище блоков, конец цепочки экстентов. Колонки загружаются
// при первом обращении: из Persister, иначе из Generator, иначе пустые.
type World struct {
	min, max  vec.Vec3
	generator Generator
	persister Persister
	logger    *logging.Logger

	mu     sync.Mutex
	chunks map[vec.Vec2]*Chunk
	dirty  map[vec.Vec2]struct{}
}

var _ extent.Extent = (*World)(nil)

// New создаёт мир
func New(opts Options) (*World, error) {
	if opts.Max.X < opts.Min.X || opts.Max.Y < opts.Min.Y || opts.Max.Z < opts.Min.Z {
		return nil, fmt.Errorf("некорректные границы мира: %s..%s", opts.Min, opts.Max)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &World{
		min:       opts.Min,
		max:       opts.Max,
		generator: opts.Generator,
		persister: opts.Persister,
		logger:    logger,
		chunks:    make(map[vec.Vec2]*Chunk),
		dirty:     make(map[vec.Vec2]struct{}),
	}, nil
}

func (w *World) height() int {
	return w.max.Y - w.min.Y + 1
}

// local переводит мировую позицию в координаты внутри колонки
func (w *World) local(pos vec.Vec3) vec.Vec3 {
	l := pos.LocalInChunk()
	l.Y = pos.Y - w.min.Y
	return l
}

// chunk возвращает колонку, загружая ее при необходимости
func (w *World) chunk(coords vec.Vec2) *Chunk {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.chunks[coords]; ok {
		return c
	}

	c := w.loadChunk(coords)
	w.chunks[coords] = c
	return c
}

func (w *World) loadChunk(coords vec.Vec2) *Chunk {
	if w.persister != nil {
		snap, found, err := w.persister.LoadChunk(context.Background(), coords)
		switch {
		case err != nil:
			w.logger.Error("ошибка загрузки чанка %v: %v", coords, err)
		case found:
			c, err := ChunkFromSnapshot(snap)
			if err == nil && c.Height == w.height() {
				return c
			}
			w.logger.Warn("снимок чанка %v не подходит миру, генерируем заново: %v", coords, err)
		}
	}

	if w.generator != nil {
		return w.generator.GenerateChunk(coords, w.min.Y, w.height())
	}
	return NewChunk(coords, w.height())
}

// Block возвращает блок со всем состоянием; вне границ - воздух
func (w *World) Block(pos vec.Vec3) block.Block {
	if !pos.In(w.min, w.max) {
		return block.Air
	}
	return w.chunk(pos.ChunkCoords()).GetBlock(w.local(pos))
}

// LazyBlock возвращает только тип блока, не копируя состояние
func (w *World) LazyBlock(pos vec.Vec3) block.Block {
	if !pos.In(w.min, w.max) {
		return block.Air
	}
	return block.Of(w.chunk(pos.ChunkCoords()).GetBlockID(w.local(pos)))
}

// SetBlock устанавливает блок. Позиции вне границ и незарегистрированные
// типы блоков возвращают *extent.EditError.
func (w *World) SetBlock(pos vec.Vec3, b block.Block) (bool, error) {
	if !pos.In(w.min, w.max) {
		return false, extent.NewEditError(pos, b, extent.ErrOutOfBounds)
	}
	if !block.IsValidBlockID(b.ID) {
		return false, extent.NewEditError(pos, b, extent.ErrDisallowedBlock)
	}

	coords := pos.ChunkCoords()
	if !w.chunk(coords).SetBlock(w.local(pos), b) {
		return false, nil
	}

	w.mu.Lock()
	w.dirty[coords] = struct{}{}
	w.mu.Unlock()
	return true, nil
}

func (w *World) MinimumPoint() vec.Vec3 {
	return w.min
}

func (w *World) MaximumPoint() vec.Vec3 {
	return w.max
}

// Commit возвращает операцию сохранения измененных колонок или nil, если
// мир живет только в памяти. Список колонок собирается при выполнении, чтобы
// сохранить и то, что внешние ступени запишут своими операциями.
func (w *World) Commit() operation.Operation {
	if w.persister == nil {
		return nil
	}
	return &flushOperation{world: w}
}

// takeDirty забирает отсортированный список несохраненных колонок
func (w *World) takeDirty() []vec.Vec2 {
	w.mu.Lock()
	defer w.mu.Unlock()

	coords := make([]vec.Vec2, 0, len(w.dirty))
	for c := range w.dirty {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Y < coords[j].Y
	})
	w.dirty = make(map[vec.Vec2]struct{})
	return coords
}

// DirtyChunks возвращает число колонок с несохраненными изменениями
func (w *World) DirtyChunks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirty)
}

// LoadedChunks возвращает число загруженных колонок
func (w *World) LoadedChunks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.chunks)
}

// Evict выгружает колонку без несохраненных изменений: следующее чтение
// загрузит ее заново. false, если колонка не загружена или изменена.
func (w *World) Evict(coords vec.Vec2) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.chunks[coords]
	if !ok {
		return false
	}
	if _, dirty := w.dirty[coords]; dirty || c.HasChanges() {
		return false
	}
	delete(w.chunks, coords)
	return true
}

// markDirty возвращает колонки в список несохраненных
func (w *World) markDirty(coords []vec.Vec2) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range coords {
		w.dirty[c] = struct{}{}
	}
}

// flushOperation сохраняет по одной колонке за шаг
type flushOperation struct {
	world   *World
	started bool
	coords  []vec.Vec2
	next    int
}

func (f *flushOperation) Resume(run *operation.RunContext) (operation.Operation, error) {
	if !f.started {
		f.started = true
		f.coords = f.world.takeDirty()
	}
	if f.next >= len(f.coords) {
		return nil, nil
	}

	coords := f.coords[f.next]
	c := f.world.chunk(coords)
	if err := f.world.persister.SaveChunk(run.Context(), c.Snapshot()); err != nil {
		f.world.markDirty(f.coords[f.next:])
		f.next = len(f.coords)
		return nil, fmt.Errorf("сохранение чанка %v: %w", coords, err)
	}
	c.ClearChanges()
	f.next++

	if f.next >= len(f.coords) {
		f.world.logger.Debug("сохранено чанков: %d", len(f.coords))
		return nil, nil
	}
	return f, nil
}

// Cancel возвращает несохраненные колонки в очередь следующего Commit
func (f *flushOperation) Cancel() {
	f.started = true
	if f.next < len(f.coords) {
		f.world.markDirty(f.coords[f.next:])
		f.next = len(f.coords)
	}
}
