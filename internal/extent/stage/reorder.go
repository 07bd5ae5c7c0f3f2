package stage

import (
	"sync"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/operation"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// placeBatch - сколько отложенных блоков ставится за один шаг
const placeBatch = 256

// blockBuffer хранит блоки в порядке первой записи
type blockBuffer struct {
	order  []vec.Vec3
	blocks map[vec.Vec3]block.Block
}

func newBlockBuffer() *blockBuffer {
	return &blockBuffer{blocks: make(map[vec.Vec3]block.Block)}
}

func (b *blockBuffer) get(pos vec.Vec3) (block.Block, bool) {
	v, ok := b.blocks[pos]
	return v, ok
}

func (b *blockBuffer) put(pos vec.Vec3, v block.Block) {
	if _, ok := b.blocks[pos]; !ok {
		b.order = append(b.order, pos)
	}
	b.blocks[pos] = v.Clone()
}

func (b *blockBuffer) remove(pos vec.Vec3) bool {
	if _, ok := b.blocks[pos]; !ok {
		return false
	}
	delete(b.blocks, pos)
	return true
}

func (b *blockBuffer) len() int {
	return len(b.blocks)
}

// drain возвращает блоки в порядке записи и очищает буфер
func (b *blockBuffer) drain() []placement {
	out := make([]placement, 0, len(b.blocks))
	for _, pos := range b.order {
		// После remove+put позиция встречается в order дважды
		if v, ok := b.blocks[pos]; ok {
			out = append(out, placement{pos: pos, block: v})
			delete(b.blocks, pos)
		}
	}
	b.order = nil
	b.blocks = make(map[vec.Vec3]block.Block)
	return out
}

type placement struct {
	pos   vec.Vec3
	block block.Block
}

// Reorder откладывает блоки, которым нужна опора (Attached) или которые
// должны ставиться последними (Final). Обычные блоки пишутся сразу, отложенные
// ставятся операцией Commit: сначала Attached, затем Final. Чтение видит
// отложенные значения.
type Reorder struct {
	*extent.Delegate

	mu       sync.Mutex
	attached *blockBuffer
	final    *blockBuffer
	rejected RejectHandler
}

// RejectHandler получает отложенный блок, который внутренний экстент не принял
type RejectHandler func(pos vec.Vec3, b block.Block, err error)

// NewReorder создаёт ступень переупорядочивания
func NewReorder(inner extent.Extent) *Reorder {
	r := &Reorder{attached: newBlockBuffer(), final: newBlockBuffer()}
	r.Delegate = extent.NewDelegate(inner, extent.WithCommitBefore(r.commitBefore))
	return r
}

// SetRejectHandler задает обработчик отвергнутых при Commit блоков.
// Такие блоки в буфер не возвращаются.
func (r *Reorder) SetRejectHandler(fn RejectHandler) {
	r.mu.Lock()
	r.rejected = fn
	r.mu.Unlock()
}

// Pending возвращает число отложенных блоков
func (r *Reorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attached.len() + r.final.len()
}

func (r *Reorder) buffered(pos vec.Vec3) (block.Block, bool) {
	if v, ok := r.final.get(pos); ok {
		return v, true
	}
	return r.attached.get(pos)
}

func (r *Reorder) Block(pos vec.Vec3) block.Block {
	r.mu.Lock()
	v, ok := r.buffered(pos)
	r.mu.Unlock()
	if ok {
		return v.Clone()
	}
	return r.Delegate.Block(pos)
}

func (r *Reorder) LazyBlock(pos vec.Vec3) block.Block {
	r.mu.Lock()
	v, ok := r.buffered(pos)
	r.mu.Unlock()
	if ok {
		return v.Lazy()
	}
	return r.Delegate.LazyBlock(pos)
}

func (r *Reorder) SetBlock(pos vec.Vec3, b block.Block) (bool, error) {
	// Вне границ откладывать нечего: ошибку вернет внутренний экстент
	if !pos.In(r.MinimumPoint(), r.MaximumPoint()) {
		return r.Delegate.SetBlock(pos, b)
	}

	r.mu.Lock()
	current, wasBuffered := r.buffered(pos)
	if wasBuffered && current.Equal(b) {
		r.mu.Unlock()
		return false, nil
	}

	placementKind := block.PlacementOf(b.ID)
	if placementKind == block.PlaceNormal || r.Delegate.Block(pos).Equal(b) {
		r.attached.remove(pos)
		r.final.remove(pos)
		r.mu.Unlock()

		changed, err := r.Delegate.SetBlock(pos, b)
		return changed || (wasBuffered && err == nil), err
	}

	r.attached.remove(pos)
	r.final.remove(pos)
	if placementKind == block.PlaceFinal {
		r.final.put(pos, b)
	} else {
		r.attached.put(pos, b)
	}
	r.mu.Unlock()
	return true, nil
}

func (r *Reorder) commitBefore() operation.Operation {
	if r.Pending() == 0 {
		return nil
	}
	return &placeOperation{stage: r}
}

// placeOperation ставит отложенные блоки во внутренний экстент.
// Буферы забираются при первом шаге.
type placeOperation struct {
	stage   *Reorder
	started bool
	queue   []placement
	next    int
}

func (p *placeOperation) Resume(run *operation.RunContext) (operation.Operation, error) {
	if !p.started {
		p.started = true
		p.stage.mu.Lock()
		p.queue = append(p.stage.attached.drain(), p.stage.final.drain()...)
		p.stage.mu.Unlock()
	}

	end := p.next + placeBatch
	if end > len(p.queue) {
		end = len(p.queue)
	}
	inner := p.stage.Extent()
	for ; p.next < end; p.next++ {
		pl := p.queue[p.next]
		if _, err := inner.SetBlock(pl.pos, pl.block); err != nil {
			p.next++
			p.reject(pl, err)
			p.requeue()
			return nil, err
		}
	}

	if p.next >= len(p.queue) {
		return nil, nil
	}
	return p, nil
}

func (p *placeOperation) reject(pl placement, err error) {
	p.stage.mu.Lock()
	fn := p.stage.rejected
	p.stage.mu.Unlock()
	if fn != nil {
		fn(pl.pos, pl.block, err)
	}
}

// Cancel возвращает непоставленные блоки в буферы ступени
func (p *placeOperation) Cancel() {
	p.started = true
	p.requeue()
}

func (p *placeOperation) requeue() {
	if p.next >= len(p.queue) {
		return
	}
	p.stage.mu.Lock()
	for _, pl := range p.queue[p.next:] {
		if _, taken := p.stage.buffered(pl.pos); taken {
			continue
		}
		if block.PlacementOf(pl.block.ID) == block.PlaceFinal {
			p.stage.final.put(pl.pos, pl.block)
		} else {
			p.stage.attached.put(pl.pos, pl.block)
		}
	}
	p.stage.mu.Unlock()
	p.next = len(p.queue)
}
