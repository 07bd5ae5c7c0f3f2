package stage

import (
	"sync"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// ChangeLimiter ограничивает число попыток записи.
// Отрицательный лимит означает отсутствие ограничения.
type ChangeLimiter struct {
	*extent.Delegate

	mu    sync.Mutex
	limit int
	count int
}

// NewChangeLimiter создаёт ступень с лимитом limit
func NewChangeLimiter(inner extent.Extent, limit int) *ChangeLimiter {
	return &ChangeLimiter{Delegate: extent.NewDelegate(inner), limit: limit}
}

func (c *ChangeLimiter) SetBlock(pos vec.Vec3, b block.Block) (bool, error) {
	c.mu.Lock()
	if c.limit >= 0 && c.count >= c.limit {
		c.mu.Unlock()
		return false, extent.NewEditError(pos, b, extent.ErrChangeLimit)
	}
	c.count++
	c.mu.Unlock()

	return c.Delegate.SetBlock(pos, b)
}

// Count возвращает число учтенных попыток
func (c *ChangeLimiter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *ChangeLimiter) Limit() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limit
}

// SetLimit меняет лимит, счетчик сохраняется
func (c *ChangeLimiter) SetLimit(limit int) {
	c.mu.Lock()
	c.limit = limit
	c.mu.Unlock()
}

// Reset обнуляет счетчик
func (c *ChangeLimiter) Reset() {
	c.mu.Lock()
	c.count = 0
	c.mu.Unlock()
}
