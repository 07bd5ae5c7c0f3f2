// Package cache держит горячие снимки колонок в Redis перед постоянным
// хранилищем и рассылает другим узлам уведомления об измененных колонках.
package cache

import (
	"context"
	"errors"

	"github.com/annel0/voxedit/internal/vec"
)

// ErrCacheMiss - снимка нет в кеше
var ErrCacheMiss = errors.New("cache miss")

// Invalidator управляет инвалидацией через Pub/Sub.
type Invalidator interface {
	// PublishInvalidation сообщает, что колонка сохранена заново.
	PublishInvalidation(ctx context.Context, coords vec.Vec2) error

	// SubscribeInvalidations подписывается на уведомления других узлов.
	SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error

	Close() error
}

// InvalidationHandler обрабатывает уведомление об инвалидации колонки.
type InvalidationHandler func(coords vec.Vec2)

// Metrics содержит счетчики кеша.
type Metrics struct {
	Requests int64   `json:"total_requests"`
	Hits     int64   `json:"cache_hits"`
	Misses   int64   `json:"cache_misses"`
	HitRatio float64 `json:"hit_ratio"`
}
