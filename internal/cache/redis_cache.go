package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world"
	"github.com/go-redis/redis/v8"
	"github.com/klauspost/compress/zstd"
)

// Config содержит настройки Redis кеша колонок.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration // 0 - 10 минут
}

// ChunkCache - world.Persister с Redis перед постоянным хранилищем.
// Чтение: Redis, при промахе cold с заполнением кеша (Read-Through).
// Запись: cold, затем Redis (Write-Through) и уведомление других узлов.
type ChunkCache struct {
	client      *redis.Client
	cold        world.Persister
	invalidator Invalidator
	keyPrefix   string
	ttl         time.Duration
	logger      *logging.Logger

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	requests int64
	hits     int64
	misses   int64
}

var _ world.Persister = (*ChunkCache)(nil)

// NewChunkCache подключается к Redis. invalidator может быть nil.
func NewChunkCache(ctx context.Context, cold world.Persister, config *Config, invalidator Invalidator, logger *logging.Logger) (*ChunkCache, error) {
	if config.TTL == 0 {
		config.TTL = 10 * time.Minute
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "voxedit:chunk:"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		rdb.Close()
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		rdb.Close()
		return nil, err
	}

	logger.Info("Redis cache initialized: %s (ttl=%v)", config.Addr, config.TTL)
	return &ChunkCache{
		client:      rdb,
		cold:        cold,
		invalidator: invalidator,
		keyPrefix:   config.KeyPrefix,
		ttl:         config.TTL,
		logger:      logger,
		encoder:     encoder,
		decoder:     decoder,
	}, nil
}

func (c *ChunkCache) key(coords vec.Vec2) string {
	return fmt.Sprintf("%s%d:%d", c.keyPrefix, coords.X, coords.Y)
}

func (c *ChunkCache) get(ctx context.Context, coords vec.Vec2) (*world.ChunkSnapshot, error) {
	data, err := c.client.Get(ctx, c.key(coords)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, err
	}
	var snap world.ChunkSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *ChunkCache) set(ctx context.Context, snap *world.ChunkSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(snap.Coords), c.encoder.EncodeAll(data, nil), c.ttl).Err()
}

// LoadChunk реализует world.Persister
func (c *ChunkCache) LoadChunk(ctx context.Context, coords vec.Vec2) (*world.ChunkSnapshot, bool, error) {
	atomic.AddInt64(&c.requests, 1)

	snap, err := c.get(ctx, coords)
	if err == nil {
		atomic.AddInt64(&c.hits, 1)
		return snap, true, nil
	}
	atomic.AddInt64(&c.misses, 1)
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("Redis cache error for chunk %s: %v", coords, err)
	}

	snap, found, err := c.cold.LoadChunk(ctx, coords)
	if err != nil || !found {
		return snap, found, err
	}
	if err := c.set(ctx, snap); err != nil {
		c.logger.Warn("Redis Set error for chunk %s: %v", coords, err)
	}
	return snap, true, nil
}

// SaveChunk реализует world.Persister
func (c *ChunkCache) SaveChunk(ctx context.Context, snap *world.ChunkSnapshot) error {
	if err := c.cold.SaveChunk(ctx, snap); err != nil {
		return err
	}

	if err := c.set(ctx, snap); err != nil {
		// Устаревший снимок в кеше хуже промаха
		c.logger.Warn("Redis Set error for chunk %s: %v", snap.Coords, err)
		c.client.Del(ctx, c.key(snap.Coords))
	}

	if c.invalidator != nil {
		if err := c.invalidator.PublishInvalidation(ctx, snap.Coords); err != nil {
			c.logger.Warn("invalidation for chunk %s failed: %v", snap.Coords, err)
		}
	}
	return nil
}

// Metrics возвращает счетчики кеша
func (c *ChunkCache) Metrics() Metrics {
	m := Metrics{
		Requests: atomic.LoadInt64(&c.requests),
		Hits:     atomic.LoadInt64(&c.hits),
		Misses:   atomic.LoadInt64(&c.misses),
	}
	if m.Requests > 0 {
		m.HitRatio = float64(m.Hits) / float64(m.Requests)
	}
	return m
}

// Close закрывает соединение с Redis
func (c *ChunkCache) Close() error {
	c.decoder.Close()
	_ = c.encoder.Close()
	return c.client.Close()
}
