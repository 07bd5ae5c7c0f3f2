package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/klauspost/compress/zstd"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни истории сессии, 0 - бессрочно
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "voxedit:history:",
		TTL:       24 * time.Hour,
	}
}

// RedisStore хранит историю сессии в Redis-списке: один элемент - один
// набор изменений в JSON, сжатый zstd.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

// NewRedisStore подключается к Redis и проверяет соединение
func NewRedisStore(ctx context.Context, config *RedisConfig) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		client.Close()
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{
		client:    client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
		encoder:   encoder,
		decoder:   decoder,
	}, nil
}

// Close закрывает соединение
func (r *RedisStore) Close() error {
	r.decoder.Close()
	_ = r.encoder.Close()
	return r.client.Close()
}

func (r *RedisStore) key(sessionID string) string {
	return r.keyPrefix + sessionID
}

func (r *RedisStore) Append(ctx context.Context, sessionID string, cs *ChangeSet) (int, error) {
	data, err := json.Marshal(cs)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal change set: %w", err)
	}

	key := r.key(sessionID)
	pipe := r.client.TxPipeline()
	push := pipe.RPush(ctx, key, r.encoder.EncodeAll(data, nil))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to append change set: %w", err)
	}
	return int(push.Val()), nil
}

func (r *RedisStore) Get(ctx context.Context, sessionID string, index int) (*ChangeSet, error) {
	if index < 0 {
		return nil, ErrNotFound
	}

	data, err := r.client.LIndex(ctx, r.key(sessionID), int64(index)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get change set: %w", err)
	}

	raw, err := r.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress change set: %w", err)
	}

	cs := NewChangeSet()
	if err := json.Unmarshal(raw, cs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal change set: %w", err)
	}
	return cs, nil
}

func (r *RedisStore) Len(ctx context.Context, sessionID string) (int, error) {
	n, err := r.client.LLen(ctx, r.key(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get history length: %w", err)
	}
	return int(n), nil
}

func (r *RedisStore) Truncate(ctx context.Context, sessionID string, n int) error {
	key := r.key(sessionID)
	if n <= 0 {
		return r.client.Del(ctx, key).Err()
	}
	return r.client.LTrim(ctx, key, 0, int64(n-1)).Err()
}

func (r *RedisStore) cursorKey(sessionID string) string {
	return r.keyPrefix + sessionID + ":cursor"
}

func (r *RedisStore) Cursor(ctx context.Context, sessionID string) (int, error) {
	n, err := r.client.Get(ctx, r.cursorKey(sessionID)).Int()
	if errors.Is(err, redis.Nil) {
		return r.Len(ctx, sessionID)
	} else if err != nil {
		return 0, fmt.Errorf("failed to get history cursor: %w", err)
	}
	return n, nil
}

func (r *RedisStore) SetCursor(ctx context.Context, sessionID string, n int) error {
	return r.client.Set(ctx, r.cursorKey(sessionID), n, r.ttl).Err()
}
