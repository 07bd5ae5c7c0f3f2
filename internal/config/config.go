package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации voxedit.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Session   SessionConfig   `yaml:"session"`
	History   HistoryConfig   `yaml:"history"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type WorldConfig struct {
	DataPath string   `yaml:"data_path"`
	Min      vec.Vec3 `yaml:"min"`
	Max      vec.Vec3 `yaml:"max"`
	Seed     int64    `yaml:"seed"`
	Generate bool     `yaml:"generate"` // Генерировать ландшафт для новых колонок

	CacheAddr       string `yaml:"cache_addr"` // Redis перед BadgerDB, пусто - без кеша
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
}

type SessionConfig struct {
	MaxChanges       int      `yaml:"max_changes"` // <0 - без ограничения
	DisallowedBlocks []string `yaml:"disallowed_blocks"`
	Reorder          bool     `yaml:"reorder"`
	Notify           bool     `yaml:"notify"`
}

type HistoryConfig struct {
	Backend   string `yaml:"backend"` // memory | redis
	RedisAddr string `yaml:"redis_addr"`
	KeyPrefix string `yaml:"key_prefix"`
	TTLHours  int    `yaml:"ttl_hours"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // Пусто - шина в памяти
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type MetricsConfig struct {
	Port int `yaml:"port"` // 0 - брать из VOXEDIT_METRICS_PORT
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default возвращает рабочую конфигурацию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			DataPath: "data",
			Min:      vec.Vec3{X: -256, Y: 0, Z: -256},
			Max:      vec.Vec3{X: 255, Y: 63, Z: 255},
			Seed:     42,
			Generate: true,

			CacheTTLMinutes: 10,
		},
		Session: SessionConfig{
			MaxChanges:       -1,
			DisallowedBlocks: []string{"Bedrock"},
			Reorder:          true,
			Notify:           true,
		},
		History: HistoryConfig{
			Backend:   "memory",
			KeyPrefix: "voxedit:history:",
			TTLHours:  24,
		},
		EventBus: EventBusConfig{
			Stream:    "VOXEDIT",
			Retention: 24,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voxedit",
		},
	}
}

// Load читает YAML поверх Default.
// Если path == "", берет путь из VOXEDIT_CONFIG; без него возвращает Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("VOXEDIT_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.World.Max.X < c.World.Min.X || c.World.Max.Y < c.World.Min.Y || c.World.Max.Z < c.World.Min.Z {
		return fmt.Errorf("world: max %s меньше min %s", c.World.Max, c.World.Min)
	}
	switch c.History.Backend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("history: неизвестный backend %q", c.History.Backend)
	}
	if _, err := c.Session.DisallowedIDs(); err != nil {
		return err
	}
	return nil
}

// DisallowedIDs переводит имена запрещенных блоков в идентификаторы
func (s *SessionConfig) DisallowedIDs() ([]block.BlockID, error) {
	ids := make([]block.BlockID, 0, len(s.DisallowedBlocks))
	for _, name := range s.DisallowedBlocks {
		t, ok := block.ByName(name)
		if !ok {
			return nil, fmt.Errorf("session: неизвестный блок %q", name)
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// CacheTTL возвращает время жизни снимков колонок в Redis
func (w *WorldConfig) CacheTTL() time.Duration {
	return time.Duration(w.CacheTTLMinutes) * time.Minute
}

// TTL возвращает время жизни истории
func (h *HistoryConfig) TTL() time.Duration {
	return time.Duration(h.TTLHours) * time.Hour
}

// GetRedisAddr возвращает адрес Redis: config -> VOXEDIT_REDIS_ADDR -> default
func (h *HistoryConfig) GetRedisAddr() string {
	return getWithEnvFallback(h.RedisAddr, "VOXEDIT_REDIS_ADDR", "localhost:6379")
}

// GetURL возвращает адрес NATS: config -> VOXEDIT_NATS_URL -> пусто
func (e *EventBusConfig) GetURL() string {
	return getWithEnvFallback(e.URL, "VOXEDIT_NATS_URL", "")
}

// RetentionDuration возвращает срок хранения событий
func (e *EventBusConfig) RetentionDuration() time.Duration {
	return time.Duration(e.Retention) * time.Hour
}

// GetPort возвращает порт метрик с поддержкой fallback значений
func (m *MetricsConfig) GetPort() int {
	return getPortWithEnvFallback(m.Port, "VOXEDIT_METRICS_PORT", 2112)
}

func getWithEnvFallback(value, envVar, def string) string {
	if value != "" {
		return value
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return def
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}
