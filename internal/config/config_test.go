package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxedit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VOXEDIT_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())

	ids, err := cfg.Session.DisallowedIDs()
	require.NoError(t, err)
	assert.Equal(t, []block.BlockID{block.BedrockBlockID}, ids)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
world:
  data_path: /tmp/vox
  min: {x: -16, y: 0, z: -16}
  max: {x: 15, y: 31, z: 15}
session:
  max_changes: 1000
  disallowed_blocks: [spawner, portal]
history:
  backend: redis
`)
	t.Setenv("VOXEDIT_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/vox", cfg.World.DataPath)
	assert.Equal(t, vec.Vec3{X: 15, Y: 31, Z: 15}, cfg.World.Max)
	assert.Equal(t, int64(42), cfg.World.Seed, "незаданные поля берутся из Default")
	assert.True(t, cfg.Session.Reorder)
	assert.Equal(t, 1000, cfg.Session.MaxChanges)
	assert.Equal(t, "redis", cfg.History.Backend)

	ids, err := cfg.Session.DisallowedIDs()
	require.NoError(t, err)
	assert.Equal(t, []block.BlockID{block.SpawnerBlockID, block.PortalBlockID}, ids)
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"bounds":  "world:\n  min: {x: 10}\n  max: {x: 0}\n",
		"backend": "history:\n  backend: mongo\n",
		"block":   "session:\n  disallowed_blocks: [unobtainium]\n",
		"yaml":    "world: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvFallbacks(t *testing.T) {
	cfg := Default()

	t.Setenv("VOXEDIT_METRICS_PORT", "9100")
	t.Setenv("VOXEDIT_REDIS_ADDR", "redis:6380")
	t.Setenv("VOXEDIT_NATS_URL", "nats://nats:4222")
	assert.Equal(t, 9100, cfg.Metrics.GetPort())
	assert.Equal(t, "redis:6380", cfg.History.GetRedisAddr())
	assert.Equal(t, "nats://nats:4222", cfg.EventBus.GetURL())

	cfg.History.RedisAddr = "cache:6379"
	assert.Equal(t, "cache:6379", cfg.History.GetRedisAddr(), "значение из конфига важнее env")

	cfg.Metrics.Port = 2200
	assert.Equal(t, 2200, cfg.Metrics.GetPort())

	t.Setenv("VOXEDIT_METRICS_PORT", "nope")
	cfg.Metrics.Port = 0
	assert.Equal(t, 2112, cfg.Metrics.GetPort())
}
