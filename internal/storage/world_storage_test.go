package storage

import (
	"context"
	"testing"

	"github.com/annel0/voxedit/internal/extent/stage"
	"github.com/annel0/voxedit/internal/operation"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *WorldStorage {
	t.Helper()

	storage, err := NewWorldStorage(t.TempDir())
	require.NoError(t, err, "не удалось создать хранилище")
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestSaveAndLoadChunk(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	chunk := world.NewChunk(vec.Vec2{X: 10, Y: -20}, 8)
	chunk.SetBlock(vec.Vec3{X: 5, Y: 1, Z: 5}, block.New(block.WaterBlockID).WithState("level", 7))
	chunk.SetBlock(vec.Vec3{X: 8, Y: 3, Z: 3}, block.Of(block.GrassBlockID))

	require.NoError(t, storage.SaveChunk(ctx, chunk.Snapshot()))

	snap, found, err := storage.LoadChunk(ctx, chunk.Coords)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, chunk.Coords, snap.Coords)

	restored, err := world.ChunkFromSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, chunk.Blocks, restored.Blocks)

	// JSON десериализует числа как float64
	water := restored.GetBlock(vec.Vec3{X: 5, Y: 1, Z: 5})
	assert.Equal(t, block.WaterBlockID, water.ID)
	assert.Equal(t, float64(7), water.State["level"])
}

func TestLoadNonExistentChunk(t *testing.T) {
	storage := setupTestStorage(t)

	snap, found, err := storage.LoadChunk(context.Background(), vec.Vec2{X: 99, Y: 99})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, snap)
}

func TestListAndDeleteChunks(t *testing.T) {
	storage, err := NewInMemoryWorldStorage()
	require.NoError(t, err)
	defer storage.Close()
	ctx := context.Background()

	for _, c := range []vec.Vec2{{X: 0, Y: 0}, {X: -1, Y: 4}, {X: 3, Y: -2}} {
		require.NoError(t, storage.SaveChunk(ctx, world.NewChunk(c, 2).Snapshot()))
	}

	list, err := storage.ListChunks(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []vec.Vec2{{X: 0, Y: 0}, {X: -1, Y: 4}, {X: 3, Y: -2}}, list)

	require.NoError(t, storage.DeleteChunk(ctx, vec.Vec2{X: -1, Y: 4}))
	_, found, err := storage.LoadChunk(ctx, vec.Vec2{X: -1, Y: 4})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClosedStorage(t *testing.T) {
	storage, err := NewInMemoryWorldStorage()
	require.NoError(t, err)
	require.NoError(t, storage.Close())
	require.NoError(t, storage.Close())

	err = storage.SaveChunk(context.Background(), world.NewChunk(vec.Vec2{}, 1).Snapshot())
	assert.ErrorIs(t, err, ErrNotReady)
	_, _, err = storage.LoadChunk(context.Background(), vec.Vec2{})
	assert.ErrorIs(t, err, ErrNotReady)
}

// Мир поверх badger: изменения, прошедшие через ступени, переживают переоткрытие
func TestWorldPersistsThroughChain(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	opts := world.Options{
		Min:       vec.Vec3{X: -16, Y: 0, Z: -16},
		Max:       vec.Vec3{X: 15, Y: 15, Z: 15},
		Generator: world.FlatGenerator{Layers: []block.BlockID{block.BedrockBlockID}},
	}

	storage, err := NewWorldStorage(dir)
	require.NoError(t, err)
	opts.Persister = storage

	w, err := world.New(opts)
	require.NoError(t, err)
	chain := stage.NewReorder(w)

	_, err = chain.SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, block.Of(block.StoneBlockID))
	require.NoError(t, err)
	_, err = chain.SetBlock(vec.Vec3{X: 1, Y: 2, Z: 1}, block.New(block.TorchBlockID))
	require.NoError(t, err)

	require.NoError(t, operation.Complete(ctx, chain.Commit()))
	require.NoError(t, storage.Close())

	storage, err = NewWorldStorage(dir)
	require.NoError(t, err)
	defer storage.Close()
	opts.Persister = storage

	reopened, err := world.New(opts)
	require.NoError(t, err)
	assert.Equal(t, block.StoneBlockID, reopened.Block(vec.Vec3{X: 1, Y: 1, Z: 1}).ID)
	assert.Equal(t, block.TorchBlockID, reopened.Block(vec.Vec3{X: 1, Y: 2, Z: 1}).ID)
}
