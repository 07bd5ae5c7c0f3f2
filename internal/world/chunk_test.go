package world

import (
	"testing"

	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkCreateAndGetBlock(t *testing.T) {
	chunk := NewChunk(vec.Vec2{X: 5, Y: 10}, 32)
	assert.Equal(t, vec.Vec2{X: 5, Y: 10}, chunk.Coords)

	// Блоки инициализированы воздухом
	pos := vec.Vec3{X: 3, Y: 20, Z: 4}
	assert.Equal(t, block.AirBlockID, chunk.GetBlockID(pos))

	// Устанавливаем и проверяем блок
	assert.True(t, chunk.SetBlock(pos, block.Of(block.StoneBlockID)))
	assert.Equal(t, block.StoneBlockID, chunk.GetBlockID(pos))
	assert.Equal(t, 1, chunk.ChangeCounter)

	// Повторная запись того же блока ничего не меняет
	assert.False(t, chunk.SetBlock(pos, block.Of(block.StoneBlockID)))
	assert.Equal(t, 1, chunk.ChangeCounter)

	// Вне колонки
	assert.False(t, chunk.SetBlock(vec.Vec3{X: 16, Y: 0, Z: 0}, block.Of(block.StoneBlockID)))
	assert.Equal(t, block.Air, chunk.GetBlock(vec.Vec3{X: 0, Y: 32, Z: 0}))
}

func TestChunkState(t *testing.T) {
	chunk := NewChunk(vec.Vec2{X: 1, Y: 2}, 8)
	pos := vec.Vec3{X: 5, Y: 1, Z: 5}

	water := block.New(block.WaterBlockID).WithState("level", 3)
	require.True(t, chunk.SetBlock(pos, water))

	got := chunk.GetBlock(pos)
	assert.True(t, got.Equal(water))

	// GetBlock возвращает копию состояния
	got.State["level"] = 1
	assert.Equal(t, 3, chunk.GetBlock(pos).State["level"])

	// Замена на блок без состояния удаляет состояние
	require.True(t, chunk.SetBlock(pos, block.Of(block.StoneBlockID)))
	assert.Nil(t, chunk.GetBlock(pos).State)
	assert.Empty(t, chunk.States)
}

func TestChunkSnapshotRoundTrip(t *testing.T) {
	chunk := NewChunk(vec.Vec2{X: -3, Y: 7}, 4)
	chunk.SetBlock(vec.Vec3{X: 0, Y: 0, Z: 0}, block.Of(block.BedrockBlockID))
	chunk.SetBlock(vec.Vec3{X: 15, Y: 3, Z: 15}, block.New(block.TorchBlockID))
	chunk.SetBlock(vec.Vec3{X: 2, Y: 1, Z: 9}, block.New(block.DoorBlockID))

	snap := chunk.Snapshot()
	require.Len(t, snap.States, 2)
	assert.Equal(t, vec.Vec3{X: 2, Y: 1, Z: 9}, snap.States[0].Pos)

	restored, err := ChunkFromSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, chunk.Blocks, restored.Blocks)
	assert.True(t, restored.GetBlock(vec.Vec3{X: 15, Y: 3, Z: 15}).Equal(block.New(block.TorchBlockID)))
	assert.False(t, restored.HasChanges())

	snap.Blocks = snap.Blocks[:10]
	_, err = ChunkFromSnapshot(snap)
	assert.Error(t, err)
}

func TestFlatGenerator(t *testing.T) {
	gen := FlatGenerator{Layers: []block.BlockID{block.BedrockBlockID, block.DirtBlockID, block.GrassBlockID}}
	chunk := gen.GenerateChunk(vec.Vec2{}, 0, 8)

	assert.Equal(t, block.BedrockBlockID, chunk.GetBlockID(vec.Vec3{X: 4, Y: 0, Z: 4}))
	assert.Equal(t, block.GrassBlockID, chunk.GetBlockID(vec.Vec3{X: 4, Y: 2, Z: 4}))
	assert.Equal(t, block.AirBlockID, chunk.GetBlockID(vec.Vec3{X: 4, Y: 3, Z: 4}))
	assert.False(t, chunk.HasChanges())
}

func TestTerrainGeneratorIsDeterministic(t *testing.T) {
	a := NewTerrainGenerator(1337).GenerateChunk(vec.Vec2{X: 2, Y: -1}, 0, 64)
	b := NewTerrainGenerator(1337).GenerateChunk(vec.Vec2{X: 2, Y: -1}, 0, 64)

	assert.Equal(t, a.Blocks, b.Blocks)
	assert.False(t, a.HasChanges())

	// Дно мира всегда из коренной породы
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			assert.Equal(t, block.BedrockBlockID, a.GetBlockID(vec.Vec3{X: x, Y: 0, Z: z}))
		}
	}
}
