package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/annel0/voxedit/internal/session"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*session.EditSession, *world.World) {
	t.Helper()
	w, err := world.New(world.Options{
		Min:       vec.Vec3{X: -8, Y: 0, Z: -8},
		Max:       vec.Vec3{X: 7, Y: 7, Z: 7},
		Generator: world.FlatGenerator{Layers: []block.BlockID{block.BedrockBlockID, block.DirtBlockID}},
	})
	require.NoError(t, err)
	s, err := session.New(context.Background(), session.Options{World: w, Reorder: true})
	require.NoError(t, err)
	return s, w
}

func TestParseRequest(t *testing.T) {
	req, err := parseRequest("fill", "1,2,3", "", "Torch", "0")
	require.NoError(t, err)
	assert.Equal(t, vec.Vec3{X: 1, Y: 2, Z: 3}, req.Max)
	assert.True(t, req.Block.Equal(block.New(block.TorchBlockID)))
	assert.Equal(t, block.AirBlockID, req.From)

	_, err = parseRequest("fill", "1,2", "", "stone", "air")
	assert.Error(t, err)
	_, err = parseRequest("fill", "0,0,0", "", "unobtainium", "air")
	assert.Error(t, err)
	_, err = parseRequest("fill", "0,0,0", "", "65000", "air")
	assert.Error(t, err)
}

func TestRunFillReplaceUndo(t *testing.T) {
	s, w := newTestSession(t)
	ctx := context.Background()
	var out bytes.Buffer

	fill := request{Command: "fill", Min: vec.Vec3{X: 0, Y: 1, Z: 0}, Max: vec.Vec3{X: 1, Y: 2, Z: 1}, Block: block.Of(block.StoneBlockID)}
	require.NoError(t, run(ctx, s, fill, &out))
	assert.Contains(t, out.String(), "изменено блоков 8 из 8")

	// Заменяем только камень, который лежит на слое земли
	replace := request{Command: "replace", Min: vec.Vec3{X: 0, Y: 1, Z: 0}, Max: vec.Vec3{X: 3, Y: 1, Z: 0}, Block: block.Of(block.SandBlockID), From: block.StoneBlockID}
	require.NoError(t, run(ctx, s, replace, &out))
	assert.Equal(t, block.SandBlockID, w.Block(vec.Vec3{X: 1, Y: 1, Z: 0}).ID)
	assert.Equal(t, block.DirtBlockID, w.Block(vec.Vec3{X: 3, Y: 1, Z: 0}).ID)

	require.NoError(t, run(ctx, s, request{Command: "undo"}, &out))
	assert.Equal(t, block.StoneBlockID, w.Block(vec.Vec3{X: 1, Y: 1, Z: 0}).ID)

	// После replace маска снята
	require.NoError(t, run(ctx, s, request{Command: "fill", Min: vec.Vec3{X: 5, Y: 5, Z: 5}, Max: vec.Vec3{X: 5, Y: 5, Z: 5}, Block: block.Of(block.SandBlockID)}, &out))
	assert.Equal(t, block.SandBlockID, w.Block(vec.Vec3{X: 5, Y: 5, Z: 5}).ID)

	out.Reset()
	require.NoError(t, run(ctx, s, request{Command: "inspect", Min: vec.Vec3{X: 0, Y: 1, Z: 0}, Max: vec.Vec3{X: 1, Y: 1, Z: 1}}, &out))
	assert.Contains(t, out.String(), "Stone")

	assert.Error(t, run(ctx, s, request{Command: "explode"}, &out))
}
