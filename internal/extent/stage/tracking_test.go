package stage

import (
	"context"
	"testing"

	"github.com/annel0/voxedit/internal/operation"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackingRecordsOnlyChanges(t *testing.T) {
	w := newWorld(t)
	tracking := NewTracking(w, nil)

	_, err := tracking.SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, block.Of(block.StoneBlockID))
	require.NoError(t, err)
	_, err = tracking.SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, block.Of(block.StoneBlockID))
	require.NoError(t, err)
	_, err = tracking.SetBlock(vec.Vec3{X: 1, Y: 99, Z: 1}, block.Of(block.StoneBlockID))
	require.Error(t, err)

	changes := tracking.ChangeSet().Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, block.AirBlockID, changes[0].Before.ID)
	assert.Equal(t, block.StoneBlockID, changes[0].After.ID)
}

func TestTrackingUndoThroughReorder(t *testing.T) {
	w := newWorld(t)
	reorder := NewReorder(w)
	tracking := NewTracking(reorder, nil)
	ctx := context.Background()

	_, err := tracking.SetBlock(vec.Vec3{X: 0, Y: 1, Z: 0}, block.Of(block.StoneBlockID))
	require.NoError(t, err)
	_, err = tracking.SetBlock(vec.Vec3{X: 0, Y: 2, Z: 0}, block.New(block.TorchBlockID))
	require.NoError(t, err)
	require.Equal(t, 2, tracking.ChangeSet().Len())
	require.NoError(t, operation.Complete(ctx, tracking.Commit()))

	require.NoError(t, operation.Complete(ctx, tracking.ChangeSet().Undo(reorder)))
	require.NoError(t, operation.Complete(ctx, reorder.Commit()))
	assert.Equal(t, block.AirBlockID, w.Block(vec.Vec3{X: 0, Y: 1, Z: 0}).ID)
	assert.Equal(t, block.AirBlockID, w.Block(vec.Vec3{X: 0, Y: 2, Z: 0}).ID)
}
