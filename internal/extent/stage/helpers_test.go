package stage

import (
	"testing"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/stretchr/testify/require"
)

func newWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(world.Options{
		Min:       vec.Vec3{X: -16, Y: 0, Z: -16},
		Max:       vec.Vec3{X: 15, Y: 15, Z: 15},
		Generator: world.FlatGenerator{Layers: []block.BlockID{block.BedrockBlockID}},
	})
	require.NoError(t, err)
	return w
}

// writeLog записывает порядок записей, дошедших до внутреннего экстента
type writeLog struct {
	*extent.Delegate
	writes []block.BlockID
}

func newWriteLog(inner extent.Extent) *writeLog {
	return &writeLog{Delegate: extent.NewDelegate(inner)}
}

func (l *writeLog) SetBlock(pos vec.Vec3, b block.Block) (bool, error) {
	l.writes = append(l.writes, b.ID)
	return l.Delegate.SetBlock(pos, b)
}
