package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/annel0/voxedit/internal/eventbus"
	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/extent/stage"
	"github.com/annel0/voxedit/internal/history"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	stonePos = vec.Vec3{X: 2, Y: 1, Z: 2}
	torchPos = vec.Vec3{X: 2, Y: 2, Z: 2}
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

func newSession(t *testing.T, opts Options) *EditSession {
	t.Helper()
	if opts.World == nil {
		opts.World = newWorld(t)
	}
	s, err := New(context.Background(), opts)
	require.NoError(t, err)
	return s
}

func set(t *testing.T, e extent.Extent, pos vec.Vec3, b block.Block) bool {
	t.Helper()
	changed, err := e.SetBlock(pos, b)
	require.NoError(t, err)
	return changed
}

func TestNewRequiresWorld(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrNoWorld)
}

func TestSessionID(t *testing.T) {
	a := newSession(t, Options{})
	b := newSession(t, Options{})
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "fixed", newSession(t, Options{ID: "fixed"}).ID())
}

func TestFlushUndoRedo(t *testing.T) {
	w := newWorld(t)
	store := history.NewMemoryStore()
	s := newSession(t, Options{World: w, History: store, Reorder: true})
	ctx := context.Background()

	assert.True(t, set(t, s.Extent(), stonePos, block.Of(block.StoneBlockID)))
	assert.True(t, set(t, s.Extent(), torchPos, block.New(block.TorchBlockID)))
	assert.Equal(t, block.AirBlockID, w.Block(torchPos).ID, "факел ждет Commit")
	assert.Equal(t, block.TorchBlockID, s.Extent().Block(torchPos).ID)

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, block.TorchBlockID, w.Block(torchPos).ID)
	n, err := store.Len(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	undone, err := s.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, undone)
	assert.Equal(t, block.AirBlockID, w.Block(stonePos).ID)
	assert.Equal(t, block.AirBlockID, w.Block(torchPos).ID)

	undone, err = s.Undo(ctx)
	require.NoError(t, err)
	assert.False(t, undone, "история пуста")

	redone, err := s.Redo(ctx)
	require.NoError(t, err)
	assert.True(t, redone)
	assert.Equal(t, block.StoneBlockID, w.Block(stonePos).ID)
	assert.Equal(t, block.TorchBlockID, w.Block(torchPos).ID)

	redone, err = s.Redo(ctx)
	require.NoError(t, err)
	assert.False(t, redone)
}

func TestFlushAfterUndoDropsRedoTail(t *testing.T) {
	store := history.NewMemoryStore()
	s := newSession(t, Options{History: store})
	ctx := context.Background()

	set(t, s.Extent(), stonePos, block.Of(block.StoneBlockID))
	require.NoError(t, s.Flush(ctx))
	set(t, s.Extent(), stonePos, block.Of(block.SandBlockID))
	require.NoError(t, s.Flush(ctx))

	_, err := s.Undo(ctx)
	require.NoError(t, err)
	set(t, s.Extent(), stonePos, block.Of(block.DirtBlockID))
	require.NoError(t, s.Flush(ctx))

	n, err := store.Len(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	redone, err := s.Redo(ctx)
	require.NoError(t, err)
	assert.False(t, redone)
}

func TestRedoKeepsUnflushedEdit(t *testing.T) {
	w := newWorld(t)
	store := history.NewMemoryStore()
	s := newSession(t, Options{World: w, History: store})
	ctx := context.Background()

	set(t, s.Extent(), stonePos, block.Of(block.StoneBlockID))
	require.NoError(t, s.Flush(ctx))
	undone, err := s.Undo(ctx)
	require.NoError(t, err)
	require.True(t, undone)

	set(t, s.Extent(), stonePos, block.Of(block.DirtBlockID))
	redone, err := s.Redo(ctx)
	require.NoError(t, err)
	assert.False(t, redone, "новая правка отбрасывает хвост повторов")
	assert.Equal(t, block.DirtBlockID, w.Block(stonePos).ID)

	n, err := store.Len(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	undone, err = s.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, undone)
	assert.Equal(t, block.AirBlockID, w.Block(stonePos).ID)
}

func TestEmptyFlushKeepsHistory(t *testing.T) {
	store := history.NewMemoryStore()
	s := newSession(t, Options{History: store})
	require.NoError(t, s.Flush(context.Background()))

	n, err := store.Len(context.Background(), s.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUndoRestoresDisallowedBlocks(t *testing.T) {
	w := newWorld(t)
	s := newSession(t, Options{World: w, Disallowed: []block.BlockID{block.BedrockBlockID}})
	ctx := context.Background()
	floor := vec.Vec3{X: 0, Y: 0, Z: 0}

	_, err := s.Extent().SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, block.Of(block.BedrockBlockID))
	assert.ErrorIs(t, err, extent.ErrDisallowedBlock)

	set(t, s.Extent(), floor, block.Of(block.StoneBlockID))
	require.NoError(t, s.Flush(ctx))

	_, err = s.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, block.BedrockBlockID, w.Block(floor).ID)
}

func TestChangeLimitAndMask(t *testing.T) {
	w := newWorld(t)
	s := newSession(t, Options{World: w, MaxChanges: 2})

	s.SetMask(stage.NewRegionMask(vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 3, Y: 3, Z: 3}))
	assert.False(t, set(t, s.Extent(), vec.Vec3{X: 9, Y: 1, Z: 9}, block.Of(block.SandBlockID)), "вне маски")
	assert.Equal(t, 0, s.ChangeCount(), "маска стоит до ограничителя")

	set(t, s.Extent(), vec.Vec3{X: 1, Y: 1, Z: 1}, block.Of(block.SandBlockID))
	set(t, s.Extent(), vec.Vec3{X: 1, Y: 2, Z: 1}, block.Of(block.SandBlockID))
	_, err := s.Extent().SetBlock(vec.Vec3{X: 1, Y: 3, Z: 1}, block.Of(block.SandBlockID))
	assert.ErrorIs(t, err, extent.ErrChangeLimit)
	assert.Equal(t, block.AirBlockID, w.Block(vec.Vec3{X: 1, Y: 3, Z: 1}).ID)
}

func TestNotifyOnFlush(t *testing.T) {
	bus := eventbus.NewMemoryBus(8)
	received := make(chan eventbus.BlockChanges, 4)
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{eventbus.EventBlockChanges}},
		func(ctx context.Context, ev *eventbus.Envelope) {
			var payload eventbus.BlockChanges
			if ev.Decode(&payload) == nil {
				received <- payload
			}
		})
	require.NoError(t, err)

	s := newSession(t, Options{ID: "notify", Bus: bus, Reorder: true})
	set(t, s.Extent(), torchPos, block.New(block.TorchBlockID))
	set(t, s.Extent(), stonePos, block.Of(block.StoneBlockID))
	require.NoError(t, s.Flush(context.Background()))

	_, err = s.Undo(context.Background())
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	close(received)

	var events []eventbus.BlockChanges
	for ev := range received {
		events = append(events, ev)
	}
	require.Len(t, events, 2, "событие на Flush и на Undo")
	require.Len(t, events[0].Changes, 2)
	assert.Equal(t, block.StoneBlockID, events[0].Changes[0].Block.ID)
	assert.Equal(t, block.TorchBlockID, events[0].Changes[1].Block.ID)
	assert.Len(t, events[1].Changes, 2)
}

func TestSessionMetrics(t *testing.T) {
	metrics := stage.NewMetricSet(prometheus.NewRegistry())
	s := newSession(t, Options{Metrics: metrics})

	_, err := s.Extent().SetBlock(stonePos, block.Of(block.StoneBlockID))
	require.NoError(t, err)
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Writes.WithLabelValues("changed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Commits))
}

func TestSessionResumesFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	w := newWorld(t)

	open := func() *EditSession {
		store, err := history.NewRedisStore(ctx, &history.RedisConfig{Addr: mr.Addr(), KeyPrefix: "test:"})
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return newSession(t, Options{ID: "resumable", World: w, History: store})
	}

	first := open()
	set(t, first.Extent(), stonePos, block.Of(block.StoneBlockID))
	require.NoError(t, first.Flush(ctx))

	second := open()
	undone, err := second.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, undone)
	assert.Equal(t, block.AirBlockID, w.Block(stonePos).ID)

	third := open()
	redone, err := third.Redo(ctx)
	require.NoError(t, err)
	assert.True(t, redone)
	assert.Equal(t, block.StoneBlockID, w.Block(stonePos).ID)
}
