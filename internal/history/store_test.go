package history

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func changeSetWith(ids ...block.BlockID) *ChangeSet {
	cs := NewChangeSet()
	for i, id := range ids {
		cs.Add(vec.Vec3{X: i, Y: 1, Z: 0}, block.Air, block.Of(id))
	}
	return cs
}

// testStore проверяет общий контракт Store
func testStore(t *testing.T, store Store) {
	ctx := context.Background()
	const session = "s-1"

	n, err := store.Len(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = store.Get(ctx, session, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	for i, id := range []block.BlockID{block.StoneBlockID, block.SandBlockID, block.DirtBlockID} {
		n, err := store.Append(ctx, session, changeSetWith(id, id))
		require.NoError(t, err)
		assert.Equal(t, i+1, n)
	}

	cs, err := store.Get(ctx, session, 1)
	require.NoError(t, err)
	require.Equal(t, 2, cs.Len())
	assert.Equal(t, block.SandBlockID, cs.Changes()[0].After.ID)

	_, err = store.Get(ctx, session, -1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, session, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Truncate(ctx, session, 1))
	n, err = store.Len(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Truncate(ctx, session, 0))
	n, err = store.Len(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	cursor, err := store.Cursor(ctx, "s-3")
	require.NoError(t, err)
	assert.Equal(t, 0, cursor)
	_, err = store.Append(ctx, "s-3", changeSetWith(block.StoneBlockID))
	require.NoError(t, err)
	cursor, err = store.Cursor(ctx, "s-3")
	require.NoError(t, err)
	assert.Equal(t, 1, cursor, "без сохраненного курсора он равен длине")
	require.NoError(t, store.SetCursor(ctx, "s-3", 0))
	cursor, err = store.Cursor(ctx, "s-3")
	require.NoError(t, err)
	assert.Equal(t, 0, cursor)

	other, err := store.Len(ctx, "s-2")
	require.NoError(t, err)
	assert.Equal(t, 0, other, "истории сессий независимы")
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(context.Background(), &RedisConfig{Addr: mr.Addr(), KeyPrefix: "test:history:"})
	require.NoError(t, err)
	defer store.Close()

	testStore(t, store)
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	config := DefaultRedisConfig()
	config.Addr = mr.Addr()

	store, err := NewRedisStore(context.Background(), config)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Append(context.Background(), "ttl", changeSetWith(block.StoneBlockID))
	require.NoError(t, err)
	assert.Equal(t, config.TTL, mr.TTL(config.KeyPrefix+"ttl"))
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), &RedisConfig{Addr: addr})
	assert.Error(t, err)
}
