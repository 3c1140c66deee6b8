package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/types"
)

func TestFlowCache_RoundTrip(t *testing.T) {
	backend := NewMemoryCache(nil)
	t.Cleanup(func() { _ = backend.Close() })
	fc := NewFlowCache(backend, time.Minute)
	ctx := context.Background()

	source, sink := addr(1), addr(3)
	edges := graphFixture()
	balances := balanceFixture()

	_, hit, err := fc.Get(ctx, source, sink, edges, balances)
	require.NoError(t, err)
	assert.False(t, hit)

	stored := &CachedFlowResult{
		MaxFlow:    "110",
		Iterations: 2,
		Transfers: []TransferCache{
			{From: addr(1).String(), To: addr(3).String(), Token: addr(0xaa).String(), Value: "110"},
		},
	}
	require.NoError(t, fc.Set(ctx, source, sink, edges, balances, stored, 0))

	got, hit, err := fc.Get(ctx, source, sink, edges, balances)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "110", got.MaxFlow)
	require.Len(t, got.Transfers, 1)
	assert.Equal(t, "110", got.Transfers[0].Value)
	assert.False(t, got.ComputedAt.IsZero())
}

func TestFlowCache_KeyedByGraph(t *testing.T) {
	backend := NewMemoryCache(nil)
	t.Cleanup(func() { _ = backend.Close() })
	fc := NewFlowCache(backend, time.Minute)
	ctx := context.Background()

	edges := graphFixture()
	balances := balanceFixture()
	require.NoError(t, fc.Set(ctx, addr(1), addr(3), edges, balances, &CachedFlowResult{MaxFlow: "110"}, 0))

	// Другая пара источник/сток не попадает в тот же ключ
	_, hit, err := fc.Get(ctx, addr(2), addr(3), edges, balances)
	require.NoError(t, err)
	assert.False(t, hit)

	// Изменённый граф тоже
	changed := graphFixture()
	changed[addr(1)][0].Capacity = types.NewU256(1)
	_, hit, err = fc.Get(ctx, addr(1), addr(3), changed, balances)
	require.NoError(t, err)
	assert.False(t, hit)

	// И изменённый баланс отправителя
	poorer := balanceFixture()
	poorer.Set(addr(1), addr(0xaa), types.NewU256(1))
	_, hit, err = fc.Get(ctx, addr(1), addr(3), edges, poorer)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestFlowCache_CorruptedEntry(t *testing.T) {
	backend := NewMemoryCache(nil)
	t.Cleanup(func() { _ = backend.Close() })
	fc := NewFlowCache(backend, time.Minute)
	ctx := context.Background()

	edges := graphFixture()
	key := BuildFlowKey(AdjacencyHash(addr(1), addr(3), edges, nil))
	require.NoError(t, backend.Set(ctx, key, []byte("{broken"), time.Minute))

	// Повреждённая запись трактуется как промах и удаляется
	_, hit, err := fc.Get(ctx, addr(1), addr(3), edges, nil)
	require.NoError(t, err)
	assert.False(t, hit)

	ok, err := backend.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
