//go:build integration

package stockflow

// Run with: go test -tags integration ./internal/stockflow/... -v

import (
	"context"
	"testing"
	"time"

	"shelfwise/internal/infra"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestIntegration_RedisStoreRoundTripAndExpiry(t *testing.T) {
	rdb := newRedis(t)
	store := NewRedisStore(rdb)
	ctx := context.Background()
	adj := &Adjustment{ID: uuid.New(), BusinessID: uuid.New(), ProductID: uuid.New(), Delta: -2, State: StatePending}

	require.NoError(t, store.Save(ctx, adj, time.Second))

	got, err := store.Get(ctx, adj.BusinessID, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, -2, got.Delta)

	_, err = store.Get(ctx, uuid.New(), adj.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	time.Sleep(1500 * time.Millisecond)
	_, err = store.Get(ctx, adj.BusinessID, adj.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIntegration_RedisLockerIsExclusive(t *testing.T) {
	rdb := newRedis(t)
	locker := infra.NewRedisLocker(rdb)
	ctx := context.Background()

	lock, err := locker.Obtain(ctx, "stock:lock:test", 5*time.Second)
	require.NoError(t, err)

	_, err = locker.Obtain(ctx, "stock:lock:test", 5*time.Second)
	assert.ErrorIs(t, err, infra.ErrLockNotObtained)

	require.NoError(t, lock.Release(ctx))
	again, err := locker.Obtain(ctx, "stock:lock:test", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}
