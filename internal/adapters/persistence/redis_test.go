package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/route-executor/internal/domain"
)

func setupTestRedis(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

func TestNewRedisJournal_NilClient(t *testing.T) {
	_, err := NewRedisJournal(nil, time.Hour)
	assert.Error(t, err)
}

func TestRedisJournal_RecordAndGet(t *testing.T) {
	client := setupTestRedis(t)
	journal, err := NewRedisJournal(client, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = journal.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrExecutionNotFound)

	report := &domain.Report{
		OrderID:   7,
		State:     domain.StateSucceeded,
		TotalOut:  990,
		NetOut:    980,
		MinReturn: 950,
		Fees:      &domain.Fees{Commission: 10},
		Trace: domain.ExecutionTrace{
			{Route: 0, Hop: 0, Index: 0, Venue: domain.VenueRaydiumSwap, AmountIn: 1000, AmountOut: 990},
		},
	}
	require.NoError(t, journal.Record(ctx, report))

	got, err := journal.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, report, got)

	ttl, err := client.TTL(ctx, executionKey(7)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisJournal_FailedIndex(t *testing.T) {
	client := setupTestRedis(t)
	journal, err := NewRedisJournal(client, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, journal.Record(ctx, &domain.Report{OrderID: 1, State: domain.StateFailed, Trace: domain.ExecutionTrace{}}))
	require.NoError(t, journal.Record(ctx, &domain.Report{OrderID: 2, State: domain.StateFailed, Trace: domain.ExecutionTrace{}}))

	failed, err := journal.FailedOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, failed)

	// A retry that succeeds leaves the failed index.
	require.NoError(t, journal.Record(ctx, &domain.Report{OrderID: 1, State: domain.StateSucceeded, Trace: domain.ExecutionTrace{}}))

	failed, err = journal.FailedOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, failed)
}
