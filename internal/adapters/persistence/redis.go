package persistence

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/hxuan190/route-executor/internal/domain"
)

const (
	executionKeyPrefix = "executions:"
	failedIndexKey     = "executions:failed"
)

// RedisJournal stores execution reports in Redis with an expiry.
type RedisJournal struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisJournal(client redis.Cmdable, ttl time.Duration) (*RedisJournal, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisJournal{client: client, ttl: ttl}, nil
}

func (j *RedisJournal) Record(ctx context.Context, report *domain.Report) error {
	b, err := sonic.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal execution: %w", err)
	}

	id := strconv.FormatUint(report.OrderID, 10)
	pipe := j.client.TxPipeline()
	pipe.Set(ctx, executionKey(report.OrderID), b, j.ttl)
	if report.Succeeded() {
		pipe.SRem(ctx, failedIndexKey, id)
	} else {
		pipe.SAdd(ctx, failedIndexKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record execution: %w", err)
	}
	return nil
}

func (j *RedisJournal) Get(ctx context.Context, orderID uint64) (*domain.Report, error) {
	val, err := j.client.Get(ctx, executionKey(orderID)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: order %d", ErrExecutionNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get execution: %w", err)
	}

	var report domain.Report
	if err := sonic.Unmarshal([]byte(val), &report); err != nil {
		return nil, fmt.Errorf("unmarshal execution: %w", err)
	}
	return &report, nil
}

// FailedOrders lists order ids whose latest report is a failure, in ascending
// order. Ids whose report has expired are still listed until overwritten.
func (j *RedisJournal) FailedOrders(ctx context.Context) ([]uint64, error) {
	members, err := j.client.SMembers(ctx, failedIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list failed executions: %w", err)
	}
	out := make([]uint64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}

func executionKey(orderID uint64) string {
	return executionKeyPrefix + strconv.FormatUint(orderID, 10)
}
