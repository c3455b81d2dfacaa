package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"fliptrack-intel/internal/domain/entity"
)

const (
	usageKeyPrefix = "intel:usage:"
	usageRetention = 45 * 24 * time.Hour
)

// RedisUsageTracker keeps per-day counters of pipeline outcomes (cache hits,
// generations per provider, failures) in a Redis hash. Telemetry only: no
// read here ever gates the analysis pipeline.
type RedisUsageTracker struct {
	client *redis.Client
}

func NewRedisUsageTracker(client *redis.Client) *RedisUsageTracker {
	return &RedisUsageTracker{client: client}
}

func (t *RedisUsageTracker) Record(ctx context.Context, event string) error {
	key := usageKeyPrefix + dayKey()
	pipe := t.client.TxPipeline()
	pipe.HIncrBy(ctx, key, event, 1)
	pipe.Expire(ctx, key, usageRetention)
	_, err := pipe.Exec(ctx)
	return err
}

func (t *RedisUsageTracker) Snapshot(ctx context.Context) (entity.UsageSnapshot, error) {
	day := dayKey()
	values, err := t.client.HGetAll(ctx, usageKeyPrefix+day).Result()
	if err != nil {
		return entity.UsageSnapshot{}, err
	}
	counters := make(map[string]int64, len(values))
	for event, raw := range values {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		counters[event] = n
	}
	return entity.UsageSnapshot{Day: day, Counters: counters}, nil
}

func dayKey() string {
	return time.Now().UTC().Format("2006-01-02")
}

// NoopUsageTracker stands in when no Redis address is configured. Recording
// discards, snapshots come back empty.
type NoopUsageTracker struct{}

func (NoopUsageTracker) Record(ctx context.Context, event string) error { return nil }

func (NoopUsageTracker) Snapshot(ctx context.Context) (entity.UsageSnapshot, error) {
	return entity.UsageSnapshot{Day: dayKey(), Counters: map[string]int64{}}, nil
}
