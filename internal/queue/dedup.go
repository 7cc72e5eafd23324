package queue

import (
    "context"
    "time"

    "github.com/redis/go-redis/v9"
)

// Deduper remembers which events were already handled.
type Deduper interface {
    // Claim reports whether id is seen for the first time and marks it.
    Claim(ctx context.Context, id string) (bool, error)
    // Release forgets id so a redelivery is processed again.
    Release(ctx context.Context, id string) error
}

// RedisDeduper keeps one key per event id, dedup:notifier:{id}, for TTL.
// A nil client disables dedup: every event is treated as new.
type RedisDeduper struct {
    rdb *redis.Client
    ttl time.Duration
}

// NewRedisDeduper returns a deduper backed by rdb.
func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
    if ttl <= 0 {
        ttl = 24 * time.Hour
    }
    return &RedisDeduper{rdb: rdb, ttl: ttl}
}

func dedupKey(id string) string { return "dedup:notifier:" + id }

func (d *RedisDeduper) Claim(ctx context.Context, id string) (bool, error) {
    if d.rdb == nil {
        return true, nil
    }
    return d.rdb.SetNX(ctx, dedupKey(id), 1, d.ttl).Result()
}

func (d *RedisDeduper) Release(ctx context.Context, id string) error {
    if d.rdb == nil {
        return nil
    }
    return d.rdb.Del(ctx, dedupKey(id)).Err()
}
