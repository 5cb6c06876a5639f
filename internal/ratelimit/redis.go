package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore keeps per-identifier windows in redis sorted sets, scored
// by arrival time in nanoseconds. It lets multiple gateway instances
// share one rate-limit table; the Limiter's per-key serialization is
// then only process-local, which narrows but does not close the
// concurrent-admit race across instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// RedisConfig carries connection options for the shared window store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{client: client, prefix: "ratelimit:window:"}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

func (s *RedisStore) Trim(ctx context.Context, key string, cutoff time.Time) error {
	max := strconv.FormatInt(cutoff.UnixNano()-1, 10)
	return s.client.ZRemRangeByScore(ctx, s.key(key), "-inf", max).Err()
}

func (s *RedisStore) Timestamps(ctx context.Context, key string) ([]time.Time, error) {
	members, err := s.client.ZRangeWithScores(ctx, s.key(key), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]time.Time, 0, len(members))
	for _, m := range members {
		out = append(out, time.Unix(0, int64(m.Score)))
	}
	return out, nil
}

func (s *RedisStore) Append(ctx context.Context, key string, t time.Time, window time.Duration) error {
	nanos := t.UnixNano()
	member := strconv.FormatInt(nanos, 10)

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, s.key(key), redis.Z{Score: float64(nanos), Member: member})
	// Key expiry covers identifiers that stop sending before a Trim runs.
	pipe.Expire(ctx, s.key(key), window+time.Second)
	_, err := pipe.Exec(ctx)
	return err
}
