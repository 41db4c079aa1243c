package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

const (
	DefaultInstanceName = "erp:"

	fieldData     = "data"
	fieldAbsolute = "absexp" // unix ms, -1 when unset
	fieldSliding  = "sldexp" // window in ms, -1 when unset
	notPresent    = -1
	scanBatchSize = 200
)

// RedisStore keeps each entry in a hash so the sliding window survives
// between reads.
type RedisStore struct {
	client *redis.Client
	prefix string
	clock  clock.Clock
}

func NewRedisStore(client *redis.Client, instanceName string, clk clock.Clock) *RedisStore {
	if instanceName == "" {
		instanceName = DefaultInstanceName
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &RedisStore{client: client, prefix: instanceName, clock: clk}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	vals, err := s.client.HMGet(ctx, s.key(key), fieldAbsolute, fieldSliding, fieldData).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	data, ok := vals[2].(string)
	if !ok {
		return nil, false, nil
	}

	if err := s.renew(ctx, key, vals[0], vals[1]); err != nil {
		return nil, false, err
	}
	return []byte(data), true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, opts Options) error {
	now := s.clock.UTCNow()

	absMillis := int64(notPresent)
	var absolute time.Time
	if opts.Absolute > 0 {
		absolute = now.Add(opts.Absolute)
		absMillis = absolute.UnixMilli()
	}
	sldMillis := int64(notPresent)
	if opts.Sliding > 0 {
		sldMillis = opts.Sliding.Milliseconds()
	}

	k := s.key(key)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, fieldAbsolute, absMillis, fieldSliding, sldMillis, fieldData, value)
	if d, ok := ttl(now, absolute, opts.Sliding); ok {
		pipe.PExpire(ctx, k, d)
	} else {
		pipe.Persist(ctx, k)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Refresh(ctx context.Context, key string) error {
	vals, err := s.client.HMGet(ctx, s.key(key), fieldAbsolute, fieldSliding).Result()
	if err != nil {
		return fmt.Errorf("failed to refresh cache entry: %w", err)
	}
	return s.renew(ctx, key, vals[0], vals[1])
}

// renew pushes the expiry out by the sliding window, never past the absolute deadline.
func (s *RedisStore) renew(ctx context.Context, key string, rawAbs, rawSld any) error {
	sldMillis := parseMillis(rawSld)
	if sldMillis == notPresent {
		return nil
	}

	var absolute time.Time
	if absMillis := parseMillis(rawAbs); absMillis != notPresent {
		absolute = time.UnixMilli(absMillis)
	}

	d, _ := ttl(s.clock.UTCNow(), absolute, time.Duration(sldMillis)*time.Millisecond)
	if err := s.client.PExpire(ctx, s.key(key), d).Err(); err != nil {
		return fmt.Errorf("failed to renew cache entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}
	return nil
}

func (s *RedisStore) RemoveByPrefix(ctx context.Context, prefix string) (int, error) {
	pattern := escapeGlob(s.key(prefix)) + "*"

	removed := 0
	batch := make([]string, 0, scanBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	iter := s.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := flush(); err != nil {
				return removed, fmt.Errorf("failed to remove cache entries: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan cache entries: %w", err)
	}
	if err := flush(); err != nil {
		return removed, fmt.Errorf("failed to remove cache entries: %w", err)
	}
	return removed, nil
}

func parseMillis(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return notPresent
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return notPresent
	}
	return n
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
