// Package sequence issues human-readable unique document numbers such as
// ORD-20261014-00042.
package sequence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Generator returns the next number for prefix.
type Generator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

// RedisGenerator keeps one INCR counter per prefix per UTC day.
type RedisGenerator struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisGenerator(rdb *redis.Client) *RedisGenerator {
	return &RedisGenerator{rdb: rdb, now: time.Now}
}

func (g *RedisGenerator) Next(ctx context.Context, prefix string) (string, error) {
	day := g.now().UTC().Format("20060102")
	key := fmt.Sprintf("seq:%s:%s", strings.ToLower(prefix), day)

	n, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("incr %s: %w", key, err)
	}
	if n == 1 {
		// keep yesterday's counter around for late readers, then let it go
		if err := g.rdb.Expire(ctx, key, 48*time.Hour).Err(); err != nil {
			return "", fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return Format(prefix, day, n), nil
}

// Format renders prefix-day-counter with the counter padded to five digits.
func Format(prefix, day string, n int64) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, day, n)
}

// RandomGenerator needs no shared state; it is used when Redis is not configured.
type RandomGenerator struct {
	now func() time.Time
}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{now: time.Now}
}

func (g *RandomGenerator) Next(_ context.Context, prefix string) (string, error) {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return fmt.Sprintf("%s-%s-%s", prefix, g.now().UTC().Format("20060102"), id), nil
}

// Fallback uses Secondary whenever Primary fails, so a Redis outage never
// blocks order placement.
type Fallback struct {
	Primary   Generator
	Secondary Generator
	OnError   func(err error)
}

func (f Fallback) Next(ctx context.Context, prefix string) (string, error) {
	n, err := f.Primary.Next(ctx, prefix)
	if err == nil {
		return n, nil
	}
	if f.OnError != nil {
		f.OnError(err)
	}
	return f.Secondary.Next(ctx, prefix)
}
