package cache

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisEventDeduper remembers processed webhook event ids so repeated
// deliveries of the same event are dropped before touching the database.
type RedisEventDeduper struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisEventDeduper(client *redis.Client, ttl time.Duration) *RedisEventDeduper {
	return &RedisEventDeduper{
		client:  client,
		baseTTL: ttl,
	}
}

// Seen reports whether eventID was already applied.
func (r *RedisEventDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := r.client.Exists(ctx, eventKey(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

// Remember records eventID as applied. Call it only after the change the
// event caused is committed.
func (r *RedisEventDeduper) Remember(ctx context.Context, eventID string) error {
	jitter := time.Duration(rand.Intn(60)) * time.Second
	if err := r.client.Set(ctx, eventKey(eventID), time.Now().Unix(), r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func eventKey(eventID string) string {
	return fmt.Sprintf("webhook:event:%s", eventID)
}
