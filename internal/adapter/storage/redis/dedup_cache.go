package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DedupCache implements ports.DedupCache using Redis. It is a fast-path
// filter over deposit notification hashes; the ledger's unique constraint
// remains the authoritative duplicate guard, so cache misses are always
// safe.
type DedupCache struct {
	client *goredis.Client
	prefix string
}

// NewDedupCache creates a new Redis-backed deduplication cache.
func NewDedupCache(client *goredis.Client) *DedupCache {
	return &DedupCache{
		client: client,
		prefix: "dedup:tx:",
	}
}

// Seen reports whether the hash was marked recently.
func (c *DedupCache) Seen(ctx context.Context, hash string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+hash).Result()
	if err != nil {
		return false, fmt.Errorf("redis dedup exists: %w", err)
	}
	return n > 0, nil
}

// MarkSeen records the hash with a TTL.
func (c *DedupCache) MarkSeen(ctx context.Context, hash string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+hash, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis dedup set: %w", err)
	}
	return nil
}
