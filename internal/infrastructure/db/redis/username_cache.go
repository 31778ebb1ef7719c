package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const usernameTTL = 30 * time.Second

// UsernameCache is a short-TTL existence cache backed by Redis, fronting the
// public check-username endpoint. Key format: username:exists:<username>
type UsernameCache struct {
	client *redis.Client
}

// NewUsernameCache creates a UsernameCache wrapping the given Redis client.
func NewUsernameCache(client *redis.Client) *UsernameCache {
	return &UsernameCache{client: client}
}

// Lookup returns the cached existence flag for username; found is false on a miss.
func (c *UsernameCache) Lookup(ctx context.Context, username string) (exists, found bool, err error) {
	val, err := c.client.Get(ctx, c.key(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("username cache get: %w", err)
	}
	return val == "1", true, nil
}

// Store records the existence flag for username (expires after usernameTTL).
func (c *UsernameCache) Store(ctx context.Context, username string, exists bool) error {
	val := "0"
	if exists {
		val = "1"
	}
	return c.client.Set(ctx, c.key(username), val, usernameTTL).Err()
}

// Invalidate drops the cached entry; called whenever the username's record is
// created, renamed or deleted.
func (c *UsernameCache) Invalidate(ctx context.Context, username string) error {
	return c.client.Del(ctx, c.key(username)).Err()
}

func (c *UsernameCache) key(username string) string {
	return "username:exists:" + username
}
