package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown throttles action-token resends. One key per scope and account,
// expiring after the window; the remaining TTL is the wait reported to the
// caller.
type Cooldown struct {
	redis  redis.UniversalClient
	prefix string
}

// NewCooldown returns a cooldown store keyed under prefix (default "cd").
func NewCooldown(redisClient redis.UniversalClient, prefix string) *Cooldown {
	if prefix == "" {
		prefix = "cd"
	}
	return &Cooldown{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (c *Cooldown) key(scope, accountID string) string {
	return c.prefix + ":" + scope + ":" + accountID
}

// Start opens a cooldown window. A window already in progress is simply
// restarted.
func (c *Cooldown) Start(ctx context.Context, scope, accountID string, window time.Duration) error {
	if err := c.redis.Set(ctx, c.key(scope, accountID), 1, window).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Remaining reports the time left in the current window, zero when no
// window is open.
func (c *Cooldown) Remaining(ctx context.Context, scope, accountID string) (time.Duration, error) {
	ttl, err := c.redis.PTTL(ctx, c.key(scope, accountID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ttl < 0 {
		// -1 no expiry, -2 missing key
		return 0, nil
	}
	return ttl, nil
}

// Clear drops the window, allowing an immediate resend.
func (c *Cooldown) Clear(ctx context.Context, scope, accountID string) error {
	if err := c.redis.Del(ctx, c.key(scope, accountID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
