// Package cache holds the redis-backed scoped, expiring key-value helpers.
package cache

import (
	"context"
	"fmt"
	"time"

	"rental-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// InitRedis creates the client and checks connectivity.
func InitRedis(ctx context.Context, config utils.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", config.Addr, err)
	}

	return client, nil
}

// Cooldown grants at most one attempt per actor+action key within a window.
type Cooldown struct {
	client redis.Cmdable
	prefix string
}

func NewCooldown(client redis.Cmdable, prefix string) *Cooldown {
	return &Cooldown{client: client, prefix: prefix}
}

// Acquire reports whether the caller may proceed. The key expires by itself
// after window, so nothing accumulates for idle actors.
func (c *Cooldown) Acquire(ctx context.Context, actor, action string, window time.Duration) (bool, error) {
	key := fmt.Sprintf("%s:%s:%s", c.prefix, action, actor)

	ok, err := c.client.SetNX(ctx, key, time.Now().Unix(), window).Result()
	if err != nil {
		return false, fmt.Errorf("acquire cooldown %s: %w", key, err)
	}

	return ok, nil
}
