package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/config"
)

// KeyPrefix namespaces every key written by the API.
const KeyPrefix = "p3m"

// NewRedis returns a connected Redis client or an error when the server is unreachable.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         Addr(cfg),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", Addr(cfg), err)
	}

	return client, nil
}

// Addr renders host:port for the client options.
func Addr(cfg config.RedisConfig) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// Key joins the parts into a prefixed cache key, e.g. p3m:schemes:active.
func Key(parts ...string) string {
	clean := make([]string, 0, len(parts)+1)
	clean = append(clean, KeyPrefix)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, ":")
}
