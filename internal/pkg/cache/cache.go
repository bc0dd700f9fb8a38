// Package cache holds the shared Redis client used for cross-replica coordination.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/EventPay/internal/pkg/env"
)

const pingTimeout = 2 * time.Second

var client *redis.Client

// Enabled reports whether a Redis host is configured.
func Enabled() bool {
	return env.GetEnv("CACHE_HOST", "") != ""
}

// SetupCache initializes the connection to the Redis/Dragonfly server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       env.GetInt("CACHE_DB", 0),
	})

	if err := Ping(context.Background()); err != nil {
		// Sweeps holding the lease fail until Redis is reachable.
		log.Warnf("[Cache] Could not connect to %s:%s: %v", host, port, err)
	} else {
		log.Infof("[Cache] Connected to %s:%s", host, port)
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// Ping checks the connection within a short timeout.
func Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return GetClient().Ping(pingCtx).Err()
}

// Close releases the Redis connection pool
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}
