package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTimeout = 500 * time.Millisecond
	clientName          = "authgate-token-cache"
)

// Config describes the token cache's Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds dialing and each command. Cache lookups sit on the
	// request path, so it defaults to defaultCacheTimeout.
	Timeout time.Duration
	// PoolSize caps open connections; 0 keeps the go-redis default.
	PoolSize int
}

func (cfg Config) options() (*redis.Options, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis: token cache address is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCacheTimeout
	}
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		PoolSize:     cfg.PoolSize,
	}, nil
}

// Connect dials the token cache and pings it once. A cache that is
// configured but unreachable at startup is a configuration error.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
