package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	appName        = "authgate"
)

// Config describes the audit trail's MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
	// Workers is the number of audit writers. The pool keeps one connection
	// per writer plus one for activity reads.
	Workers int
}

func (cfg Config) clientOptions() (*options.ClientOptions, time.Duration, error) {
	if cfg.URI == "" {
		return nil, 0, errors.New("mongo: audit URI is empty")
	}
	if cfg.Database == "" {
		return nil, 0, errors.New("mongo: audit database is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout)
	if cfg.Workers > 0 {
		opts.SetMaxPoolSize(uint64(cfg.Workers) + 1)
	}
	return opts, timeout, nil
}

// Connect opens the audit trail's client, pings the primary and returns the
// client together with the audit database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	opts, timeout, err := cfg.clientOptions()
	if err != nil {
		return nil, nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}
