// Package store persists small settings documents (export preferences and
// saved configurations) behind a key/value interface with memory, SQLite,
// Postgres and Redis backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Store is a string key/value store. Get reports ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

var (
	ErrUnknownBackend = errors.New("unknown settings store backend")
	ErrNotReady       = errors.New("settings store not ready")
)

// Config selects and configures a backend.
type Config struct {
	Backend        string
	SQLitePath     string
	PostgresURL    string
	RedisURL       string
	ConnectTimeout time.Duration
	RetryAttempts  int
	RetryInterval  time.Duration
}

// Open connects to the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case BackendPostgres:
		return OpenPostgres(ctx, cfg)
	case BackendRedis:
		return OpenRedis(ctx, cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}

func (c Config) attempts() int {
	if c.RetryAttempts <= 0 {
		return 1
	}
	return c.RetryAttempts
}

// sleepCtx waits d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
