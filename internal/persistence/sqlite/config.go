// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// Config defines read-side SQLite operational parameters.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
	PingTimeout  time.Duration
}

// DefaultConfig returns settings suited to a small schedule file that another
// process rewrites: short busy timeout, a couple of readers.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  250 * time.Millisecond,
		MaxOpenConns: 2,
		PingTimeout:  500 * time.Millisecond,
	}
}

// ReadOnlyDSN builds a modernc DSN that opens path read-only and refuses writes
// on every pooled connection.
func ReadOnlyDSN(path string, cfg Config) string {
	return fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(%d)&_pragma=query_only(1)",
		path, cfg.BusyTimeout.Milliseconds())
}

// OpenReadOnly opens an existing SQLite database without write access.
func OpenReadOnly(ctx context.Context, path string, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ReadOnlyDSN(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	pingCtx := ctx
	if cfg.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.PingTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return db, nil
}
