// Package db provides PostgreSQL persistence for interview sessions, score
// profiles, match scores and the accuracy validation stream.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/internx-match/internal/logging"
	"github.com/jonathan/internx-match/internal/types"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool   *pgxpool.Pool
	caps   SchemaCapabilities
	logger *zap.Logger
}

// Options tunes the connection pool.
type Options struct {
	MaxConns int32
	Logger   *zap.Logger
}

// Connect establishes a connection pool to the database and detects the
// optional session columns.
func Connect(ctx context.Context, databaseURL string, opts Options) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, types.NewStoreError("connect", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, types.NewStoreError("ping", err)
	}

	db := &DB{pool: pool, logger: logging.OrNop(opts.Logger).Named("db")}
	if err := db.RefreshCapabilities(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return types.NewStoreError("ping", err)
	}
	return nil
}

// Capabilities returns the detected schema capabilities.
func (db *DB) Capabilities() SchemaCapabilities {
	return db.caps
}

// RefreshCapabilities re-reads the optional session columns.
func (db *DB) RefreshCapabilities(ctx context.Context) error {
	caps, err := db.detectCapabilities(ctx)
	if err != nil {
		return types.NewStoreError("detect capabilities", err)
	}
	db.caps = caps
	if caps != FullCapabilities() {
		db.logger.Warn("interview_sessions is missing optional columns; they will be returned unset",
			zap.Any("capabilities", caps))
	}
	return nil
}

// Migrate applies the bundled schema and refreshes the capabilities.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return types.NewStoreError("migrate", err)
	}
	return db.RefreshCapabilities(ctx)
}

// rollback is deferred after Begin; a committed transaction makes it a no-op.
func (db *DB) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		db.logger.Warn("rollback failed", zap.Error(err))
	}
}
