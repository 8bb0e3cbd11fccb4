// Package localstore is an embedded SQLite implementation of the session,
// matching and accuracy stores for local runs and tests.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/internx-match/internal/logging"
	"github.com/jonathan/internx-match/internal/types"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store wraps a gorm SQLite connection.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open creates the database file if needed and migrates the tables. A path
// of ":memory:" opens a private in-memory database.
func Open(path string, logger *zap.Logger) (*Store, error) {
	logger = logging.OrNop(logger)
	dsn := "file::memory:?_foreign_keys=on"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = path + "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logging.NewGormLogger(logger)})
	if err != nil {
		return nil, types.NewStoreError("open sqlite", err)
	}

	// One connection serializes writers, which is what makes the
	// insert-or-fetch and guarded updates atomic under SQLite.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, types.NewStoreError("get sql DB", err)
	}
	sqlDB.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger.Named("localstore")}
	if err := s.Migrate(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables and the active-session index.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(
		&sessionRow{}, &responseRow{}, &profileRow{}, &positionRow{},
		&matchScoreRow{}, &validationRow{}, &snapshotRow{}, &feedbackRow{},
	); err != nil {
		return types.NewStoreError("auto migrate", err)
	}
	// gorm tags cannot express a partial index.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS interview_sessions_active_key
		ON interview_sessions (candidate_id, interview_type) WHERE status = 'in_progress'`).Error; err != nil {
		return types.NewStoreError("create active session index", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return types.NewStoreError("get sql DB", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return types.NewStoreError("ping", err)
	}
	return nil
}

// wrap converts a gorm error into the store taxonomy. Domain errors pass
// through untouched.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, domain := range []error{types.ErrNotFound, types.ErrInvalidState} {
		if errors.Is(err, domain) {
			return err
		}
	}
	return types.NewStoreError(op, err)
}
