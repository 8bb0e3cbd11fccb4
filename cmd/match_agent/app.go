package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/accuracy"
	"github.com/jonathan/internx-match/internal/config"
	"github.com/jonathan/internx-match/internal/db"
	"github.com/jonathan/internx-match/internal/interview"
	"github.com/jonathan/internx-match/internal/localstore"
	"github.com/jonathan/internx-match/internal/logging"
	"github.com/jonathan/internx-match/internal/matching"
	"github.com/jonathan/internx-match/internal/types"
	"go.uber.org/zap"
)

// backend is everything the commands need from a store driver.
type backend interface {
	interview.Store
	matching.Store
	accuracy.Store
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	UpsertPosition(ctx context.Context, p types.Position) error
	SetCareerInterests(ctx context.Context, candidateID uuid.UUID, interests []string) error
}

var (
	_ backend = (*db.DB)(nil)
	_ backend = (*localstore.Store)(nil)
)

// runtime bundles the loaded configuration, logger and store.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	store  backend
	close  func()
}

// loadConfig reads the config file named by --config plus INTERNX_* overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openRuntime loads configuration and connects to the configured store.
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &runtime{
		cfg:    cfg,
		logger: logger,
		store:  store,
		close: func() {
			closeStore()
			_ = logger.Sync()
		},
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (backend, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		s, err := localstore.Open(cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		if err := cfg.RequireDatabaseURL(); err != nil {
			return nil, nil, err
		}
		database, err := db.Connect(ctx, cfg.Store.DatabaseURL, db.Options{MaxConns: cfg.Store.MaxConns, Logger: logger})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.Store.AutoMigrate {
			if err := database.Migrate(ctx); err != nil {
				database.Close()
				return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		return database, database.Close, nil
	}
}

// systemCaller is the identity CLI reports run as.
func systemCaller() types.Caller {
	return types.Caller{UserID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Role: types.RoleAdmin}
}
