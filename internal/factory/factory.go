package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/leaderboard/internal/api"
	"github.com/mcoot/leaderboard/internal/dependencies/clock"
	"github.com/mcoot/leaderboard/internal/dependencies/random"
	"github.com/mcoot/leaderboard/internal/gateway"
	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/ranking"
	"github.com/mcoot/leaderboard/internal/services/identity"
	"github.com/mcoot/leaderboard/internal/storage"
	"github.com/mcoot/leaderboard/internal/storage/memory"
	"github.com/mcoot/leaderboard/internal/storage/postgres"
	redisstorage "github.com/mcoot/leaderboard/internal/storage/redis"
	"github.com/mcoot/leaderboard/internal/texts"
	"github.com/mcoot/leaderboard/internal/web"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	IdentityService *identity.Service
	Ranking         *ranking.Engine
	Texts           *texts.Catalogue

	Logger *slog.Logger

	closer io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseDSN is the Postgres connection string (required if StorageType is "postgres")
	DatabaseDSN string
	// IdentityConfig configures tokens and password hashing
	// Zero fields fall back to identity.DefaultConfig()
	IdentityConfig identity.Config
	// Texts are the widget texts (optional, defaults to texts.Default())
	Texts *texts.Catalogue
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, closer, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	catalogue := cfg.Texts
	if catalogue == nil {
		catalogue = texts.Default()
	}

	app := newWithDependencies(store, clock.New(), random.New(), cfg.IdentityConfig, catalogue, logger)
	app.closer = closer
	return app, nil
}

func openStorage(ctx context.Context, cfg Config) (storage.Storage, io.Closer, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil, nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return redisStore, redisStore, nil
	case StorageTypePostgres:
		if cfg.DatabaseDSN == "" {
			return nil, nil, errors.New("DatabaseDSN required when StorageType is postgres")
		}
		pgStore, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return pgStore, pgStore, nil
	default:
		return nil, nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'postgres'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, identityCfg identity.Config, catalogue *texts.Catalogue, logger *slog.Logger) *App {
	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		IdentityService: identity.New(store, clk, rnd, identityCfg),
		Ranking:         ranking.New(ranking.DefaultLanguage),
		Texts:           catalogue,
		Logger:          logger,
	}
}

// Handler returns the HTTP handler serving both the JSON API and the widget
func (a *App) Handler() http.Handler {
	r := mux.NewRouter()
	api.Mount(r, api.RouterConfig{
		Logger:          a.Logger,
		IdentityService: a.IdentityService,
		Storage:         a.Storage,
		Ranking:         a.Ranking,
	})
	web.Mount(r, web.RouterConfig{
		Logger:  a.Logger,
		Storage: a.Storage,
		Ranking: a.Ranking,
		Texts:   a.Texts,
	})
	return r
}

// Gateway returns an in-process gateway for one competition
func (a *App) Gateway(competition model.CompetitionID) *gateway.Local {
	return gateway.NewLocal(a.IdentityService, a.Storage, competition)
}

// Close releases the storage connection, if any
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
