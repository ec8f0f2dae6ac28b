package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/domonhunt/internal/bot"
	"github.com/mcoot/domonhunt/internal/catalog"
	"github.com/mcoot/domonhunt/internal/config"
	"github.com/mcoot/domonhunt/internal/dependencies/clock"
	"github.com/mcoot/domonhunt/internal/dependencies/random"
	"github.com/mcoot/domonhunt/internal/gateway"
	"github.com/mcoot/domonhunt/internal/metrics"
	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/services/battle"
	"github.com/mcoot/domonhunt/internal/services/ledger"
	"github.com/mcoot/domonhunt/internal/services/spawn"
	"github.com/mcoot/domonhunt/internal/storage"
	"github.com/mcoot/domonhunt/internal/storage/kv"
	"github.com/mcoot/domonhunt/internal/storage/memory"
	"github.com/mcoot/domonhunt/internal/storage/mirror"
	redisstorage "github.com/mcoot/domonhunt/internal/storage/redis"
	"github.com/mcoot/domonhunt/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageMemory
	StorageTypeRedis  = config.StorageRedis
	StorageTypeSQLite = config.StorageSQLite
)

// mirrorPrefix scopes what a backup restore copies
const mirrorPrefix = "domon:"

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	mirror  *mirror.Blobs

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	Catalog *catalog.Catalog
	Metrics *metrics.Manager

	// Services
	Ledger          *ledger.Service
	SpawnController *spawn.Controller
	BattleManager   *battle.Manager
	Bot             *bot.Bot

	// Broadcast
	Hubs        *gateway.Hubs
	Broadcaster *gateway.Broadcaster
	Announcer   *bot.Announcer

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// BackupRedisConfig enables mirroring every write to a second Redis (optional)
	BackupRedisConfig *redisstorage.Config

	// Service tuning. Zero values fall back to each package's defaults
	Spawn         spawn.Config
	Battle        battle.Config
	Bot           bot.Config
	DailyLocation *time.Location

	// Metrics is the metrics manager (optional)
	// If nil, a manager with its own registry is created
	Metrics *metrics.Manager
}

// ConfigFromSettings maps loaded process settings onto the factory config
func ConfigFromSettings(cfg *config.Config, logger *slog.Logger) (Config, error) {
	loc, err := cfg.DailyLocation()
	if err != nil {
		return Config{}, err
	}

	out := Config{
		Logger:      logger,
		StorageType: cfg.Storage,
		SQLitePath:  cfg.SQLitePath,
		Spawn: spawn.Config{
			Interval:           cfg.SpawnInterval,
			SpawnChance:        cfg.SpawnChance,
			BoostedSpawnChance: cfg.BoostedSpawnChance,
			BoostDuration:      cfg.BoostDuration,
			ScanWindow:         cfg.ScanWindow,
		},
		Battle: battle.Config{
			TurnTimeout:  cfg.TurnTimeout,
			MaxIdleTurns: cfg.MaxIdleTurns,
		},
		Bot: bot.Config{
			OwnerID:  model.PlayerID(cfg.OwnerID),
			Cooldown: cfg.CommandCooldown,
			Burst:    cfg.CommandBurst,
		},
		DailyLocation: loc,
	}
	if cfg.RedisURL != "" {
		rc := redisstorage.DefaultConfig()
		rc.URL = cfg.RedisURL
		out.RedisConfig = &rc
	}
	if cfg.BackupRedisURL != "" {
		rc := redisstorage.DefaultConfig()
		rc.URL = cfg.BackupRedisURL
		out.BackupRedisConfig = &rc
	}
	return out, nil
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, mirrored, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	app := newWithDependencies(store, cat, clock.New(), random.New(), withDefaults(cfg), logger)
	app.mirror = mirrored
	return app, nil
}

// openStorage builds the Storage for cfg.StorageType, wrapped in a backup mirror when one is configured
func openStorage(ctx context.Context, cfg Config, logger *slog.Logger) (storage.Storage, *mirror.Blobs, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	var blobs storage.Blobs
	switch storageType {
	case StorageTypeMemory:
		if cfg.BackupRedisConfig == nil {
			return memory.New(), nil, nil
		}
		blobs = memory.NewBlobs()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisBlobs, err := redisstorage.New(ctx, *cfg.RedisConfig)
		if err != nil {
			return nil, nil, err
		}
		blobs = redisBlobs
	case StorageTypeSQLite:
		sqliteStore, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		blobs = sqliteStore
	default:
		return nil, nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}

	if cfg.BackupRedisConfig == nil {
		return kv.New(blobs), nil, nil
	}

	backup, err := redisstorage.New(ctx, *cfg.BackupRedisConfig)
	if err != nil {
		_ = blobs.Close()
		return nil, nil, fmt.Errorf("failed to open backup: %w", err)
	}
	mirrored := mirror.New(blobs, backup, mirrorPrefix, logger)
	return kv.New(mirrored), mirrored, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Spawn.Interval == 0 {
		cfg.Spawn = spawn.DefaultConfig()
	}
	if cfg.Battle.TurnTimeout == 0 {
		cfg.Battle = battle.DefaultConfig()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewManager()
	}
	return cfg
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, cat *catalog.Catalog, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	hubs := gateway.NewHubs(logger)
	broadcaster := gateway.NewBroadcaster(hubs, logger)
	announcer := bot.NewAnnouncer(broadcaster, clk, logger)

	ledgerService := ledger.New(store, cat, clk, rnd, cfg.Metrics, cfg.DailyLocation, logger)
	spawnController := spawn.NewController(store, ledgerService, cat, clk, rnd, cfg.Metrics, announcer, cfg.Spawn, logger)
	battleManager := battle.NewManager(ledgerService, clk, rnd, cfg.Metrics, announcer, cfg.Battle, logger)
	dispatcher := bot.New(ledgerService, spawnController, battleManager, clk, cfg.Metrics, cfg.Bot, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		Catalog:         cat,
		Metrics:         cfg.Metrics,
		Ledger:          ledgerService,
		SpawnController: spawnController,
		BattleManager:   battleManager,
		Bot:             dispatcher,
		Hubs:            hubs,
		Broadcaster:     broadcaster,
		Announcer:       announcer,
		logger:          logger,
	}
}

// Load restores persisted state: the backup first, then players, then the spawn cycle
func (a *App) Load(ctx context.Context) error {
	if a.mirror != nil {
		if err := a.mirror.Restore(ctx); err != nil {
			return err
		}
	}
	if err := a.Ledger.Load(ctx); err != nil {
		return err
	}
	return a.SpawnController.Load(ctx)
}

// Close stops running battles, disconnects watchers and closes storage
func (a *App) Close(ctx context.Context) error {
	if err := a.BattleManager.Shutdown(ctx); err != nil {
		a.logger.Warn("battles did not stop cleanly", slog.String("error", err.Error()))
	}
	a.Hubs.Close()
	return a.Storage.Close()
}
