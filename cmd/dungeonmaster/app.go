package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
	"github.com/cory-johannsen/dungeonmaster/internal/game/adventure"
	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
	"github.com/cory-johannsen/dungeonmaster/internal/narrator"
	"github.com/cory-johannsen/dungeonmaster/internal/observability"
	"github.com/cory-johannsen/dungeonmaster/internal/scripting"
	"github.com/cory-johannsen/dungeonmaster/internal/storage/file"
	"github.com/cory-johannsen/dungeonmaster/internal/storage/postgres"
	"github.com/cory-johannsen/dungeonmaster/internal/storage/redis"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	narrator narrator.Narrator
	engine   *adventure.Engine
	closers  []func()
}

// newApp loads configuration and wires the engine with the configured
// narrator, storage backend, preference store, and house rules.
//
// Postcondition: on success the caller must call close.
func newApp(ctx context.Context) (*app, error) {
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	a.narrator, err = narrator.New(cfg.Narrator, os.Getenv(cfg.Narrator.APIKeyEnv), logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("creating narrator: %w", err)
	}

	stores, err := a.openStores(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	a.engine = adventure.NewEngine(cfg.Game, a.narrator, roller, stores, logger)

	if cfg.Game.RulesDir != "" {
		rules := scripting.NewManager(roller, logger, cfg.Game.InstructionLimit)
		a.closers = append(a.closers, rules.Close)
		if err := rules.LoadRules(cfg.Game.RulesDir); err != nil {
			a.close()
			return nil, fmt.Errorf("loading house rules: %w", err)
		}
		a.engine.SetDamageHook(rules)
	}

	if err := a.engine.LoadPreferences(ctx, cfg.Narrator.DMModel); err != nil {
		logger.Warn("loading model preferences", zap.Error(err))
	}

	logger.Info("dungeonmaster ready",
		zap.String("provider", cfg.Narrator.Provider),
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.String("dm_model", a.engine.DMModel()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return a, nil
}

// openStores connects the document backend and, when enabled, routes model
// preferences to Redis.
func (a *app) openStores(ctx context.Context) (adventure.Stores, error) {
	var stores adventure.Stores
	switch a.cfg.Storage.Backend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, a.cfg.Database)
		if err != nil {
			return stores, fmt.Errorf("connecting to database: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := pool.Health(ctx, 5*time.Second); err != nil {
			return stores, fmt.Errorf("database health check: %w", err)
		}
		pg := postgres.NewStores(pool.DB())
		stores = adventure.Stores{
			Saves:       pg.Saves,
			Parties:     pg.Parties,
			Characters:  pg.Characters,
			Preferences: pg.Preferences,
		}
	default:
		fs, err := file.New(a.cfg.Storage.BaseDir, a.logger)
		if err != nil {
			return stores, fmt.Errorf("opening file store: %w", err)
		}
		stores = adventure.Stores{Saves: fs, Parties: fs, Characters: fs, Preferences: fs}
	}

	if a.cfg.Redis.Enabled {
		client, err := redis.Dial(ctx, a.cfg.Redis)
		if err != nil {
			return stores, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		stores.Preferences = redis.NewPreferenceStore(client, a.cfg.Redis.KeyPrefix)
	}
	return stores, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// withApp runs fn with a wired app and releases it afterwards.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
