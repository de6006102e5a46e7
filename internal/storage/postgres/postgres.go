// Package postgres persists saves, parties, characters, and model
// preferences in PostgreSQL using pgx v5. Documents are stored as YAML
// payloads next to the columns listings need.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
	"github.com/cory-johannsen/dungeonmaster/internal/storage"
)

// Pool wraps a pgx connection pool with health-check and lifecycle methods.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool creates a new PostgreSQL connection pool from the given configuration.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{pool: pool}, nil
}

// Health checks that the database is reachable within timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for use by repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// Stores bundles one repository per document kind over a shared pool.
type Stores struct {
	Saves       *SaveRepository
	Parties     *PartyRepository
	Characters  *CharacterRepository
	Preferences *PreferenceRepository
}

// NewStores builds every repository over db.
func NewStores(db *pgxpool.Pool) Stores {
	return Stores{
		Saves:       NewSaveRepository(db),
		Parties:     NewPartyRepository(db),
		Characters:  NewCharacterRepository(db),
		Preferences: NewPreferenceRepository(db),
	}
}

func encode(op, key string, v any) (string, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", &storage.Error{Op: op, Path: key, Err: err}
	}
	return string(b), nil
}

func decode(op, key, payload string, v any) error {
	if err := yaml.Unmarshal([]byte(payload), v); err != nil {
		return &storage.Error{Op: op, Path: key, Err: err}
	}
	return nil
}

func notFound(op, key string) error {
	return &storage.Error{Op: op, Path: key, Err: storage.ErrNotFound}
}

// isNoRows reports whether err is pgx's empty-result error.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
