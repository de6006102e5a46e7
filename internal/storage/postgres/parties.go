package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dungeonmaster/internal/game/adventure"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
)

// PartyRepository stores named parties.
type PartyRepository struct {
	db *pgxpool.Pool
}

var _ adventure.PartyStore = (*PartyRepository)(nil)

// NewPartyRepository creates a PartyRepository backed by the given pool.
func NewPartyRepository(db *pgxpool.Pool) *PartyRepository {
	return &PartyRepository{db: db}
}

// SaveParty stores p under name, replacing any previous party.
func (r *PartyRepository) SaveParty(ctx context.Context, name string, p *party.Party) error {
	payload, err := encode("encode party", name, p)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO parties (name, payload) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`,
		name, payload,
	)
	if err != nil {
		return fmt.Errorf("upserting party %q: %w", name, err)
	}
	return nil
}

// LoadParty returns the party stored under name.
func (r *PartyRepository) LoadParty(ctx context.Context, name string) (*party.Party, error) {
	var payload string
	err := r.db.QueryRow(ctx, `SELECT payload FROM parties WHERE name = $1`, name).Scan(&payload)
	if isNoRows(err) {
		return nil, notFound("load party", name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying party %q: %w", name, err)
	}
	p := party.New()
	if err := decode("decode party", name, payload, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListParties returns party names in lexical order.
func (r *PartyRepository) ListParties(ctx context.Context) ([]string, error) {
	return listNames(ctx, r.db, `SELECT name FROM parties ORDER BY name`)
}

func listNames(ctx context.Context, db *pgxpool.Pool, query string) ([]string, error) {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing names: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning name: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
