package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dungeonmaster/internal/game/adventure"
	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
)

// CharacterRepository stores individual character sheets keyed by name.
type CharacterRepository struct {
	db *pgxpool.Pool
}

var _ adventure.CharacterStore = (*CharacterRepository)(nil)

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// SaveCharacter upserts s keyed by its name.
//
// Precondition: s.Name must be non-empty.
func (r *CharacterRepository) SaveCharacter(ctx context.Context, s character.Sheet) error {
	if s.Name == "" {
		return fmt.Errorf("saving character: name must not be empty")
	}
	payload, err := encode("encode character", s.Name, s)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO characters (name, race, class, level, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			race = EXCLUDED.race, class = EXCLUDED.class, level = EXCLUDED.level,
			payload = EXCLUDED.payload, updated_at = NOW()`,
		s.Name, s.Race, s.Class, s.Level, payload,
	)
	if err != nil {
		return fmt.Errorf("upserting character %q: %w", s.Name, err)
	}
	return nil
}

// LoadCharacter returns the sheet stored under name.
//
// Postcondition: Returns the sheet, or an error wrapping storage.ErrNotFound.
func (r *CharacterRepository) LoadCharacter(ctx context.Context, name string) (character.Sheet, error) {
	var payload string
	err := r.db.QueryRow(ctx, `SELECT payload FROM characters WHERE name = $1`, name).Scan(&payload)
	if isNoRows(err) {
		return character.Sheet{}, notFound("load character", name)
	}
	if err != nil {
		return character.Sheet{}, fmt.Errorf("querying character %q: %w", name, err)
	}
	var s character.Sheet
	if err := decode("decode character", name, payload, &s); err != nil {
		return character.Sheet{}, err
	}
	return s, nil
}

// ListCharacters returns stored character names in lexical order.
func (r *CharacterRepository) ListCharacters(ctx context.Context) ([]string, error) {
	return listNames(ctx, r.db, `SELECT name FROM characters ORDER BY name`)
}
