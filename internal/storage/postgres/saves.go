package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dungeonmaster/internal/game/adventure"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
)

// SaveRepository stores save documents in the saves table.
type SaveRepository struct {
	db *pgxpool.Pool
}

var _ adventure.SaveStore = (*SaveRepository)(nil)

// NewSaveRepository creates a SaveRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSaveRepository(db *pgxpool.Pool) *SaveRepository {
	return &SaveRepository{db: db}
}

// SaveGame inserts doc, replacing any save with the same id.
func (r *SaveRepository) SaveGame(ctx context.Context, doc *adventure.SaveDocument) error {
	payload, err := encode("encode save", doc.ID, doc)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO saves (id, label, created_at, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET label = EXCLUDED.label, payload = EXCLUDED.payload`,
		doc.ID, doc.Label, doc.CreatedAt, payload,
	)
	if err != nil {
		return fmt.Errorf("inserting save %q: %w", doc.ID, err)
	}
	return nil
}

// LoadGame returns the save id.
//
// Postcondition: Returns the document, or an error wrapping storage.ErrNotFound.
func (r *SaveRepository) LoadGame(ctx context.Context, id string) (*adventure.SaveDocument, error) {
	var payload string
	err := r.db.QueryRow(ctx, `SELECT payload FROM saves WHERE id = $1`, id).Scan(&payload)
	if isNoRows(err) {
		return nil, notFound("load save", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying save %q: %w", id, err)
	}
	var doc adventure.SaveDocument
	if err := decode("decode save", id, payload, &doc); err != nil {
		return nil, err
	}
	if doc.Party == nil {
		doc.Party = party.New()
	}
	return &doc, nil
}

// ListGames returns save summaries newest first without reading payloads.
func (r *SaveRepository) ListGames(ctx context.Context) ([]adventure.SaveSummary, error) {
	rows, err := r.db.Query(ctx, `SELECT id, label, created_at FROM saves ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	out := make([]adventure.SaveSummary, 0)
	for rows.Next() {
		var s adventure.SaveSummary
		if err := rows.Scan(&s.ID, &s.Label, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning save row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
