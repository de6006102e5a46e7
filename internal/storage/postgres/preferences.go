package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dungeonmaster/internal/game/adventure"
)

const (
	scopeDM   = "dm"
	scopeSlot = "slot"
	scopeNPC  = "npc"
)

// PreferenceRepository stores model choices in model_preferences, one row
// per (scope, key).
type PreferenceRepository struct {
	db *pgxpool.Pool
}

var _ adventure.PreferenceStore = (*PreferenceRepository)(nil)

// NewPreferenceRepository creates a PreferenceRepository backed by the given pool.
func NewPreferenceRepository(db *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func (r *PreferenceRepository) get(ctx context.Context, scope, key string) (string, error) {
	var model string
	err := r.db.QueryRow(ctx,
		`SELECT model FROM model_preferences WHERE scope = $1 AND key = $2`, scope, key,
	).Scan(&model)
	if isNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying %s preference %q: %w", scope, key, err)
	}
	return model, nil
}

func (r *PreferenceRepository) set(ctx context.Context, scope, key, model string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO model_preferences (scope, key, model) VALUES ($1, $2, $3)
		ON CONFLICT (scope, key) DO UPDATE SET model = EXCLUDED.model, updated_at = NOW()`,
		scope, key, model,
	)
	if err != nil {
		return fmt.Errorf("upserting %s preference %q: %w", scope, key, err)
	}
	return nil
}

// DMModel returns the stored narrator model, or "".
func (r *PreferenceRepository) DMModel(ctx context.Context) (string, error) {
	return r.get(ctx, scopeDM, "")
}

// SetDMModel records the narrator model.
func (r *PreferenceRepository) SetDMModel(ctx context.Context, model string) error {
	return r.set(ctx, scopeDM, "", model)
}

// SlotModel returns the model for party slot, or "".
func (r *PreferenceRepository) SlotModel(ctx context.Context, slot int) (string, error) {
	return r.get(ctx, scopeSlot, strconv.Itoa(slot))
}

// SetSlotModel records the model for party slot.
func (r *PreferenceRepository) SetSlotModel(ctx context.Context, slot int, model string) error {
	return r.set(ctx, scopeSlot, strconv.Itoa(slot), model)
}

// NPCModel returns the model recorded for the named NPC, or "".
func (r *PreferenceRepository) NPCModel(ctx context.Context, name string) (string, error) {
	return r.get(ctx, scopeNPC, name)
}

// SetNPCModel records the model for the named NPC.
func (r *PreferenceRepository) SetNPCModel(ctx context.Context, name, model string) error {
	return r.set(ctx, scopeNPC, name, model)
}
