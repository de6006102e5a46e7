package adventure

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SetDMModel selects the narrator model and persists the choice when a
// preference store is configured.
func (e *Engine) SetDMModel(ctx context.Context, model string) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	e.mu.Lock()
	e.dmModel = model
	e.mu.Unlock()
	if p := e.stores.Preferences; p != nil {
		if err := p.SetDMModel(ctx, model); err != nil {
			return fmt.Errorf("persisting DM model: %w", err)
		}
	}
	return nil
}

// SetSlotModel assigns model to generated party slot (0-based).
func (e *Engine) SetSlotModel(ctx context.Context, slot int, model string) error {
	if slot < 0 || slot >= e.cfg.NPCSlots {
		return fmt.Errorf("slot %d out of range [0, %d)", slot, e.cfg.NPCSlots)
	}
	if e.stores.Preferences == nil {
		return fmt.Errorf("%w: preferences", ErrNoStore)
	}
	if err := e.stores.Preferences.SetSlotModel(ctx, slot, model); err != nil {
		return fmt.Errorf("persisting slot %d model: %w", slot, err)
	}
	return nil
}

// LoadPreferences restores the stored DM model, if any. A configured
// fallback is kept when nothing is stored.
func (e *Engine) LoadPreferences(ctx context.Context, fallback string) error {
	model := ""
	if p := e.stores.Preferences; p != nil {
		m, err := p.DMModel(ctx)
		if err != nil {
			return fmt.Errorf("reading DM model preference: %w", err)
		}
		model = m
	}
	if model == "" {
		model = fallback
	}
	e.mu.Lock()
	e.dmModel = model
	e.mu.Unlock()
	return nil
}

// slotModel returns the preferred model for slot, or "".
func (e *Engine) slotModel(ctx context.Context, slot int) string {
	p := e.stores.Preferences
	if p == nil {
		return ""
	}
	m, err := p.SlotModel(ctx, slot)
	if err != nil {
		e.logger.Warn("reading slot model preference", zap.Int("slot", slot), zap.Error(err))
		return ""
	}
	return m
}

// preferredNPCModel returns the stored model for the named NPC, or "".
func (e *Engine) preferredNPCModel(ctx context.Context, name string) string {
	p := e.stores.Preferences
	if p == nil {
		return ""
	}
	m, err := p.NPCModel(ctx, name)
	if err != nil {
		e.logger.Warn("reading npc model preference", zap.String("npc", name), zap.Error(err))
		return ""
	}
	return m
}

// rememberNPCModel records the model that generated name.
func (e *Engine) rememberNPCModel(ctx context.Context, name, model string) {
	p := e.stores.Preferences
	if p == nil {
		return
	}
	if err := p.SetNPCModel(ctx, name, model); err != nil {
		e.logger.Warn("persisting npc model preference", zap.String("npc", name), zap.Error(err))
	}
}
