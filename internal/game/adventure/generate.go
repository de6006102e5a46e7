package adventure

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
	"github.com/cory-johannsen/dungeonmaster/internal/narrator"
)

// GenerateParty replaces the party with freshly generated NPCs, one per
// configured slot. Each slot uses its preferred model, falling back to the
// DM model; any slot whose generation fails gets the template character.
//
// Precondition: a DM model is selected.
// Postcondition: on success the party holds exactly NPCSlots members.
func (e *Engine) GenerateParty(ctx context.Context) (*party.Party, error) {
	return e.generateParty(ctx, nil)
}

// GeneratePartyWithPlayer makes s the player character, places it first in
// a new party, and then generates the NPC slots.
//
// Precondition: s has a name and a DM model is selected.
func (e *Engine) GeneratePartyWithPlayer(ctx context.Context, s character.Sheet) (*party.Party, error) {
	s.Normalize()
	if s.Name == "" {
		return nil, ErrNoPlayer
	}
	return e.generateParty(ctx, &s)
}

func (e *Engine) generateParty(ctx context.Context, player *character.Sheet) (*party.Party, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	dm := e.DMModel()
	if dm == "" {
		return nil, ErrNoModel
	}

	p := party.New()
	if player != nil {
		if err := p.Add(party.Member{Name: player.Name, Sheet: player}); err != nil {
			return nil, fmt.Errorf("adding player: %w", err)
		}
	}
	models := make(map[string]string, e.cfg.NPCSlots)
	for i := 0; i < e.cfg.NPCSlots; i++ {
		model := e.slotModel(ctx, i)
		if model == "" {
			model = dm
		}
		text := e.generateCharacter(ctx, model)
		name := character.ExtractName(text)
		if name == "" {
			name = fmt.Sprintf("Adventurer %d", i+1)
		}
		if p.Has(name) {
			name = fmt.Sprintf("%s %d", name, i+1)
		}
		if err := p.Add(party.Member{Name: name, Text: text}); err != nil {
			return nil, fmt.Errorf("adding generated member %q: %w", name, err)
		}
		models[name] = model
		e.rememberNPCModel(ctx, name, model)
	}

	e.mu.Lock()
	e.party = p
	if player != nil {
		e.player = player.Clone()
	}
	for n, m := range models {
		e.npcModels[n] = m
	}
	e.mu.Unlock()
	e.logger.Info("party generated", zap.Strings("members", p.Names()))
	return p.Clone(), nil
}

// GenerateCharacter asks model for a new character and returns its sheet
// block. Failures and incomplete sheets yield the template character under
// the requested name; the result always carries every required field.
func (e *Engine) GenerateCharacter(ctx context.Context, model string) (string, error) {
	if err := e.begin(); err != nil {
		return "", err
	}
	defer e.end()
	if model == "" {
		model = e.DMModel()
	}
	if model == "" {
		return "", ErrNoModel
	}
	return e.generateCharacter(ctx, model), nil
}

func (e *Engine) generateCharacter(ctx context.Context, model string) string {
	src := e.roller.Source()
	race := character.Races[src.Intn(len(character.Races))]
	name := character.RandomName(race, src)

	text, err := e.narrator.Complete(ctx, narrator.Request{
		Model: model,
		Messages: []narrator.Message{
			{Role: narrator.RoleSystem, Content: characterSystem},
			{Role: narrator.RoleUser, Content: characterPrompt(name, race)},
		},
	})
	if err != nil {
		e.logger.Warn("character generation failed, using template",
			zap.String("model", model), zap.String("name", name), zap.Error(err))
		return character.Fallback(name)
	}
	if !character.HasRequiredFields(text) {
		e.logger.Warn("generated character incomplete, using template",
			zap.String("model", model), zap.String("name", name))
		return character.Fallback(name)
	}
	return character.EnsureVitals(character.StripEmphasis(text))
}
