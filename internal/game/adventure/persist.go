package adventure

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
	"github.com/cory-johannsen/dungeonmaster/internal/narrator"
)

// GenerateStoryRecap asks the narrator to retell the opening and the most
// recent responses as memories returning after a dream. It returns "" when
// there is nothing to recap and RecapFallback when the narrator fails.
func (e *Engine) GenerateStoryRecap(ctx context.Context) (string, error) {
	if err := e.begin(); err != nil {
		return "", err
	}
	defer e.end()
	return e.recap(ctx), nil
}

func (e *Engine) recap(ctx context.Context) string {
	e.mu.RLock()
	sess, model := e.session, e.dmModel
	var initial string
	var recent []string
	if sess != nil && len(sess.Responses) > 0 {
		if len(sess.Story) > 0 {
			initial = sess.Story[0]
		}
		recent = append(recent, tail(sess.Responses, e.cfg.HistoryWindow)...)
	}
	e.mu.RUnlock()
	if len(recent) == 0 {
		return ""
	}
	if model == "" {
		e.logger.Warn("recap skipped: no DM model selected")
		return RecapFallback
	}
	out, err := e.narrator.Complete(ctx, narrator.Prompt(model, recapPrompt(initial, recent, e.cfg.RecapWords)))
	if err != nil || strings.TrimSpace(out) == "" {
		e.logger.Warn("recap generation failed", zap.Error(err))
		return RecapFallback
	}
	return out
}

// Save writes a snapshot of the session, party, and player under label.
//
// Precondition: a session is running and a save store is configured.
func (e *Engine) Save(ctx context.Context, label string) (SaveSummary, error) {
	if err := e.begin(); err != nil {
		return SaveSummary{}, err
	}
	defer e.end()
	if e.stores.Saves == nil {
		return SaveSummary{}, fmt.Errorf("%w: saves", ErrNoStore)
	}
	label = sanitizeLabel(label)

	e.mu.RLock()
	if e.session == nil {
		e.mu.RUnlock()
		return SaveSummary{}, ErrNoSession
	}
	now := e.now()
	doc := &SaveDocument{
		ID:        SaveID(label, now),
		Label:     label,
		Session:   e.session.Clone(),
		Party:     e.party.Clone(),
		Player:    e.player.Clone(),
		CreatedAt: now,
	}
	e.mu.RUnlock()

	if err := e.stores.Saves.SaveGame(ctx, doc); err != nil {
		return SaveSummary{}, fmt.Errorf("saving game %q: %w", doc.ID, err)
	}
	e.logger.Info("game saved", zap.String("id", doc.ID))
	return SaveSummary{ID: doc.ID, Label: label, CreatedAt: now}, nil
}

// Load restores the save id, replacing the session, party, and player, and
// appends a story recap to the restored response log when one is produced.
func (e *Engine) Load(ctx context.Context, id string) (string, error) {
	if err := e.begin(); err != nil {
		return "", err
	}
	defer e.end()
	if e.stores.Saves == nil {
		return "", fmt.Errorf("%w: saves", ErrNoStore)
	}
	doc, err := e.stores.Saves.LoadGame(ctx, id)
	if err != nil {
		return "", fmt.Errorf("loading game %q: %w", id, err)
	}
	if doc.Session == nil {
		return "", fmt.Errorf("loading game %q: document has no session", id)
	}
	p := doc.Party
	if p == nil {
		p = party.New()
	}
	sess := doc.Session.Clone()
	if sess.Turn < 1 {
		sess.Turn = 1
	}

	e.mu.Lock()
	e.session = sess
	e.party = p.Clone()
	e.player = doc.Player.Clone()
	e.failed = false
	e.mu.Unlock()

	recap := e.recap(ctx)
	if recap != "" {
		e.mu.Lock()
		e.session.Responses = append(e.session.Responses, recap)
		e.mu.Unlock()
	}
	e.logger.Info("game loaded", zap.String("id", id), zap.Int("turn", sess.Turn))
	return recap, nil
}

// ListSaves returns stored save summaries. Store failures are logged and
// reported as an empty list.
func (e *Engine) ListSaves(ctx context.Context) []SaveSummary {
	if e.stores.Saves == nil {
		return nil
	}
	saves, err := e.stores.Saves.ListGames(ctx)
	if err != nil {
		e.logger.Warn("listing saves failed", zap.Error(err))
		return nil
	}
	return saves
}

// SaveParty stores the current party under name.
func (e *Engine) SaveParty(ctx context.Context, name string) error {
	if e.stores.Parties == nil {
		return fmt.Errorf("%w: parties", ErrNoStore)
	}
	p := e.Party()
	if p.Len() == 0 {
		return ErrEmptyParty
	}
	if err := e.stores.Parties.SaveParty(ctx, sanitizeLabel(name), p); err != nil {
		return fmt.Errorf("saving party %q: %w", name, err)
	}
	return nil
}

// LoadParty replaces the current party with the stored party name.
func (e *Engine) LoadParty(ctx context.Context, name string) error {
	if e.stores.Parties == nil {
		return fmt.Errorf("%w: parties", ErrNoStore)
	}
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	p, err := e.stores.Parties.LoadParty(ctx, sanitizeLabel(name))
	if err != nil {
		return fmt.Errorf("loading party %q: %w", name, err)
	}
	e.mu.Lock()
	e.party = p
	e.mu.Unlock()
	return nil
}

// ListParties returns stored party names, or an empty list on failure.
func (e *Engine) ListParties(ctx context.Context) []string {
	if e.stores.Parties == nil {
		return nil
	}
	names, err := e.stores.Parties.ListParties(ctx)
	if err != nil {
		e.logger.Warn("listing parties failed", zap.Error(err))
		return nil
	}
	return names
}

// SaveCharacter stores s under its name.
func (e *Engine) SaveCharacter(ctx context.Context, s character.Sheet) error {
	if e.stores.Characters == nil {
		return fmt.Errorf("%w: characters", ErrNoStore)
	}
	s.Normalize()
	if s.Name == "" {
		return ErrNoPlayer
	}
	if err := e.stores.Characters.SaveCharacter(ctx, s); err != nil {
		return fmt.Errorf("saving character %q: %w", s.Name, err)
	}
	return nil
}

// LoadCharacter returns the stored character name.
func (e *Engine) LoadCharacter(ctx context.Context, name string) (character.Sheet, error) {
	if e.stores.Characters == nil {
		return character.Sheet{}, fmt.Errorf("%w: characters", ErrNoStore)
	}
	s, err := e.stores.Characters.LoadCharacter(ctx, name)
	if err != nil {
		return character.Sheet{}, fmt.Errorf("loading character %q: %w", name, err)
	}
	s.Normalize()
	return s, nil
}

// ListCharacters returns stored character names, or an empty list on failure.
func (e *Engine) ListCharacters(ctx context.Context) []string {
	if e.stores.Characters == nil {
		return nil
	}
	names, err := e.stores.Characters.ListCharacters(ctx)
	if err != nil {
		e.logger.Warn("listing characters failed", zap.Error(err))
		return nil
	}
	return names
}

// sanitizeLabel trims label, replaces path separators, and defaults to "save".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.NewReplacer("/", "-", "\\", "-").Replace(label)
	if label == "" {
		return "save"
	}
	return label
}
