package adventure

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
	"github.com/cory-johannsen/dungeonmaster/internal/game/narration"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
	"github.com/cory-johannsen/dungeonmaster/internal/narrator"
	"github.com/cory-johannsen/dungeonmaster/internal/observability"
)

// StartAdventure asks the narrator for an introduction and begins a fresh
// session built around the current party.
//
// Precondition: a DM model is selected and the party is non-empty.
// Postcondition: on success the session is at turn 1 with the introduction as
// its only story and response entry and no member marked as participating.
// On failure no session is created.
func (e *Engine) StartAdventure(ctx context.Context) (string, error) {
	if err := e.begin(); err != nil {
		return "", err
	}
	defer e.end()

	e.mu.RLock()
	model := e.dmModel
	size := e.party.Len()
	summaries := e.party.Summaries()
	e.mu.RUnlock()
	if model == "" {
		return "", ErrNoModel
	}
	if size == 0 {
		return "", ErrEmptyParty
	}

	intro, err := e.narrator.Complete(ctx, narrator.Prompt(model, introPrompt(summaries)))
	if err != nil {
		e.fail()
		return "", fmt.Errorf("starting adventure: %w", err)
	}
	intro = narration.StripEmphasis(intro)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = newSession(e.newID(), intro, e.party.Names(), e.now())
	e.session.WaitingForRoll = e.classifier.NeedsRoll(intro)
	e.failed = false
	e.logger.Info("adventure started",
		zap.String("session_id", e.session.ID),
		zap.Int("party_size", size),
	)
	return intro, nil
}

// ProcessPlayerAction sends the player's input to the narrator and applies
// the reply.
//
// Input containing "rolled a" is a roll submission: the first integer is
// recorded as the roll and resolved against the DC named in the previous
// response, if any. Any other input is logged as an action by the player
// before the continuation prompt is built. A reply describing damage to a
// party member is applied and annotated.
//
// A narrator failure leaves an already-logged action in place and puts the
// engine in StateError.
func (e *Engine) ProcessPlayerAction(ctx context.Context, text string) (string, error) {
	if err := e.begin(); err != nil {
		return "", err
	}
	defer e.end()

	e.mu.Lock()
	sess, model := e.session, e.dmModel
	if sess == nil {
		e.mu.Unlock()
		return "", ErrNoSession
	}
	if model == "" {
		e.mu.Unlock()
		return "", ErrNoModel
	}
	var prompt string
	if narration.IsRollSubmission(text) {
		roll := narration.FirstInt(text)
		sess.LastRoll = roll
		sess.WaitingForRoll = false
		last := sess.LastResponse()
		if dc, ok := narration.ExtractDC(last); ok {
			prompt = rollOutcomePrompt(roll, dc, last)
		} else {
			prompt = rollPrompt(roll, last)
		}
	} else {
		actor := e.playerNameLocked()
		sess.Actions = append(sess.Actions, Action{Actor: actor, Text: text})
		if _, tracked := sess.Participation[actor]; tracked {
			sess.Participation[actor] = true
		}
		w := e.cfg.HistoryWindow
		prompt = continuationPrompt(e.party.Roster(), tail(sess.Actions, w), tail(sess.Responses, w))
	}
	fields := observability.SessionFields(sess.ID, sess.Turn)
	e.mu.Unlock()

	reply, err := e.narrator.Complete(ctx, narrator.Prompt(model, prompt))
	if err != nil {
		e.fail()
		e.logger.Warn("player action failed", append(fields, zap.Error(err))...)
		return "", fmt.Errorf("processing action: %w", err)
	}
	reply = narration.StripEmphasis(reply)

	e.mu.Lock()
	defer e.mu.Unlock()
	reply = e.resolveDamageLocked(reply)
	sess.Responses = append(sess.Responses, reply)
	sess.WaitingForRoll = e.classifier.NeedsRoll(reply)
	if sess.allParticipated() {
		sess.advance()
		e.logger.Info("turn advanced", observability.SessionFields(sess.ID, sess.Turn)...)
	}
	e.failed = false
	return reply, nil
}

// resolveDamageLocked applies damage described by reply and returns reply
// with an annotation appended when damage landed on a party member.
func (e *Engine) resolveDamageLocked(reply string) string {
	if !narration.IndicatesDamage(reply) {
		return reply
	}
	res := e.damage.Infer(reply)
	player := ""
	if e.player != nil {
		player = e.player.Name
	}
	target := narration.ResolveTarget(reply, player, e.npcNamesLocked())
	if target == "" {
		e.logger.Debug("damage described without a party target", zap.String("type", res.Type))
		return reply
	}
	amount := res.Amount
	if e.hook != nil {
		amount = e.hook.AdjustDamage(target, amount, res.Type)
	}
	if _, err := e.applyDamageLocked(target, amount, res.Type, reply); err != nil {
		return reply
	}
	return reply + fmt.Sprintf("\n[%s takes %d %s damage!]", target, amount, res.Type)
}

// ApplyDamage subtracts amount from name's hit points, never going below
// zero, and writes the result back in the member's own representation.
//
// Postcondition: on success with a running session the combat log gains
// exactly one entry stamped with the current turn.
func (e *Engine) ApplyDamage(name string, amount int, attack string) (int, error) {
	if err := e.begin(); err != nil {
		return 0, err
	}
	defer e.end()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyDamageLocked(name, amount, "", attack)
}

func (e *Engine) applyDamageLocked(name string, amount int, damageType, attack string) (int, error) {
	if !e.party.Has(name) {
		e.logger.Warn("damage target not in party", zap.String("target", name))
		return 0, fmt.Errorf("%w: %q", ErrMemberNotFound, name)
	}
	if amount < 0 {
		amount = 0
	}
	cur, err := e.party.HP(name)
	if err != nil {
		return 0, fmt.Errorf("reading hp of %q: %w", name, err)
	}
	newHP := max(0, cur-amount)
	if err := e.party.SetHP(name, newHP); err != nil {
		return 0, fmt.Errorf("writing hp of %q: %w", name, err)
	}
	if e.player != nil && e.player.Name == name {
		e.player.SetHP(newHP)
	}
	turn := 0
	if e.session != nil {
		turn = e.session.Turn
		e.session.CombatLog = append(e.session.CombatLog, CombatEntry{
			Target: name,
			Damage: amount,
			Type:   damageType,
			Attack: attack,
			NewHP:  newHP,
			Turn:   turn,
		})
	}
	e.logger.Info("damage applied",
		zap.String("target", name),
		zap.Int("amount", amount),
		zap.String("type", damageType),
		zap.Int("hp", newHP),
		zap.Int("turn", turn),
	)
	return newHP, nil
}

// UpdateCharacterStats merges u into the named party member.
func (e *Engine) UpdateCharacterStats(name string, u party.Update) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.party.UpdateStats(name, u); err != nil {
		if errors.Is(err, party.ErrNotFound) {
			e.logger.Warn("stat update target not in party", zap.String("name", name))
			return fmt.Errorf("%w: %q", ErrMemberNotFound, name)
		}
		return err
	}
	if e.player != nil && e.player.Name == name {
		if s, err := e.party.Sheet(name); err == nil {
			e.player.HP, e.player.AC, e.player.Equipment = s.HP, s.AC, s.Equipment
		}
	}
	return nil
}

// ProcessNPCTurn asks the named NPC's model for its next action and logs it.
// A narrator failure yields "{name} watches carefully." instead of an error.
func (e *Engine) ProcessNPCTurn(ctx context.Context, name string) (string, error) {
	if err := e.begin(); err != nil {
		return "", err
	}
	defer e.end()

	e.mu.RLock()
	sess := e.session
	isNPC := e.party.Has(name) && (e.player == nil || e.player.Name != name)
	var sheet string
	if m, ok := e.party.Get(name); ok {
		sheet = m.Text
		if m.Sheet != nil {
			sheet = character.Encode(*m.Sheet)
		}
	}
	roster := e.party.Roster()
	model := e.npcModels[name]
	dm := e.dmModel
	e.mu.RUnlock()
	if sess == nil {
		return "", ErrNoSession
	}
	if !isNPC {
		return "", fmt.Errorf("%w: %q is not an NPC", ErrMemberNotFound, name)
	}
	if model == "" {
		model = e.preferredNPCModel(ctx, name)
	}
	if model == "" {
		model = dm
	}
	if model == "" {
		return "", ErrNoModel
	}

	e.mu.RLock()
	recent := append([]string(nil), tail(sess.Responses, e.cfg.HistoryWindow)...)
	e.mu.RUnlock()

	action, err := e.narrator.Complete(ctx, narrator.Prompt(model, npcActionPrompt(name, sheet, roster, recent)))
	if err != nil || action == "" {
		e.logger.Warn("npc action generation failed",
			zap.String("npc", name), zap.String("model", model), zap.Error(err))
		action = name + " watches carefully."
	}
	action = narration.StripEmphasis(action)

	e.mu.Lock()
	defer e.mu.Unlock()
	sess.Actions = append(sess.Actions, Action{Actor: name, Text: action})
	if _, tracked := sess.Participation[name]; tracked {
		sess.Participation[name] = true
	}
	if sess.allParticipated() {
		sess.advance()
		e.logger.Info("turn advanced", observability.SessionFields(sess.ID, sess.Turn)...)
	}
	return action, nil
}

// SubmitDiceRoll records an explicit roll result and clears the pending
// roll request.
func (e *Engine) SubmitDiceRoll(result int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ErrNoSession
	}
	e.session.LastRoll = result
	e.session.WaitingForRoll = false
	return nil
}

// RollDice evaluates a dice expression such as "d20" or "2d6+3".
func (e *Engine) RollDice(expr string) (dice.RollResult, error) {
	res, err := e.roller.RollExpr(expr)
	if err != nil {
		return dice.RollResult{}, fmt.Errorf("rolling %q: %w", expr, err)
	}
	return res, nil
}

// AdvanceTurn moves the session to the next turn and returns its number.
func (e *Engine) AdvanceTurn() (int, error) {
	if err := e.begin(); err != nil {
		return 0, err
	}
	defer e.end()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return 0, ErrNoSession
	}
	e.session.advance()
	return e.session.Turn, nil
}

// Reset discards the session and the party. The player character and the
// model selection are kept.
func (e *Engine) Reset() error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = nil
	e.party = party.New()
	e.failed = false
	return nil
}
