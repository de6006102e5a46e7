package adventure

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/damage"
	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
	"github.com/cory-johannsen/dungeonmaster/internal/game/narration"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
	"github.com/cory-johannsen/dungeonmaster/internal/narrator"
)

var (
	// ErrNoSession is returned when an operation needs a running adventure.
	ErrNoSession = errors.New("no active adventure")
	// ErrNoModel is returned when no narrator model has been selected.
	ErrNoModel = errors.New("no DM model selected")
	// ErrEmptyParty is returned when an adventure is started without members.
	ErrEmptyParty = errors.New("party is empty")
	// ErrNoPlayer is returned when a player character is required but unset.
	ErrNoPlayer = errors.New("no player character")
	// ErrBusy is returned when another state-changing call is in flight.
	ErrBusy = errors.New("another operation is in progress")
	// ErrMemberNotFound is returned when a named character is not in the party.
	ErrMemberNotFound = errors.New("character not in party")
	// ErrNoStore is returned when the needed persistence backend is not configured.
	ErrNoStore = errors.New("no store configured")
)

// Defaults for zero-valued game settings.
const (
	DefaultNPCSlots      = 3
	DefaultHistoryWindow = 3
	DefaultRecapWords    = 250
)

// RecapFallback is returned by the recap when the narrator cannot be reached.
const RecapFallback = "You wake up, remembering the recent events of your adventure..."

// DefaultPlayerName tags actions when no player character is set.
const DefaultPlayerName = "Player"

// Stores groups the optional persistence backends. Nil members disable the
// operations that need them.
type Stores struct {
	Saves       SaveStore
	Parties     PartyStore
	Characters  CharacterStore
	Preferences PreferenceStore
}

// Engine is the single owner of one adventure's party, player character,
// and session.
//
// At most one state-changing operation runs at a time; a second one started
// meanwhile fails with ErrBusy. Read accessors never block on an in-flight
// narrator call and return copies.
type Engine struct {
	// op is held for the whole of a state-changing operation.
	op sync.Mutex
	// mu guards the fields below it.
	mu        sync.RWMutex
	session   *Session
	party     *party.Party
	player    *character.Sheet
	dmModel   string
	npcModels map[string]string
	failed    bool

	cfg        config.GameConfig
	narrator   narrator.Narrator
	roller     *dice.Roller
	damage     *damage.Inferrer
	classifier narration.RollClassifier
	hook       DamageHook
	stores     Stores
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// NewEngine creates an Engine with an empty party and no session.
//
// Precondition: n, roller, and logger must be non-nil.
// Postcondition: State() == StateNoSession.
func NewEngine(cfg config.GameConfig, n narrator.Narrator, roller *dice.Roller, stores Stores, logger *zap.Logger) *Engine {
	if cfg.NPCSlots <= 0 {
		cfg.NPCSlots = DefaultNPCSlots
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.RecapWords <= 0 {
		cfg.RecapWords = DefaultRecapWords
	}
	return &Engine{
		party:      party.New(),
		npcModels:  make(map[string]string),
		cfg:        cfg,
		narrator:   n,
		roller:     roller,
		damage:     damage.NewInferrer(damage.DefaultTable(), damage.DefaultIntensifiers(), roller.Source()),
		classifier: narration.DefaultRollClassifier(),
		stores:     stores,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// SetDamageHook installs h to adjust inferred damage. Nil removes the hook.
func (e *Engine) SetDamageHook(h DamageHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hook = h
}

// SetClock replaces the time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// begin claims the operation slot or fails fast.
func (e *Engine) begin() error {
	if !e.op.TryLock() {
		return ErrBusy
	}
	return nil
}

func (e *Engine) end() { e.op.Unlock() }

// State reports the engine's coarse state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	switch {
	case e.failed:
		return StateError
	case e.session == nil:
		return StateNoSession
	case e.session.WaitingForRoll:
		return StateAwaitingRoll
	}
	return StateAwaitingAction
}

// Session returns a copy of the running session, or nil.
func (e *Engine) Session() *Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session.Clone()
}

// Party returns a copy of the party.
func (e *Engine) Party() *party.Party {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.party.Clone()
}

// Player returns a copy of the player character.
func (e *Engine) Player() (character.Sheet, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.player == nil {
		return character.Sheet{}, false
	}
	return *e.player.Clone(), true
}

// DMModel returns the selected narrator model.
func (e *Engine) DMModel() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dmModel
}

// SetPlayer normalizes s and makes it the player character.
func (e *Engine) SetPlayer(s character.Sheet) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	s.Normalize()
	if s.Name == "" {
		return ErrNoPlayer
	}
	e.mu.Lock()
	e.player = &s
	e.mu.Unlock()
	e.logger.Info("player character set", zap.String("name", s.Name))
	return nil
}

// SetParty replaces the party wholesale with a copy of p.
func (e *Engine) SetParty(p *party.Party) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	e.mu.Lock()
	e.party = p.Clone()
	e.mu.Unlock()
	return nil
}

// playerNameLocked returns the name actions are attributed to.
func (e *Engine) playerNameLocked() string {
	if e.player != nil && e.player.Name != "" {
		return e.player.Name
	}
	return DefaultPlayerName
}

// npcNamesLocked returns party members other than the player, in order.
func (e *Engine) npcNamesLocked() []string {
	var out []string
	for _, n := range e.party.Names() {
		if e.player != nil && n == e.player.Name {
			continue
		}
		out = append(out, n)
	}
	return out
}

// fail marks the engine as failed after a narrator error.
func (e *Engine) fail() {
	e.mu.Lock()
	e.failed = true
	e.mu.Unlock()
}
