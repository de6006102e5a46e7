// Package adventure runs a narrated adventure. An Engine owns the party,
// the player character, and the session logs. All mutation goes through
// its methods.
package adventure

import (
	"maps"
	"time"
)

// State is the coarse state of an Engine.
type State int

const (
	StateNoSession State = iota
	StateAwaitingAction
	StateAwaitingRoll
	// StateError follows a failed narrator call. The next successful
	// operation leaves it.
	StateError
)

func (s State) String() string {
	switch s {
	case StateNoSession:
		return "no_session"
	case StateAwaitingAction:
		return "awaiting_action"
	case StateAwaitingRoll:
		return "awaiting_roll"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Action is one logged player or NPC action.
type Action struct {
	Actor string `yaml:"actor"`
	Text  string `yaml:"text"`
}

// CombatEntry records one application of damage.
type CombatEntry struct {
	Target string `yaml:"target"`
	Damage int    `yaml:"damage"`
	Type   string `yaml:"type,omitempty"`
	// Attack is the narration that caused the damage.
	Attack string `yaml:"attack"`
	NewHP  int    `yaml:"new_hp"`
	Turn   int    `yaml:"turn"`
}

// Session is the mutable state of one playthrough.
//
// Invariant: Turn >= 1; Actions, Responses, Story, and CombatLog only grow.
type Session struct {
	ID             string          `yaml:"id"`
	Turn           int             `yaml:"turn"`
	Story          []string        `yaml:"story"`
	Actions        []Action        `yaml:"actions"`
	Responses      []string        `yaml:"responses"`
	Participation  map[string]bool `yaml:"participation"`
	CombatLog      []CombatEntry   `yaml:"combat_log"`
	LastRoll       int             `yaml:"last_roll"`
	WaitingForRoll bool            `yaml:"waiting_for_roll"`
	StartedAt      time.Time       `yaml:"started_at"`
}

// newSession returns a session at turn 1 whose story and response logs hold
// only intro, with every member marked as not yet participating.
func newSession(id, intro string, members []string, now time.Time) *Session {
	s := &Session{
		ID:            id,
		Turn:          1,
		Story:         []string{intro},
		Responses:     []string{intro},
		Participation: make(map[string]bool, len(members)),
		StartedAt:     now,
	}
	for _, m := range members {
		s.Participation[m] = false
	}
	return s
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Story = append([]string(nil), s.Story...)
	c.Actions = append([]Action(nil), s.Actions...)
	c.Responses = append([]string(nil), s.Responses...)
	c.CombatLog = append([]CombatEntry(nil), s.CombatLog...)
	c.Participation = maps.Clone(s.Participation)
	if c.Participation == nil {
		c.Participation = map[string]bool{}
	}
	return &c
}

// LastResponse returns the most recent narrator response, or "".
func (s *Session) LastResponse() string {
	if len(s.Responses) == 0 {
		return ""
	}
	return s.Responses[len(s.Responses)-1]
}

// allParticipated reports whether every tracked member has acted this turn.
func (s *Session) allParticipated() bool {
	if len(s.Participation) == 0 {
		return false
	}
	for _, done := range s.Participation {
		if !done {
			return false
		}
	}
	return true
}

// advance moves to the next turn and clears participation.
func (s *Session) advance() {
	s.Turn++
	for k := range s.Participation {
		s.Participation[k] = false
	}
}

func tail[T any](xs []T, n int) []T {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}
