package adventure

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
)

// SaveDocument is an immutable snapshot of a playthrough.
type SaveDocument struct {
	// ID is "{label}_{unix nanoseconds}".
	ID        string           `yaml:"id"`
	Label     string           `yaml:"label"`
	Session   *Session         `yaml:"session"`
	Party     *party.Party     `yaml:"party"`
	Player    *character.Sheet `yaml:"player,omitempty"`
	CreatedAt time.Time        `yaml:"created_at"`
}

// SaveSummary describes a stored save without its payload.
type SaveSummary struct {
	ID        string
	Label     string
	CreatedAt time.Time
}

// SaveStore persists save documents.
type SaveStore interface {
	SaveGame(ctx context.Context, doc *SaveDocument) error
	LoadGame(ctx context.Context, id string) (*SaveDocument, error)
	// ListGames returns summaries newest first. Read failures degrade to an
	// empty result.
	ListGames(ctx context.Context) ([]SaveSummary, error)
}

// PartyStore persists named parties.
type PartyStore interface {
	SaveParty(ctx context.Context, name string, p *party.Party) error
	LoadParty(ctx context.Context, name string) (*party.Party, error)
	ListParties(ctx context.Context) ([]string, error)
}

// CharacterStore persists individual character sheets keyed by name.
type CharacterStore interface {
	SaveCharacter(ctx context.Context, s character.Sheet) error
	LoadCharacter(ctx context.Context, name string) (character.Sheet, error)
	ListCharacters(ctx context.Context) ([]string, error)
}

// PreferenceStore remembers model choices between runs. Getters return ""
// when nothing is stored.
type PreferenceStore interface {
	DMModel(ctx context.Context) (string, error)
	SetDMModel(ctx context.Context, model string) error
	// SlotModel is the model assigned to generated party slot i (0-based).
	SlotModel(ctx context.Context, slot int) (string, error)
	SetSlotModel(ctx context.Context, slot int, model string) error
	// NPCModel is the model that generated the named NPC.
	NPCModel(ctx context.Context, name string) (string, error)
	SetNPCModel(ctx context.Context, name, model string) error
}

// DamageHook adjusts inferred damage before it is applied.
type DamageHook interface {
	AdjustDamage(target string, amount int, damageType string) int
}

// SaveID returns the document id for label at t.
func SaveID(label string, t time.Time) string {
	return label + "_" + formatNanos(t)
}

func formatNanos(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

// ParseSaveID recovers the label and creation time encoded in a save id.
// The label may itself contain underscores; the suffix after the last one
// is the timestamp.
func ParseSaveID(id string) (label string, createdAt time.Time, ok bool) {
	i := strings.LastIndexByte(id, '_')
	if i <= 0 || i == len(id)-1 {
		return "", time.Time{}, false
	}
	n, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return id[:i], time.Unix(0, n).UTC(), true
}
