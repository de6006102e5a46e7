package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeonmaster/internal/game/adventure"
	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
	"github.com/cory-johannsen/dungeonmaster/internal/storage"
	"github.com/cory-johannsen/dungeonmaster/internal/storage/file"
)

func newStore(t *testing.T) (*file.Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := file.New(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s, dir
}

func sampleParty(t *testing.T) *party.Party {
	t.Helper()
	p := party.New()
	hero := character.Sheet{Name: "Hero", Race: "Elf", Class: "Wizard", HP: 14, MaxHP: 20}
	require.NoError(t, p.Add(party.Member{Name: "Hero", Sheet: &hero}))
	require.NoError(t, p.Add(party.Member{Name: "Borin", Text: character.Fallback("Borin")}))
	return p
}

func TestNew_CreatesLayout(t *testing.T) {
	_, dir := newStore(t)
	for _, d := range []string{"saves", "parties", "characters"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSaveGame_RoundTrip(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	player := character.Sheet{Name: "Hero", Race: "Elf", Class: "Wizard", HP: 14, MaxHP: 20}
	doc := &adventure.SaveDocument{
		ID:    adventure.SaveID("camp", created),
		Label: "camp",
		Session: &adventure.Session{
			ID:            "s-1",
			Turn:          3,
			Story:         []string{"Opening"},
			Actions:       []adventure.Action{{Actor: "Hero", Text: "I wait"}},
			Responses:     []string{"Opening", "Time passes."},
			Participation: map[string]bool{"Hero": true, "Borin": false},
			CombatLog:     []adventure.CombatEntry{{Target: "Borin", Damage: 4, Type: "fire", Attack: "ow", NewHP: 26, Turn: 2}},
			LastRoll:      17,
			StartedAt:     created,
		},
		Party:     sampleParty(t),
		Player:    &player,
		CreatedAt: created,
	}
	require.NoError(t, s.SaveGame(ctx, doc))
	_, err := os.Stat(filepath.Join(dir, "saves", doc.ID+".yaml"))
	require.NoError(t, err)

	got, err := s.LoadGame(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Session, got.Session)
	assert.Equal(t, []string{"Hero", "Borin"}, got.Party.Names())
	hp, err := got.Party.HP("Hero")
	require.NoError(t, err)
	assert.Equal(t, 14, hp)
	borin, ok := got.Party.Get("Borin")
	require.True(t, ok)
	assert.Equal(t, character.Fallback("Borin"), borin.Text)
	assert.Equal(t, "Hero", got.Player.Name)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestLoadGame_Missing(t *testing.T) {
	s, _ := newStore(t)
	for _, id := range []string{"nope_1", "../escape", ""} {
		_, err := s.LoadGame(context.Background(), id)
		assert.ErrorIs(t, err, storage.ErrNotFound, id)
	}
}

func TestLoadGame_CorruptDocument(t *testing.T) {
	s, dir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "saves", "bad_1.yaml"), []byte("session: [unclosed"), 0o644))
	_, err := s.LoadGame(context.Background(), "bad_1")
	require.Error(t, err)
	var se *storage.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "decode", se.Op)
}

func TestListGames_FromFileNamesNewestFirst(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()
	older := time.Unix(0, 1_700_000_000_000_000_000).UTC()
	newer := older.Add(time.Hour)
	require.NoError(t, s.SaveGame(ctx, &adventure.SaveDocument{ID: adventure.SaveID("first_try", older), Label: "first_try"}))
	require.NoError(t, s.SaveGame(ctx, &adventure.SaveDocument{ID: adventure.SaveID("camp", newer), Label: "camp"}))
	// Payloads are not decoded during listing.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "saves", adventure.SaveID("broken", older.Add(-time.Hour))+".yaml"), []byte("::"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "saves", "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "saves", "noid.yaml"), []byte("x"), 0o644))

	list, err := s.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "camp", list[0].Label)
	assert.True(t, newer.Equal(list[0].CreatedAt))
	assert.Equal(t, "first_try", list[1].Label)
	assert.Equal(t, "broken", list[2].Label)
}

func TestListGames_MissingDirectoryIsEmpty(t *testing.T) {
	s, dir := newStore(t)
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "saves")))
	list, err := s.ListGames(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParties(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveParty(ctx, "heroes", sampleParty(t)))
	require.NoError(t, s.SaveParty(ctx, "alpha", party.New()))

	names, err := s.ListParties(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "heroes"}, names)

	p, err := s.LoadParty(ctx, "heroes")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hero", "Borin"}, p.Names())

	_, err = s.LoadParty(ctx, "ghosts")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCharacters(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()
	sheet := character.Sheet{Name: "Mira Dawn", Race: "Gnome", Class: "Bard", HP: 22, MaxHP: 22, Equipment: character.Equipment{"Lute"}}
	require.NoError(t, s.SaveCharacter(ctx, sheet))
	_, err := os.Stat(filepath.Join(dir, "characters", "mira_dawn.yaml"))
	require.NoError(t, err)

	got, err := s.LoadCharacter(ctx, "Mira Dawn")
	require.NoError(t, err)
	assert.Equal(t, sheet, got)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "characters", "junk.yaml"), []byte("[1, 2"), 0o644))
	names, err := s.ListCharacters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mira Dawn"}, names)
}

func TestCharacters_NameWithSeparatorsStaysInDirectory(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()
	sheet := character.Sheet{Name: "../../escape", Race: "Human", Class: "Rogue", HP: 8, MaxHP: 8}

	require.NoError(t, s.SaveCharacter(ctx, sheet))
	assert.FileExists(t, filepath.Join(dir, "characters", "..-..-escape.yaml"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dir), "escape.yaml"))

	got, err := s.LoadCharacter(ctx, "../../escape")
	require.NoError(t, err)
	assert.Equal(t, sheet.Name, got.Name)
}

func TestPreferences(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()

	m, err := s.DMModel(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)

	require.NoError(t, s.SetDMModel(ctx, "dm"))
	require.NoError(t, s.SetSlotModel(ctx, 1, "slot-1"))
	require.NoError(t, s.SetNPCModel(ctx, "Borin", "borin-model"))

	reopened, err := file.New(dir, zap.NewNop())
	require.NoError(t, err)
	m, err = reopened.DMModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dm", m)
	m, err = reopened.SlotModel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "slot-1", m)
	m, err = reopened.SlotModel(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, m)
	m, err = reopened.NPCModel(ctx, "Borin")
	require.NoError(t, err)
	assert.Equal(t, "borin-model", m)
}

func TestProperty_PartyOrderSurvivesStore(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.StringMatching(`[A-Z][a-z]{2,8}`), 1, 6, rapid.ID[string]).Draw(rt, "names")
		p := party.New()
		for _, n := range names {
			if err := p.Add(party.Member{Name: n, Text: character.Fallback(n)}); err != nil {
				rt.Fatal(err)
			}
		}
		if err := s.SaveParty(ctx, "prop", p); err != nil {
			rt.Fatal(err)
		}
		got, err := s.LoadParty(ctx, "prop")
		if err != nil {
			rt.Fatal(err)
		}
		assert.Equal(rt, names, got.Names())
	})
}
