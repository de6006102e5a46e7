package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeonmaster/internal/game/adventure"
	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
	"github.com/cory-johannsen/dungeonmaster/internal/storage"
	"github.com/cory-johannsen/dungeonmaster/internal/storage/postgres"
	"github.com/cory-johannsen/dungeonmaster/internal/testutil"
)

func setupStores(t *testing.T) postgres.Stores {
	t.Helper()
	return postgres.NewStores(testutil.NewPool(t))
}

func sampleParty(t *testing.T) *party.Party {
	t.Helper()
	p := party.New()
	hero := character.Sheet{Name: "Hero", Race: "Elf", Class: "Wizard", HP: 14, MaxHP: 20}
	require.NoError(t, p.Add(party.Member{Name: "Hero", Sheet: &hero}))
	require.NoError(t, p.Add(party.Member{Name: "Borin", Text: character.Fallback("Borin")}))
	return p
}

func TestPostgres_Repositories(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	t.Run("saves", func(t *testing.T) {
		older := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		newer := older.Add(time.Hour)
		for _, d := range []*adventure.SaveDocument{
			{ID: adventure.SaveID("camp", older), Label: "camp", CreatedAt: older, Party: sampleParty(t),
				Session: &adventure.Session{ID: "s", Turn: 2, Story: []string{"Opening"}, Responses: []string{"Opening"}}},
			{ID: adventure.SaveID("cave", newer), Label: "cave", CreatedAt: newer},
		} {
			require.NoError(t, stores.Saves.SaveGame(ctx, d))
		}

		list, err := stores.Saves.ListGames(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "cave", list[0].Label)
		assert.Equal(t, "camp", list[1].Label)

		doc, err := stores.Saves.LoadGame(ctx, adventure.SaveID("camp", older))
		require.NoError(t, err)
		assert.Equal(t, 2, doc.Session.Turn)
		assert.Equal(t, []string{"Hero", "Borin"}, doc.Party.Names())

		_, err = stores.Saves.LoadGame(ctx, "missing_1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("parties", func(t *testing.T) {
		require.NoError(t, stores.Parties.SaveParty(ctx, "heroes", sampleParty(t)))
		require.NoError(t, stores.Parties.SaveParty(ctx, "heroes", sampleParty(t)))
		names, err := stores.Parties.ListParties(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"heroes"}, names)

		p, err := stores.Parties.LoadParty(ctx, "heroes")
		require.NoError(t, err)
		assert.Equal(t, 2, p.Len())

		_, err = stores.Parties.LoadParty(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("characters", func(t *testing.T) {
		s := character.Sheet{Name: "Mira", Race: "Gnome", Class: "Bard", Level: 3, HP: 20, MaxHP: 20}
		require.NoError(t, stores.Characters.SaveCharacter(ctx, s))
		got, err := stores.Characters.LoadCharacter(ctx, "Mira")
		require.NoError(t, err)
		assert.Equal(t, s, got)

		names, err := stores.Characters.ListCharacters(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mira"}, names)

		assert.Error(t, stores.Characters.SaveCharacter(ctx, character.Sheet{}))
	})

	t.Run("preferences", func(t *testing.T) {
		prefs := stores.Preferences
		m, err := prefs.DMModel(ctx)
		require.NoError(t, err)
		assert.Empty(t, m)

		require.NoError(t, prefs.SetDMModel(ctx, "a"))
		require.NoError(t, prefs.SetDMModel(ctx, "b"))
		m, err = prefs.DMModel(ctx)
		require.NoError(t, err)
		assert.Equal(t, "b", m)

		require.NoError(t, prefs.SetSlotModel(ctx, 2, "slot"))
		m, err = prefs.SlotModel(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "slot", m)

		require.NoError(t, prefs.SetNPCModel(ctx, "Borin", "npc"))
		m, err = prefs.NPCModel(ctx, "Borin")
		require.NoError(t, err)
		assert.Equal(t, "npc", m)
	})

	t.Run("property: preference set then get", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			name := rapid.StringMatching(`[A-Z][a-z]{1,12}`).Draw(rt, "name")
			model := rapid.StringMatching(`[a-z0-9-]{1,20}/[a-z0-9.-]{1,20}`).Draw(rt, "model")
			if err := stores.Preferences.SetNPCModel(ctx, name, model); err != nil {
				rt.Fatal(err)
			}
			got, err := stores.Preferences.NPCModel(ctx, name)
			if err != nil {
				rt.Fatal(err)
			}
			if got != model {
				rt.Fatalf("got %q, want %q", got, model)
			}
		})
	})
}
