package adventure

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
	"github.com/cory-johannsen/dungeonmaster/internal/narrator/narratortest"
)

type memSaves struct {
	mu      sync.Mutex
	docs    map[string]*SaveDocument
	listErr error
}

func newMemSaves() *memSaves { return &memSaves{docs: map[string]*SaveDocument{}} }

func (m *memSaves) SaveGame(_ context.Context, doc *SaveDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

func (m *memSaves) LoadGame(_ context.Context, id string) (*SaveDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("save %q: not found", id)
	}
	return doc, nil
}

func (m *memSaves) ListGames(context.Context) ([]SaveSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []SaveSummary
	for _, d := range m.docs {
		out = append(out, SaveSummary{ID: d.ID, Label: d.Label, CreatedAt: d.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memParties struct {
	parties map[string]*party.Party
	chars   map[string]character.Sheet
}

func newMemParties() *memParties {
	return &memParties{parties: map[string]*party.Party{}, chars: map[string]character.Sheet{}}
}

func (m *memParties) SaveParty(_ context.Context, name string, p *party.Party) error {
	m.parties[name] = p.Clone()
	return nil
}

func (m *memParties) LoadParty(_ context.Context, name string) (*party.Party, error) {
	p, ok := m.parties[name]
	if !ok {
		return nil, party.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *memParties) ListParties(context.Context) ([]string, error) {
	var out []string
	for k := range m.parties {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memParties) SaveCharacter(_ context.Context, s character.Sheet) error {
	m.chars[s.Name] = s
	return nil
}

func (m *memParties) LoadCharacter(_ context.Context, name string) (character.Sheet, error) {
	s, ok := m.chars[name]
	if !ok {
		return character.Sheet{}, party.ErrNotFound
	}
	return s, nil
}

func (m *memParties) ListCharacters(context.Context) ([]string, error) {
	var out []string
	for k := range m.chars {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

type memPrefs struct {
	dm    string
	slots map[int]string
	npc   map[string]string
}

func newMemPrefs() *memPrefs {
	return &memPrefs{slots: map[int]string{}, npc: map[string]string{}}
}

func (m *memPrefs) DMModel(context.Context) (string, error)          { return m.dm, nil }
func (m *memPrefs) SetDMModel(_ context.Context, model string) error { m.dm = model; return nil }
func (m *memPrefs) SlotModel(_ context.Context, slot int) (string, error) {
	return m.slots[slot], nil
}
func (m *memPrefs) SetSlotModel(_ context.Context, slot int, model string) error {
	m.slots[slot] = model
	return nil
}
func (m *memPrefs) NPCModel(_ context.Context, name string) (string, error) {
	return m.npc[name], nil
}
func (m *memPrefs) SetNPCModel(_ context.Context, name, model string) error {
	m.npc[name] = model
	return nil
}

func TestGenerateStoryRecap_NothingToRecap(t *testing.T) {
	e, _ := newTestEngine(t, narratortest.New("x"), Stores{})
	recap, err := e.GenerateStoryRecap(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recap)
}

func TestGenerateStoryRecap_UsesOpeningAndRecentResponses(t *testing.T) {
	fake := narratortest.Script(
		narratortest.Reply{Text: "Opening"},
		narratortest.Reply{Text: "R1"},
		narratortest.Reply{Text: "R2"},
		narratortest.Reply{Text: "R3"},
		narratortest.Reply{Text: "As you slowly wake from your dream..."},
	)
	e, _ := startedEngine(t, fake, Stores{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := e.ProcessPlayerAction(ctx, "I go on")
		require.NoError(t, err)
	}

	recap, err := e.GenerateStoryRecap(ctx)
	require.NoError(t, err)
	assert.Equal(t, "As you slowly wake from your dream...", recap)
	prompt := fake.LastPrompt()
	assert.Contains(t, prompt, "Initial story setup:\nOpening")
	assert.Contains(t, prompt, "- R1\n- R2\n- R3")
	assert.NotContains(t, prompt, "- Opening")
	assert.Contains(t, prompt, "Keep it under 250 words")
}

func TestGenerateStoryRecap_FallbackOnFailure(t *testing.T) {
	fake := narratortest.Script(
		narratortest.Reply{Text: "Opening"},
		narratortest.Reply{Err: errors.New("down")},
	)
	e, _ := startedEngine(t, fake, Stores{})
	recap, err := e.GenerateStoryRecap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RecapFallback, recap)
}

func TestSave_Preconditions(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, narratortest.New("x"), Stores{})
	_, err := e.Save(ctx, "camp")
	assert.ErrorIs(t, err, ErrNoStore)

	e, _ = newTestEngine(t, narratortest.New("x"), Stores{Saves: newMemSaves()})
	_, err = e.Save(ctx, "camp")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSaveAndLoad_RestoresStateWithRecap(t *testing.T) {
	saves := newMemSaves()
	fake := narratortest.Script(
		narratortest.Reply{Text: "Opening"},
		narratortest.Reply{Text: "The goblin hits Borin with a fire arrow."},
		narratortest.Reply{Text: "You wake, remembering the goblin."},
	)
	e, _ := startedEngine(t, fake, Stores{Saves: saves})
	ctx := context.Background()
	_, err := e.ProcessPlayerAction(ctx, "I duck")
	require.NoError(t, err)

	sum, err := e.Save(ctx, "camp")
	require.NoError(t, err)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, SaveID("camp", created), sum.ID)
	assert.Equal(t, "camp", sum.Label)

	saved := e.Session()
	require.NoError(t, e.Reset())

	recap, err := e.Load(ctx, sum.ID)
	require.NoError(t, err)
	assert.Equal(t, "You wake, remembering the goblin.", recap)

	sess := e.Session()
	assert.Equal(t, saved.ID, sess.ID)
	assert.Equal(t, saved.Actions, sess.Actions)
	assert.Equal(t, append(saved.Responses, recap), sess.Responses)
	assert.Equal(t, saved.CombatLog, sess.CombatLog)
	hp, err := e.Party().HP("Borin")
	require.NoError(t, err)
	assert.Equal(t, 26, hp)
	assert.Equal(t, StateAwaitingAction, e.State())

	// The stored document is not aliased by the running session.
	doc, err := saves.LoadGame(ctx, sum.ID)
	require.NoError(t, err)
	assert.Len(t, doc.Session.Responses, 2)
}

func TestLoad_RecapFallbackWhenNarratorFails(t *testing.T) {
	saves := newMemSaves()
	fake := narratortest.Script(narratortest.Reply{Text: "Opening"})
	e, _ := startedEngine(t, fake, Stores{Saves: saves})
	ctx := context.Background()
	sum, err := e.Save(ctx, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sum.ID, "save_"))

	recap, err := e.Load(ctx, sum.ID)
	require.NoError(t, err)
	assert.Equal(t, RecapFallback, recap)
	assert.Equal(t, RecapFallback, e.Session().LastResponse())
}

func TestLoad_UnknownID(t *testing.T) {
	e, _ := newTestEngine(t, narratortest.New("x"), Stores{Saves: newMemSaves()})
	_, err := e.Load(context.Background(), "nope_1")
	assert.Error(t, err)
	assert.Nil(t, e.Session())
}

func TestListSaves_DegradesToEmpty(t *testing.T) {
	saves := newMemSaves()
	saves.listErr = errors.New("disk on fire")
	e, logs := newTestEngine(t, narratortest.New("x"), Stores{Saves: saves})
	assert.Empty(t, e.ListSaves(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("listing saves failed").Len())

	none, _ := newTestEngine(t, narratortest.New("x"), Stores{})
	assert.Empty(t, none.ListSaves(context.Background()))
}

func TestPartyAndCharacterStores(t *testing.T) {
	store := newMemParties()
	e, _ := startedEngine(t, narratortest.New("Opening"), Stores{Parties: store, Characters: store})
	ctx := context.Background()

	require.NoError(t, e.SaveParty(ctx, "heroes/of/old"))
	assert.Equal(t, []string{"heroes-of-old"}, e.ListParties(ctx))

	require.NoError(t, e.Reset())
	assert.ErrorIs(t, e.SaveParty(ctx, "empty"), ErrEmptyParty)
	require.NoError(t, e.LoadParty(ctx, "heroes-of-old"))
	assert.Equal(t, []string{"Hero", "Borin", "Cade"}, e.Party().Names())
	assert.ErrorIs(t, e.LoadParty(ctx, "missing"), party.ErrNotFound)

	require.NoError(t, e.SaveCharacter(ctx, character.Sheet{Name: "Mira", Race: "Gnome", Class: "Bard"}))
	s, err := e.LoadCharacter(ctx, "Mira")
	require.NoError(t, err)
	assert.Equal(t, "Bard", s.Class)
	assert.Equal(t, character.DefaultHP, s.HP)
	assert.Equal(t, []string{"Mira"}, e.ListCharacters(ctx))
	assert.ErrorIs(t, e.SaveCharacter(ctx, character.Sheet{}), ErrNoPlayer)
}

func TestSaveID_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		label := rapid.StringMatching(`[a-z][a-z0-9_]{0,15}`).Draw(rt, "label")
		ts := time.Unix(0, rapid.Int64Range(1, 1<<62).Draw(rt, "nanos")).UTC()
		gotLabel, gotTime, ok := ParseSaveID(SaveID(label, ts))
		if !ok || gotLabel != label || !gotTime.Equal(ts) {
			rt.Fatalf("round trip of %q at %v gave %q %v %v", label, ts, gotLabel, gotTime, ok)
		}
	})
}

func TestParseSaveID_Rejects(t *testing.T) {
	for _, id := range []string{"", "camp", "_123", "camp_", "camp_abc"} {
		_, _, ok := ParseSaveID(id)
		assert.False(t, ok, id)
	}
}

func TestSessionClone_IsDeep(t *testing.T) {
	s := newSession("id", "intro", []string{"A"}, time.Now())
	c := s.Clone()
	c.Responses[0] = "changed"
	c.Participation["A"] = true
	assert.Equal(t, "intro", s.Responses[0])
	assert.False(t, s.Participation["A"])
	var nilSession *Session
	assert.Nil(t, nilSession.Clone())
}
