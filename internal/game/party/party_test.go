package party_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
)

const mirabelText = `Name: Mirabel
Race: Elf
Class: Wizard
HP: 22 (4d6+6)
AC: 12

Personality: Hits the books, strikes up conversations.

Equipment:
- Quarterstaff
- Spellbook

Backstory: Her HP: was never recorded. AC: unknown.`

func newParty(t *testing.T) *party.Party {
	t.Helper()
	p := party.New()
	require.NoError(t, p.Add(party.Member{Name: "Aria", Sheet: &character.Sheet{
		Name: "Aria", Race: "Human", Class: "Paladin", HP: 40, MaxHP: 40, AC: 18,
		Equipment: character.Equipment{"Longsword"},
	}}))
	require.NoError(t, p.Add(party.Member{Name: "Mirabel", Text: mirabelText}))
	return p
}

func TestAdd_PreservesOrderAndRejectsDuplicates(t *testing.T) {
	p := newParty(t)
	require.NoError(t, p.Add(party.Member{Name: "Zed", Text: character.Fallback("Zed")}))
	assert.Equal(t, []string{"Aria", "Mirabel", "Zed"}, p.Names())

	err := p.Add(party.Member{Name: "Aria", Text: "Name: Aria"})
	assert.ErrorIs(t, err, party.ErrDuplicate)
	assert.Equal(t, 3, p.Len())
}

func TestAdd_RejectsInvalidMembers(t *testing.T) {
	p := party.New()
	assert.ErrorIs(t, p.Add(party.Member{Name: "", Text: "x"}), party.ErrInvalidMember)
	assert.ErrorIs(t, p.Add(party.Member{Name: "Both", Text: "x", Sheet: &character.Sheet{}}), party.ErrInvalidMember)
	assert.ErrorIs(t, p.Add(party.Member{Name: "Neither"}), party.ErrInvalidMember)
}

func TestAdd_TextGainsVitals(t *testing.T) {
	p := party.New()
	require.NoError(t, p.Add(party.Member{Name: "Bare", Text: "Name: Bare\nRace: Gnome"}))
	hp, err := p.HP("Bare")
	require.NoError(t, err)
	assert.Equal(t, 30, hp)
	m, _ := p.Get("Bare")
	assert.Contains(t, m.Text, "AC: 10")
	assert.Contains(t, m.Text, "- Basic adventuring gear")
}

func TestAdd_SheetIsNormalizedCopy(t *testing.T) {
	s := &character.Sheet{Race: "Elf"}
	p := party.New()
	require.NoError(t, p.Add(party.Member{Name: "Copy", Sheet: s}))
	s.Race = "Orc"
	got, err := p.Sheet("Copy")
	require.NoError(t, err)
	assert.Equal(t, "Elf", got.Race)
	assert.Equal(t, "Copy", got.Name)
	assert.Equal(t, 30, got.MaxHP)
}

func TestPut_ReplacesInPlace(t *testing.T) {
	p := newParty(t)
	require.NoError(t, p.Put(party.Member{Name: "Aria", Text: character.Fallback("Aria")}))
	assert.Equal(t, []string{"Aria", "Mirabel"}, p.Names())
	m, ok := p.Get("Aria")
	require.True(t, ok)
	assert.True(t, m.IsText())
}

func TestRemove(t *testing.T) {
	p := newParty(t)
	assert.True(t, p.Remove("Aria"))
	assert.False(t, p.Remove("Aria"))
	assert.Equal(t, []string{"Mirabel"}, p.Names())
	assert.False(t, p.Has("Aria"))
}

func TestHP_ParsesLeadingInteger(t *testing.T) {
	p := newParty(t)
	hp, err := p.HP("Mirabel")
	require.NoError(t, err)
	assert.Equal(t, 22, hp)

	_, err = p.HP("Nobody")
	assert.ErrorIs(t, err, party.ErrNotFound)
}

func TestSetHP_WritesBackInSameForm(t *testing.T) {
	p := newParty(t)
	require.NoError(t, p.SetHP("Aria", 12))
	require.NoError(t, p.SetHP("Mirabel", 5))

	aria, _ := p.Get("Aria")
	require.NotNil(t, aria.Sheet)
	assert.Equal(t, 12, aria.Sheet.HP)

	mirabel, _ := p.Get("Mirabel")
	assert.True(t, mirabel.IsText())
	assert.Contains(t, mirabel.Text, "\nHP: 5\n")
}

func TestSetHP_ClampsAtZero(t *testing.T) {
	p := newParty(t)
	require.NoError(t, p.SetHP("Aria", -8))
	require.NoError(t, p.SetHP("Mirabel", -1))
	hp, _ := p.HP("Aria")
	assert.Equal(t, 0, hp)
	hp, _ = p.HP("Mirabel")
	assert.Equal(t, 0, hp)
}

func TestSheet_DefeatedTextMemberKeepsZeroHP(t *testing.T) {
	p := newParty(t)
	require.NoError(t, p.SetHP("Mirabel", 0))
	s, err := p.Sheet("Mirabel")
	require.NoError(t, err)
	assert.Equal(t, 0, s.HP)
}

func TestUpdateStats_TextPreservesOtherLines(t *testing.T) {
	p := newParty(t)
	hp, ac := 9, 15
	require.NoError(t, p.UpdateStats("Mirabel", party.Update{
		HP: &hp, AC: &ac, Equipment: []string{"Wand"},
	}))
	m, _ := p.Get("Mirabel")

	before := strings.Split(mirabelText, "\n")
	after := strings.Split(m.Text, "\n")
	assert.Contains(t, after, "HP: 9")
	assert.Contains(t, after, "AC: 15")
	assert.Contains(t, after, "- Wand")
	assert.NotContains(t, after, "- Spellbook")
	for _, line := range before {
		if strings.HasPrefix(line, "HP:") || strings.HasPrefix(line, "AC:") || strings.HasPrefix(line, "- ") {
			continue
		}
		assert.Contains(t, after, line, "line %q must survive verbatim", line)
	}
}

func TestUpdateStats_TextAppendsMissingLine(t *testing.T) {
	p := party.New()
	require.NoError(t, p.Add(party.Member{Name: "Odd", Text: "Name: Odd\nHP: 3\nAC: 1\nEquipment:\n- Rock"}))
	items := []string{"Sling"}
	require.NoError(t, p.UpdateStats("Odd", party.Update{Equipment: items}))
	s, _ := p.Sheet("Odd")
	assert.Equal(t, character.Equipment{"Sling"}, s.Equipment)
}

func TestUpdateStats_TextReplacesWholeEquipmentList(t *testing.T) {
	cases := []struct {
		name, text, tail string
	}{
		{"blank lines around bullets", "Name: Tam\nHP: 12\nAC: 14\nEquipment:\n\n- Longsword\n- Shield\n\nBackstory: A smith.", "- Axe\n\nBackstory: A smith."},
		{"lowercase header", "Name: Tam\nHP: 12\nAC: 14\nequipment:\n- Longsword\n- Shield\nBackstory: A smith.", "- Axe\nBackstory: A smith."},
		{"list at end of block", "Name: Tam\nHP: 12\nAC: 14\n**Equipment:**\n- Longsword\n\n- Shield\n", "- Axe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := party.New()
			require.NoError(t, p.Add(party.Member{Name: "Tam", Text: tc.text}))
			require.NoError(t, p.UpdateStats("Tam", party.Update{Equipment: []string{"Axe"}}))

			s, err := p.Sheet("Tam")
			require.NoError(t, err)
			assert.Equal(t, character.Equipment{"Axe"}, s.Equipment)
			m, _ := p.Get("Tam")
			assert.Equal(t, 1, strings.Count(strings.ToLower(m.Text), "equipment:"))
			assert.True(t, strings.HasSuffix(m.Text, tc.tail), "got %q", m.Text)
		})
	}
}

func TestUpdateStats_Sheet(t *testing.T) {
	p := newParty(t)
	hp, ac := 100, 20
	require.NoError(t, p.UpdateStats("Aria", party.Update{HP: &hp, AC: &ac, Equipment: []string{"Maul"}}))
	s, _ := p.Sheet("Aria")
	assert.Equal(t, 40, s.HP, "hp clamps to max")
	assert.Equal(t, 20, s.AC)
	assert.Equal(t, character.Equipment{"Maul"}, s.Equipment)
}

func TestUpdateStats_Unknown(t *testing.T) {
	p := newParty(t)
	assert.ErrorIs(t, p.UpdateStats("Ghost", party.Update{}), party.ErrNotFound)
}

func TestClone_IsIndependent(t *testing.T) {
	p := newParty(t)
	c := p.Clone()
	require.NoError(t, c.SetHP("Aria", 1))
	hp, _ := p.HP("Aria")
	assert.Equal(t, 40, hp)
}

func TestRosterAndSummaries(t *testing.T) {
	p := newParty(t)
	roster := p.Roster()
	assert.Contains(t, roster, "- Aria: Human Paladin, HP 40, AC 18. Equipment: Longsword")
	assert.Contains(t, roster, "- Mirabel: Elf Wizard, HP 22")
	assert.Len(t, p.Summaries(), 2)
}

func TestYAML_RoundTripPreservesOrderAndForm(t *testing.T) {
	p := newParty(t)
	require.NoError(t, p.Add(party.Member{Name: "Alpha", Text: character.Fallback("Alpha")}))

	out, err := yaml.Marshal(p)
	require.NoError(t, err)

	got := party.New()
	require.NoError(t, yaml.Unmarshal(out, got))
	assert.Equal(t, p.Names(), got.Names())

	aria, _ := got.Get("Aria")
	assert.NotNil(t, aria.Sheet)
	mirabel, _ := got.Get("Mirabel")
	orig, _ := p.Get("Mirabel")
	assert.Equal(t, orig.Text, mirabel.Text)
}

func TestYAML_RejectsSequence(t *testing.T) {
	got := party.New()
	assert.Error(t, yaml.Unmarshal([]byte("- a\n- b\n"), got))
}

func TestPropertyOrderSurvivesYAML(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.StringMatching(`[A-Z][a-z]{2,8}`), 1, 8, rapid.ID[string]).Draw(rt, "names")
		p := party.New()
		for i, n := range names {
			var m party.Member
			if i%2 == 0 {
				m = party.Member{Name: n, Text: character.Fallback(n)}
			} else {
				m = party.Member{Name: n, Sheet: &character.Sheet{Name: n, Race: "Elf", Class: "Bard"}}
			}
			require.NoError(rt, p.Add(m))
		}
		out, err := yaml.Marshal(p)
		require.NoError(rt, err)
		got := party.New()
		require.NoError(rt, yaml.Unmarshal(out, got))
		assert.Equal(rt, names, got.Names())
	})
}

func TestPropertySetHPNeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := party.New()
		require.NoError(rt, p.Add(party.Member{Name: "T", Text: character.Fallback("T")}))
		v := rapid.IntRange(-1000, 1000).Draw(rt, "hp")
		require.NoError(rt, p.SetHP("T", v))
		hp, err := p.HP("T")
		require.NoError(rt, err)
		assert.GreaterOrEqual(rt, hp, 0)
	})
}
