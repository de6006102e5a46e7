// Package party implements the ordered party roster. Each member is held
// either as a structured sheet or as the sheet block the narrator produced,
// and HP writes go back into whichever form the member already uses.
package party

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
)

var (
	// ErrNotFound is returned when a named member is not in the party.
	ErrNotFound = errors.New("party member not found")
	// ErrDuplicate is returned by Add when the name is already present.
	ErrDuplicate = errors.New("party member already exists")
	// ErrInvalidMember is returned when a member has no name or not exactly one form.
	ErrInvalidMember = errors.New("invalid party member")
)

// Member is one party entry. Exactly one of Sheet and Text is set.
type Member struct {
	Name  string
	Sheet *character.Sheet
	Text  string
}

// IsText reports whether the member is stored as a sheet block.
func (m Member) IsText() bool { return m.Sheet == nil }

func (m Member) clone() Member {
	m.Sheet = m.Sheet.Clone()
	return m
}

func (m Member) validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidMember)
	}
	if (m.Sheet == nil) == (m.Text == "") {
		return fmt.Errorf("%w: %q must carry exactly one of sheet or text", ErrInvalidMember, m.Name)
	}
	return nil
}

// prepare returns the member in the form the party stores: sheets are cloned
// and normalized, text blocks gain any missing vitals.
func (m Member) prepare() Member {
	m.Name = strings.TrimSpace(m.Name)
	if m.Sheet != nil {
		m.Sheet = m.Sheet.Clone()
		if m.Sheet.Name == "" {
			m.Sheet.Name = m.Name
		}
		m.Sheet.Normalize()
		return m
	}
	m.Text = character.EnsureVitals(m.Text)
	return m
}

// Update carries a partial stat change. Nil fields are left untouched.
type Update struct {
	HP        *int
	AC        *int
	Equipment []string
}

// Party is an insertion-ordered set of uniquely named members.
//
// A Party is not safe for concurrent use; its owner serializes access.
type Party struct {
	order   []string
	members map[string]Member
}

// New returns an empty party.
func New() *Party {
	return &Party{members: make(map[string]Member)}
}

// Add appends m.
//
// Precondition: m carries a name and exactly one form.
// Postcondition: on success m is the last member; otherwise the party is unchanged.
func (p *Party) Add(m Member) error {
	if err := m.validate(); err != nil {
		return err
	}
	m = m.prepare()
	if _, ok := p.members[m.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, m.Name)
	}
	p.order = append(p.order, m.Name)
	p.members[m.Name] = m
	return nil
}

// Put replaces the member with the same name in place, or appends m when the
// name is new.
func (p *Party) Put(m Member) error {
	if err := m.validate(); err != nil {
		return err
	}
	m = m.prepare()
	if _, ok := p.members[m.Name]; !ok {
		p.order = append(p.order, m.Name)
	}
	p.members[m.Name] = m
	return nil
}

// Remove deletes name and reports whether it was present.
func (p *Party) Remove(name string) bool {
	if _, ok := p.members[name]; !ok {
		return false
	}
	delete(p.members, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a copy of the named member.
func (p *Party) Get(name string) (Member, bool) {
	m, ok := p.members[name]
	if !ok {
		return Member{}, false
	}
	return m.clone(), true
}

// Has reports whether name is a member.
func (p *Party) Has(name string) bool {
	_, ok := p.members[name]
	return ok
}

// Names returns member names in insertion order.
func (p *Party) Names() []string {
	return append([]string(nil), p.order...)
}

// Members returns copies of all members in insertion order.
func (p *Party) Members() []Member {
	out := make([]Member, 0, len(p.order))
	for _, n := range p.order {
		out = append(out, p.members[n].clone())
	}
	return out
}

// Len returns the number of members.
func (p *Party) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Clone returns a deep copy of p.
func (p *Party) Clone() *Party {
	c := New()
	for _, n := range p.order {
		c.order = append(c.order, n)
		c.members[n] = p.members[n].clone()
	}
	return c
}

// Sheet returns the structured view of the named member. Text members are
// decoded and normalized; the stored text is not modified.
func (p *Party) Sheet(name string) (character.Sheet, error) {
	m, ok := p.members[name]
	if !ok {
		return character.Sheet{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if m.Sheet != nil {
		return *m.Sheet.Clone(), nil
	}
	s := character.Decode(m.Text, character.Sheet{
		Name:  m.Name,
		HP:    character.DefaultHP,
		MaxHP: character.DefaultHP,
	})
	s.Normalize()
	return s, nil
}

// HP returns the current hit points of the named member.
func (p *Party) HP(name string) (int, error) {
	m, ok := p.members[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if m.Sheet != nil {
		return m.Sheet.HP, nil
	}
	s := character.Decode(m.Text, character.Sheet{HP: character.DefaultHP})
	return s.HP, nil
}

// SetHP writes hp back into the member's own representation. Negative values
// are clamped to 0.
func (p *Party) SetHP(name string, hp int) error {
	return p.UpdateStats(name, Update{HP: &hp})
}

// UpdateStats merges u into the named member. Sheet members have the fields
// assigned directly, with HP clamped to [0, MaxHP]. Text members have only
// the matching lines rewritten; every other line is preserved verbatim and
// a missing line is appended.
func (p *Party) UpdateStats(name string, u Update) error {
	m, ok := p.members[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if u.HP != nil && *u.HP < 0 {
		zero := 0
		u.HP = &zero
	}
	if m.Sheet != nil {
		if u.HP != nil {
			m.Sheet.SetHP(*u.HP)
		}
		if u.AC != nil {
			m.Sheet.AC = *u.AC
		}
		if len(u.Equipment) > 0 {
			m.Sheet.Equipment = append(character.Equipment(nil), u.Equipment...)
		}
	} else {
		m.Text = rewriteText(m.Text, u)
	}
	p.members[name] = m
	return nil
}

// rewriteText applies u to a sheet block line by line.
func rewriteText(text string, u Update) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	var sawHP, sawAC, sawEquip bool
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		key := lineKey(line)
		switch {
		case key == "HP" && u.HP != nil && !sawHP:
			sawHP = true
			out = append(out, fmt.Sprintf("HP: %d", *u.HP))
		case key == "AC" && u.AC != nil && !sawAC:
			sawAC = true
			out = append(out, fmt.Sprintf("AC: %d", *u.AC))
		case key == "Equipment" && len(u.Equipment) > 0 && !sawEquip:
			sawEquip = true
			out = append(out, "Equipment:")
			for _, item := range u.Equipment {
				out = append(out, "- "+item)
			}
			// The old list runs, blank lines included, until the next
			// non-bullet line; one blank line separates what follows.
			j := i + 1
			for j < len(lines) {
				t := strings.TrimSpace(character.StripEmphasis(lines[j]))
				if t != "" && !strings.HasPrefix(t, "- ") {
					break
				}
				j++
			}
			if j < len(lines) && j > i+1 && strings.TrimSpace(lines[j-1]) == "" {
				out = append(out, "")
			}
			i = j - 1
		default:
			out = append(out, line)
		}
	}
	if u.HP != nil && !sawHP {
		out = append(out, fmt.Sprintf("HP: %d", *u.HP))
	}
	if u.AC != nil && !sawAC {
		out = append(out, fmt.Sprintf("AC: %d", *u.AC))
	}
	if len(u.Equipment) > 0 && !sawEquip {
		out = append(out, "Equipment:")
		for _, item := range u.Equipment {
			out = append(out, "- "+item)
		}
	}
	return strings.Join(out, "\n")
}

// lineKey returns the header key of a sheet-block line when it is one the
// rewrite touches, or "".
func lineKey(line string) string {
	switch k, _ := character.HeaderKey(line); k {
	case "HP", "AC", "Equipment":
		return k
	}
	return ""
}

// Roster renders a compact line per member for continuation prompts.
func (p *Party) Roster() string {
	var b strings.Builder
	for _, n := range p.order {
		s, _ := p.Sheet(n)
		fmt.Fprintf(&b, "- %s: %s %s, HP %d, AC %d. Equipment: %s\n",
			n, s.Race, s.Class, s.HP, s.AC, strings.Join(s.Equipment, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Summaries returns one introduction summary per member in party order.
func (p *Party) Summaries() []string {
	out := make([]string, 0, len(p.order))
	for _, n := range p.order {
		s, _ := p.Sheet(n)
		out = append(out, character.Summary(s))
	}
	return out
}
