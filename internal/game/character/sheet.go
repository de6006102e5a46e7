// Package character defines the character sheet model, its text codec, and
// creation-time helpers.
package character

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Default field values applied by Normalize.
const (
	DefaultBackground  = "Soldier"
	DefaultAlignment   = "True Neutral"
	DefaultPersonality = "A brave adventurer"
	DefaultBackstory   = "Seeking fortune and glory"
	DefaultItem        = "Basic adventuring gear"
	DefaultHP          = 30
	DefaultAC          = 10
	DefaultAbility     = 10
)

// Abilities holds the six ability scores.
type Abilities struct {
	STR int `yaml:"STR"`
	DEX int `yaml:"DEX"`
	CON int `yaml:"CON"`
	INT int `yaml:"INT"`
	WIS int `yaml:"WIS"`
	CHA int `yaml:"CHA"`
}

// AbilityKeys lists the ability keys in sheet order.
var AbilityKeys = []string{"STR", "DEX", "CON", "INT", "WIS", "CHA"}

// Get returns the score for key, or 0 for an unknown key.
func (a Abilities) Get(key string) int {
	switch strings.ToUpper(key) {
	case "STR":
		return a.STR
	case "DEX":
		return a.DEX
	case "CON":
		return a.CON
	case "INT":
		return a.INT
	case "WIS":
		return a.WIS
	case "CHA":
		return a.CHA
	}
	return 0
}

// Set assigns the score for key. Unknown keys are ignored.
func (a *Abilities) Set(key string, v int) {
	switch strings.ToUpper(key) {
	case "STR":
		a.STR = v
	case "DEX":
		a.DEX = v
	case "CON":
		a.CON = v
	case "INT":
		a.INT = v
	case "WIS":
		a.WIS = v
	case "CHA":
		a.CHA = v
	}
}

// Modifier returns the ability modifier for score, rounding down.
func Modifier(score int) int {
	d := score - 10
	if d < 0 {
		return (d - 1) / 2
	}
	return d / 2
}

// Equipment is an ordered list of carried items.
//
// When decoded from YAML a single scalar is accepted as a one-item list.
type Equipment []string

// UnmarshalYAML accepts either a sequence of strings or a single string.
func (e *Equipment) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		if s == "" {
			*e = nil
			return nil
		}
		*e = Equipment{s}
		return nil
	}
	var items []string
	if err := node.Decode(&items); err != nil {
		return err
	}
	*e = items
	return nil
}

// Sheet is the structured form of a character.
//
// Invariant after Normalize: 0 <= HP <= MaxHP; Equipment is non-empty; every
// ability is non-zero.
type Sheet struct {
	Name        string    `yaml:"name"`
	Race        string    `yaml:"race"`
	Class       string    `yaml:"class"`
	Background  string    `yaml:"background"`
	Alignment   string    `yaml:"alignment"`
	Level       int       `yaml:"level"`
	Abilities   Abilities `yaml:"ability_scores"`
	HP          int       `yaml:"hp"`
	MaxHP       int       `yaml:"max_hp"`
	AC          int       `yaml:"ac"`
	Personality string    `yaml:"personality"`
	Backstory   string    `yaml:"backstory"`
	Equipment   Equipment `yaml:"equipment"`
	ImagePath   string    `yaml:"image_path,omitempty"`
}

// Normalize fills every optional field with its default and restores the HP
// invariant.
//
// Postcondition: 0 <= HP <= MaxHP, Level >= 1, Equipment non-empty.
func (s *Sheet) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	if s.Background == "" {
		s.Background = DefaultBackground
	}
	if s.Alignment == "" {
		s.Alignment = DefaultAlignment
	}
	if s.Personality == "" {
		s.Personality = DefaultPersonality
	}
	if s.Backstory == "" {
		s.Backstory = DefaultBackstory
	}
	if len(s.Equipment) == 0 {
		s.Equipment = Equipment{DefaultItem}
	}
	if s.Level < 1 {
		s.Level = 1
	}
	for _, k := range AbilityKeys {
		if s.Abilities.Get(k) == 0 {
			s.Abilities.Set(k, DefaultAbility)
		}
	}
	if s.AC == 0 {
		s.AC = DefaultAC
	}
	if s.HP == 0 && s.MaxHP == 0 {
		s.HP = DefaultHP
	}
	if s.MaxHP < s.HP {
		s.MaxHP = s.HP
	}
	s.HP = clamp(s.HP, 0, s.MaxHP)
}

// Clone returns a deep copy of s.
func (s *Sheet) Clone() *Sheet {
	if s == nil {
		return nil
	}
	c := *s
	c.Equipment = append(Equipment(nil), s.Equipment...)
	return &c
}

// SetHP assigns hp clamped to [0, MaxHP].
func (s *Sheet) SetHP(hp int) {
	s.HP = clamp(hp, 0, s.MaxHP)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
