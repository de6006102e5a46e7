package character

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
)

//go:embed names.yaml
var namesYAML []byte

// NameTables holds race-keyed first and last name lists.
type NameTables struct {
	First map[string][]string `yaml:"first"`
	Last  map[string][]string `yaml:"last"`
}

// fallbackRace is used for races without a name table.
const fallbackRace = "Human"

var defaultNames = mustLoadNames(namesYAML)

func mustLoadNames(data []byte) *NameTables {
	t, err := LoadNameTables(data)
	if err != nil {
		panic(fmt.Sprintf("character: embedded names.yaml: %v", err))
	}
	return t
}

// LoadNameTables parses a YAML name table document.
//
// Postcondition: the returned tables carry a non-empty Human entry in both
// lists, or an error is returned.
func LoadNameTables(data []byte) (*NameTables, error) {
	var t NameTables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing name tables: %w", err)
	}
	if len(t.First[fallbackRace]) == 0 || len(t.Last[fallbackRace]) == 0 {
		return nil, fmt.Errorf("name tables missing %s entries", fallbackRace)
	}
	return &t, nil
}

// Random returns a "First Last" name for race drawn from src. Races without
// a table use the Human lists.
func (t *NameTables) Random(race string, src dice.Source) string {
	first, ok := t.First[race]
	if !ok || len(first) == 0 {
		first = t.First[fallbackRace]
	}
	last, ok := t.Last[race]
	if !ok || len(last) == 0 {
		last = t.Last[fallbackRace]
	}
	return first[src.Intn(len(first))] + " " + last[src.Intn(len(last))]
}

// RandomName draws a name from the embedded tables.
func RandomName(race string, src dice.Source) string {
	return defaultNames.Random(race, src)
}
