// Package damage infers a damage amount and type from free-text narration.
package damage

import (
	"strings"

	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
)

// DefaultType is used when the narration names no known damage type.
const DefaultType = "magical"

// Kind is one damage type and the inclusive range a single roll may produce.
type Kind struct {
	Name string
	Min  int
	Max  int
}

// Table is an ordered damage vocabulary. Order decides which keyword wins when
// a narration mentions several types.
type Table []Kind

// DefaultTable returns the built-in damage vocabulary.
func DefaultTable() Table {
	return Table{
		{Name: "fire", Min: 4, Max: 10},
		{Name: "cold", Min: 4, Max: 8},
		{Name: "lightning", Min: 6, Max: 10},
		{Name: "poison", Min: 4, Max: 8},
		{Name: "acid", Min: 4, Max: 8},
		{Name: "force", Min: 4, Max: 12},
		{Name: "psychic", Min: 4, Max: 10},
		{Name: "necrotic", Min: 6, Max: 10},
		{Name: "radiant", Min: 6, Max: 10},
		{Name: "thunder", Min: 6, Max: 8},
		{Name: "bludgeoning", Min: 4, Max: 8},
		{Name: "piercing", Min: 4, Max: 8},
		{Name: "slashing", Min: 4, Max: 8},
		{Name: "magical", Min: 6, Max: 12},
	}
}

// DefaultIntensifiers are the words that add a second roll.
func DefaultIntensifiers() []string {
	return []string{"powerful", "massive", "intense"}
}

// Lookup returns the Kind named name.
//
// Postcondition: Returns (kind, true) if present, or (Kind{}, false).
func (t Table) Lookup(name string) (Kind, bool) {
	for _, k := range t {
		if k.Name == name {
			return k, true
		}
	}
	return Kind{}, false
}

// Result is the outcome of one inference.
//
// Postcondition: Amount == sum(Rolls).
type Result struct {
	Amount int
	Type   string
	Rolls  []int
}

// Inferrer scans narration for damage keywords and rolls an amount.
//
// Inferrer is safe for concurrent use when its Source is.
type Inferrer struct {
	table        Table
	intensifiers []string
	src          dice.Source
}

// NewInferrer builds an Inferrer. A nil table or intensifier list selects the defaults.
//
// Precondition: src must be non-nil. The table, if given, must contain DefaultType
// and every Kind must satisfy 0 < Min <= Max.
func NewInferrer(table Table, intensifiers []string, src dice.Source) *Inferrer {
	if table == nil {
		table = DefaultTable()
	}
	if intensifiers == nil {
		intensifiers = DefaultIntensifiers()
	}
	return &Inferrer{table: table, intensifiers: intensifiers, src: src}
}

// Infer classifies text and rolls damage for it. It never fails: unknown text
// yields the DefaultType range.
//
// Postcondition: kind.Min <= Amount <= kind.Max with no intensifier present;
// 2*kind.Min <= Amount <= 2*kind.Max otherwise.
func (in *Inferrer) Infer(text string) Result {
	lower := strings.ToLower(text)

	kind, ok := in.table.Lookup(DefaultType)
	if !ok {
		kind = Kind{Name: DefaultType, Min: 6, Max: 12}
	}
	for _, k := range in.table {
		if strings.Contains(lower, k.Name) {
			kind = k
			break
		}
	}

	rolls := []int{dice.Between(in.src, kind.Min, kind.Max)}
	for _, w := range in.intensifiers {
		if strings.Contains(lower, w) {
			rolls = append(rolls, dice.Between(in.src, kind.Min, kind.Max))
			break
		}
	}

	total := 0
	for _, r := range rolls {
		total += r
	}
	return Result{Amount: total, Type: kind.Name, Rolls: rolls}
}

// Infer classifies text with the default vocabulary and rolls from src.
func Infer(text string, src dice.Source) Result {
	return NewInferrer(nil, nil, src).Infer(text)
}
