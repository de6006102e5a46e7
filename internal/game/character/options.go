package character

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Creation-time option sets. The codec and party store accept any value;
// only character creation validates against these.
var (
	Races = []string{
		"Human", "Elf", "Dwarf", "Halfling", "Gnome",
		"Half-Elf", "Half-Orc", "Dragonborn", "Tiefling",
	}
	Classes = []string{
		"Fighter", "Wizard", "Rogue", "Cleric", "Paladin", "Ranger",
		"Barbarian", "Bard", "Druid", "Monk", "Sorcerer", "Warlock",
	}
	Alignments = []string{
		"Lawful Good", "Neutral Good", "Chaotic Good",
		"Lawful Neutral", "True Neutral", "Chaotic Neutral",
		"Lawful Evil", "Neutral Evil", "Chaotic Evil",
	}
	Backgrounds = []string{
		"Acolyte", "Criminal", "Folk Hero", "Noble", "Sage",
		"Soldier", "Merchant", "Entertainer", "Hermit", "Sailor",
	}
)

// ErrInvalidOption is wrapped by ValidateOptions for each rejected field.
var ErrInvalidOption = errors.New("invalid character option")

// ValidateOptions checks a sheet built by the creation flow against the
// option sets and reports every violation.
//
// Precondition: s has been normalized.
func ValidateOptions(s Sheet) error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, fmt.Errorf("%w: name must not be empty", ErrInvalidOption))
	}
	check := func(field, value string, allowed []string) {
		if !slices.Contains(allowed, value) {
			errs = append(errs, fmt.Errorf("%w: %s %q (allowed: %s)",
				ErrInvalidOption, field, value, strings.Join(allowed, ", ")))
		}
	}
	check("race", s.Race, Races)
	check("class", s.Class, Classes)
	check("alignment", s.Alignment, Alignments)
	check("background", s.Background, Backgrounds)
	for _, k := range AbilityKeys {
		if v := s.Abilities.Get(k); v < 1 || v > 30 {
			errs = append(errs, fmt.Errorf("%w: %s must be in [1, 30], got %d", ErrInvalidOption, k, v))
		}
	}
	return errors.Join(errs...)
}

// fileNamer maps characters that are unsafe in a single path element.
var fileNamer = strings.NewReplacer(" ", "_", "/", "-", "\\", "-")

// Filename returns the document name for a character: the name lowercased
// with spaces replaced by underscores and path separators by dashes, plus
// ".yaml". The result never names another directory.
func Filename(name string) string {
	return fileNamer.Replace(strings.ToLower(strings.TrimSpace(name))) + ".yaml"
}
