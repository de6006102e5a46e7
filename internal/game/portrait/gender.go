// Package portrait builds image prompts for character portraits and scenes.
// It infers presented gender and physical features from sheet text and
// hands the prompt to an ImageGenerator.
package portrait

import (
	"strings"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
)

// Gender values produced by InferGender.
const (
	Female = "female"
	Male   = "male"
)

// Indicator is a weighted substring.
type Indicator struct {
	Word   string
	Weight int
}

// FemaleIndicators and MaleIndicators are matched as plain substrings of the
// lowercased backstory, so "her" also counts inside "hers" and "herself".
var (
	FemaleIndicators = []Indicator{
		{"her", 2}, {"hers", 2}, {"herself", 2},
		{"female", 3}, {"woman", 3}, {"girl", 2},
		{"priestess", 3}, {"actress", 3}, {"queen", 3},
	}
	MaleIndicators = []Indicator{
		{"his", 2}, {"him", 2}, {"himself", 2},
		{"male", 3}, {"boy", 2},
	}
)

// Profile is the subset of a character that drives portrait prompts.
type Profile struct {
	Name      string
	Race      string
	Class     string
	Backstory string
	Equipment []string
}

// ProfileFromSheet extracts a profile from a structured sheet.
func ProfileFromSheet(s character.Sheet) Profile {
	return Profile{
		Name:      s.Name,
		Race:      s.Race,
		Class:     s.Class,
		Backstory: s.Backstory,
		Equipment: append([]string(nil), s.Equipment...),
	}
}

// ProfileFromText extracts a profile from a sheet block, joining backstory
// continuation lines.
func ProfileFromText(text string) Profile {
	sections := character.ParseSections(text)
	p := Profile{
		Name:      sections["Name"],
		Race:      sections["Race"],
		Class:     sections["Class"],
		Backstory: sections["Backstory"],
	}
	if eq := sections["Equipment"]; eq != "" {
		for _, item := range strings.Split(eq, ", ") {
			p.Equipment = append(p.Equipment, item)
		}
	}
	return p
}

// Score returns the weighted substring count of indicators in text.
func Score(text string, indicators []Indicator) int {
	lower := strings.ToLower(text)
	total := 0
	for _, ind := range indicators {
		total += strings.Count(lower, ind.Word) * ind.Weight
	}
	return total
}

// InferGender scores the backstory against both indicator sets. A tie falls
// back to the name: names ending in "a", "ia", or "ra" are read as female.
func InferGender(p Profile) string {
	f := Score(p.Backstory, FemaleIndicators)
	m := Score(p.Backstory, MaleIndicators)
	switch {
	case f > m:
		return Female
	case m > f:
		return Male
	}
	name := strings.TrimSpace(p.Name)
	for _, suffix := range []string{"a", "ia", "ra"} {
		if strings.HasSuffix(name, suffix) {
			return Female
		}
	}
	return Male
}

// Features returns the physical descriptors mentioned in a backstory.
func Features(backstory string) []string {
	var out []string
	if strings.Contains(backstory, "scales") {
		out = append(out, "vibrant scales")
	}
	if strings.Contains(backstory, "skin") {
		out = append(out, "unique skin color")
	}
	return out
}
