// Package narration holds the text classifiers applied to narrator replies
// and player input: roll-request detection, damage detection, target
// resolution, and roll-submission parsing.
//
// Every function here is total: unparseable input yields a zero value,
// never an error.
package narration

import (
	"strconv"
	"strings"
	"unicode"
)

// DefaultRollIndicators are phrases that mark a genuine request for a check.
var DefaultRollIndicators = []string{
	"roll a d20",
	"make a check",
	"ability check",
	"skill check",
	"saving throw",
	"roll for initiative",
	"attack roll",
	"dc ",
	"difficulty class",
	"make a strength check",
	"make a dexterity check",
	"make a constitution check",
	"make a intelligence check",
	"make an intelligence check",
	"make a wisdom check",
	"make a charisma check",
}

// DefaultCasualPhrases are everyday uses of "roll" that never request a check.
var DefaultCasualPhrases = []string{
	"ready to roll",
	"roll with it",
	"on a roll",
	"let's roll",
	"roll out",
	"roll along",
}

// DamageIndicators are the words whose presence in a reply triggers damage
// inference.
var DamageIndicators = []string{
	"hits", "strikes", "blast", "attack hits", "slashes",
	"pierces", "smashes", "wounds", "damage",
}

// RollClassifier decides whether narration asks the player for a dice roll.
type RollClassifier struct {
	Indicators []string
	Casual     []string
}

// DefaultRollClassifier returns a classifier with the built-in vocabularies.
func DefaultRollClassifier() RollClassifier {
	return RollClassifier{Indicators: DefaultRollIndicators, Casual: DefaultCasualPhrases}
}

// NeedsRoll reports whether text requests a check. A question mark or any
// casual phrase rules a roll out before the indicators are consulted.
func (c RollClassifier) NeedsRoll(text string) bool {
	if strings.Contains(text, "?") {
		return false
	}
	lower := strings.ToLower(text)
	if containsAny(lower, c.Casual) {
		return false
	}
	return containsAny(lower, c.Indicators)
}

// NeedsRoll classifies text with the default vocabularies.
func NeedsRoll(text string) bool {
	return DefaultRollClassifier().NeedsRoll(text)
}

// IndicatesDamage reports whether text contains any damage indicator,
// case-insensitively.
func IndicatesDamage(text string) bool {
	return containsAny(strings.ToLower(text), DamageIndicators)
}

// ResolveTarget returns the party member a damaging reply is aimed at. The
// player wins when the reply says "hits {player}", "strikes {player}", or
// addresses them in the second person; otherwise the first NPC (in the given
// order) named in the reply is chosen. An empty result means no target.
func ResolveTarget(text, player string, npcs []string) string {
	lower := strings.ToLower(text)
	if player != "" {
		p := strings.ToLower(player)
		phrases := []string{"hits " + p, "strikes " + p, "hitting you", "strikes you", "hits you"}
		if containsAny(lower, phrases) {
			return player
		}
	}
	for _, n := range npcs {
		if n != "" && strings.Contains(lower, strings.ToLower(n)) {
			return n
		}
	}
	return ""
}

// IsRollSubmission reports whether a player action reports a roll result.
func IsRollSubmission(action string) bool {
	return strings.Contains(strings.ToLower(action), "rolled a")
}

// FirstInt returns the first run of decimal digits in text, or 0 when none
// is present.
func FirstInt(text string) int {
	n, _ := firstInt(text)
	return n
}

func firstInt(text string) (int, bool) {
	start := strings.IndexFunc(text, unicode.IsDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(text[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ExtractDC returns the difficulty class stated after the first "DC" marker
// in text. Only the first word after the marker is inspected; ok is false
// when there is no marker or that word carries no digits.
func ExtractDC(text string) (dc int, ok bool) {
	i := strings.Index(text, "DC")
	if i < 0 {
		return 0, false
	}
	fields := strings.Fields(text[i+2:])
	if len(fields) == 0 {
		return 0, false
	}
	var digits strings.Builder
	for _, r := range fields[0] {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

// StripEmphasis removes every `*` from text.
func StripEmphasis(text string) string {
	return strings.ReplaceAll(text, "*", "")
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
