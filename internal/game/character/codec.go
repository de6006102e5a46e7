package character

import (
	"fmt"
	"strconv"
	"strings"
)

// RequiredFields lists the markers a generated sheet block must contain to be
// accepted without falling back to the template.
var RequiredFields = []string{
	"Name:", "Race:", "Class:", "Level:", "Ability Scores:", "HP:", "AC:",
	"Background:", "Alignment:", "Personality:", "Equipment:", "Backstory:",
}

// headers maps lowercase sheet-block keys to their canonical spelling.
var headers = map[string]string{
	"name":           "Name",
	"race":           "Race",
	"class":          "Class",
	"level":          "Level",
	"background":     "Background",
	"alignment":      "Alignment",
	"ability scores": "Ability Scores",
	"str":            "STR",
	"dex":            "DEX",
	"con":            "CON",
	"int":            "INT",
	"wis":            "WIS",
	"cha":            "CHA",
	"hp":             "HP",
	"ac":             "AC",
	"personality":    "Personality",
	"equipment":      "Equipment",
	"backstory":      "Backstory",
}

// splitHeader reports whether line is a recognised `Key: value` header and
// returns the canonical key and the trimmed value.
func splitHeader(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return "", "", false
	}
	key, ok = headers[strings.ToLower(strings.TrimSpace(line[:i]))]
	if !ok {
		return "", "", false
	}
	return key, strings.TrimSpace(line[i+1:]), true
}

// HeaderKey returns the canonical key of a sheet-block header line, matched
// case-insensitively after emphasis and surrounding space are removed.
func HeaderKey(line string) (string, bool) {
	key, _, ok := splitHeader(strings.TrimSpace(StripEmphasis(line)))
	return key, ok
}

// LeadingInt extracts the integer at the start of s, ignoring leading
// whitespace and anything after the digits.
func LeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// StripEmphasis removes every `*` from s.
func StripEmphasis(s string) string {
	return strings.ReplaceAll(s, "*", "")
}

// Encode renders s as a sheet block.
//
// Postcondition: the result contains no `*` characters.
func Encode(s Sheet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", s.Name)
	fmt.Fprintf(&b, "Race: %s\n", s.Race)
	fmt.Fprintf(&b, "Class: %s\n", s.Class)
	fmt.Fprintf(&b, "Background: %s\n", s.Background)
	fmt.Fprintf(&b, "Alignment: %s\n", s.Alignment)
	b.WriteString("\nAbility Scores:\n")
	for _, k := range AbilityKeys {
		fmt.Fprintf(&b, "%s: %d\n", k, s.Abilities.Get(k))
	}
	fmt.Fprintf(&b, "\nHP: %d\n", s.HP)
	fmt.Fprintf(&b, "AC: %d\n", s.AC)
	fmt.Fprintf(&b, "\nPersonality: %s\n", s.Personality)
	b.WriteString("\nEquipment:\n")
	items := s.Equipment
	if len(items) == 0 {
		items = Equipment{DefaultItem}
	}
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	fmt.Fprintf(&b, "\nBackstory: %s", s.Backstory)
	return StripEmphasis(b.String())
}

// Decode scans a sheet block and overlays every recognised field onto
// defaults. Unparseable numeric values leave the default in place.
//
// Postcondition: MaxHP >= HP whenever an HP line was decoded.
func Decode(text string, defaults Sheet) Sheet {
	s := defaults
	s.Equipment = append(Equipment(nil), defaults.Equipment...)

	var (
		items     Equipment
		sawEquip  bool
		inEquip   bool
		continued *string
	)
	for _, raw := range strings.Split(StripEmphasis(text), "\n") {
		line := strings.TrimSpace(raw)
		if inEquip {
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "- ") {
				items = append(items, strings.TrimSpace(line[2:]))
				continue
			}
			inEquip = false
		}
		key, val, ok := splitHeader(line)
		if !ok {
			if line == "" {
				continued = nil
			} else if continued != nil {
				*continued += "\n" + line
			}
			continue
		}
		continued = nil
		switch key {
		case "Name":
			if val != "" {
				s.Name = val
			}
		case "Race":
			if val != "" {
				s.Race = val
			}
		case "Class":
			if val != "" {
				s.Class = val
			}
		case "Background":
			if val != "" {
				s.Background = val
			}
		case "Alignment":
			if val != "" {
				s.Alignment = val
			}
		case "Level":
			if n, ok := LeadingInt(val); ok {
				s.Level = n
			}
		case "STR", "DEX", "CON", "INT", "WIS", "CHA":
			if n, ok := LeadingInt(val); ok {
				s.Abilities.Set(key, n)
			}
		case "HP":
			if n, ok := LeadingInt(val); ok {
				s.HP = n
				if s.MaxHP < n {
					s.MaxHP = n
				}
			}
		case "AC":
			if n, ok := LeadingInt(val); ok {
				s.AC = n
			}
		case "Personality":
			s.Personality = val
			continued = &s.Personality
		case "Backstory":
			s.Backstory = val
			continued = &s.Backstory
		case "Equipment":
			sawEquip = true
			inEquip = true
			if val != "" {
				items = append(items, val)
			}
		}
	}
	if sawEquip && len(items) > 0 {
		s.Equipment = items
	}
	return s
}

// ParseSections returns every recognised header of a sheet block keyed by its
// canonical name. Continuation lines are joined to the preceding value with a
// space. Equipment bullets are joined with ", ".
func ParseSections(text string) map[string]string {
	out := make(map[string]string)
	current := ""
	for _, raw := range strings.Split(StripEmphasis(text), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if key, val, ok := splitHeader(line); ok {
			current = key
			if _, seen := out[key]; !seen {
				out[key] = val
			}
			continue
		}
		if current == "" {
			continue
		}
		if current == "Equipment" && strings.HasPrefix(line, "- ") {
			line = strings.TrimSpace(line[2:])
			if out[current] != "" {
				out[current] += ", "
			}
			out[current] += line
			continue
		}
		if out[current] != "" {
			out[current] += " "
		}
		out[current] += line
	}
	return out
}

// hasHeader reports whether any line of text is the given header.
func hasHeader(text, key string) bool {
	for _, raw := range strings.Split(text, "\n") {
		if k, ok := HeaderKey(raw); ok && k == key {
			return true
		}
	}
	return false
}

// EnsureVitals appends default HP, AC, and Equipment sections to a sheet
// block that lacks them. Blocks that already carry all three are returned
// unchanged.
func EnsureVitals(text string) string {
	var missing []string
	if !hasHeader(text, "HP") {
		missing = append(missing, fmt.Sprintf("HP: %d", DefaultHP))
	}
	if !hasHeader(text, "AC") {
		missing = append(missing, fmt.Sprintf("AC: %d", DefaultAC))
	}
	if !hasHeader(text, "Equipment") {
		missing = append(missing, "Equipment:\n- "+DefaultItem)
	}
	if len(missing) == 0 {
		return text
	}
	return strings.TrimRight(text, "\n") + "\n" + strings.Join(missing, "\n")
}

// HasRequiredFields reports whether text contains every marker in
// RequiredFields.
func HasRequiredFields(text string) bool {
	clean := StripEmphasis(text)
	for _, f := range RequiredFields {
		if !strings.Contains(clean, f) {
			return false
		}
	}
	return true
}

// ExtractName returns the value of the first Name line, or "" when absent.
func ExtractName(text string) string {
	for _, raw := range strings.Split(StripEmphasis(text), "\n") {
		if k, v, ok := splitHeader(strings.TrimSpace(raw)); ok && k == "Name" {
			return v
		}
	}
	return ""
}

const fallbackTemplate = `Name: %s
Race: Human
Class: Fighter
Level: 5
Ability Scores:
STR: 10
DEX: 10
CON: 10
INT: 10
WIS: 10
CHA: 10
HP: 30
AC: 10
Background: Soldier
Alignment: Neutral Good
Personality: Reserved but loyal.
Equipment:
- Longsword
- Chain mail
- Basic adventuring gear
Backstory: A simple warrior seeking adventure.`

// Fallback returns the built-in sheet block used when generation fails.
//
// Postcondition: HasRequiredFields(Fallback(name)) is true.
func Fallback(name string) string {
	return fmt.Sprintf(fallbackTemplate, name)
}

// Summary renders a compact one-member description for narrator prompts.
func Summary(s Sheet) string {
	return fmt.Sprintf("- %s: %s %s (%s). Personality: %s. Equipment: %s. Backstory: %s",
		s.Name, s.Race, s.Class, s.Background,
		excerpt(s.Personality, 100),
		strings.Join(s.Equipment, ", "),
		excerpt(s.Backstory, 150))
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
