package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Expression is a parsed dice expression ready to be rolled.
//
// Invariant after Parse: 1 <= Count <= MaxCount, 2 <= Sides <= MaxSides, at most one of KeepHighest
// and KeepLowest is set and it is in [1, Count).
type Expression struct {
	Raw         string
	Count       int
	Sides       int
	Modifier    int
	KeepHighest int
	KeepLowest  int
}

// Limits on a single expression.
const (
	MaxCount = 1000
	MaxSides = 1000
)

// Shorthands name common checks. Advantage and disadvantage roll two d20s
// and keep one.
var Shorthands = map[string]string{
	"adv":          "2d20kh1",
	"advantage":    "2d20kh1",
	"dis":          "2d20kl1",
	"disadvantage": "2d20kl1",
}

// exprPattern is [count]d<sides>[kh<n>|kl<n>][+|-<mod>].
var exprPattern = regexp.MustCompile(`^(\d*)d(\d+)(?:(kh|kl)(\d+))?([+-]\d+)?$`)

// Parse parses forms such as "d20", "2d6+3", "4d8-2", "4d6kh3", "2d20kl1",
// and the Shorthands. Case and surrounding space are ignored.
//
// Postcondition: returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	if full, ok := Shorthands[s]; ok {
		s = full
	}
	m := exprPattern.FindStringSubmatch(strings.ReplaceAll(s, " ", ""))
	if m == nil {
		return Expression{}, fmt.Errorf("dice: malformed expression %q", expr)
	}

	e := Expression{Raw: expr, Count: 1}
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > MaxCount {
			return Expression{}, fmt.Errorf("dice: die count in %q must be in [1, %d]", expr, MaxCount)
		}
		e.Count = n
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 2 || sides > MaxSides {
		return Expression{}, fmt.Errorf("dice: die sides in %q must be in [2, %d]", expr, MaxSides)
	}
	e.Sides = sides

	if m[3] != "" {
		keep, err := strconv.Atoi(m[4])
		if err != nil || keep < 1 || keep >= e.Count {
			return Expression{}, fmt.Errorf("dice: %s%s in %q must keep between 1 and %d dice",
				m[3], m[4], expr, e.Count-1)
		}
		if m[3] == "kh" {
			e.KeepHighest = keep
		} else {
			e.KeepLowest = keep
		}
	}
	if m[5] != "" {
		mod, err := strconv.Atoi(m[5])
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", expr, err)
		}
		e.Modifier = mod
	}
	return e, nil
}
