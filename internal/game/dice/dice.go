// Package dice provides the randomness abstraction behind damage inference,
// name picking, and explicit player rolls, plus a small dice expression
// language.
package dice

import (
	"fmt"
	"strings"
)

// RollResult is the audit trail of one evaluated expression.
//
// Postcondition: Total() == sum(Dice) + Modifier. Dropped never counts.
type RollResult struct {
	Expression string
	Dice       []int
	Dropped    []int
	Modifier   int
}

// Total returns the sum of the kept dice plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the roll for the console, e.g. "2d6+3 → [4 5] +3 = 12" or
// "2d20kh1 → [17] (dropped [6]) +0 = 17".
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String called without an expression")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s → %v", r.Expression, r.Dice)
	if len(r.Dropped) > 0 {
		fmt.Fprintf(&b, " (dropped %v)", r.Dropped)
	}
	fmt.Fprintf(&b, " %+d = %d", r.Modifier, r.Total())
	return b.String()
}

// Source is the randomness provider for every roll in the engine.
//
// Implementations must be safe for concurrent use.
type Source interface {
	// Intn returns a value in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
