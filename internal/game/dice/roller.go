package dice

import "slices"

// Roll evaluates expr with src. Dice discarded by a keep rule are reported
// in Dropped; kept dice stay in roll order.
//
// Precondition: expr came from Parse; src is non-nil.
// Postcondition: len(Dice)+len(Dropped) == expr.Count.
func Roll(expr Expression, src Source) (RollResult, error) {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	res := RollResult{Expression: expr.Raw, Modifier: expr.Modifier}

	keep := expr.Count
	switch {
	case expr.KeepHighest > 0:
		keep = expr.KeepHighest
	case expr.KeepLowest > 0:
		keep = expr.KeepLowest
	}
	if keep == expr.Count {
		res.Dice = rolled
		return res, nil
	}

	order := make([]int, len(rolled))
	for i := range order {
		order[i] = i
	}
	// Stable so ties keep the earlier die.
	slices.SortStableFunc(order, func(a, b int) int {
		if expr.KeepLowest > 0 {
			return rolled[a] - rolled[b]
		}
		return rolled[b] - rolled[a]
	})
	kept := make([]bool, len(rolled))
	for _, i := range order[:keep] {
		kept[i] = true
	}
	for i, v := range rolled {
		if kept[i] {
			res.Dice = append(res.Dice, v)
		} else {
			res.Dropped = append(res.Dropped, v)
		}
	}
	return res, nil
}

// RollExpr parses expr and rolls it with src.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src)
}

// MustParse parses expr and panics on error.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse(" + expr + "): " + err.Error())
	}
	return e
}
