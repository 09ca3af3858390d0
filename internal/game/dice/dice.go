// Package dice is the randomness layer under combat outcomes, loot rolls,
// and the Lua dice module: injectable sources, parsed dice expressions, and
// auditable roll results.
package dice

import "fmt"

// Source is the randomness provider for every roll.
//
// Implementations MUST be safe for concurrent use. Replays depend on callers
// injecting a seeded Source rather than a global generator.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollResult records one evaluated expression.
type RollResult struct {
	Expression string
	// Dice are the individual faces, before the modifier.
	Dice     []int
	Modifier int
}

// Sum is the total of the dice alone.
func (r RollResult) Sum() int {
	sum := 0
	for _, d := range r.Dice {
		sum += d
	}
	return sum
}

// Total is Sum plus the modifier.
func (r RollResult) Total() int { return r.Sum() + r.Modifier }

// String renders the roll for combat logs, e.g. "2d6+3: [4 5] +3 = 12".
func (r RollResult) String() string {
	expr := r.Expression
	if expr == "" {
		expr = "?"
	}
	return fmt.Sprintf("%s: %v %+d = %d", expr, r.Dice, r.Modifier, r.Total())
}

// Roll evaluates e against src.
//
// Precondition: e must come from Parse; src must not be nil.
// Postcondition: len(result.Dice) == e.Count.
func (e Expression) Roll(src Source) RollResult {
	faces := make([]int, e.Count)
	for i := range faces {
		faces[i] = 1 + src.Intn(e.Sides)
	}
	return RollResult{Expression: e.Raw, Dice: faces, Modifier: e.Modifier}
}

// RollExpr parses expr and rolls it against src.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return e.Roll(src), nil
}
