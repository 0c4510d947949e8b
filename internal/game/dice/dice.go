// Package dice provides the randomness abstraction and roll types used by
// combat resolution, status effects and the AI.
package dice

import "fmt"

// Source is the randomness provider for the engine.
//
// The engine is single-threaded; implementations need not be safe for
// concurrent use unless shared across simulations.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollResult holds the audit trail for a single dice expression roll.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns an audit string such as "2d4+1 → [3 2] +1 = 6".
func (r RollResult) String() string {
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Pool rolls count independent dice with the given number of sides.
//
// Precondition: sides >= 2.
// Postcondition: len(result) == max(count, 0); every value is in [1, sides].
func Pool(src Source, count, sides int) []int {
	if count <= 0 {
		return []int{}
	}
	out := make([]int, count)
	for i := range out {
		out[i] = src.Intn(sides) + 1
	}
	return out
}

// Chance reports whether a uniformly drawn value falls under p, with p in [0, 1].
// p <= 0 never succeeds and p >= 1 always succeeds without consuming randomness.
func Chance(src Source, p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	}
	const resolution = 1_000_000
	return float64(src.Intn(resolution)) < p*resolution
}

// Shuffle permutes s in place using a Fisher-Yates shuffle driven by src.
func Shuffle[T any](src Source, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
