package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a parsed dice expression such as "2d4+1".
//
// Invariant: Count >= 0 and Sides >= 2 when Count > 0. A bare integer ("3")
// parses as Count == 0 with the value held in Modifier.
type Expression struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

// Parse parses "NdS", "NdS+M", "NdS-M", "dS" or a bare integer.
func Parse(expr string) (Expression, error) {
	raw := expr
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	dIdx := strings.IndexByte(s, 'd')
	if dIdx < 0 {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid constant %q: %w", raw, err)
		}
		return Expression{Raw: raw, Modifier: n}, nil
	}

	count := 1
	if dIdx > 0 {
		c, err := strconv.Atoi(s[:dIdx])
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", raw, err)
		}
		if c < 1 {
			return Expression{}, fmt.Errorf("dice: die count in %q must be >= 1", raw)
		}
		count = c
	}

	rest := s[dIdx+1:]
	modStr := ""
	if i := strings.IndexAny(rest, "+-"); i > 0 {
		rest, modStr = rest[:i], rest[i:]
	}

	sides, err := strconv.Atoi(rest)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", raw, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: die sides in %q must be >= 2", raw)
	}

	mod := 0
	if modStr != "" {
		if mod, err = strconv.Atoi(modStr); err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}
	return Expression{Raw: raw, Count: count, Sides: sides, Modifier: mod}, nil
}

// MustParse parses expr and panics on error. Intended for package-level values.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// Roll evaluates e with src.
//
// Postcondition: len(result.Dice) == e.Count.
func (e Expression) Roll(src Source) RollResult {
	var rolled []int
	if e.Count > 0 {
		rolled = Pool(src, e.Count, e.Sides)
	}
	return RollResult{Expression: e.Raw, Dice: rolled, Modifier: e.Modifier}
}

// Min returns the smallest possible total of e.
func (e Expression) Min() int { return e.Count + e.Modifier }

// Max returns the largest possible total of e.
func (e Expression) Max() int { return e.Count*e.Sides + e.Modifier }
