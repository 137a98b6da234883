// Package dice provides the randomness abstraction for the Ravenfell rules
// engine. All combat variance, crit rolls, flee checks, and loot rolls draw
// from an injected Source so that every outcome is reproducible in tests.
package dice

import "fmt"

// Source is the randomness provider for all engine rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollResult holds the full audit trail for a single dice-expression roll.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d6+3"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] +3 = 12"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Chance performs a percentage check against src.
// pct is a percentage in [0, 100]; fractional percentages are honoured to
// two decimal places (crit chances like 11.5 are common).
//
// Precondition: src must be non-nil.
// Postcondition: Returns true with probability min(max(pct,0),100)/100.
func Chance(src Source, pct float64) bool {
	if pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	return float64(src.Intn(10000)) < pct*100
}

// Range returns a uniform random int in [min, max].
//
// Precondition: src must be non-nil; min <= max.
// Postcondition: min <= result <= max.
func Range(src Source, min, max int) int {
	if min > max {
		panic(fmt.Sprintf("dice: Range called with min %d > max %d", min, max))
	}
	if min == max {
		return min
	}
	return min + src.Intn(max-min+1)
}

// Variance returns a uniform multiplier in [1-spread, 1+spread], quantised
// to 1/1000 steps. spread 0.2 yields the engine's standard ±20% damage swing.
//
// Precondition: src must be non-nil; 0 <= spread < 1.
// Postcondition: 1-spread <= result <= 1+spread.
func Variance(src Source, spread float64) float64 {
	if spread <= 0 {
		return 1.0
	}
	steps := int(spread * 2000)
	return 1.0 - spread + float64(src.Intn(steps+1))/1000.0
}
