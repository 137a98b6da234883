// Package stats resolves a character's effective combat statistics from
// class curves, equipped gear, and account passives. Resolution is pure:
// the same inputs always produce the same output and nothing is mutated.
package stats

import (
	"math"

	"github.com/ravenfell/server/internal/game/inventory"
	"github.com/ravenfell/server/internal/game/passive"
	"github.com/ravenfell/server/internal/game/ruleset"
)

// Base holds curve-derived attributes before equipment or passives.
type Base struct {
	Strength     int
	Dexterity    int
	Constitution int
	Intelligence int
	Wisdom       int
	MaxHP        int
}

// Final is the fully resolved stat block used by the combat engine.
// Crit, Dodge, and Block are percentages.
type Final struct {
	Attack  int
	Defense int
	Magic   int
	Agility int
	MaxHP   int
	Crit    float64
	Dodge   float64
	Block   float64
}

// Derived-stat scaling and caps.
const (
	critPerDexterity     = 0.5
	dodgePerDexterity    = 0.3
	blockPerConstitution = 0.2

	critCap  = 100.0
	dodgeCap = 75.0
	blockCap = 50.0
)

// BaseStats returns the curve-derived attributes for a class at a level.
// Each value is floor(starting + perLevel * (level-1)): fractional growth
// accumulates across levels and is floored only at read time. A nil class
// falls back to 1 in every attribute and 100 max HP so a character whose
// class was removed from content stays playable.
//
// Precondition: level must be >= 1.
func BaseStats(class *ruleset.Class, level int) Base {
	if class == nil {
		return Base{Strength: 1, Dexterity: 1, Constitution: 1, Intelligence: 1, Wisdom: 1, MaxHP: 100}
	}
	grow := func(start int, per float64) int {
		return int(math.Floor(float64(start) + per*float64(level-1)))
	}
	return Base{
		Strength:     grow(class.Starting.Strength, class.PerLevel.Strength),
		Dexterity:    grow(class.Starting.Dexterity, class.PerLevel.Dexterity),
		Constitution: grow(class.Starting.Constitution, class.PerLevel.Constitution),
		Intelligence: grow(class.Starting.Intelligence, class.PerLevel.Intelligence),
		Wisdom:       grow(class.Starting.Wisdom, class.PerLevel.Wisdom),
		MaxHP:        grow(class.Starting.MaxHP, class.PerLevel.MaxHP),
	}
}

// Resolve folds base attributes, equipment bonuses, and passive bonuses
// into a Final stat block.
//
// Postcondition: Crit is in [0, 100], Dodge in [0, 75], Block in [0, 50].
func Resolve(base Base, equip inventory.StatBonuses, passives passive.Bonuses) Final {
	str := base.Strength + passives.Flat.Strength
	dex := base.Dexterity + passives.Flat.Dexterity
	con := base.Constitution + passives.Flat.Constitution
	intl := base.Intelligence + passives.Flat.Intelligence

	return Final{
		Attack:  str + equip.Attack,
		Defense: con + equip.Defense,
		Magic:   intl + equip.Magic,
		Agility: dex + equip.Agility,
		MaxHP:   base.MaxHP + passives.Flat.MaxHP + equip.MaxHP,
		Crit:    clamp(float64(dex)*critPerDexterity+equip.Crit+passives.Crit, critCap),
		Dodge:   clamp(float64(dex)*dodgePerDexterity+equip.Dodge+passives.Dodge, dodgeCap),
		Block:   clamp(float64(con)*blockPerConstitution+equip.Block+passives.Block, blockCap),
	}
}

func clamp(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
