package passive

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInsufficientResources is returned when an upgrade costs more souls
	// or legacy points than the account holds.
	ErrInsufficientResources = errors.New("insufficient souls or legacy points")
	// ErrMaxLevel is returned when the passive is already at its level cap.
	ErrMaxLevel = errors.New("passive already at max level")
	// ErrUnknownPassive is returned when the passive ID is not registered.
	ErrUnknownPassive = errors.New("unknown passive")
)

// Cost is the price of one passive level.
type Cost struct {
	Souls  int
	Legacy int
}

// UpgradeCost returns the price of buying the next level of def given the
// current purchased level. Soul cost rises by 2 for every 10 levels owned;
// every 5th level additionally costs 1 legacy point.
//
// Precondition: def must not be nil; currentLevel must be >= 0.
func UpgradeCost(def *Definition, currentLevel int) Cost {
	c := Cost{Souls: def.BaseCost + (currentLevel/10)*2}
	if (currentLevel+1)%5 == 0 {
		c.Legacy = 1
	}
	return c
}

// Spend purchases one level of the passive with the given ID, debiting the
// account balances and recording lifetime spend for respec refunds.
//
// Postcondition: on error, prog is unchanged.
func Spend(prog *Progress, reg *Registry, id string) error {
	def, ok := reg.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPassive, id)
	}
	lvl := prog.Level(id)
	if def.MaxLevel > 0 && lvl >= def.MaxLevel {
		return fmt.Errorf("%w: %q at level %d", ErrMaxLevel, id, lvl)
	}
	cost := UpgradeCost(def, lvl)
	if prog.Souls < cost.Souls || prog.LegacyPoints < cost.Legacy {
		return fmt.Errorf("%w: %q needs %d souls and %d legacy", ErrInsufficientResources, id, cost.Souls, cost.Legacy)
	}
	prog.Souls -= cost.Souls
	prog.LegacyPoints -= cost.Legacy
	prog.SoulsSpent += cost.Souls
	prog.LegacySpent += cost.Legacy
	prog.Levels[id] = lvl + 1
	return nil
}

// Respec resets every passive to level 0, refunding a fraction of lifetime
// soul spend (floored) and all legacy points ever spent.
//
// Precondition: refundPct must be in [0, 1].
func Respec(prog *Progress, refundPct float64) {
	prog.Souls += int(math.Floor(float64(prog.SoulsSpent) * refundPct))
	prog.LegacyPoints += prog.LegacySpent
	prog.SoulsSpent = 0
	prog.LegacySpent = 0
	prog.Levels = make(map[string]int)
}

// FlatBonuses holds flat stat additions from purchased passives.
type FlatBonuses struct {
	Strength     int
	Dexterity    int
	Constitution int
	Intelligence int
	Wisdom       int
	MaxHP        int
}

// Bonuses is the aggregate effect of an account's purchased passives.
// Multipliers start at 1.0 and combat chances at 0 so a fresh account is a
// no-op during stat resolution.
type Bonuses struct {
	Flat       FlatBonuses
	XPMult     float64
	GoldMult   float64
	Crit       float64
	Dodge      float64
	Block      float64
	CritDamage float64
}

// Aggregate folds every purchased passive level into a Bonuses value.
// Passive IDs missing from the registry are skipped; stale progress rows
// must not break resolution.
func Aggregate(prog *Progress, reg *Registry) Bonuses {
	b := Bonuses{XPMult: 1.0, GoldMult: 1.0}
	if prog == nil {
		return b
	}
	for id, lvl := range prog.Levels {
		if lvl <= 0 {
			continue
		}
		def, ok := reg.Get(id)
		if !ok {
			continue
		}
		amount := def.PerLevel * float64(lvl)
		switch def.Bucket {
		case BucketFlat:
			flat := int(amount)
			switch def.Target {
			case "strength":
				b.Flat.Strength += flat
			case "dexterity":
				b.Flat.Dexterity += flat
			case "constitution":
				b.Flat.Constitution += flat
			case "intelligence":
				b.Flat.Intelligence += flat
			case "wisdom":
				b.Flat.Wisdom += flat
			case "max_hp":
				b.Flat.MaxHP += flat
			}
		case BucketMultiplier:
			switch def.Target {
			case "xp":
				b.XPMult += amount
			case "gold":
				b.GoldMult += amount
			}
		case BucketCombat:
			switch def.Target {
			case "crit":
				b.Crit += amount
			case "dodge":
				b.Dodge += amount
			case "block":
				b.Block += amount
			case "crit_damage":
				b.CritDamage += amount
			}
		}
	}
	return b
}
