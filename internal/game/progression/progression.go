// Package progression implements the XP curve, level-ups, and the death
// and respawn rules, including hardcore permadeath.
package progression

import (
	"math"

	"github.com/ravenfell/server/internal/game/character"
	"github.com/ravenfell/server/internal/game/inventory"
	"github.com/ravenfell/server/internal/game/passive"
	"github.com/ravenfell/server/internal/game/ruleset"
	"github.com/ravenfell/server/internal/game/stats"
)

// DefaultLevelCap bounds character level when config supplies none.
const DefaultLevelCap = 50

// Death penalty fractions for non-hardcore characters.
const (
	deathGoldPenalty = 0.10
	deathXPPenalty   = 0.25
	respawnHPFrac    = 0.5
)

// Engine applies progression rules to characters. It resolves stats
// through the content registries so level-up heals land on the full
// equipped maximum.
type Engine struct {
	classes  *ruleset.Registry
	items    *inventory.Registry
	levelCap int
}

// NewEngine builds an Engine. A levelCap <= 0 falls back to DefaultLevelCap.
func NewEngine(classes *ruleset.Registry, items *inventory.Registry, levelCap int) *Engine {
	if levelCap <= 0 {
		levelCap = DefaultLevelCap
	}
	return &Engine{classes: classes, items: items, levelCap: levelCap}
}

// LevelCap returns the configured maximum character level.
func (e *Engine) LevelCap() int { return e.levelCap }

// XPToNext returns the XP needed to advance from level to level+1:
// floor(100 × level^1.5). Strictly increasing in level.
//
// Precondition: level must be >= 1.
func XPToNext(level int) int {
	return int(math.Floor(100 * math.Pow(float64(level), 1.5)))
}

// AddXPResult reports what a grant of XP did to the character.
type AddXPResult struct {
	// Success is false only when the character was already at the level cap.
	Success bool `json:"success"`
	// XPGained is the amount credited after the account XP multiplier.
	XPGained     int `json:"xpGained"`
	LevelsGained int `json:"levelsGained"`
	NewLevel     int `json:"newLevel"`
	// StatGains is the total base-attribute increase across all levels
	// gained, computed from the class curve so fractional growth lands
	// exactly where the curve says it does.
	StatGains         stats.Base `json:"statGains"`
	SkillPointsGained int        `json:"skillPointsGained"`
}

// AddXP credits XP to the character, applying the account XP multiplier,
// and processes any resulting level-ups: each level grants a skill point,
// curve-derived stat growth, and a full heal. A character at the level cap
// gains nothing and the result reports Success false. Granting zero XP is
// a no-op.
//
// Postcondition: c.Level <= the engine's level cap; c.XP >= 0.
func (e *Engine) AddXP(c *character.Character, passives passive.Bonuses, amount int) AddXPResult {
	if c.Level >= e.levelCap {
		return AddXPResult{Success: false, NewLevel: c.Level}
	}
	res := AddXPResult{Success: true, NewLevel: c.Level}
	if amount <= 0 {
		return res
	}

	mult := passives.XPMult
	if mult <= 0 {
		mult = 1
	}
	gained := int(math.Floor(float64(amount) * mult))
	res.XPGained = gained
	c.XP += gained

	class, _ := e.classes.Class(c.ClassID)
	before := stats.BaseStats(class, c.Level)

	for c.Level < e.levelCap && c.XP >= XPToNext(c.Level) {
		c.XP -= XPToNext(c.Level)
		c.Level++
		c.SkillPoints++
		res.LevelsGained++
		res.SkillPointsGained++

		final := stats.Resolve(stats.BaseStats(class, c.Level), c.Equipment.Bonuses(e.items), passives)
		c.HP = final.MaxHP
	}
	if c.Level >= e.levelCap {
		// XP past the cap is discarded; the bar stays empty at cap.
		c.XP = 0
	}

	if res.LevelsGained > 0 {
		after := stats.BaseStats(class, c.Level)
		res.StatGains = stats.Base{
			Strength:     after.Strength - before.Strength,
			Dexterity:    after.Dexterity - before.Dexterity,
			Constitution: after.Constitution - before.Constitution,
			Intelligence: after.Intelligence - before.Intelligence,
			Wisdom:       after.Wisdom - before.Wisdom,
			MaxHP:        after.MaxHP - before.MaxHP,
		}
	}
	res.NewLevel = c.Level
	return res
}

// DeathResult reports the consequences of a character death.
type DeathResult struct {
	// CharacterDeleted is true for hardcore deaths; the caller must remove
	// the character from storage.
	CharacterDeleted bool `json:"characterDeleted"`
	GoldLost         int  `json:"goldLost"`
	XPLost           int  `json:"xpLost"`
}

// HandleDeath applies death consequences. Normal characters lose 10% of
// their gold and 25% of current-level XP (both floored) and respawn in
// town at half HP. Hardcore characters are marked deleted; only the
// account's permanent progress survives them. Both paths record the death
// against the account.
//
// Precondition: c and prog must not be nil.
func (e *Engine) HandleDeath(c *character.Character, prog *passive.Progress, passives passive.Bonuses) DeathResult {
	prog.RecordDeath(c.Level)

	if c.Hardcore {
		return DeathResult{CharacterDeleted: true}
	}

	res := DeathResult{
		GoldLost: int(math.Floor(float64(c.Gold) * deathGoldPenalty)),
		XPLost:   int(math.Floor(float64(c.XP) * deathXPPenalty)),
	}
	c.Gold -= res.GoldLost
	c.XP -= res.XPLost
	e.Respawn(c, passives)
	return res
}

// Respawn places the character in town at half its maximum HP and clears
// combat-local state.
func (e *Engine) Respawn(c *character.Character, passives passive.Bonuses) {
	class, _ := e.classes.Class(c.ClassID)
	final := stats.Resolve(stats.BaseStats(class, c.Level), c.Equipment.Bonuses(e.items), passives)
	c.HP = int(math.Floor(float64(final.MaxHP) * respawnHPFrac))
	c.Location = character.TownLocation
	c.ClearCombatState()
}
