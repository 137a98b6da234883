package combat

import (
	"math"

	"github.com/ravenfell/server/internal/game/dice"
)

// Damage model constants.
const (
	defenseFactor  = 0.5
	damageVariance = 0.2
	critMultiplier = 1.5

	// Baseline crit chance by actor, in percent, before stat bonuses.
	playerCritBaseline  = 10.0
	monsterCritBaseline = 5.0
)

// attackProfile is the attacker's effective numbers for one strike.
type attackProfile struct {
	attack     int
	critChance float64 // percent, before clamping
	critMult   float64
}

// defenseProfile is the defender's effective numbers for one strike.
type defenseProfile struct {
	defense float64
	dodge   float64 // percent
	block   float64 // percent
}

// strikeResult is one resolved hit.
type strikeResult struct {
	damage  int
	crit    bool
	dodged  bool
	blocked bool
}

// rollStrike resolves a single attack. Draw order is fixed (dodge, block,
// variance, crit) so a scripted source can steer every branch.
//
// Postcondition: damage >= 1 unless dodged, in which case damage == 0.
func (s *Session) rollStrike(atk attackProfile, def defenseProfile, flatBonus int) strikeResult {
	if dice.Chance(s.src, clampPct(def.dodge, 100)) {
		return strikeResult{dodged: true}
	}
	blocked := dice.Chance(s.src, clampPct(def.block, 100))

	base := float64(atk.attack+flatBonus) - def.defense*defenseFactor
	if base < 1 {
		base = 1
	}

	variance := 1.0
	if !s.noVariance {
		variance = dice.Variance(s.src, damageVariance)
	}
	crit := dice.Chance(s.src, clampPct(atk.critChance, 100))

	total := base * variance
	if crit {
		total *= atk.critMult
	}
	damage := int(math.Round(total))
	if damage < 1 {
		damage = 1
	}
	if blocked {
		damage /= 2
		if damage < 1 {
			damage = 1
		}
	}
	return strikeResult{damage: damage, crit: crit, blocked: blocked}
}

// playerAttackProfile folds status-effect modifiers into the player's
// resolved stats for this strike.
func (s *Session) playerAttackProfile(scaling string) attackProfile {
	atk := s.pstats.Attack + s.playerEffects.Modifier("attack")
	if scaling == "magic" {
		atk = s.pstats.Magic + s.playerEffects.Modifier("magic")
	}
	return attackProfile{
		attack:     atk,
		critChance: playerCritBaseline + s.pstats.Crit + float64(s.playerEffects.Modifier("crit")),
		critMult:   critMultiplier + s.critDamageBonus/100,
	}
}

func (s *Session) playerDefenseProfile() defenseProfile {
	return defenseProfile{
		defense: float64(s.pstats.Defense + s.playerEffects.Modifier("defense")),
		dodge:   s.pstats.Dodge + float64(s.playerEffects.Modifier("dodge")),
		block:   s.pstats.Block + float64(s.playerEffects.Modifier("block")),
	}
}

func (s *Session) monsterAttackProfile() attackProfile {
	return attackProfile{
		attack:     s.mon.Attack + s.monsterEffects.Modifier("attack"),
		critChance: monsterCritBaseline + float64(s.monsterEffects.Modifier("crit")),
		critMult:   critMultiplier,
	}
}

// monsterDefenseProfile: monsters have no innate dodge or block; only
// status effects grant them any.
func (s *Session) monsterDefenseProfile() defenseProfile {
	return defenseProfile{
		defense: float64(s.mon.Defense + s.monsterEffects.Modifier("defense")),
		dodge:   float64(s.monsterEffects.Modifier("dodge")),
		block:   float64(s.monsterEffects.Modifier("block")),
	}
}

func clampPct(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
