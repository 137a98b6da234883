package combat

import (
	"errors"
	"fmt"

	"github.com/ravenfell/server/internal/game/dice"
	"github.com/ravenfell/server/internal/game/inventory"
)

// Flee chance bounds, in percent.
const (
	fleeBase   = 50.0
	fleePerAgi = 2.0
	fleeMin    = 30.0
	fleeMax    = 90.0
)

// globalSkillCooldown gates any skill use for one round after a skill.
const globalSkillCooldown = 1

// PlayerAttack performs the player's basic attack.
//
// Postcondition: on ErrInvalidTurn nothing changes: no HP, no log.
func (s *Session) PlayerAttack() (*ActionResult, error) {
	if err := s.requireTurn(SidePlayer); err != nil {
		return nil, err
	}
	res := &ActionResult{Success: true}
	s.resolvePlayerStrike(s.playerAttackProfile("attack"), 0, "attacks", res)
	if s.state.Terminal() {
		return res, nil
	}
	s.endTurn(SidePlayer, res)
	return res, nil
}

// PlayerSkill uses a class skill. Skills on cooldown (or gated by the
// global cooldown) fail softly with Success false; an ID the class does
// not have at all is an ErrUnknownSkill error.
func (s *Session) PlayerSkill(skillID string) (*ActionResult, error) {
	if err := s.requireTurn(SidePlayer); err != nil {
		return nil, err
	}
	if s.class == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, skillID)
	}
	skill := s.class.Skill(skillID)
	if skill == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, skillID)
	}

	if skill.UnlockLevel > s.char.Level {
		return &ActionResult{Message: fmt.Sprintf("%s unlocks at level %d", skill.Name, skill.UnlockLevel)}, nil
	}
	if s.char.GlobalCooldown > 0 {
		return &ActionResult{Message: "still recovering from the last skill"}, nil
	}
	if turns := s.char.SkillCooldowns[skillID]; turns > 0 {
		return &ActionResult{Message: fmt.Sprintf("%s is on cooldown for %d more turns", skill.Name, turns)}, nil
	}

	res := &ActionResult{Success: true}
	if skill.Damage != "" {
		roll := dice.MustParse(skill.Damage)
		bonus := dice.Roll(roll, s.src).Total()
		s.resolvePlayerStrike(s.playerAttackProfile(skill.Scaling), bonus, fmt.Sprintf("uses %s", skill.Name), res)
	} else {
		s.logf("%s uses %s.", s.char.Name, skill.Name)
	}

	if skill.Effect != nil && !s.state.Terminal() {
		target := SideMonster
		if skill.Effect.SelfTarget {
			target = SidePlayer
		}
		if name, ok := s.applyEffect(target, skill.Effect.EffectID, skill.Effect.Duration, skill.Effect.Magnitude); ok {
			res.EffectApplied = name
			s.logf("%s is affected by %s.", s.effectTargetName(target), name)
		}
	}

	s.char.SkillCooldowns[skillID] = skill.Cooldown
	s.char.GlobalCooldown = globalSkillCooldown

	if s.state.Terminal() {
		return res, nil
	}
	s.endTurn(SidePlayer, res)
	return res, nil
}

// PlayerUseItem consumes one unit of a consumable from the backpack and
// applies its status effect to the player. Using an item spends the turn.
func (s *Session) PlayerUseItem(itemDefID string) (*ActionResult, error) {
	if err := s.requireTurn(SidePlayer); err != nil {
		return nil, err
	}
	if s.items == nil {
		return &ActionResult{Message: "nothing happens"}, nil
	}
	def, ok := s.items.Item(itemDefID)
	if !ok || def.Consume == nil {
		return &ActionResult{Message: "that cannot be used in combat"}, nil
	}
	if err := s.char.Backpack.Consume(itemDefID, 1); err != nil {
		if errors.Is(err, inventory.ErrItemNotFound) {
			return &ActionResult{Message: fmt.Sprintf("no %s left", def.Name)}, nil
		}
		return nil, err
	}

	res := &ActionResult{Success: true}
	s.logf("%s uses a %s.", s.char.Name, def.Name)
	if name, applied := s.applyEffect(SidePlayer, def.Consume.EffectID, def.Consume.Duration, def.Consume.Magnitude); applied {
		res.EffectApplied = name
	}
	s.endTurn(SidePlayer, res)
	return res, nil
}

// PlayerFlee attempts to escape: chance = clamp(50 + (playerAgi −
// monsterAgi) × 2, 30, 90). Success ends the fight as FLED with no
// rewards and no penalty; failure hands the monster a free attack on top
// of its normal turn.
func (s *Session) PlayerFlee() (*ActionResult, error) {
	if err := s.requireTurn(SidePlayer); err != nil {
		return nil, err
	}

	pAgi := s.pstats.Agility + s.playerEffects.Modifier("agility")
	mAgi := s.mon.Agility + s.monsterEffects.Modifier("agility")
	chance := fleeBase + float64(pAgi-mAgi)*fleePerAgi
	if chance < fleeMin {
		chance = fleeMin
	}
	if chance > fleeMax {
		chance = fleeMax
	}

	res := &ActionResult{}
	if dice.Chance(s.src, chance) {
		s.state = StateFled
		s.playerEffects.Clear()
		s.monsterEffects.Clear()
		res.Success = true
		res.Fled = true
		s.logf("%s flees from the %s.", s.char.Name, s.mon.Name)
		return res, nil
	}

	s.logf("%s fails to escape!", s.char.Name)
	strike := s.rollStrike(s.monsterAttackProfile(), s.playerDefenseProfile(), 0)
	s.applyStrikeToPlayer(strike, "punishes the escape attempt", res)
	if s.state.Terminal() {
		return res, nil
	}
	s.endTurn(SidePlayer, res)
	return res, nil
}

// resolvePlayerStrike rolls a player attack, applies it to the monster,
// and handles a kill.
func (s *Session) resolvePlayerStrike(atk attackProfile, flatBonus int, verb string, res *ActionResult) {
	strike := s.rollStrike(atk, s.monsterDefenseProfile(), flatBonus)
	res.Damage = strike.damage
	res.Crit = strike.crit
	res.Dodged = strike.dodged
	res.Blocked = strike.blocked

	switch {
	case strike.dodged:
		s.logf("The %s dodges %s's attack.", s.mon.Name, s.char.Name)
		return
	case strike.crit:
		s.logf("%s %s the %s for %d damage. Critical hit!", s.char.Name, verb, s.mon.Name, strike.damage)
	case strike.blocked:
		s.logf("The %s blocks; %s deals %d damage.", s.mon.Name, s.char.Name, strike.damage)
	default:
		s.logf("%s %s the %s for %d damage.", s.char.Name, verb, s.mon.Name, strike.damage)
	}

	s.mon.ApplyDamage(strike.damage)
	if s.mon.IsDead() {
		s.finishVictory(res)
	}
}

func (s *Session) effectTargetName(side Side) string {
	if side == SidePlayer {
		return s.char.Name
	}
	return "the " + s.mon.Name
}
