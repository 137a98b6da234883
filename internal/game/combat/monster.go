package combat

import (
	"fmt"

	"github.com/ravenfell/server/internal/game/dice"
	"github.com/ravenfell/server/internal/game/monster"
)

// MonsterTurn runs the monster's action. Selection is deterministic
// priority, not random: the first declared ability that is off cooldown,
// otherwise the basic attack. Ability cooldowns start when used.
func (s *Session) MonsterTurn() (*ActionResult, error) {
	if err := s.requireTurn(SideMonster); err != nil {
		return nil, err
	}

	res := &ActionResult{Success: true}
	if ability := s.mon.ReadyAbility(); ability != nil {
		s.monsterAbility(ability, res)
	} else {
		strike := s.rollStrike(s.monsterAttackProfile(), s.playerDefenseProfile(), 0)
		s.applyStrikeToPlayer(strike, "attacks", res)
	}

	if s.state.Terminal() {
		return res, nil
	}
	s.endTurn(SideMonster, res)
	return res, nil
}

// monsterAbility resolves one ability use: dice-expression damage on top
// of the monster's attack, plus an optional status effect on the player.
func (s *Session) monsterAbility(ability *monster.Ability, res *ActionResult) {
	bonus := 0
	if ability.Damage != "" {
		bonus = dice.Roll(dice.MustParse(ability.Damage), s.src).Total()
	}
	strike := s.rollStrike(s.monsterAttackProfile(), s.playerDefenseProfile(), bonus)
	s.applyStrikeToPlayer(strike, fmt.Sprintf("uses %s on", ability.Name), res)

	if ability.Effect != nil && !s.state.Terminal() {
		if name, ok := s.applyEffect(SidePlayer, ability.Effect.EffectID, ability.Effect.Duration, ability.Effect.Magnitude); ok {
			res.EffectApplied = name
			s.logf("%s is afflicted by %s.", s.char.Name, name)
		}
	}
	s.mon.StartCooldown(ability)
}

// applyStrikeToPlayer lands a monster strike on the player and handles a
// kill.
func (s *Session) applyStrikeToPlayer(strike strikeResult, verb string, res *ActionResult) {
	res.Damage = strike.damage
	res.Crit = strike.crit
	res.Dodged = strike.dodged
	res.Blocked = strike.blocked

	switch {
	case strike.dodged:
		s.logf("%s dodges the %s.", s.char.Name, s.mon.Name)
		return
	case strike.crit:
		s.logf("The %s %s %s for %d damage. Critical hit!", s.mon.Name, verb, s.char.Name, strike.damage)
	case strike.blocked:
		s.logf("%s blocks; the %s deals %d damage.", s.char.Name, s.mon.Name, strike.damage)
	default:
		s.logf("The %s %s %s for %d damage.", s.mon.Name, verb, s.char.Name, strike.damage)
	}

	s.char.ApplyDamage(strike.damage)
	if s.char.IsDead() {
		s.finishDefeat(res)
	}
}
