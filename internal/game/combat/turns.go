package combat

import "github.com/ravenfell/server/internal/game/effect"

// endTurn ticks the ending actor's status effects, then advances the turn
// pointer. When the order wraps, the round counter increments and every
// cooldown (player skills, global, monster abilities) steps down.
//
// A DOT pulse can end the fight here; in that case the pointer does not
// advance.
func (s *Session) endTurn(side Side, res *ActionResult) {
	s.applyStatusEffects(side, res)
	if s.state.Terminal() {
		return
	}

	s.orderIdx++
	if s.orderIdx >= len(s.order) {
		s.orderIdx = 0
		s.turn++
		s.tickCooldowns()
	}
}

func (s *Session) tickCooldowns() {
	if s.char.GlobalCooldown > 0 {
		s.char.GlobalCooldown--
	}
	for id, turns := range s.char.SkillCooldowns {
		if turns > 0 {
			s.char.SkillCooldowns[id] = turns - 1
		}
	}
	s.mon.TickCooldowns()
}

// applyStatusEffects pulses the given side's active effects: damage over
// time wounds the owner, healing over time restores it, both clamped to
// [0, maxHp]. A lethal pulse produces the matching terminal state.
func (s *Session) applyStatusEffects(side Side, res *ActionResult) {
	tracker := s.playerEffects
	if side == SideMonster {
		tracker = s.monsterEffects
	}

	for _, p := range tracker.Tick() {
		switch p.Kind {
		case effect.KindDOT:
			if side == SidePlayer {
				s.char.ApplyDamage(p.Amount)
				s.logf("%s suffers %d from %s.", s.char.Name, p.Amount, p.Name)
			} else {
				s.mon.ApplyDamage(p.Amount)
				s.logf("The %s suffers %d from %s.", s.mon.Name, p.Amount, p.Name)
			}
		case effect.KindHOT:
			if side == SidePlayer {
				s.char.Heal(p.Amount, s.pstats.MaxHP)
				s.logf("%s recovers %d from %s.", s.char.Name, p.Amount, p.Name)
			} else {
				s.mon.Heal(p.Amount)
				s.logf("The %s recovers %d from %s.", s.mon.Name, p.Amount, p.Name)
			}
		}
		if p.Expired {
			s.logf("%s fades.", p.Name)
			if s.onEffectExpired != nil {
				s.onEffectExpired(s, side, p.EffectID)
			}
		}
	}

	if s.char.IsDead() {
		s.finishDefeat(res)
		return
	}
	if s.mon.IsDead() {
		s.finishVictory(res)
	}
}

// applyEffect attaches a status effect from the content registry to one
// side's tracker. Unknown effect IDs are skipped; dead recipients never
// gain effects.
func (s *Session) applyEffect(side Side, effectID string, duration, magnitude int) (string, bool) {
	if s.effects == nil {
		return "", false
	}
	def, ok := s.effects.Get(effectID)
	if !ok {
		return "", false
	}
	if side == SidePlayer && s.char.IsDead() {
		return "", false
	}
	if side == SideMonster && s.mon.IsDead() {
		return "", false
	}

	tracker := s.playerEffects
	if side == SideMonster {
		tracker = s.monsterEffects
	}
	tracker.Add(effect.Active{
		ID:        def.ID,
		Name:      def.Name,
		Kind:      def.Kind,
		Stat:      def.Stat,
		Magnitude: magnitude,
		Duration:  duration,
	})
	if s.onEffectApplied != nil {
		s.onEffectApplied(s, side, def.ID, magnitude)
	}
	return def.Name, true
}
