package gameserver

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ravenfell/server/internal/game/combat"
	"github.com/ravenfell/server/internal/scripting"
)

// Combatant UIDs handed to Lua are "<side>:<characterID>"; the character ID
// keys the session either side belongs to.
func combatantUID(side combat.Side, characterID uuid.UUID) string {
	return string(side) + ":" + characterID.String()
}

func parseUID(uid string) (combat.Side, uuid.UUID, bool) {
	sideStr, idStr, ok := strings.Cut(uid, ":")
	if !ok {
		return "", uuid.Nil, false
	}
	side := combat.Side(sideStr)
	if side != combat.SidePlayer && side != combat.SideMonster {
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return "", uuid.Nil, false
	}
	return side, id, true
}

// applyHook resolves the Lua function name for an effect's apply hook:
// the definition's declared lua_on_apply, or on_apply_<id> when the
// definition leaves it blank.
func (s *Service) applyHook(effectID string) string {
	if def, ok := s.content.Effects.Get(effectID); ok && def.LuaOnApply != "" {
		return def.LuaOnApply
	}
	return "on_apply_" + effectID
}

// expireHook resolves the effect's expiry hook name; see applyHook.
func (s *Service) expireHook(effectID string) string {
	if def, ok := s.content.Effects.Get(effectID); ok && def.LuaOnExpire != "" {
		return def.LuaOnExpire
	}
	return "on_expire_" + effectID
}

// wireScriptHooks connects effect lifecycle events to Lua hook dispatch and
// gives the scripting VM callbacks into live sessions. Scripts see
// combatants through UIDs; a stale UID after a session ends is a no-op.
func (s *Service) wireScriptHooks() {
	s.combat.OnEffectApplied = func(sess *combat.Session, target combat.Side, effectID string, magnitude int) {
		s.scripts.OnApply(effectID, s.applyHook(effectID), combatantUID(target, sess.Character().ID), magnitude)
	}
	s.combat.OnEffectExpired = func(sess *combat.Session, target combat.Side, effectID string) {
		s.scripts.OnExpire(effectID, s.expireHook(effectID), combatantUID(target, sess.Character().ID))
	}

	s.scripts.GetCombatant = func(uid string) *scripting.CombatantInfo {
		side, sess, ok := s.sessionFor(uid)
		if !ok {
			return nil
		}
		if side == combat.SidePlayer {
			c := sess.Character()
			return &scripting.CombatantInfo{
				UID: uid, Name: c.Name, HP: c.HP, MaxHP: sess.PlayerStats().MaxHP,
			}
		}
		m := sess.Monster()
		return &scripting.CombatantInfo{UID: uid, Name: m.Name, HP: m.CurrentHP, MaxHP: m.MaxHP}
	}

	s.scripts.ApplyDamage = func(uid string, amount int) error {
		side, sess, ok := s.sessionFor(uid)
		if !ok || amount < 0 {
			return nil
		}
		if side == combat.SidePlayer {
			sess.Character().ApplyDamage(amount)
		} else {
			sess.Monster().ApplyDamage(amount)
		}
		return nil
	}

	s.scripts.Heal = func(uid string, amount int) error {
		side, sess, ok := s.sessionFor(uid)
		if !ok || amount < 0 {
			return nil
		}
		if side == combat.SidePlayer {
			sess.Character().Heal(amount, sess.PlayerStats().MaxHP)
		} else {
			sess.Monster().Heal(amount)
		}
		return nil
	}

	s.scripts.Notify = func(uid, msg string) {
		s.logger.Info("script notify", zap.String("uid", uid), zap.String("message", msg))
	}
}

func (s *Service) sessionFor(uid string) (combat.Side, *combat.Session, bool) {
	side, characterID, ok := parseUID(uid)
	if !ok {
		return "", nil, false
	}
	sess, err := s.combat.Session(characterID)
	if err != nil {
		return "", nil, false
	}
	return side, sess, true
}
