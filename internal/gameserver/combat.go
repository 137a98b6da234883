package gameserver

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ravenfell/server/internal/game/combat"
	"github.com/ravenfell/server/internal/game/passive"
)

// soulsPerXP converts a monster's XP reward into souls for the account's
// passive economy: one soul per ten XP, minimum one per kill.
const soulsPerXP = 10

// EncounterResult is what an action returns to the caller: the action's
// outcome plus the refreshed session snapshot. When the encounter settled,
// Settled is true and the snapshot shows the terminal state.
type EncounterResult struct {
	Action   *combat.ActionResult `json:"action"`
	Snapshot combat.Snapshot      `json:"snapshot"`
	Settled  bool                 `json:"settled"`
}

// StartEncounter opens a combat session for the character against the
// named monster template.
//
// Postcondition: Returns the opening snapshot, or ErrUnknownMonster /
// combat.ErrAlreadyInCombat.
func (s *Service) StartEncounter(ctx context.Context, characterID uuid.UUID, monsterID string) (combat.Snapshot, error) {
	tmpl, ok := s.content.Monsters.Get(monsterID)
	if !ok {
		return combat.Snapshot{}, fmt.Errorf("starting encounter: monster %q: %w", monsterID, ErrUnknownMonster)
	}

	c, err := s.LoadCharacter(ctx, characterID)
	if err != nil {
		return combat.Snapshot{}, err
	}

	bonuses, err := s.accountBonuses(ctx, c.AccountID)
	if err != nil {
		return combat.Snapshot{}, err
	}
	class, _ := s.content.Classes.Class(c.ClassID)

	sess, err := s.combat.Start(c, class, s.resolveStats(c, bonuses), bonuses.CritDamage, tmpl)
	if err != nil {
		return combat.Snapshot{}, err
	}

	// If the monster is faster it acts before the player's first input.
	if _, err := s.runMonster(ctx, sess); err != nil {
		return combat.Snapshot{}, err
	}
	return sess.GetState(), nil
}

// Attack performs the player's basic attack and runs the monster's reply.
func (s *Service) Attack(ctx context.Context, characterID uuid.UUID) (EncounterResult, error) {
	return s.playerAction(ctx, characterID, func(sess *combat.Session) (*combat.ActionResult, error) {
		return sess.PlayerAttack()
	})
}

// UseSkill performs a class skill.
func (s *Service) UseSkill(ctx context.Context, characterID uuid.UUID, skillID string) (EncounterResult, error) {
	return s.playerAction(ctx, characterID, func(sess *combat.Session) (*combat.ActionResult, error) {
		return sess.PlayerSkill(skillID)
	})
}

// UseItem consumes a backpack item in combat.
func (s *Service) UseItem(ctx context.Context, characterID uuid.UUID, itemDefID string) (EncounterResult, error) {
	return s.playerAction(ctx, characterID, func(sess *combat.Session) (*combat.ActionResult, error) {
		return sess.PlayerUseItem(itemDefID)
	})
}

// Flee attempts to leave combat. A failed attempt concedes a free attack
// and the monster still takes its regular turn.
func (s *Service) Flee(ctx context.Context, characterID uuid.UUID) (EncounterResult, error) {
	return s.playerAction(ctx, characterID, func(sess *combat.Session) (*combat.ActionResult, error) {
		return sess.PlayerFlee()
	})
}

// CombatState returns the character's live session snapshot.
func (s *Service) CombatState(characterID uuid.UUID) (combat.Snapshot, error) {
	sess, err := s.combat.Session(characterID)
	if err != nil {
		return combat.Snapshot{}, err
	}
	return sess.GetState(), nil
}

// ActiveEncounters reports how many combat sessions are currently live.
func (s *Service) ActiveEncounters() int {
	return s.combat.ActiveSessions()
}

// playerAction looks up the session, runs one player action, lets the
// monster respond, and settles the encounter if it ended.
func (s *Service) playerAction(ctx context.Context, characterID uuid.UUID, act func(*combat.Session) (*combat.ActionResult, error)) (EncounterResult, error) {
	sess, err := s.combat.Session(characterID)
	if err != nil {
		return EncounterResult{}, err
	}

	res, err := act(sess)
	if err != nil {
		return EncounterResult{}, err
	}

	settled, err := s.runMonster(ctx, sess)
	if err != nil {
		return EncounterResult{}, err
	}
	if !settled && sess.State().Terminal() {
		if err := s.settle(ctx, sess); err != nil {
			return EncounterResult{}, err
		}
		settled = true
	}

	return EncounterResult{Action: res, Snapshot: sess.GetState(), Settled: settled}, nil
}

// runMonster advances the session through monster turns until it is the
// player's turn again or the encounter ended, then settles a terminal
// session. Reports whether settlement happened.
func (s *Service) runMonster(ctx context.Context, sess *combat.Session) (bool, error) {
	for !sess.State().Terminal() && sess.CurrentActor() == combat.SideMonster {
		if _, err := sess.MonsterTurn(); err != nil {
			return false, err
		}
	}
	if !sess.State().Terminal() {
		return false, nil
	}
	return true, s.settle(ctx, sess)
}

// settle applies the outcome of a finished encounter to persistent state
// and discards the session: rewards on victory, death handling on defeat,
// a plain save on flight.
func (s *Service) settle(ctx context.Context, sess *combat.Session) error {
	c := sess.Character()
	defer s.combat.End(c.ID)

	prog, err := s.progress.Get(ctx, c.AccountID)
	if err != nil {
		return fmt.Errorf("settling encounter: %w", err)
	}
	bonuses := passive.Aggregate(prog, s.content.Passives)

	switch sess.State() {
	case combat.StateVictory:
		r := sess.Rewards()

		xpRes := s.progression.AddXP(c, bonuses, r.XP)
		gold := int(math.Floor(float64(r.Gold) * bonuses.GoldMult))
		c.Gold += gold

		for _, drop := range r.Items {
			if _, err := c.Backpack.Add(drop.ItemID, 1, s.content.Items); err != nil {
				s.logger.Warn("dropped loot lost",
					zap.String("character", c.ID.String()),
					zap.String("item", drop.ItemID),
					zap.Error(err))
			}
		}

		souls := r.XP / soulsPerXP
		if souls < 1 {
			souls = 1
		}
		prog.Souls += souls

		c.ClearCombatState()
		if err := s.chars.Save(ctx, c); err != nil {
			return err
		}
		if err := s.progress.Save(ctx, c.AccountID, prog); err != nil {
			return err
		}
		s.logger.Info("encounter won",
			zap.String("character", c.ID.String()),
			zap.String("monster", sess.Monster().TemplateID),
			zap.Int("xp", r.XP),
			zap.Int("gold", gold),
			zap.Int("souls", souls),
			zap.Int("levelsGained", xpRes.LevelsGained))
		return nil

	case combat.StateDefeat:
		death := s.progression.HandleDeath(c, prog, bonuses)
		if err := s.progress.Save(ctx, c.AccountID, prog); err != nil {
			return err
		}
		if death.CharacterDeleted {
			if err := s.chars.Delete(ctx, c.ID); err != nil {
				return err
			}
		} else if err := s.chars.Save(ctx, c); err != nil {
			return err
		}
		s.logger.Info("encounter lost",
			zap.String("character", c.ID.String()),
			zap.Bool("hardcore", c.Hardcore),
			zap.Int("goldLost", death.GoldLost),
			zap.Int("xpLost", death.XPLost))
		return nil

	case combat.StateFled:
		c.ClearCombatState()
		if err := s.chars.Save(ctx, c); err != nil {
			return err
		}
		s.logger.Info("encounter fled", zap.String("character", c.ID.String()))
		return nil
	}
	return nil
}
