package gameserver

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ravenfell/server/internal/game/passive"
)

// PassiveProgress returns the account's passive progress and the bonuses
// it currently grants.
func (s *Service) PassiveProgress(ctx context.Context, accountID uuid.UUID) (*passive.Progress, passive.Bonuses, error) {
	prog, err := s.progress.Get(ctx, accountID)
	if err != nil {
		return nil, passive.Bonuses{}, err
	}
	return prog, passive.Aggregate(prog, s.content.Passives), nil
}

// PurchasePassive spends souls (and legacy points on milestone levels) to
// raise a passive one level.
//
// Postcondition: On success the new progress is persisted; on
// passive.ErrInsufficientResources / ErrMaxLevel / ErrUnknownPassive
// nothing changes.
func (s *Service) PurchasePassive(ctx context.Context, accountID uuid.UUID, passiveID string) (*passive.Progress, error) {
	prog, err := s.progress.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := passive.Spend(prog, s.content.Passives, passiveID); err != nil {
		return nil, err
	}
	if err := s.progress.Save(ctx, accountID, prog); err != nil {
		return nil, err
	}

	s.logger.Info("passive upgraded",
		zap.String("account", accountID.String()),
		zap.String("passive", passiveID),
		zap.Int("level", prog.Level(passiveID)))
	return prog, nil
}

// RespecPassives resets every passive to level 0, refunding a configured
// fraction of spent souls and all legacy points.
func (s *Service) RespecPassives(ctx context.Context, accountID uuid.UUID) (*passive.Progress, error) {
	prog, err := s.progress.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	refundedSouls := prog.SoulsSpent
	passive.Respec(prog, s.respecRefund)
	if err := s.progress.Save(ctx, accountID, prog); err != nil {
		return nil, err
	}

	s.logger.Info("passives respecced",
		zap.String("account", accountID.String()),
		zap.Int("soulsSpentBefore", refundedSouls),
		zap.Int("soulsAfter", prog.Souls))
	return prog, nil
}
