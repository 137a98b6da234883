// Package gameserver glues the rules engine to persistence and content
// scripting: it loads and normalizes characters, runs combat encounters to
// settlement, and applies the account-wide passive economy.
package gameserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ravenfell/server/internal/game/character"
	"github.com/ravenfell/server/internal/game/combat"
	"github.com/ravenfell/server/internal/game/effect"
	"github.com/ravenfell/server/internal/game/inventory"
	"github.com/ravenfell/server/internal/game/monster"
	"github.com/ravenfell/server/internal/game/passive"
	"github.com/ravenfell/server/internal/game/progression"
	"github.com/ravenfell/server/internal/game/ruleset"
	"github.com/ravenfell/server/internal/game/stats"
	"github.com/ravenfell/server/internal/scripting"
)

var (
	// ErrUnknownClass is returned when a character references a class ID
	// that is not in the loaded content.
	ErrUnknownClass = errors.New("unknown class")
	// ErrUnknownMonster is returned for an encounter against an unloaded
	// monster template.
	ErrUnknownMonster = errors.New("unknown monster")
)

// CharacterStore is the slice of character persistence the service needs.
type CharacterStore interface {
	Create(ctx context.Context, c *character.Character) error
	GetByID(ctx context.Context, id uuid.UUID) (*character.Character, error)
	Save(ctx context.Context, c *character.Character) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProgressStore persists account-wide passive progress.
type ProgressStore interface {
	Get(ctx context.Context, accountID uuid.UUID) (*passive.Progress, error)
	Save(ctx context.Context, accountID uuid.UUID, p *passive.Progress) error
}

// Content bundles the loaded game content registries.
type Content struct {
	Classes  *ruleset.Registry
	Items    *inventory.Registry
	Monsters *monster.Registry
	Effects  *effect.Registry
	Passives *passive.Registry
}

// Config carries the service's dependencies.
type Config struct {
	Characters CharacterStore
	Progress   ProgressStore
	Content    Content

	Combat      *combat.Engine
	Progression *progression.Engine
	// Scripts dispatches effect hook scripts. Optional.
	Scripts *scripting.Manager

	// RespecRefund is the fraction of spent souls returned by a respec.
	RespecRefund float64
	// BackpackSlots is the backpack capacity of new characters. Zero
	// keeps character.DefaultBackpackSlots.
	BackpackSlots int

	Logger *zap.Logger
}

// Service coordinates the rules engine, storage, and scripting for one
// game world.
type Service struct {
	chars    CharacterStore
	progress ProgressStore
	content  Content

	combat      *combat.Engine
	progression *progression.Engine
	scripts     *scripting.Manager

	respecRefund  float64
	backpackSlots int
	logger        *zap.Logger
}

// NewService wires a Service and hooks effect script dispatch into the
// combat engine.
//
// Precondition: cfg.Characters, cfg.Progress, cfg.Combat, and
// cfg.Progression must be set; content registries must be loaded.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &Service{
		chars:         cfg.Characters,
		progress:      cfg.Progress,
		content:       cfg.Content,
		combat:        cfg.Combat,
		progression:   cfg.Progression,
		scripts:       cfg.Scripts,
		respecRefund:  cfg.RespecRefund,
		backpackSlots: cfg.BackpackSlots,
		logger:        cfg.Logger,
	}
	if s.scripts != nil {
		s.wireScriptHooks()
	}
	return s
}

// CreateCharacter makes a fresh level-1 character for the account.
//
// Postcondition: the character is persisted, or ErrUnknownClass /
// a storage error is returned.
func (s *Service) CreateCharacter(ctx context.Context, accountID uuid.UUID, name, classID string, hardcore bool) (*character.Character, error) {
	class, ok := s.content.Classes.Class(classID)
	if !ok {
		return nil, fmt.Errorf("creating character: class %q: %w", classID, ErrUnknownClass)
	}
	c := character.New(accountID, name, class, hardcore)
	if s.backpackSlots > 0 {
		c.Backpack = inventory.NewBackpack(s.backpackSlots)
	}
	if err := s.chars.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("character created",
		zap.String("character", c.ID.String()),
		zap.String("name", name),
		zap.String("class", classID),
		zap.Bool("hardcore", hardcore))
	return c, nil
}

// LoadCharacter fetches a character and normalizes it against the current
// content. Repairs are persisted immediately so stale references never
// reach the rules engine twice.
func (s *Service) LoadCharacter(ctx context.Context, id uuid.UUID) (*character.Character, error) {
	c, err := s.chars.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bonuses, err := s.accountBonuses(ctx, c.AccountID)
	if err != nil {
		return nil, err
	}

	class, _ := s.content.Classes.Class(c.ClassID)
	report := character.Normalize(c, class, s.content.Items, bonuses)
	if report.Dirty() {
		s.logger.Warn("character repaired on load",
			zap.String("character", c.ID.String()),
			zap.Strings("droppedEquipment", report.DroppedEquipment),
			zap.Strings("droppedItems", report.DroppedItems),
			zap.Bool("hpClamped", report.HPClamped))
		if err := s.chars.Save(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// accountBonuses loads and aggregates the account's passive bonuses.
func (s *Service) accountBonuses(ctx context.Context, accountID uuid.UUID) (passive.Bonuses, error) {
	prog, err := s.progress.Get(ctx, accountID)
	if err != nil {
		return passive.Bonuses{}, fmt.Errorf("loading passive progress: %w", err)
	}
	return passive.Aggregate(prog, s.content.Passives), nil
}

// resolveStats computes the character's final stat block from class, level,
// equipment, and account passives.
func (s *Service) resolveStats(c *character.Character, bonuses passive.Bonuses) stats.Final {
	class, _ := s.content.Classes.Class(c.ClassID)
	base := stats.BaseStats(class, c.Level)
	equip := inventory.StatBonuses{}
	if c.Equipment != nil {
		equip = c.Equipment.Bonuses(s.content.Items)
	}
	return stats.Resolve(base, equip, bonuses)
}
