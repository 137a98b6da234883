package combat

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ravenfell/server/internal/game/character"
	"github.com/ravenfell/server/internal/game/dice"
	"github.com/ravenfell/server/internal/game/effect"
	"github.com/ravenfell/server/internal/game/inventory"
	"github.com/ravenfell/server/internal/game/loot"
	"github.com/ravenfell/server/internal/game/monster"
	"github.com/ravenfell/server/internal/game/ruleset"
	"github.com/ravenfell/server/internal/game/stats"
)

// Engine owns the live combat sessions, one per character at most.
// It is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	effects *effect.Registry
	items   *inventory.Registry
	loot    *loot.Generator
	src     dice.Source
	logger  *zap.Logger

	// OnEffectApplied and OnEffectExpired are copied into every session
	// this engine starts. Set them before the first Start call.
	OnEffectApplied func(s *Session, target Side, effectID string, magnitude int)
	OnEffectExpired func(s *Session, target Side, effectID string)
}

// NewEngine builds a combat Engine sharing one dice source and logger
// across sessions.
func NewEngine(effects *effect.Registry, items *inventory.Registry, lootGen *loot.Generator, src dice.Source, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		sessions: make(map[uuid.UUID]*Session),
		effects:  effects,
		items:    items,
		loot:     lootGen,
		src:      src,
		logger:   logger,
	}
}

// Start opens an encounter for the character against the template.
// A character can be in at most one encounter at a time.
func (e *Engine) Start(c *character.Character, class *ruleset.Class, pstats stats.Final, critDamageBonus float64, tmpl *monster.Template) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, busy := e.sessions[c.ID]; busy {
		return nil, ErrAlreadyInCombat
	}
	s := NewSession(Config{
		Character:       c,
		Class:           class,
		PlayerStats:     pstats,
		CritDamageBonus: critDamageBonus,
		Template:        tmpl,
		Effects:         e.effects,
		Items:           e.items,
		Loot:            e.loot,
		Source:          e.src,
		Logger:          e.logger,
		OnEffectApplied: e.OnEffectApplied,
		OnEffectExpired: e.OnEffectExpired,
	})
	e.sessions[c.ID] = s
	return s, nil
}

// Session returns the character's live session.
func (e *Engine) Session(characterID uuid.UUID) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[characterID]
	if !ok {
		return nil, ErrNotInCombat
	}
	return s, nil
}

// End discards the character's session. Called after a terminal state has
// been persisted, or to abandon a stuck encounter.
func (e *Engine) End(characterID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, characterID)
}

// ActiveSessions reports how many encounters are live.
func (e *Engine) ActiveSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}
