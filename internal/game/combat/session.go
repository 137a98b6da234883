// Package combat implements the turn-based combat state machine: one
// player character against one combat-local monster instance, with status
// effects, skills, flee attempts, and deterministic monster AI. All
// randomness flows through an injected dice source.
package combat

import (
	"errors"
	"fmt"
	"time"

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

// State is the lifecycle state of a combat session. The three terminal
// states are absorbing: no action can leave them.
type State string

const (
	StateInCombat State = "IN_COMBAT"
	StateVictory  State = "VICTORY"
	StateDefeat   State = "DEFEAT"
	StateFled     State = "FLED"
)

// Terminal reports whether the state is absorbing.
func (s State) Terminal() bool { return s != StateInCombat }

// Side identifies an actor in the turn order.
type Side string

const (
	SidePlayer  Side = "player"
	SideMonster Side = "monster"
)

var (
	// ErrInvalidTurn is returned when an action arrives out of turn or
	// after the session reached a terminal state.
	ErrInvalidTurn = errors.New("action not valid this turn")
	// ErrUnknownSkill is returned when a skill ID is not on the class.
	ErrUnknownSkill = errors.New("unknown skill")
	// ErrAlreadyInCombat is returned when a character starts a second
	// encounter before the first one ends.
	ErrAlreadyInCombat = errors.New("character already in combat")
	// ErrNotInCombat is returned when no session exists for a character.
	ErrNotInCombat = errors.New("character not in combat")
)

// LogEntry is one human-readable line in the combat log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Rewards is the spoils of a victory, before account multipliers.
type Rewards struct {
	XP    int         `json:"xp"`
	Gold  int         `json:"gold"`
	Items []loot.Drop `json:"items"`
}

// ActionResult reports the outcome of one combat action. Rule violations
// that are part of normal play (skill on cooldown, no potion left) come
// back as Success false with a message, not as errors.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	Damage  int  `json:"damage"`
	Crit    bool `json:"crit"`
	Dodged  bool `json:"dodged"`
	Blocked bool `json:"blocked"`

	EffectApplied string `json:"effectApplied,omitempty"`

	Victory bool     `json:"victory"`
	Defeat  bool     `json:"defeat"`
	Fled    bool     `json:"fled"`
	Rewards *Rewards `json:"rewards,omitempty"`
}

// Config carries everything a session needs. Engine.Start fills it in;
// tests construct it directly.
type Config struct {
	Character *character.Character
	Class     *ruleset.Class
	// PlayerStats is the character's resolved stat block at encounter
	// start. Status effects modify it per-action, never in place.
	PlayerStats stats.Final
	// CritDamageBonus is the account passive bonus to the crit
	// multiplier, in percentage points.
	CritDamageBonus float64

	Template *monster.Template

	Effects *effect.Registry
	Items   *inventory.Registry
	Loot    *loot.Generator

	Source dice.Source
	Logger *zap.Logger
	// NoVariance disables the ±20% damage roll for deterministic play.
	NoVariance bool

	// OnEffectApplied and OnEffectExpired fire when a status effect lands
	// on or fades from a combatant. The service layer uses them to
	// dispatch content script hooks. Either may be nil.
	OnEffectApplied func(s *Session, target Side, effectID string, magnitude int)
	OnEffectExpired func(s *Session, target Side, effectID string)
}

// Session is one combat encounter. It is not safe for concurrent use;
// the Engine serialises access per character.
type Session struct {
	ID    uuid.UUID
	state State

	char   *character.Character
	class  *ruleset.Class
	pstats stats.Final
	mon    *monster.Instance
	tmpl   *monster.Template

	playerEffects  *effect.Tracker
	monsterEffects *effect.Tracker

	effects *effect.Registry
	items   *inventory.Registry
	loot    *loot.Generator

	src        dice.Source
	logger     *zap.Logger
	noVariance bool

	critDamageBonus float64

	order    [2]Side
	orderIdx int
	turn     int

	log     []LogEntry
	rewards *Rewards

	onEffectApplied func(s *Session, target Side, effectID string, magnitude int)
	onEffectExpired func(s *Session, target Side, effectID string)
}

// NewSession starts an encounter against a fresh instance of the
// template. Turn order is by agility, the player winning ties.
//
// Precondition: cfg.Character, cfg.Template, and cfg.Source must be set.
func NewSession(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &Session{
		ID:              uuid.New(),
		state:           StateInCombat,
		char:            cfg.Character,
		class:           cfg.Class,
		pstats:          cfg.PlayerStats,
		mon:             monster.NewInstance(cfg.Template),
		tmpl:            cfg.Template,
		playerEffects:   effect.NewTracker(),
		monsterEffects:  effect.NewTracker(),
		effects:         cfg.Effects,
		items:           cfg.Items,
		loot:            cfg.Loot,
		src:             cfg.Source,
		logger:          cfg.Logger,
		noVariance:      cfg.NoVariance,
		critDamageBonus: cfg.CritDamageBonus,
		turn:            1,
		onEffectApplied: cfg.OnEffectApplied,
		onEffectExpired: cfg.OnEffectExpired,
	}
	if cfg.PlayerStats.Agility >= cfg.Template.Agility {
		s.order = [2]Side{SidePlayer, SideMonster}
	} else {
		s.order = [2]Side{SideMonster, SidePlayer}
	}
	s.logf("%s engages the %s!", s.char.Name, s.tmpl.Name)
	s.logger.Debug("combat started",
		zap.String("session", s.ID.String()),
		zap.String("character", s.char.Name),
		zap.String("monster", s.tmpl.ID),
		zap.String("first", string(s.order[0])))
	return s
}

// State returns the session state.
func (s *Session) State() State { return s.state }

// CurrentActor returns the side whose turn it is.
func (s *Session) CurrentActor() Side { return s.order[s.orderIdx] }

// Turn returns the 1-based round counter.
func (s *Session) Turn() int { return s.turn }

// Monster exposes the combat-local monster instance.
func (s *Session) Monster() *monster.Instance { return s.mon }

// Character exposes the character fighting this session.
func (s *Session) Character() *character.Character { return s.char }

// PlayerStats returns the resolved stat block the session was started with.
func (s *Session) PlayerStats() stats.Final { return s.pstats }

// Rewards returns the victory spoils, or nil before victory.
func (s *Session) Rewards() *Rewards { return s.rewards }

// Snapshot is a serialisable view of the session for clients.
type Snapshot struct {
	SessionID    string         `json:"sessionId"`
	State        State          `json:"state"`
	Turn         int            `json:"turn"`
	CurrentActor Side           `json:"currentActor"`
	PlayerHP     int            `json:"playerHp"`
	PlayerMaxHP  int            `json:"playerMaxHp"`
	MonsterID    string         `json:"monsterId"`
	MonsterHP    int            `json:"monsterHp"`
	MonsterMaxHP int            `json:"monsterMaxHp"`
	PlayerFx     []effect.Active `json:"playerEffects"`
	MonsterFx    []effect.Active `json:"monsterEffects"`
	Log          []LogEntry     `json:"log"`
}

// GetState returns a snapshot of the session. The snapshot shares nothing
// mutable with the session.
func (s *Session) GetState() Snapshot {
	log := make([]LogEntry, len(s.log))
	copy(log, s.log)
	return Snapshot{
		SessionID:    s.ID.String(),
		State:        s.state,
		Turn:         s.turn,
		CurrentActor: s.CurrentActor(),
		PlayerHP:     s.char.HP,
		PlayerMaxHP:  s.pstats.MaxHP,
		MonsterID:    s.tmpl.ID,
		MonsterHP:    s.mon.CurrentHP,
		MonsterMaxHP: s.mon.MaxHP,
		PlayerFx:     s.playerEffects.Active(),
		MonsterFx:    s.monsterEffects.Active(),
		Log:          log,
	}
}

func (s *Session) logf(format string, args ...any) {
	s.log = append(s.log, LogEntry{Time: time.Now().UTC(), Message: fmt.Sprintf(format, args...)})
}

// requireTurn guards every action entry point.
func (s *Session) requireTurn(side Side) error {
	if s.state.Terminal() || s.CurrentActor() != side {
		return ErrInvalidTurn
	}
	return nil
}

// finishVictory transitions to VICTORY and rolls rewards.
func (s *Session) finishVictory(res *ActionResult) {
	s.state = StateVictory
	s.playerEffects.Clear()
	s.monsterEffects.Clear()

	r := &Rewards{XP: s.tmpl.XPReward}
	if s.loot != nil {
		bundle := s.loot.Generate(s.tmpl)
		r.Gold = bundle.Gold
		r.Items = bundle.Items
	}
	s.rewards = r
	res.Victory = true
	res.Rewards = r
	s.logf("The %s is slain! %s is victorious.", s.tmpl.Name, s.char.Name)
}

// finishDefeat transitions to DEFEAT.
func (s *Session) finishDefeat(res *ActionResult) {
	s.state = StateDefeat
	s.playerEffects.Clear()
	s.monsterEffects.Clear()
	res.Defeat = true
	s.logf("%s falls to the %s.", s.char.Name, s.tmpl.Name)
}
