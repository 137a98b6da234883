// Package monster provides monster template definitions, loot tables, and
// the combat-local instances created fresh for each encounter.
package monster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ravenfell/server/internal/game/dice"
	"github.com/ravenfell/server/internal/game/inventory"
)

// Rarity tiers for monsters. Rarity scales gold, xp, and loot quality.
const (
	RarityCommon = "common"
	RarityElite  = "elite"
	RarityRare   = "rare"
	RarityBoss   = "boss"
)

// RarityMultiplier maps a monster rarity to its reward scale factor.
var RarityMultiplier = map[string]float64{
	RarityCommon: 1.0,
	RarityElite:  1.5,
	RarityRare:   2.0,
	RarityBoss:   3.0,
}

// AbilityEffect describes the status effect an ability applies to its target.
type AbilityEffect struct {
	EffectID  string `yaml:"effect"`
	Duration  int    `yaml:"duration"`
	Magnitude int    `yaml:"magnitude"`
}

// Ability defines a monster special attack. The AI prefers abilities over
// basic attacks whenever one is off cooldown, in declared order.
type Ability struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Damage is a dice expression ("2d4+1"); empty for pure effect abilities.
	Damage string `yaml:"damage"`
	// Cooldown is the number of the monster's own turns before reuse.
	Cooldown int            `yaml:"cooldown"`
	Effect   *AbilityEffect `yaml:"effect"`
}

// Template defines a monster archetype loaded from YAML. Templates are
// immutable after load; per-encounter state lives on Instance.
type Template struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Level       int        `yaml:"level"`
	Rarity      string     `yaml:"rarity"`
	HP          int        `yaml:"hp"`
	Attack      int        `yaml:"attack"`
	Defense     int        `yaml:"defense"`
	Agility     int        `yaml:"agility"`
	XPReward    int        `yaml:"xp_reward"`
	Abilities   []Ability  `yaml:"abilities"`
	Loot        *LootTable `yaml:"loot"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1,
// HP >= 1, Rarity is a known tier, stats are non-negative, all ability
// damage expressions parse, and any loot table validates.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("monster template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("monster template %q: level must be >= 1", t.ID)
	}
	if t.HP < 1 {
		return fmt.Errorf("monster template %q: hp must be >= 1", t.ID)
	}
	if _, ok := RarityMultiplier[t.Rarity]; !ok {
		return fmt.Errorf("monster template %q: rarity %q is not a known tier", t.ID, t.Rarity)
	}
	if t.Attack < 0 || t.Defense < 0 || t.Agility < 0 {
		return fmt.Errorf("monster template %q: stats must be >= 0", t.ID)
	}
	if t.XPReward < 0 {
		return fmt.Errorf("monster template %q: xp_reward must be >= 0", t.ID)
	}
	seen := make(map[string]bool)
	for i, a := range t.Abilities {
		if a.ID == "" {
			return fmt.Errorf("monster template %q: ability[%d] must have an id", t.ID, i)
		}
		if seen[a.ID] {
			return fmt.Errorf("monster template %q: duplicate ability id %q", t.ID, a.ID)
		}
		seen[a.ID] = true
		if a.Cooldown < 0 {
			return fmt.Errorf("monster template %q: ability %q cooldown must be >= 0", t.ID, a.ID)
		}
		if a.Damage != "" {
			if _, err := dice.Parse(a.Damage); err != nil {
				return fmt.Errorf("monster template %q: ability %q: %w", t.ID, a.ID, err)
			}
		}
		if a.Effect != nil {
			if a.Effect.EffectID == "" {
				return fmt.Errorf("monster template %q: ability %q effect must name an id", t.ID, a.ID)
			}
			if a.Effect.Duration < 1 {
				return fmt.Errorf("monster template %q: ability %q effect duration must be >= 1", t.ID, a.ID)
			}
		}
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			return fmt.Errorf("monster template %q: %w", t.ID, err)
		}
	}
	return nil
}

// LootTable groups droppable item IDs by rarity tier. Each kill performs up
// to MaxDrops independent drop checks at DropChance; a successful check
// rolls a rarity tier (weighted by the monster's own rarity) and picks a
// concrete item from that tier's pool.
type LootTable struct {
	// MaxDrops is the number of independent drop checks per kill.
	MaxDrops int `yaml:"max_drops"`
	// DropChance is the per-check probability in (0, 1].
	DropChance float64 `yaml:"drop_chance"`
	// Items maps an item rarity tier to the item IDs droppable at that tier.
	Items map[string][]string `yaml:"items"`
}

// Validate checks the loot table's invariants.
//
// Precondition: lt must not be nil.
// Postcondition: Returns nil iff MaxDrops >= 0, DropChance in (0, 1], and
// every tier key is a known item rarity with a non-empty pool.
func (lt *LootTable) Validate() error {
	if lt.MaxDrops < 0 {
		return fmt.Errorf("loot table: max_drops must be >= 0, got %d", lt.MaxDrops)
	}
	if lt.DropChance <= 0 || lt.DropChance > 1.0 {
		return fmt.Errorf("loot table: drop_chance must be in (0, 1], got %f", lt.DropChance)
	}
	for tier, pool := range lt.Items {
		if _, ok := inventory.RarityOrder[tier]; !ok {
			return fmt.Errorf("loot table: %q is not a known item rarity", tier)
		}
		if len(pool) == 0 {
			return fmt.Errorf("loot table: tier %q has an empty item pool", tier)
		}
		for _, id := range pool {
			if id == "" {
				return fmt.Errorf("loot table: tier %q contains an empty item id", tier)
			}
		}
	}
	return nil
}

// Registry holds all monster templates keyed by ID.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register adds tmpl to the registry, overwriting any entry with the same ID.
//
// Precondition: tmpl must not be nil with a non-empty ID.
func (r *Registry) Register(tmpl *Template) {
	if tmpl == nil || tmpl.ID == "" {
		panic("monster: Registry.Register: precondition violated: template must be non-nil with an ID")
	}
	r.templates[tmpl.ID] = tmpl
}

// Get returns the Template for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// Count returns the number of registered templates.
func (r *Registry) Count() int { return len(r.templates) }

// LoadDirectory reads every *.yaml file in dir, parses and validates each as
// a Template, and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading monster dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var tmpl Template
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, fmt.Errorf("parsing monster file %q: %w", path, err)
		}
		if err := tmpl.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		reg.Register(&tmpl)
	}
	return reg, nil
}
