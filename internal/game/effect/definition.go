// Package effect implements timed status effects: buffs, debuffs, and
// damage/heal-over-time, tracked per combatant.
package effect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind classifies a status effect's behaviour.
type Kind string

const (
	// KindBuff raises a combat stat while active.
	KindBuff Kind = "buff"
	// KindDebuff lowers a combat stat while active.
	KindDebuff Kind = "debuff"
	// KindDOT deals Magnitude damage on every tick.
	KindDOT Kind = "dot"
	// KindHOT heals Magnitude on every tick.
	KindHOT Kind = "hot"
)

// validKinds is the set of recognised effect kinds.
var validKinds = map[Kind]bool{KindBuff: true, KindDebuff: true, KindDOT: true, KindHOT: true}

// validStats is the set of stats a buff/debuff may modify.
var validStats = map[string]bool{
	"attack": true, "defense": true, "magic": true, "agility": true,
	"crit": true, "dodge": true, "block": true,
}

// Definition is the static definition of a status effect, loaded from YAML.
// Duration and magnitude are supplied by whatever applies the effect (skill,
// consumable, or monster ability), not by the definition.
type Definition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        Kind   `yaml:"kind"`
	// Stat names the combat stat a buff/debuff modifies; empty for dot/hot.
	Stat string `yaml:"stat"`
	// LuaOnApply and LuaOnExpire name optional script hooks dispatched by the
	// service layer when the effect is applied or expires.
	LuaOnApply  string `yaml:"lua_on_apply"`
	LuaOnExpire string `yaml:"lua_on_expire"`
}

// Validate checks the definition's invariants.
//
// Precondition: d must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Kind is valid,
// and Stat is present exactly when Kind is buff/debuff.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("effect: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("effect %q: name must not be empty", d.ID)
	}
	if !validKinds[d.Kind] {
		return fmt.Errorf("effect %q: kind must be one of buff, debuff, dot, hot; got %q", d.ID, d.Kind)
	}
	switch d.Kind {
	case KindBuff, KindDebuff:
		if !validStats[d.Stat] {
			return fmt.Errorf("effect %q: stat must name a combat stat, got %q", d.ID, d.Stat)
		}
	default:
		if d.Stat != "" {
			return fmt.Errorf("effect %q: stat must be empty for kind %q", d.ID, d.Kind)
		}
	}
	return nil
}

// Registry holds all known effect Definitions keyed by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def to the registry, overwriting any existing entry with the
// same ID.
//
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Definition) {
	if def == nil || def.ID == "" {
		panic("effect: Registry.Register: precondition violated: def must be non-nil with an ID")
	}
	r.defs[def.ID] = def
}

// Get returns the Definition for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Definitions.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Definition,
// and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails
// to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading effect dir %q: %w", dir, err)
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
		var def Definition
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parsing effect file %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
