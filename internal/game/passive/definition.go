// Package passive implements the account-wide passive upgrade tree: content
// definitions, per-account progress, and the souls/legacy-point economy.
// Passive progress survives character death, including hardcore deletion.
package passive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bucket classifies where a passive's bonus lands during stat resolution.
const (
	// BucketFlat adds PerLevel directly to a base stat.
	BucketFlat = "flat"
	// BucketMultiplier scales a reward stream; multipliers start at 1.0.
	BucketMultiplier = "multiplier"
	// BucketCombat adds percentage points to a combat chance; starts at 0.
	BucketCombat = "combat"
)

// flatTargets are base stats a flat passive may raise.
var flatTargets = map[string]bool{
	"strength": true, "dexterity": true, "constitution": true,
	"intelligence": true, "wisdom": true, "max_hp": true,
}

// multiplierTargets are reward streams a multiplier passive may scale.
var multiplierTargets = map[string]bool{"xp": true, "gold": true}

// combatTargets are combat chances a combat passive may raise.
var combatTargets = map[string]bool{
	"crit": true, "dodge": true, "block": true, "crit_damage": true,
}

// Definition is a purchasable passive loaded from YAML.
type Definition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Bucket is flat, multiplier, or combat.
	Bucket string `yaml:"bucket"`
	// Target names the stat/stream the passive modifies.
	Target string `yaml:"target"`
	// PerLevel is the bonus granted per purchased level.
	PerLevel float64 `yaml:"per_level"`
	// BaseCost is the souls cost of the first level.
	BaseCost int `yaml:"base_cost"`
	// MaxLevel caps purchases; 0 means uncapped.
	MaxLevel int `yaml:"max_level"`
}

// Validate checks the definition's invariants.
//
// Precondition: d must not be nil.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("passive: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("passive %q: name must not be empty", d.ID)
	}
	var targets map[string]bool
	switch d.Bucket {
	case BucketFlat:
		targets = flatTargets
	case BucketMultiplier:
		targets = multiplierTargets
	case BucketCombat:
		targets = combatTargets
	default:
		return fmt.Errorf("passive %q: bucket must be flat, multiplier, or combat; got %q", d.ID, d.Bucket)
	}
	if !targets[d.Target] {
		return fmt.Errorf("passive %q: target %q is not valid for bucket %q", d.ID, d.Target, d.Bucket)
	}
	if d.PerLevel <= 0 {
		return fmt.Errorf("passive %q: per_level must be > 0", d.ID)
	}
	if d.BaseCost < 1 {
		return fmt.Errorf("passive %q: base_cost must be >= 1", d.ID)
	}
	if d.MaxLevel < 0 {
		return fmt.Errorf("passive %q: max_level must be >= 0", d.ID)
	}
	return nil
}

// Registry holds all passive Definitions keyed by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def, overwriting any existing entry with the same ID.
//
// Precondition: def must be non-nil with a non-empty ID.
func (r *Registry) Register(def *Definition) {
	if def == nil || def.ID == "" {
		panic("passive: Registry.Register: precondition violated: def must be non-nil with an ID")
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

// LoadDirectory reads every *.yaml file in dir into a populated Registry.
//
// Precondition: dir must be a readable directory.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading passive dir %q: %w", dir, err)
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
			return nil, fmt.Errorf("parsing passive file %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
