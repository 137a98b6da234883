// Package ruleset defines the playable class content model: starting stats,
// per-level growth curves, and class skills.
package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ravenfell/server/internal/game/dice"
)

// StartingStats holds a class's level-1 base attributes.
type StartingStats struct {
	Strength     int `yaml:"strength"`
	Dexterity    int `yaml:"dexterity"`
	Constitution int `yaml:"constitution"`
	Intelligence int `yaml:"intelligence"`
	Wisdom       int `yaml:"wisdom"`
	MaxHP        int `yaml:"max_hp"`
}

// GrowthStats holds a class's per-level attribute gains. Fractional values
// accumulate across levels and are floored only when the running total is
// read, so no growth is lost to rounding.
type GrowthStats struct {
	Strength     float64 `yaml:"strength"`
	Dexterity    float64 `yaml:"dexterity"`
	Constitution float64 `yaml:"constitution"`
	Intelligence float64 `yaml:"intelligence"`
	Wisdom       float64 `yaml:"wisdom"`
	MaxHP        float64 `yaml:"max_hp"`
}

// SkillEffect describes a status effect a skill applies on hit.
type SkillEffect struct {
	// EffectID references an effect definition by ID.
	EffectID string `yaml:"effect"`
	// Duration is the effect duration in turns.
	Duration int `yaml:"duration"`
	// Magnitude is the per-turn damage/heal amount, or flat stat delta for buffs.
	Magnitude int `yaml:"magnitude"`
	// SelfTarget applies the effect to the caster instead of the enemy.
	SelfTarget bool `yaml:"self_target"`
}

// Skill defines a class combat skill unlocked at a given level.
type Skill struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	UnlockLevel int    `yaml:"unlock_level"`
	// Cooldown is the number of the caster's own turns before reuse.
	Cooldown int `yaml:"cooldown"`
	// Damage is a dice expression ("2d6+3"); empty for pure utility skills.
	Damage string `yaml:"damage"`
	// Scaling names the final stat added to the damage roll: "attack" or "magic".
	Scaling string       `yaml:"scaling"`
	Effect  *SkillEffect `yaml:"effect"`
}

// Class defines a playable class loaded from YAML.
type Class struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Starting    StartingStats `yaml:"starting"`
	PerLevel    GrowthStats   `yaml:"per_level"`
	Skills      []Skill       `yaml:"skills"`
}

// Validate checks that the class satisfies its invariants, including that
// every skill damage expression parses.
//
// Precondition: c must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, starting MaxHP
// >= 1, all starting stats >= 1, and all skills are well-formed.
func (c *Class) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("class: id must not be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("class %q: name must not be empty", c.ID)
	}
	if c.Starting.MaxHP < 1 {
		return fmt.Errorf("class %q: starting max_hp must be >= 1", c.ID)
	}
	for _, v := range []int{
		c.Starting.Strength, c.Starting.Dexterity, c.Starting.Constitution,
		c.Starting.Intelligence, c.Starting.Wisdom,
	} {
		if v < 1 {
			return fmt.Errorf("class %q: starting stats must all be >= 1", c.ID)
		}
	}
	seen := make(map[string]bool)
	for i, s := range c.Skills {
		if s.ID == "" {
			return fmt.Errorf("class %q: skill[%d] must have an id", c.ID, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("class %q: duplicate skill id %q", c.ID, s.ID)
		}
		seen[s.ID] = true
		if s.UnlockLevel < 1 {
			return fmt.Errorf("class %q: skill %q unlock_level must be >= 1", c.ID, s.ID)
		}
		if s.Cooldown < 0 {
			return fmt.Errorf("class %q: skill %q cooldown must be >= 0", c.ID, s.ID)
		}
		if s.Damage != "" {
			if _, err := dice.Parse(s.Damage); err != nil {
				return fmt.Errorf("class %q: skill %q: %w", c.ID, s.ID, err)
			}
			switch s.Scaling {
			case "attack", "magic":
			default:
				return fmt.Errorf("class %q: skill %q scaling must be attack or magic, got %q", c.ID, s.ID, s.Scaling)
			}
		}
		if s.Effect != nil {
			if s.Effect.EffectID == "" {
				return fmt.Errorf("class %q: skill %q effect must name an effect id", c.ID, s.ID)
			}
			if s.Effect.Duration < 1 {
				return fmt.Errorf("class %q: skill %q effect duration must be >= 1", c.ID, s.ID)
			}
		}
	}
	return nil
}

// Skill returns the class skill with the given id, or nil.
func (c *Class) Skill(id string) *Skill {
	for i := range c.Skills {
		if c.Skills[i].ID == id {
			return &c.Skills[i]
		}
	}
	return nil
}

// LoadClasses reads all *.yaml files in dir, parses and validates each as a
// Class, and returns the collected slice.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all classes or an error on the first parse or
// validate failure; on error the partial result is discarded.
func LoadClasses(dir string) ([]*Class, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading class dir %q: %w", dir, err)
	}

	var classes []*Class
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var c Class
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parsing class file %q: %w", path, err)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		classes = append(classes, &c)
	}
	return classes, nil
}
