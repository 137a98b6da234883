// Package inventory implements item content definitions, the capacity-bounded
// backpack, and equipment slots with stat aggregation.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Slot constants for equippable item kinds.
const (
	SlotWeapon    = "weapon"
	SlotArmor     = "armor"
	SlotHead      = "head"
	SlotAccessory = "accessory"
)

// EquipSlots lists every equipment slot in display order.
var EquipSlots = []string{SlotWeapon, SlotArmor, SlotHead, SlotAccessory}

// validSlots is the set of valid equipment slots.
var validSlots = map[string]bool{
	SlotWeapon: true, SlotArmor: true, SlotHead: true, SlotAccessory: true,
}

// Rarity tiers, lowest to highest.
const (
	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// RarityOrder maps each rarity tier to its rank, lowest first.
var RarityOrder = map[string]int{
	RarityCommon:    0,
	RarityUncommon:  1,
	RarityRare:      2,
	RarityEpic:      3,
	RarityLegendary: 4,
}

// StatBonuses holds the flat stat contributions of an equipped item, plus
// the percentage-point crit/dodge/block bonuses it exposes.
type StatBonuses struct {
	Attack  int `yaml:"attack"`
	Defense int `yaml:"defense"`
	Magic   int `yaml:"magic"`
	Agility int `yaml:"agility"`
	MaxHP   int `yaml:"max_hp"`

	Crit  float64 `yaml:"crit"`
	Dodge float64 `yaml:"dodge"`
	Block float64 `yaml:"block"`
}

// Add accumulates other into b.
func (b *StatBonuses) Add(other StatBonuses) {
	b.Attack += other.Attack
	b.Defense += other.Defense
	b.Magic += other.Magic
	b.Agility += other.Agility
	b.MaxHP += other.MaxHP
	b.Crit += other.Crit
	b.Dodge += other.Dodge
	b.Block += other.Block
}

// Consumable describes the status effect applied when an item is consumed.
type Consumable struct {
	// EffectID references an effect definition by ID.
	EffectID string `yaml:"effect"`
	// Duration is the effect duration in turns.
	Duration int `yaml:"duration"`
	// Magnitude is the per-turn or flat magnitude of the effect.
	Magnitude int `yaml:"magnitude"`
}

// ItemDef defines the static properties of an item loaded from YAML.
// Equippable items carry a Slot and StatBonuses; consumables carry a
// Consumable block; anything else is loot to be sold.
type ItemDef struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Rarity      string      `yaml:"rarity"`
	Slot        string      `yaml:"slot"` // empty = not equippable
	Bonuses     StatBonuses `yaml:"bonuses"`
	Consume     *Consumable `yaml:"consume"`
	Stackable   bool        `yaml:"stackable"`
	MaxStack    int         `yaml:"max_stack"`
	Value       int         `yaml:"value"` // vendor gold value
}

// Equippable reports whether the item occupies an equipment slot.
func (d *ItemDef) Equippable() bool { return d.Slot != "" }

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d must not be nil.
// Postcondition: Returns nil iff all fields are consistent.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if _, ok := RarityOrder[d.Rarity]; !ok {
		errs = append(errs, fmt.Errorf("rarity %q is not a known tier", d.Rarity))
	}
	if d.Slot != "" && !validSlots[d.Slot] {
		errs = append(errs, fmt.Errorf("slot %q is not a known equipment slot", d.Slot))
	}
	if d.Slot != "" && d.Stackable {
		errs = append(errs, errors.New("equippable items must not be stackable"))
	}
	if d.Stackable && d.MaxStack < 2 {
		errs = append(errs, errors.New("stackable items need max_stack >= 2"))
	}
	if !d.Stackable && d.MaxStack > 1 {
		errs = append(errs, errors.New("max_stack requires stackable: true"))
	}
	if d.Consume != nil {
		if d.Consume.EffectID == "" {
			errs = append(errs, errors.New("consume block must name an effect"))
		}
		if d.Consume.Duration < 1 {
			errs = append(errs, errors.New("consume duration must be >= 1"))
		}
	}
	if d.Value < 0 {
		errs = append(errs, errors.New("value must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q validation failed: %v", d.ID, errs)
	}
	return nil
}

// LoadItems reads all *.yaml files from dir, parses each as one or more
// ItemDefs (a file may hold a single item or a list), validates them, and
// returns the collected slice.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading item dir %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		var list []*ItemDef
		if err := yaml.Unmarshal(data, &list); err != nil {
			var single ItemDef
			if err2 := yaml.Unmarshal(data, &single); err2 != nil {
				return nil, fmt.Errorf("parsing item file %q: %w", path, err)
			}
			list = []*ItemDef{&single}
		}
		for _, d := range list {
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("loading %q: %w", path, err)
			}
			items = append(items, d)
		}
	}
	return items, nil
}
