package character

import (
	"github.com/ravenfell/server/internal/game/inventory"
	"github.com/ravenfell/server/internal/game/passive"
	"github.com/ravenfell/server/internal/game/ruleset"
	"github.com/ravenfell/server/internal/game/stats"
)

// Report lists the repairs Normalize made, for audit logging.
type Report struct {
	DroppedEquipment []string
	DroppedItems     []string
	DroppedCooldowns []string
	HPClamped        bool
	FieldsRepaired   bool
}

// Dirty reports whether Normalize changed anything.
func (r Report) Dirty() bool {
	return len(r.DroppedEquipment) > 0 || len(r.DroppedItems) > 0 ||
		len(r.DroppedCooldowns) > 0 || r.HPClamped || r.FieldsRepaired
}

// Normalize repairs a character loaded from storage so the rest of the
// engine never sees malformed state: numeric fields are clamped into their
// legal ranges, HP is clamped to the resolved maximum, references to
// content that no longer exists are dropped, and nil collections are
// allocated. Rows written by older content packs must load, not error.
//
// Precondition: c must not be nil. class may be nil (removed content).
// Postcondition: c satisfies every model invariant; the Report says what
// was repaired.
func Normalize(c *Character, class *ruleset.Class, items *inventory.Registry, passives passive.Bonuses) Report {
	var rep Report

	if c.Level < 1 {
		c.Level = 1
		rep.FieldsRepaired = true
	}
	if c.XP < 0 {
		c.XP = 0
		rep.FieldsRepaired = true
	}
	if c.Gold < 0 {
		c.Gold = 0
		rep.FieldsRepaired = true
	}
	if c.SkillPoints < 0 {
		c.SkillPoints = 0
		rep.FieldsRepaired = true
	}
	if c.Location == "" {
		c.Location = TownLocation
		rep.FieldsRepaired = true
	}

	if c.Backpack == nil {
		c.Backpack = inventory.NewBackpack(DefaultBackpackSlots)
		rep.FieldsRepaired = true
	}
	if c.Equipment == nil {
		c.Equipment = inventory.NewEquipment()
		rep.FieldsRepaired = true
	}
	if c.SkillCooldowns == nil {
		c.SkillCooldowns = make(map[string]int)
		rep.FieldsRepaired = true
	}
	if c.GlobalCooldown < 0 {
		c.GlobalCooldown = 0
		rep.FieldsRepaired = true
	}

	// Unequip gear whose definition is gone; its stats must not apply.
	for slot, itemID := range c.Equipment.Slots() {
		if _, ok := items.Item(itemID); !ok {
			c.Equipment.Unequip(slot)
			rep.DroppedEquipment = append(rep.DroppedEquipment, itemID)
		}
	}

	// Drop backpack stacks referencing unknown items.
	for _, inst := range c.Backpack.Items() {
		if _, ok := items.Item(inst.ItemDefID); !ok {
			c.Backpack.RemoveInstance(inst.InstanceID)
			rep.DroppedItems = append(rep.DroppedItems, inst.ItemDefID)
		}
	}

	// Prune cooldowns for skills the class no longer has.
	for id, turns := range c.SkillCooldowns {
		if class == nil || class.Skill(id) == nil {
			delete(c.SkillCooldowns, id)
			rep.DroppedCooldowns = append(rep.DroppedCooldowns, id)
			continue
		}
		if turns < 0 {
			c.SkillCooldowns[id] = 0
			rep.FieldsRepaired = true
		}
	}

	final := stats.Resolve(stats.BaseStats(class, c.Level), c.Equipment.Bonuses(items), passives)
	if c.HP > final.MaxHP {
		c.HP = final.MaxHP
		rep.HPClamped = true
	}
	if c.HP < 0 {
		c.HP = 0
		rep.HPClamped = true
	}

	return rep
}
