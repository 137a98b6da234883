package inventory

import "fmt"

// Equipment maps each equipment slot to the item definition equipped there.
// A slot holds at most one item ID; absent keys are empty slots.
type Equipment struct {
	slots map[string]string
}

// NewEquipment returns an Equipment with all slots empty.
func NewEquipment() *Equipment {
	return &Equipment{slots: make(map[string]string)}
}

// RestoreEquipment rebuilds Equipment from a persisted slot→itemID map.
// Unknown slot names are dropped.
func RestoreEquipment(slots map[string]string) *Equipment {
	eq := NewEquipment()
	for slot, id := range slots {
		if validSlots[slot] && id != "" {
			eq.slots[slot] = id
		}
	}
	return eq
}

// Equip places def into its slot and returns the item ID previously there
// ("" when the slot was empty). The caller is responsible for moving the
// displaced item back to the backpack.
//
// Precondition: def must be equippable.
// Postcondition: ItemIn(def.Slot) == def.ID.
func (e *Equipment) Equip(def *ItemDef) (string, error) {
	if !def.Equippable() {
		return "", fmt.Errorf("equipment: item %q has no slot", def.ID)
	}
	prev := e.slots[def.Slot]
	e.slots[def.Slot] = def.ID
	return prev, nil
}

// Unequip clears the given slot and returns the item ID that was there.
//
// Postcondition: Returns ErrItemNotFound when the slot was already empty.
func (e *Equipment) Unequip(slot string) (string, error) {
	id, ok := e.slots[slot]
	if !ok || id == "" {
		return "", fmt.Errorf("equipment: slot %q is empty: %w", slot, ErrItemNotFound)
	}
	delete(e.slots, slot)
	return id, nil
}

// ItemIn returns the item ID equipped in slot, or "".
func (e *Equipment) ItemIn(slot string) string { return e.slots[slot] }

// Slots returns a copy of the slot→itemID map, for persistence.
func (e *Equipment) Slots() map[string]string {
	out := make(map[string]string, len(e.slots))
	for slot, id := range e.slots {
		out[slot] = id
	}
	return out
}

// Bonuses aggregates the stat contributions of every equipped item.
// Items whose definitions are missing from reg contribute nothing; content
// reloads may orphan an equipped ID and that must not fault stat resolution.
//
// Precondition: reg must be non-nil.
// Postcondition: Returns the field-wise sum over all equipped, known items.
func (e *Equipment) Bonuses(reg *Registry) StatBonuses {
	var total StatBonuses
	for _, id := range e.slots {
		if def, ok := reg.Item(id); ok {
			total.Add(def.Bonuses)
		}
	}
	return total
}
