package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrCapacity is returned when an add would exceed the backpack's slot limit.
var ErrCapacity = errors.New("inventory full")

// ErrItemNotFound is returned when an instance or item ID is not present.
var ErrItemNotFound = errors.New("item not found")

// ItemInstance is a concrete item stack held in a backpack.
// Quest-tagged instances cannot be dropped or sold while the tag is set.
type ItemInstance struct {
	InstanceID string
	ItemDefID  string
	Quantity   int
	QuestTag   string // owning quest ID; empty = untagged
}

// Backpack is an ordered, slot-limited item container with stacking.
// It is not safe for concurrent use; the caller serialises access.
type Backpack struct {
	MaxSlots int
	items    []ItemInstance
}

// NewBackpack creates a Backpack with the given slot limit.
//
// Precondition: maxSlots >= 1.
// Postcondition: the returned Backpack is empty.
func NewBackpack(maxSlots int) *Backpack {
	if maxSlots < 1 {
		panic("inventory: NewBackpack: precondition violated: maxSlots must be >= 1")
	}
	return &Backpack{MaxSlots: maxSlots}
}

// Restore rebuilds a Backpack from persisted instances, preserving order.
//
// Precondition: maxSlots >= 1; len(items) <= maxSlots.
func Restore(maxSlots int, items []ItemInstance) *Backpack {
	b := NewBackpack(maxSlots)
	b.items = append(b.items, items...)
	return b
}

// Add places quantity units of itemDefID into the backpack. Stackable items
// merge into existing untagged stacks first. The operation is atomic: if the
// slot limit would be exceeded, no state is modified and ErrCapacity is
// returned.
//
// Precondition: quantity > 0; itemDefID must exist in reg.
// Postcondition: on success the added instance (or the stack merged into) is
// returned; on error the backpack is unchanged.
func (b *Backpack) Add(itemDefID string, quantity int, reg *Registry) (*ItemInstance, error) {
	def, ok := reg.Item(itemDefID)
	if !ok {
		return nil, fmt.Errorf("backpack: unknown item %q: %w", itemDefID, ErrItemNotFound)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("backpack: quantity must be > 0, got %d", quantity)
	}

	if !def.Stackable {
		if quantity != 1 {
			return nil, fmt.Errorf("backpack: %q is not stackable; add one at a time", itemDefID)
		}
		if len(b.items) >= b.MaxSlots {
			return nil, fmt.Errorf("backpack: %w", ErrCapacity)
		}
		b.items = append(b.items, ItemInstance{
			InstanceID: uuid.NewString(),
			ItemDefID:  def.ID,
			Quantity:   1,
		})
		return &b.items[len(b.items)-1], nil
	}

	// Phase 1: plan. Compute how much merges into existing stacks and how
	// many fresh slots the remainder needs.
	remaining := quantity
	for i := range b.items {
		if remaining <= 0 {
			break
		}
		if b.items[i].ItemDefID == def.ID && b.items[i].QuestTag == "" && b.items[i].Quantity < def.MaxStack {
			room := def.MaxStack - b.items[i].Quantity
			if room > remaining {
				room = remaining
			}
			remaining -= room
		}
	}
	newSlots := (remaining + def.MaxStack - 1) / def.MaxStack
	if len(b.items)+newSlots > b.MaxSlots {
		return nil, fmt.Errorf("backpack: %w", ErrCapacity)
	}

	// Phase 2: apply.
	remaining = quantity
	var result *ItemInstance
	for i := range b.items {
		if remaining <= 0 {
			break
		}
		if b.items[i].ItemDefID == def.ID && b.items[i].QuestTag == "" && b.items[i].Quantity < def.MaxStack {
			room := def.MaxStack - b.items[i].Quantity
			if room > remaining {
				room = remaining
			}
			b.items[i].Quantity += room
			remaining -= room
			if result == nil {
				result = &b.items[i]
			}
		}
	}
	for remaining > 0 {
		take := remaining
		if take > def.MaxStack {
			take = def.MaxStack
		}
		b.items = append(b.items, ItemInstance{
			InstanceID: uuid.NewString(),
			ItemDefID:  def.ID,
			Quantity:   take,
		})
		remaining -= take
		if result == nil {
			result = &b.items[len(b.items)-1]
		}
	}
	return result, nil
}

// RemoveInstance deletes the instance with the given ID outright.
//
// Postcondition: Returns ErrItemNotFound if absent; otherwise the instance
// and all its quantity are gone.
func (b *Backpack) RemoveInstance(instanceID string) error {
	for i := range b.items {
		if b.items[i].InstanceID == instanceID {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("backpack: instance %q: %w", instanceID, ErrItemNotFound)
}

// Consume removes quantity units of itemDefID, draining untagged stacks in
// order. Quest-tagged stacks are never consumed.
//
// Precondition: quantity > 0.
// Postcondition: Returns ErrItemNotFound when fewer than quantity untagged
// units are held, in which case nothing is removed.
func (b *Backpack) Consume(itemDefID string, quantity int) error {
	available := 0
	for i := range b.items {
		if b.items[i].ItemDefID == itemDefID && b.items[i].QuestTag == "" {
			available += b.items[i].Quantity
		}
	}
	if available < quantity {
		return fmt.Errorf("backpack: need %d of %q, have %d: %w", quantity, itemDefID, available, ErrItemNotFound)
	}

	remaining := quantity
	kept := b.items[:0]
	for _, inst := range b.items {
		if remaining > 0 && inst.ItemDefID == itemDefID && inst.QuestTag == "" {
			take := inst.Quantity
			if take > remaining {
				take = remaining
			}
			inst.Quantity -= take
			remaining -= take
			if inst.Quantity == 0 {
				continue
			}
		}
		kept = append(kept, inst)
	}
	b.items = kept
	return nil
}

// Find returns the first instance of itemDefID, or (nil, false).
func (b *Backpack) Find(itemDefID string) (*ItemInstance, bool) {
	for i := range b.items {
		if b.items[i].ItemDefID == itemDefID {
			return &b.items[i], true
		}
	}
	return nil, false
}

// Instance returns the instance with the given instance ID, or (nil, false).
func (b *Backpack) Instance(instanceID string) (*ItemInstance, bool) {
	for i := range b.items {
		if b.items[i].InstanceID == instanceID {
			return &b.items[i], true
		}
	}
	return nil, false
}

// Tag marks the instance with the owning quest's ID.
//
// Postcondition: the instance can no longer be consumed; ErrItemNotFound if
// absent.
func (b *Backpack) Tag(instanceID, questID string) error {
	inst, ok := b.Instance(instanceID)
	if !ok {
		return fmt.Errorf("backpack: instance %q: %w", instanceID, ErrItemNotFound)
	}
	inst.QuestTag = questID
	return nil
}

// Items returns a snapshot of the held instances in order.
func (b *Backpack) Items() []ItemInstance {
	out := make([]ItemInstance, len(b.items))
	copy(out, b.items)
	return out
}

// UsedSlots returns the number of occupied slots.
func (b *Backpack) UsedSlots() int { return len(b.items) }
