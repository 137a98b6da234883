package inventory

import "fmt"

// Registry indexes all loaded item definitions by ID. The original content
// tables (weapons, armor, headgear, accessories) are folded into this single
// index at load time so lookups never scan.
type Registry struct {
	items map[string]*ItemDef
}

// NewRegistry returns an empty Registry.
//
// Postcondition: the internal index is initialised.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*ItemDef)}
}

// Register adds d to the registry.
//
// Precondition: d must not be nil.
// Postcondition: Item(d.ID) returns (d, true); returns an error if d.ID is
// already registered.
func (r *Registry) Register(d *ItemDef) error {
	if _, exists := r.items[d.ID]; exists {
		return fmt.Errorf("inventory: Registry.Register: item ID %q already registered", d.ID)
	}
	r.items[d.ID] = d
	return nil
}

// Item returns the ItemDef for the given id.
//
// Postcondition: Returns (def, true) if found, or (nil, false) otherwise.
func (r *Registry) Item(id string) (*ItemDef, bool) {
	d, ok := r.items[id]
	return d, ok
}

// Count returns the number of registered items.
func (r *Registry) Count() int { return len(r.items) }

// ByRarity returns the IDs of all items with the given rarity, in
// unspecified order.
func (r *Registry) ByRarity(rarity string) []string {
	var out []string
	for id, d := range r.items {
		if d.Rarity == rarity {
			out = append(out, id)
		}
	}
	return out
}

// LoadRegistry loads all item definitions from dir into a fresh Registry.
//
// Precondition: dir must be a readable directory.
func LoadRegistry(dir string) (*Registry, error) {
	items, err := LoadItems(dir)
	if err != nil {
		return nil, err
	}
	reg := NewRegistry()
	for _, d := range items {
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
