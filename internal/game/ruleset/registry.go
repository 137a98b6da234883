package ruleset

// Registry provides class lookup by ID.
type Registry struct {
	classes map[string]*Class
}

// NewRegistry returns an empty Registry.
//
// Postcondition: Returns a non-nil *Registry ready to accept registrations.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// Register adds a Class to the registry.
//
// Precondition: c must be non-nil with a non-empty ID.
// Postcondition: c is retrievable via Class using c.ID; if called multiple
// times with the same ID, the last call wins.
func (r *Registry) Register(c *Class) {
	if c == nil {
		panic("ruleset: Registry.Register: precondition violated: class must be non-nil")
	}
	if c.ID == "" {
		panic("ruleset: Registry.Register: precondition violated: class ID must be non-empty")
	}
	r.classes[c.ID] = c
}

// Class returns the Class for the given ID.
//
// Postcondition: Returns the registered Class and true, or nil and false.
func (r *Registry) Class(id string) (*Class, bool) {
	c, ok := r.classes[id]
	return c, ok
}

// All returns a snapshot slice of all registered classes.
func (r *Registry) All() []*Class {
	out := make([]*Class, 0, len(r.classes))
	for _, c := range r.classes {
		out = append(out, c)
	}
	return out
}

// LoadRegistry loads all classes from dir into a fresh Registry.
//
// Precondition: dir must be a readable directory.
func LoadRegistry(dir string) (*Registry, error) {
	classes, err := LoadClasses(dir)
	if err != nil {
		return nil, err
	}
	reg := NewRegistry()
	for _, c := range classes {
		reg.Register(c)
	}
	return reg, nil
}
