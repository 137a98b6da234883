package effect

// Active is one status effect instance applied to a combatant.
type Active struct {
	ID        string
	Name      string
	Kind      Kind
	Stat      string // combat stat modified; empty for dot/hot
	Magnitude int    // per-tick damage/heal, or flat stat delta
	Duration  int    // turns remaining
}

// Pulse records the periodic result of one effect during a tick.
type Pulse struct {
	EffectID string
	Name     string
	Kind     Kind
	// Amount is the periodic magnitude: damage for a dot, healing for a hot.
	// Zero for buffs and debuffs.
	Amount int
	// Expired is true when this tick removed the effect.
	Expired bool
}

// Tracker holds the active status effects of one combatant.
// It is not safe for concurrent use; the combat session serialises access.
//
// Duplicate policy: re-applying an effect that is already active refreshes
// its duration and magnitude in place; effects never stack.
type Tracker struct {
	effects []Active // insertion-ordered so tick results are deterministic
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add applies e to the combatant. If an effect with the same ID is already
// active, its duration and magnitude are overwritten instead of stacking.
//
// Precondition: e.ID must be non-empty; e.Duration must be >= 1.
// Postcondition: Has(e.ID) is true; exactly one instance of e.ID is active.
func (t *Tracker) Add(e Active) {
	for i := range t.effects {
		if t.effects[i].ID == e.ID {
			t.effects[i].Duration = e.Duration
			t.effects[i].Magnitude = e.Magnitude
			return
		}
	}
	t.effects = append(t.effects, e)
}

// Remove deletes the effect with the given ID. No-op if not present.
//
// Postcondition: Has(id) is false.
func (t *Tracker) Remove(id string) {
	for i := range t.effects {
		if t.effects[i].ID == id {
			t.effects = append(t.effects[:i], t.effects[i+1:]...)
			return
		}
	}
}

// Tick applies every active effect's periodic behaviour, then decrements
// durations. Effects that reach 0 are removed at the end of the tick and
// reported with Expired set.
//
// Postcondition: After Duration calls to Tick, an effect is no longer in
// Active(); the returned pulses are in application order.
func (t *Tracker) Tick() []Pulse {
	pulses := make([]Pulse, 0, len(t.effects))
	remaining := t.effects[:0]
	for _, e := range t.effects {
		p := Pulse{EffectID: e.ID, Name: e.Name, Kind: e.Kind}
		if e.Kind == KindDOT || e.Kind == KindHOT {
			p.Amount = e.Magnitude
		}
		e.Duration--
		if e.Duration <= 0 {
			p.Expired = true
		} else {
			remaining = append(remaining, e)
		}
		pulses = append(pulses, p)
	}
	t.effects = remaining
	return pulses
}

// Has reports whether the effect with id is currently active.
func (t *Tracker) Has(id string) bool {
	for i := range t.effects {
		if t.effects[i].ID == id {
			return true
		}
	}
	return false
}

// Active returns a snapshot of the active effects. Mutating the returned
// slice does not affect the tracker.
func (t *Tracker) Active() []Active {
	out := make([]Active, len(t.effects))
	copy(out, t.effects)
	return out
}

// Clear removes all active effects. Called when combat ends.
//
// Postcondition: Active() is empty.
func (t *Tracker) Clear() {
	t.effects = nil
}

// Modifier returns the net stat delta for the named combat stat: buffs add
// their magnitude, debuffs subtract theirs.
//
// Postcondition: Returns 0 when no buff/debuff targets stat.
func (t *Tracker) Modifier(stat string) int {
	total := 0
	for i := range t.effects {
		if t.effects[i].Stat != stat {
			continue
		}
		switch t.effects[i].Kind {
		case KindBuff:
			total += t.effects[i].Magnitude
		case KindDebuff:
			total -= t.effects[i].Magnitude
		}
	}
	return total
}
