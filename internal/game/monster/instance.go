package monster

// Instance is the combat-mutable copy of a Template, created fresh for one
// encounter and discarded when the encounter resolves.
type Instance struct {
	TemplateID string
	Name       string
	Level      int
	Rarity     string
	MaxHP      int
	CurrentHP  int
	Attack     int
	Defense    int
	Agility    int
	XPReward   int
	Abilities  []Ability
	Loot       *LootTable
	// Cooldowns maps ability ID to turns remaining before reuse. Zero means
	// ready. Initialised to zero for every declared ability.
	Cooldowns map[string]int
}

// NewInstance snapshots tmpl into a fresh combat instance at full HP with
// all ability cooldowns ready.
//
// Precondition: tmpl must be non-nil and validated.
// Postcondition: CurrentHP == tmpl.HP; Cooldowns has a zero entry per ability.
func NewInstance(tmpl *Template) *Instance {
	cooldowns := make(map[string]int, len(tmpl.Abilities))
	for _, a := range tmpl.Abilities {
		cooldowns[a.ID] = 0
	}
	return &Instance{
		TemplateID: tmpl.ID,
		Name:       tmpl.Name,
		Level:      tmpl.Level,
		Rarity:     tmpl.Rarity,
		MaxHP:      tmpl.HP,
		CurrentHP:  tmpl.HP,
		Attack:     tmpl.Attack,
		Defense:    tmpl.Defense,
		Agility:    tmpl.Agility,
		XPReward:   tmpl.XPReward,
		Abilities:  tmpl.Abilities,
		Loot:       tmpl.Loot,
		Cooldowns:  cooldowns,
	}
}

// IsDead reports whether the instance has zero or fewer hit points.
func (i *Instance) IsDead() bool { return i.CurrentHP <= 0 }

// ApplyDamage reduces CurrentHP by amount, flooring at zero.
//
// Precondition: amount >= 0.
// Postcondition: CurrentHP >= 0.
func (i *Instance) ApplyDamage(amount int) {
	i.CurrentHP -= amount
	if i.CurrentHP < 0 {
		i.CurrentHP = 0
	}
}

// Heal raises CurrentHP by amount, capped at MaxHP.
//
// Precondition: amount >= 0.
// Postcondition: CurrentHP <= MaxHP.
func (i *Instance) Heal(amount int) {
	i.CurrentHP += amount
	if i.CurrentHP > i.MaxHP {
		i.CurrentHP = i.MaxHP
	}
}

// ReadyAbility returns the first declared ability that is off cooldown, or
// nil when none is ready. Declared order is the AI's fixed preference order.
func (i *Instance) ReadyAbility() *Ability {
	for idx := range i.Abilities {
		if i.Cooldowns[i.Abilities[idx].ID] == 0 {
			return &i.Abilities[idx]
		}
	}
	return nil
}

// StartCooldown puts the ability on cooldown after use.
//
// Postcondition: ReadyAbility skips abilityID for the next Cooldown of the
// monster's own turns.
func (i *Instance) StartCooldown(a *Ability) {
	i.Cooldowns[a.ID] = a.Cooldown
}

// TickCooldowns decrements every non-zero ability cooldown by one. Called at
// the end of the monster's turn.
//
// Postcondition: No cooldown goes below zero.
func (i *Instance) TickCooldowns() {
	for id, cd := range i.Cooldowns {
		if cd > 0 {
			i.Cooldowns[id] = cd - 1
		}
	}
}
