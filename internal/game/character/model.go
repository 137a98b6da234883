// Package character defines the persistent player character model and the
// normalization applied when one is loaded from storage.
package character

import (
	"time"

	"github.com/google/uuid"

	"github.com/ravenfell/server/internal/game/inventory"
	"github.com/ravenfell/server/internal/game/ruleset"
	"github.com/ravenfell/server/internal/game/stats"
)

// TownLocation is where characters respawn after death.
const TownLocation = "town"

// DefaultBackpackSlots is the backpack capacity of a new character.
const DefaultBackpackSlots = 20

// Character is the persistent state of a single player character.
// Combat-local state (session, turn, active effects) lives in the combat
// package and is never persisted here.
type Character struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"accountId"`
	Name      string    `json:"name"`
	ClassID   string    `json:"classId"`

	Level       int  `json:"level"`
	XP          int  `json:"xp"`
	HP          int  `json:"hp"`
	Gold        int  `json:"gold"`
	SkillPoints int  `json:"skillPoints"`
	Hardcore    bool `json:"hardcore"`

	Location string `json:"location"`

	Equipment *inventory.Equipment `json:"equipment"`
	Backpack  *inventory.Backpack  `json:"backpack"`

	// SkillCooldowns maps skill ID to remaining turns. Entries at 0 are
	// pruned when combat ends.
	SkillCooldowns map[string]int `json:"skillCooldowns"`
	// GlobalCooldown gates all skill use for a number of the player's turns.
	GlobalCooldown int `json:"globalCooldown"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New creates a level-1 character of the given class at full HP, standing
// in town with an empty backpack.
//
// Precondition: class must not be nil and must have been validated.
func New(accountID uuid.UUID, name string, class *ruleset.Class, hardcore bool) *Character {
	base := stats.BaseStats(class, 1)
	now := time.Now().UTC()
	return &Character{
		ID:             uuid.New(),
		AccountID:      accountID,
		Name:           name,
		ClassID:        class.ID,
		Level:          1,
		HP:             base.MaxHP,
		Hardcore:       hardcore,
		Location:       TownLocation,
		Equipment:      inventory.NewEquipment(),
		Backpack:       inventory.NewBackpack(DefaultBackpackSlots),
		SkillCooldowns: make(map[string]int),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsDead reports whether the character's HP has reached zero.
func (c *Character) IsDead() bool {
	return c.HP <= 0
}

// ApplyDamage reduces HP, flooring at zero.
func (c *Character) ApplyDamage(amount int) {
	c.HP -= amount
	if c.HP < 0 {
		c.HP = 0
	}
}

// Heal raises HP, capped at the given maximum.
func (c *Character) Heal(amount, maxHP int) {
	c.HP += amount
	if c.HP > maxHP {
		c.HP = maxHP
	}
}

// ClearCombatState drops finished cooldowns after a combat ends.
func (c *Character) ClearCombatState() {
	c.SkillCooldowns = make(map[string]int)
	c.GlobalCooldown = 0
}

// UnlockedSkills returns the class skills the character's level has
// unlocked, in declared order. Returns nil for an unknown class.
func (c *Character) UnlockedSkills(class *ruleset.Class) []ruleset.Skill {
	if class == nil {
		return nil
	}
	var out []ruleset.Skill
	for _, s := range class.Skills {
		if s.UnlockLevel <= c.Level {
			out = append(out, s)
		}
	}
	return out
}
