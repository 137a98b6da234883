package stats

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/ravenfell/server/internal/game/inventory"
	"github.com/ravenfell/server/internal/game/passive"
	"github.com/ravenfell/server/internal/game/ruleset"
)

func warriorClass() *ruleset.Class {
	return &ruleset.Class{
		ID:   "warrior",
		Name: "Warrior",
		Starting: ruleset.StartingStats{
			Strength: 5, Dexterity: 3, Constitution: 4,
			Intelligence: 1, Wisdom: 2, MaxHP: 110,
		},
		PerLevel: ruleset.GrowthStats{
			Strength: 2.5, Dexterity: 1, Constitution: 2,
			Intelligence: 0.5, Wisdom: 0.5, MaxHP: 12,
		},
	}
}

func TestBaseStatsLevelOne(t *testing.T) {
	got := BaseStats(warriorClass(), 1)
	want := Base{Strength: 5, Dexterity: 3, Constitution: 4, Intelligence: 1, Wisdom: 2, MaxHP: 110}
	if got != want {
		t.Errorf("BaseStats(level 1) = %+v, want %+v", got, want)
	}
}

func TestBaseStatsFractionalGrowth(t *testing.T) {
	c := warriorClass()
	// 2.5 str/level: level 2 gains 2 (floor 7.5), level 3 gains 3 (floor 10).
	if got := BaseStats(c, 2).Strength; got != 7 {
		t.Errorf("level 2 strength = %d, want 7", got)
	}
	if got := BaseStats(c, 3).Strength; got != 10 {
		t.Errorf("level 3 strength = %d, want 10", got)
	}
	// 0.5 int/level only lands every other level.
	if got := BaseStats(c, 2).Intelligence; got != 1 {
		t.Errorf("level 2 intelligence = %d, want 1", got)
	}
	if got := BaseStats(c, 3).Intelligence; got != 2 {
		t.Errorf("level 3 intelligence = %d, want 2", got)
	}
}

func TestBaseStatsUnknownClass(t *testing.T) {
	got := BaseStats(nil, 12)
	want := Base{Strength: 1, Dexterity: 1, Constitution: 1, Intelligence: 1, Wisdom: 1, MaxHP: 100}
	if got != want {
		t.Errorf("BaseStats(nil) = %+v, want fallback %+v", got, want)
	}
}

func TestResolveBare(t *testing.T) {
	base := BaseStats(warriorClass(), 1)
	got := Resolve(base, inventory.StatBonuses{}, passive.Bonuses{XPMult: 1, GoldMult: 1})

	if got.Attack != 5 || got.Defense != 4 || got.Magic != 1 || got.Agility != 3 {
		t.Errorf("core stats = %+v", got)
	}
	if got.MaxHP != 110 {
		t.Errorf("max hp = %d, want 110", got.MaxHP)
	}
	if got.Crit != 1.5 { // 3 dex * 0.5
		t.Errorf("crit = %v, want 1.5", got.Crit)
	}
	if got.Dodge != 0.9 { // 3 dex * 0.3
		t.Errorf("dodge = %v, want 0.9", got.Dodge)
	}
	if got.Block != 0.8 { // 4 con * 0.2
		t.Errorf("block = %v, want 0.8", got.Block)
	}
}

func TestResolveWithEquipmentAndPassives(t *testing.T) {
	base := BaseStats(warriorClass(), 1)
	equip := inventory.StatBonuses{Attack: 5, Defense: 3, MaxHP: 20, Crit: 2}
	passives := passive.Bonuses{
		Flat:     passive.FlatBonuses{Strength: 2, Constitution: 1},
		XPMult:   1, GoldMult: 1,
		Crit: 1.0,
	}
	got := Resolve(base, equip, passives)

	if got.Attack != 12 { // (5 str + 2 passive) + 5 equip
		t.Errorf("attack = %d, want 12", got.Attack)
	}
	if got.Defense != 8 { // (4 con + 1 passive) + 3 equip
		t.Errorf("defense = %d, want 8", got.Defense)
	}
	if got.MaxHP != 130 {
		t.Errorf("max hp = %d, want 130", got.MaxHP)
	}
	if got.Crit != 4.5 { // 1.5 from dex + 2 equip + 1 passive
		t.Errorf("crit = %v, want 4.5", got.Crit)
	}
	if got.Block != 1.0 { // 5 con * 0.2
		t.Errorf("block = %v, want 1.0", got.Block)
	}
}

func TestResolveCaps(t *testing.T) {
	got := Resolve(Base{Dexterity: 1000, Constitution: 1000}, inventory.StatBonuses{}, passive.Bonuses{})
	if got.Crit != 100 {
		t.Errorf("crit = %v, want capped at 100", got.Crit)
	}
	if got.Dodge != 75 {
		t.Errorf("dodge = %v, want capped at 75", got.Dodge)
	}
	if got.Block != 50 {
		t.Errorf("block = %v, want capped at 50", got.Block)
	}

	neg := Resolve(Base{}, inventory.StatBonuses{Crit: -10, Dodge: -10, Block: -10}, passive.Bonuses{})
	if neg.Crit != 0 || neg.Dodge != 0 || neg.Block != 0 {
		t.Errorf("negative chances not floored at 0: %+v", neg)
	}
}

func TestResolveIsPure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := Base{
			Strength:     rapid.IntRange(1, 200).Draw(t, "str"),
			Dexterity:    rapid.IntRange(1, 200).Draw(t, "dex"),
			Constitution: rapid.IntRange(1, 200).Draw(t, "con"),
			Intelligence: rapid.IntRange(1, 200).Draw(t, "int"),
			Wisdom:       rapid.IntRange(1, 200).Draw(t, "wis"),
			MaxHP:        rapid.IntRange(1, 5000).Draw(t, "hp"),
		}
		equip := inventory.StatBonuses{
			Attack: rapid.IntRange(0, 100).Draw(t, "atk"),
			Crit:   rapid.Float64Range(0, 50).Draw(t, "crit"),
		}
		a := Resolve(base, equip, passive.Bonuses{XPMult: 1, GoldMult: 1})
		b := Resolve(base, equip, passive.Bonuses{XPMult: 1, GoldMult: 1})
		if a != b {
			t.Fatalf("resolution not deterministic: %+v vs %+v", a, b)
		}
		if a.Crit < 0 || a.Crit > 100 || a.Dodge < 0 || a.Dodge > 75 || a.Block < 0 || a.Block > 50 {
			t.Fatalf("derived chance out of range: %+v", a)
		}
	})
}
