package passive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validDef() *Definition {
	return &Definition{
		ID:       "iron_hide",
		Name:     "Iron Hide",
		Bucket:   BucketFlat,
		Target:   "constitution",
		PerLevel: 1,
		BaseCost: 10,
		MaxLevel: 30,
	}
}

func TestDefinitionValidate(t *testing.T) {
	if err := validDef().Validate(); err != nil {
		t.Fatalf("valid definition rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Definition)
	}{
		{"empty id", func(d *Definition) { d.ID = "" }},
		{"empty name", func(d *Definition) { d.Name = "" }},
		{"bad bucket", func(d *Definition) { d.Bucket = "additive" }},
		{"flat target not a stat", func(d *Definition) { d.Target = "gold" }},
		{"multiplier target not a stream", func(d *Definition) { d.Bucket = BucketMultiplier; d.Target = "strength" }},
		{"zero per-level", func(d *Definition) { d.PerLevel = 0 }},
		{"zero base cost", func(d *Definition) { d.BaseCost = 0 }},
		{"negative max level", func(d *Definition) { d.MaxLevel = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDef()
			tc.mutate(d)
			if err := d.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestUpgradeCost(t *testing.T) {
	def := validDef()
	cases := []struct {
		level      int
		wantSouls  int
		wantLegacy int
	}{
		{0, 10, 0},
		{3, 10, 0},
		{4, 10, 1},  // buying level 5
		{9, 10, 1},  // buying level 10
		{10, 12, 0}, // soul cost steps up past level 10
		{14, 12, 1},
		{20, 14, 0},
	}
	for _, tc := range cases {
		got := UpgradeCost(def, tc.level)
		if got.Souls != tc.wantSouls || got.Legacy != tc.wantLegacy {
			t.Errorf("UpgradeCost(level=%d) = %+v, want souls=%d legacy=%d",
				tc.level, got, tc.wantSouls, tc.wantLegacy)
		}
	}
}

func TestSpend(t *testing.T) {
	reg := NewRegistry()
	reg.Register(validDef())

	prog := NewProgress()
	prog.Souls = 25

	if err := Spend(prog, reg, "iron_hide"); err != nil {
		t.Fatalf("first spend: %v", err)
	}
	if prog.Level("iron_hide") != 1 || prog.Souls != 15 || prog.SoulsSpent != 10 {
		t.Errorf("after spend: level=%d souls=%d spent=%d", prog.Level("iron_hide"), prog.Souls, prog.SoulsSpent)
	}

	// Second spend succeeds, third fails with 5 souls left.
	if err := Spend(prog, reg, "iron_hide"); err != nil {
		t.Fatalf("second spend: %v", err)
	}
	if err := Spend(prog, reg, "iron_hide"); !errors.Is(err, ErrInsufficientResources) {
		t.Errorf("expected ErrInsufficientResources, got %v", err)
	}
	if prog.Level("iron_hide") != 2 || prog.Souls != 5 {
		t.Errorf("failed spend mutated progress: level=%d souls=%d", prog.Level("iron_hide"), prog.Souls)
	}

	if err := Spend(prog, reg, "ghost_step"); !errors.Is(err, ErrUnknownPassive) {
		t.Errorf("expected ErrUnknownPassive, got %v", err)
	}
}

func TestSpendLegacyGate(t *testing.T) {
	reg := NewRegistry()
	reg.Register(validDef())

	prog := NewProgress()
	prog.Souls = 1000
	prog.Levels["iron_hide"] = 4

	// Level 5 costs a legacy point the account does not have.
	if err := Spend(prog, reg, "iron_hide"); !errors.Is(err, ErrInsufficientResources) {
		t.Fatalf("expected ErrInsufficientResources, got %v", err)
	}
	prog.LegacyPoints = 1
	if err := Spend(prog, reg, "iron_hide"); err != nil {
		t.Fatalf("spend with legacy point: %v", err)
	}
	if prog.LegacyPoints != 0 || prog.LegacySpent != 1 {
		t.Errorf("legacy not debited: points=%d spent=%d", prog.LegacyPoints, prog.LegacySpent)
	}
}

func TestSpendMaxLevel(t *testing.T) {
	def := validDef()
	def.MaxLevel = 2
	reg := NewRegistry()
	reg.Register(def)

	prog := NewProgress()
	prog.Souls = 1000
	prog.Levels[def.ID] = 2

	if err := Spend(prog, reg, def.ID); !errors.Is(err, ErrMaxLevel) {
		t.Errorf("expected ErrMaxLevel, got %v", err)
	}
}

func TestRespec(t *testing.T) {
	prog := NewProgress()
	prog.Levels["iron_hide"] = 7
	prog.Souls = 3
	prog.SoulsSpent = 77
	prog.LegacyPoints = 0
	prog.LegacySpent = 2

	Respec(prog, 0.5)

	if prog.Souls != 3+38 { // floor(77 * 0.5)
		t.Errorf("souls after respec = %d, want 41", prog.Souls)
	}
	if prog.LegacyPoints != 2 {
		t.Errorf("legacy after respec = %d, want 2", prog.LegacyPoints)
	}
	if len(prog.Levels) != 0 || prog.SoulsSpent != 0 || prog.LegacySpent != 0 {
		t.Errorf("respec left residue: %+v", prog)
	}
}

func TestAggregate(t *testing.T) {
	reg := NewRegistry()
	reg.Register(validDef())
	reg.Register(&Definition{
		ID: "soul_harvest", Name: "Soul Harvest",
		Bucket: BucketMultiplier, Target: "xp", PerLevel: 0.05, BaseCost: 20,
	})
	reg.Register(&Definition{
		ID: "keen_eye", Name: "Keen Eye",
		Bucket: BucketCombat, Target: "crit", PerLevel: 0.5, BaseCost: 15,
	})

	prog := NewProgress()
	prog.Levels["iron_hide"] = 3
	prog.Levels["soul_harvest"] = 2
	prog.Levels["keen_eye"] = 4
	prog.Levels["retired_passive"] = 9 // absent from registry, skipped

	b := Aggregate(prog, reg)
	if b.Flat.Constitution != 3 {
		t.Errorf("constitution bonus = %d, want 3", b.Flat.Constitution)
	}
	if b.XPMult != 1.10 {
		t.Errorf("xp mult = %v, want 1.10", b.XPMult)
	}
	if b.GoldMult != 1.0 {
		t.Errorf("gold mult = %v, want 1.0", b.GoldMult)
	}
	if b.Crit != 2.0 {
		t.Errorf("crit bonus = %v, want 2.0", b.Crit)
	}
}

func TestAggregateEmpty(t *testing.T) {
	b := Aggregate(NewProgress(), NewRegistry())
	if b.XPMult != 1.0 || b.GoldMult != 1.0 || b.Crit != 0 || b.Flat.Strength != 0 {
		t.Errorf("fresh account bonuses not neutral: %+v", b)
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	doc := `
id: iron_hide
name: Iron Hide
bucket: flat
target: constitution
per_level: 1
base_cost: 10
max_level: 30
`
	if err := os.WriteFile(filepath.Join(dir, "iron_hide.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	def, ok := reg.Get("iron_hide")
	if !ok {
		t.Fatal("iron_hide not loaded")
	}
	if def.BaseCost != 10 || def.Target != "constitution" {
		t.Errorf("loaded definition mismatch: %+v", def)
	}
}

func TestLoadDirectoryRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	doc := "id: broken\nname: Broken\nbucket: flat\ntarget: gold\nper_level: 1\nbase_cost: 5\n"
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDirectory(dir); err == nil {
		t.Error("expected load error for invalid target")
	}
}
