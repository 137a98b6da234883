package effect_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ravenfell/server/internal/game/effect"
)

func TestDefinition_Validate(t *testing.T) {
	cases := []struct {
		name    string
		def     effect.Definition
		wantErr bool
	}{
		{"valid dot", effect.Definition{ID: "poison", Name: "Poison", Kind: effect.KindDOT}, false},
		{"valid buff", effect.Definition{ID: "war_cry", Name: "War Cry", Kind: effect.KindBuff, Stat: "attack"}, false},
		{"missing id", effect.Definition{Name: "Poison", Kind: effect.KindDOT}, true},
		{"missing name", effect.Definition{ID: "poison", Kind: effect.KindDOT}, true},
		{"bad kind", effect.Definition{ID: "x", Name: "X", Kind: "curse"}, true},
		{"buff without stat", effect.Definition{ID: "x", Name: "X", Kind: effect.KindBuff}, true},
		{"buff with bad stat", effect.Definition{ID: "x", Name: "X", Kind: effect.KindBuff, Stat: "charm"}, true},
		{"dot with stat", effect.Definition{ID: "x", Name: "X", Kind: effect.KindDOT, Stat: "attack"}, true},
	}
	for _, tc := range cases {
		err := tc.def.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	doc := `
id: burning
name: Burning
description: Fire damage each turn.
kind: dot
lua_on_apply: burning_apply
`
	if err := os.WriteFile(filepath.Join(dir, "burning.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	reg, err := effect.LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	def, ok := reg.Get("burning")
	if !ok {
		t.Fatal("burning not registered")
	}
	if def.Kind != effect.KindDOT || def.LuaOnApply != "burning_apply" {
		t.Errorf("unexpected definition: %+v", def)
	}
	if _, ok := reg.Get("frost"); ok {
		t.Error("Get(frost) should report not found")
	}
}
