package scripting

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestSandboxStripsDangerousGlobals(t *testing.T) {
	L, cancel := NewSandboxedState(0)
	defer cancel()
	defer L.Close()

	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		if L.GetGlobal(name) != lua.LNil {
			t.Errorf("global %q should be stripped", name)
		}
	}
}

func TestSandboxSafeLibsPresent(t *testing.T) {
	L, cancel := NewSandboxedState(0)
	defer cancel()
	defer L.Close()

	if err := L.DoString(`y = math.floor(3.7); z = string.len("abc"); t = table.concat({"a", "b"}, "-")`); err != nil {
		t.Fatalf("safe libs unavailable: %v", err)
	}
}

func TestSandboxInstructionLimit(t *testing.T) {
	L, cancel := NewSandboxedState(1000)
	defer cancel()
	defer L.Close()

	err := L.DoString(`while true do end`)
	if err == nil {
		t.Fatal("infinite loop was not terminated")
	}
	if !strings.Contains(err.Error(), "context") {
		t.Logf("loop terminated with: %v", err)
	}
}
