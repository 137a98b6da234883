package scripting

import (
	"os"
	"path/filepath"
	"testing"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/ravenfell/server/internal/game/dice"
)

type fixedSrc struct{ v int }

func (s fixedSrc) Intn(n int) int {
	if s.v >= n {
		return n - 1
	}
	return s.v
}

func newTestManager() *Manager {
	return NewManager(dice.NewLoggedRoller(fixedSrc{v: 2}, zap.NewNop()), zap.NewNop())
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadPackAndDispatch(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "poison.lua", `
function on_apply_poison(uid, magnitude)
  engine.notify(uid, "poisoned for " .. magnitude)
  return magnitude * 2
end
`)

	m := newTestManager()
	var gotUID, gotMsg string
	m.Notify = func(uid, msg string) { gotUID, gotMsg = uid, msg }

	if err := m.LoadPack("core", dir, 0); err != nil {
		t.Fatalf("LoadPack: %v", err)
	}
	defer m.Close()

	ret, err := m.CallHook("core", "on_apply_poison", lua.LString("c-1"), lua.LNumber(5))
	if err != nil {
		t.Fatalf("CallHook: %v", err)
	}
	if gotUID != "c-1" || gotMsg != "poisoned for 5" {
		t.Errorf("notify callback got (%q, %q)", gotUID, gotMsg)
	}
	if n, ok := ret.(lua.LNumber); !ok || int(n) != 10 {
		t.Errorf("hook return = %v, want 10", ret)
	}
}

func TestOnApplyHelper(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "burn.lua", `
applied = 0
function on_apply_burning(uid, magnitude)
  applied = applied + 1
end
function applied_count()
  return applied
end
`)

	m := newTestManager()
	if err := m.LoadGlobal(dir, 0); err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	// Pack "arena" has no VM; dispatch falls back to the global one.
	m.OnApply("arena", "on_apply_burning", "c-9", 4)
	m.OnApply("arena", "on_apply_burning", "c-9", 4)
	m.OnExpire("arena", "on_expire_burning", "c-9") // undefined hook, silently skipped

	got, err := m.CallHook("arena", "applied_count")
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := got.(lua.LNumber); !ok || int(n) != 2 {
		t.Errorf("applied count = %v, want 2", got)
	}
}

func TestMissingHookIsNil(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "empty.lua", `-- no hooks here`)

	m := newTestManager()
	if err := m.LoadPack("core", dir, 0); err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	ret, err := m.CallHook("core", "on_apply_unknown")
	if err != nil || ret != lua.LNil {
		t.Errorf("missing hook = (%v, %v), want (nil, nil)", ret, err)
	}
}

func TestNoVMIsNil(t *testing.T) {
	m := newTestManager()
	ret, err := m.CallHook("nowhere", "on_apply_poison")
	if err != nil || ret != lua.LNil {
		t.Errorf("no-VM call = (%v, %v), want (nil, nil)", ret, err)
	}
}

func TestRuntimeErrorIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.lua", `
function on_apply_cursed(uid)
  error("the curse misfires")
end
`)

	m := newTestManager()
	if err := m.LoadPack("core", dir, 0); err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	ret, err := m.CallHook("core", "on_apply_cursed", lua.LString("c-1"))
	if err != nil {
		t.Fatalf("runtime error propagated: %v", err)
	}
	if ret != lua.LNil {
		t.Errorf("ret = %v, want nil", ret)
	}
}

func TestEngineRoll(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "roll.lua", `
function on_apply_rolling(uid)
  return engine.roll("2d6+1")
end
`)

	m := newTestManager()
	if err := m.LoadPack("core", dir, 0); err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	ret, err := m.CallHook("core", "on_apply_rolling", lua.LString("c-1"))
	if err != nil {
		t.Fatal(err)
	}
	// fixedSrc{2} rolls 3 per die: 3+3+1.
	if n, ok := ret.(lua.LNumber); !ok || int(n) != 7 {
		t.Errorf("roll returned %v, want 7", ret)
	}
}

func TestLoadPackBadScript(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", `function on_apply_( syntax error`)

	m := newTestManager()
	if err := m.LoadPack("core", dir, 0); err == nil {
		t.Error("expected load error for broken script")
	}
}
