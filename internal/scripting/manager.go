package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/ravenfell/server/internal/game/dice"
)

// globalPackID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no pack VM is found.
const globalPackID = "__global__"

// CombatantInfo is a snapshot of a combatant's state passed to Lua hooks.
type CombatantInfo struct {
	UID   string
	Name  string
	HP    int
	MaxHP int
}

// Manager owns one sandboxed LState per content pack and exposes status
// effect hook dispatch. Effect scripts define global functions named
// on_apply_<effectID> and on_expire_<effectID>; both receive the target's
// UID and the effect's magnitude.
//
// Manager is safe for concurrent CallHook after all Load calls complete.
// Each pack's LState is single-threaded; the read lock serialises
// concurrent calls into the same pack.
type Manager struct {
	mu      sync.RWMutex
	states  map[string]*lua.LState
	cancels map[string]func()
	roller  *dice.Roller
	logger  *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	GetCombatant func(uid string) *CombatantInfo
	ApplyDamage  func(uid string, amount int) error
	Heal         func(uid string, amount int) error
	Notify       func(uid, msg string)
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	return &Manager{
		states:  make(map[string]*lua.LState),
		cancels: make(map[string]func()),
		roller:  roller,
		logger:  logger,
	}
}

// LoadPack creates a sandboxed VM for packID, registers the engine.*
// module, then executes every *.lua file in scriptDir in lexicographic
// order.
//
// Precondition: packID must be non-empty; scriptDir must be readable.
func (m *Manager) LoadPack(packID, scriptDir string, instLimit int) error {
	return m.loadInto(packID, scriptDir, instLimit)
}

// LoadGlobal creates the shared VM used as a CallHook fallback for effect
// IDs that belong to no specific pack.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalPackID, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		if oldCancel := m.cancels[key]; oldCancel != nil {
			oldCancel()
		}
		old.Close()
	}
	m.states[key] = L
	m.cancels[key] = cancel
	m.mu.Unlock()
	return nil
}

// OnApply dispatches an effect's apply hook by Lua function name, if the
// pack defines it. Script errors never interrupt combat.
func (m *Manager) OnApply(packID, hook, targetUID string, magnitude int) {
	m.CallHook(packID, hook, lua.LString(targetUID), lua.LNumber(magnitude))
}

// OnExpire dispatches an effect's expiry hook by Lua function name.
func (m *Manager) OnExpire(packID, hook, targetUID string) {
	m.CallHook(packID, hook, lua.LString(targetUID))
}

// CallHook calls the named Lua global function in packID's VM. If the pack
// has no VM, the shared VM is tried as a fallback. Returns (LNil, nil) if
// the hook is not defined or no VM exists. Lua runtime errors are logged
// at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(packID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	L, ok := m.states[packID]
	if !ok {
		L = m.states[globalPackID]
	}
	m.mu.RUnlock()

	if L == nil {
		return lua.LNil, nil
	}

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: lua runtime error",
			zap.String("pack", packID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close tears down every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, L := range m.states {
		if cancel := m.cancels[key]; cancel != nil {
			cancel()
		}
		L.Close()
	}
	m.states = make(map[string]*lua.LState)
	m.cancels = make(map[string]func())
}
