package scripting

import lua "github.com/yuin/gopher-lua"

// RegisterModules registers the engine.* Lua table into L:
//
//	engine.roll(expr)          -> total of a dice expression, or 0
//	engine.damage(uid, amount) -> deal damage to a combatant
//	engine.heal(uid, amount)   -> heal a combatant
//	engine.hp(uid)             -> current hp, max hp (or nil)
//	engine.notify(uid, msg)    -> send a message to a combatant
//
// Callbacks left nil on the Manager make the matching function a no-op.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: the engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	L.SetField(engine, "roll", L.NewFunction(func(L *lua.LState) int {
		expr := L.CheckString(1)
		res, err := m.roller.RollExpr(expr)
		if err != nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(res.Total()))
		return 1
	}))

	L.SetField(engine, "damage", L.NewFunction(func(L *lua.LState) int {
		uid := L.CheckString(1)
		amount := L.CheckInt(2)
		if m.ApplyDamage != nil {
			if err := m.ApplyDamage(uid, amount); err != nil {
				m.logger.Warn("scripting: engine.damage failed")
			}
		}
		return 0
	}))

	L.SetField(engine, "heal", L.NewFunction(func(L *lua.LState) int {
		uid := L.CheckString(1)
		amount := L.CheckInt(2)
		if m.Heal != nil {
			if err := m.Heal(uid, amount); err != nil {
				m.logger.Warn("scripting: engine.heal failed")
			}
		}
		return 0
	}))

	L.SetField(engine, "hp", L.NewFunction(func(L *lua.LState) int {
		uid := L.CheckString(1)
		if m.GetCombatant == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.GetCombatant(uid)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(info.HP))
		L.Push(lua.LNumber(info.MaxHP))
		return 2
	}))

	L.SetField(engine, "notify", L.NewFunction(func(L *lua.LState) int {
		uid := L.CheckString(1)
		msg := L.CheckString(2)
		if m.Notify != nil {
			m.Notify(uid, msg)
		}
		return 0
	}))

	L.SetGlobal("engine", engine)
}
