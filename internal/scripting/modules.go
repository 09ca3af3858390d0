package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.log, engine.dice, and engine.combat
// tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "combat", m.combatModule(L))
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	mod := L.NewTable()
	for name, logf := range levels {
		logf := logf
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			logf(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	// roll(expr) -> {total, dice, modifier}; dice is the sum of the dice.
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		r, err := m.roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.RaiseError("engine.dice.roll: %s", err.Error())
			return 0
		}
		t := L.NewTable()
		L.SetField(t, "total", lua.LNumber(r.Total()))
		L.SetField(t, "dice", lua.LNumber(r.Sum()))
		L.SetField(t, "modifier", lua.LNumber(r.Modifier))
		L.Push(t)
		return 1
	}))
	return mod
}

func (m *Manager) combatModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()

	L.SetField(mod, "combatant", L.NewFunction(func(L *lua.LState) int {
		uid := L.CheckString(1)
		if m.GetCombatant == nil {
			L.Push(lua.LNil)
			return 1
		}
		c := m.GetCombatant(uid)
		if c == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(combatantTable(L, c))
		return 1
	}))

	L.SetField(mod, "enemies", L.NewFunction(func(L *lua.LState) int {
		L.Push(combatantList(L, m.standing(L.CheckString(1), false)))
		return 1
	}))
	L.SetField(mod, "allies", L.NewFunction(func(L *lua.LState) int {
		L.Push(combatantList(L, m.standing(L.CheckString(1), true)))
		return 1
	}))
	L.SetField(mod, "enemy_count", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(len(m.standing(L.CheckString(1), false))))
		return 1
	}))
	L.SetField(mod, "ally_count", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(len(m.standing(L.CheckString(1), true))))
		return 1
	}))

	L.SetField(mod, "distance", L.NewFunction(func(L *lua.LState) int {
		a, b := L.CheckString(1), L.CheckString(2)
		if m.Distance == nil {
			L.Push(lua.LNil)
			return 1
		}
		d, ok := m.Distance(a, b)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(d))
		return 1
	}))

	L.SetField(mod, "line_of_sight", L.NewFunction(func(L *lua.LState) int {
		a, b := L.CheckString(1), L.CheckString(2)
		L.Push(lua.LBool(m.HasLineOfSight != nil && m.HasLineOfSight(a, b)))
		return 1
	}))
	return mod
}

// standing returns the standing combatants on uid's side (sameSide) or the
// opposing side, excluding uid itself.
func (m *Manager) standing(uid string, sameSide bool) []*CombatantInfo {
	if m.GetCombatants == nil {
		return nil
	}
	all := m.GetCombatants(uid)
	var self *CombatantInfo
	for _, c := range all {
		if c.UID == uid {
			self = c
			break
		}
	}
	if self == nil {
		return nil
	}
	var out []*CombatantInfo
	for _, c := range all {
		if c.UID == uid || c.KnockedOut {
			continue
		}
		if (c.Side == self.Side) == sameSide {
			out = append(out, c)
		}
	}
	return out
}

func combatantTable(L *lua.LState, c *CombatantInfo) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "uid", lua.LString(c.UID))
	L.SetField(t, "name", lua.LString(c.Name))
	L.SetField(t, "kind", lua.LString(c.Kind))
	L.SetField(t, "side", lua.LString(c.Side))
	L.SetField(t, "level", lua.LNumber(c.Level))
	L.SetField(t, "hp", lua.LNumber(c.HP))
	L.SetField(t, "max_hp", lua.LNumber(c.MaxHP))
	L.SetField(t, "ap", lua.LNumber(c.AP))
	L.SetField(t, "reach", lua.LNumber(c.Reach))
	L.SetField(t, "x", lua.LNumber(c.X))
	L.SetField(t, "y", lua.LNumber(c.Y))
	L.SetField(t, "knocked_out", lua.LBool(c.KnockedOut))
	L.SetField(t, "defending", lua.LBool(c.Defending))
	L.SetField(t, "healing_items", lua.LNumber(c.HealingItems))
	return t
}

func combatantList(L *lua.LState, cs []*CombatantInfo) *lua.LTable {
	t := L.NewTable()
	for _, c := range cs {
		t.Append(combatantTable(L, c))
	}
	return t
}
