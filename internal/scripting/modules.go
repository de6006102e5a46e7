package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine table into L:
//
//	engine.roll(expr)       total of a dice expression such as "2d6+1"
//	engine.between(lo, hi)  uniform integer in [lo, hi]
//	engine.log(msg)         writes msg to the application log
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "roll", L.NewFunction(m.luaRoll))
	L.SetField(engine, "between", L.NewFunction(m.luaBetween))
	L.SetField(engine, "log", L.NewFunction(m.luaLog))
	L.SetGlobal("engine", engine)
}

func (m *Manager) luaRoll(L *lua.LState) int {
	expr := L.CheckString(1)
	res, err := m.roller.RollExpr(expr)
	if err != nil {
		L.RaiseError("engine.roll(%q): %v", expr, err)
		return 0
	}
	L.Push(lua.LNumber(res.Total()))
	return 1
}

func (m *Manager) luaBetween(L *lua.LState) int {
	lo, hi := L.CheckInt(1), L.CheckInt(2)
	if hi < lo {
		L.ArgError(2, "hi must not be less than lo")
		return 0
	}
	L.Push(lua.LNumber(m.roller.Between(lo, hi)))
	return 1
}

func (m *Manager) luaLog(L *lua.LState) int {
	m.logger.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}
