package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua table into L:
//
//	engine.log.debug(msg) / engine.log.info(msg) / engine.log.warn(msg)
//	engine.clamp(v, lo, hi)
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, key string) {
	engine := L.NewTable()

	logger := m.logger.With(zap.String("script", key))
	logFn := func(write func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			write(L.CheckString(1))
			return 0
		}
	}
	log := L.NewTable()
	L.SetFuncs(log, map[string]lua.LGFunction{
		"debug": logFn(logger.Debug),
		"info":  logFn(logger.Info),
		"warn":  logFn(logger.Warn),
	})
	L.SetField(engine, "log", log)

	L.SetField(engine, "clamp", L.NewFunction(func(L *lua.LState) int {
		v, lo, hi := L.CheckNumber(1), L.CheckNumber(2), L.CheckNumber(3)
		switch {
		case v < lo:
			v = lo
		case v > hi:
			v = hi
		}
		L.Push(v)
		return 1
	}))

	L.SetGlobal("engine", engine)
}
