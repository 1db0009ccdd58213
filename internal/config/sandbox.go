package config

import (
	lua "github.com/yuin/gopher-lua"
)

// removedGlobals are unset before any settings code runs:
//   - os and io reach the host (os.execute, io.popen, io.open)
//   - require, dofile, loadfile, load and loadstring load external code
//   - debug, rawset and setmetatable can bypass the read-only platform table
//   - collectgarbage and module are not needed by declarative settings
var removedGlobals = []string{
	"os",
	"io",
	"require",
	"module",
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"debug",
	"rawset",
	"setmetatable",
	"collectgarbage",
}

// sandboxLuaVM restricts L to the string, table and math libraries plus
// the basic functions (type, tostring, pairs, ...).
func sandboxLuaVM(L *lua.LState) {
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a bounded Lua VM with sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize: maxCallStackSize,
	})
	sandboxLuaVM(L)
	return L
}
