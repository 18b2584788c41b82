package script

import lua "github.com/yuin/gopher-lua"

// newSandboxedState creates a Lua state with only the base, table, string
// and math libraries, and without the functions that load code from disk
// or strings.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
