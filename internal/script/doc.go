// Package script runs handlers and intents written in Lua.
//
// A script registers its functions through the global flux table:
//
//	flux.handle("inc_by", function(state, delta)
//	  state.count = state.count + (delta or 1)
//	  return state
//	end)
//
//	flux.intent("inc_10", function()
//	  flux.dispatch("inc_by", 10)
//	end)
//
// The functions available are:
//
//	flux.handle(type, fn)      register fn(state, payload) -> state
//	flux.intent(type [, fn])   register fn(payload); no fn means plain dispatch
//	flux.dispatch(type, payload)
//	flux.state([key, ...])     read the current state
//	flux.log(level, msg)
//	flux.array([t])            mark t, or a new table, as a JSON array
//	flux.null                  the value JSON null reads as
//
// State crosses into Lua as tables built from the Snapshot's JSON and comes
// back through the reverse conversion. Arrays keep an array marker, so an
// empty array stays an array; an unmarked empty table becomes an object.
// Integers beyond 2^53 arrive as opaque values that pass through unchanged
// but do not support arithmetic. A handler that returns nil, or a state equal
// to the one it received, leaves the state unchanged.
//
// Scripts run in a sandbox with only the base, table, string and math
// libraries; dofile, loadfile, load, loadstring and require are removed.
// One Lua state serves every call, guarded by a mutex. Dispatches made from
// Lua are sent after the Lua call returns, so a script never re-enters the
// interpreter.
package script
