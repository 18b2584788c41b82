// Package flux is a Flux-style state container.
//
// A Flux holds one immutable Snapshot of application state. Handlers,
// registered per event type, compute the next Snapshot from the current one
// and an event payload. Dispatch runs events through a single processing
// loop: each event is applied, committed and announced to every subscriber
// before the next one starts. Events with no handler leave the state
// unchanged.
//
//	f := flux.New(flux.MustParse(`{"count":5}`))
//	f.Handle("inc_by", flux.Typed(func(s flux.Snapshot, delta int) (flux.Snapshot, error) {
//		if delta == 0 {
//			delta = 1
//		}
//		n, _ := s.Lookup(flux.P("count"))
//		return s.Set(flux.P("count"), n.Int()+int64(delta))
//	}))
//	f.Dispatch("inc_by", 10)
//
// Intents name actions. An intent with no custom function dispatches an
// event of the same name, so f.Call("inc_by", 10) is equivalent to the
// Dispatch above.
//
// Connect binds components to the store; see package internal/bind for the
// render rules. LoadScript registers handlers and intents written in Lua.
package flux
