// Package bind connects components to a store.
//
// A Binder is created over a Source, which reports state changes, and a
// state.Getter, which mapProps functions read from. Connect returns a
// Connector that wraps a Component:
//
//	counter := binder.Connect(func(get state.Getter, own bind.Props) bind.Props {
//		return bind.Props{"count": get.Get(state.P("count"), 0)}
//	})(view, "id")
//
//	counter.Mount(bind.Props{"id": "main"})
//	defer counter.Unmount()
//
// While mounted, the component re-renders whenever a notification carries a
// state whose fingerprint differs from the last one seen. Notifications that
// leave the fingerprint unchanged are ignored. After Unmount no state-driven
// render runs, including renders already handed to the scheduler.
//
// Binder depends only on the Fingerprinter and Getter capabilities, so any
// state representation that provides them can drive it.
package bind
