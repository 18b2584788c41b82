package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/flux/internal/event"
	"github.com/dshills/flux/internal/handler"
	"github.com/dshills/flux/internal/intent"
	"github.com/dshills/flux/internal/logging"
	"github.com/dshills/flux/internal/state"
)

// DefaultTimeout bounds a single Lua call.
const DefaultTimeout = 5 * time.Second

// Host is the store a script registers with.
type Host interface {
	Handle(t event.Type, fn handler.Func) handler.Func
	Intent(t event.Type, fn intent.Intent) intent.Intent
	Dispatch(t event.Type, payload any) (event.Event, error)
	Snapshot() state.Snapshot
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by flux.log and for dispatch failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTimeout bounds each Lua call. Zero or less disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

type outgoing struct {
	t       event.Type
	payload any
}

// Engine runs Lua scripts against a Host.
type Engine struct {
	host    Host
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	L       *lua.LState
	closed  bool
	current string
	outbox  []outgoing
	scripts []string
}

// New creates an engine bound to host.
func New(host Host, opts ...Option) *Engine {
	e := &Engine{
		host:    host,
		logger:  slog.Default(),
		timeout: DefaultTimeout,
		L:       newSandboxedState(),
	}
	for _, opt := range opts {
		opt(e)
	}

	mod := e.L.SetFuncs(e.L.NewTable(), map[string]lua.LGFunction{
		"handle":   e.luaHandle,
		"intent":   e.luaIntent,
		"dispatch": e.luaDispatch,
		"state":    e.luaState,
		"log":      e.luaLog,
		"array":    e.luaArray,
	})
	mod.RawSetString("null", jsonNull(e.L))
	e.L.SetGlobal("flux", mod)
	return e
}

// Load runs the script at path.
func (e *Engine) Load(path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script %s: %w", path, err)
	}
	return e.LoadString(path, string(code))
}

// LoadString runs code as the script called name.
func (e *Engine) LoadString(name, code string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}

	e.current = name
	fn, err := e.L.LoadString(code)
	if err == nil {
		_, err = e.call(fn, 0)
	}
	e.current = ""
	out := e.takeOutbox()
	if err == nil {
		e.scripts = append(e.scripts, name)
	}
	e.mu.Unlock()

	if err != nil {
		return &ScriptError{Name: name, Err: err}
	}
	return e.flush(out)
}

// Scripts returns the names of the scripts loaded so far.
func (e *Engine) Scripts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.scripts...)
}

// Close releases the Lua state. Handlers and intents registered by scripts
// return ErrClosed afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.L.Close()
	return nil
}

// call runs fn with e.mu held and returns its nret results.
func (e *Engine) call(fn *lua.LFunction, nret int, args ...lua.LValue) (rets []lua.LValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	if e.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		e.L.SetContext(ctx)
		defer e.L.RemoveContext()

		defer func() {
			if err != nil && ctx.Err() != nil {
				err = fmt.Errorf("%w: %v", ErrTimeout, err)
			}
		}()
	}

	top := e.L.GetTop()
	if err := e.L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		e.L.SetTop(top)
		return nil, err
	}

	n := e.L.GetTop() - top
	rets = make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		rets[i] = e.L.Get(top + i + 1)
	}
	e.L.Pop(n)
	return rets, nil
}

func (e *Engine) takeOutbox() []outgoing {
	out := e.outbox
	e.outbox = nil
	return out
}

// flush dispatches the events a Lua call queued. It runs without e.mu so
// the handlers it triggers may be Lua handlers too.
func (e *Engine) flush(out []outgoing) error {
	var errs []error
	for _, o := range out {
		if _, err := e.host.Dispatch(o.t, o.payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) handlerFor(script string, t event.Type, fn *lua.LFunction) handler.Func {
	return func(s state.Snapshot, evt event.Event) (state.Snapshot, error) {
		doc, ok := s.Lookup(state.Path{})
		if !ok {
			doc, _ = state.Empty().Lookup(state.Path{})
		}

		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return s, ErrClosed
		}
		rets, err := e.call(fn, 1, resultToLua(e.L, doc), toLua(e.L, evt.Payload))
		var result any
		if err == nil && rets[0] != lua.LNil {
			result = toGo(rets[0])
		}
		out := e.takeOutbox()
		e.mu.Unlock()

		if err != nil {
			return s, &ScriptError{Name: script, Func: string(t), Err: err}
		}
		if ferr := e.flush(out); ferr != nil {
			e.logger.Warn("script dispatch failed", "script", script, "handler", t, "error", ferr)
		}
		if result == nil {
			return s, nil
		}

		next, err := state.FromValue(result)
		if err != nil {
			return s, &ScriptError{Name: script, Func: string(t), Err: err}
		}
		// Keep the original text when the script changed nothing.
		if next.Equal(s) {
			return s, nil
		}
		return next, nil
	}
}

func (e *Engine) intentFor(script string, t event.Type, fn *lua.LFunction) intent.Intent {
	return func(payload any) error {
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return ErrClosed
		}
		_, err := e.call(fn, 0, toLua(e.L, payload))
		out := e.takeOutbox()
		e.mu.Unlock()

		if err != nil {
			return &ScriptError{Name: script, Func: string(t), Err: err}
		}
		return e.flush(out)
	}
}

// flux.handle(type, fn)
func (e *Engine) luaHandle(L *lua.LState) int {
	t := event.Type(L.CheckString(1))
	fn := L.CheckFunction(2)
	e.host.Handle(t, e.handlerFor(e.current, t, fn))
	return 0
}

// flux.intent(type [, fn])
func (e *Engine) luaIntent(L *lua.LState) int {
	t := event.Type(L.CheckString(1))
	fn := L.OptFunction(2, nil)
	if fn == nil {
		e.host.Intent(t, nil)
		return 0
	}
	e.host.Intent(t, e.intentFor(e.current, t, fn))
	return 0
}

// flux.dispatch(type, payload)
func (e *Engine) luaDispatch(L *lua.LState) int {
	t := event.Type(L.CheckString(1))
	e.outbox = append(e.outbox, outgoing{t: t, payload: toGo(L.Get(2))})
	return 0
}

// flux.state(key, ...)
func (e *Engine) luaState(L *lua.LState) int {
	keys := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		keys = append(keys, L.CheckString(i))
	}
	r, ok := e.host.Snapshot().Lookup(state.P(keys...))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(resultToLua(L, r))
	return 1
}

// flux.array([t]) marks t, or a new table, as a JSON array.
func (e *Engine) luaArray(L *lua.LState) int {
	t := L.OptTable(1, nil)
	if t == nil {
		t = newArray(L, 0)
	} else {
		L.SetMetatable(t, arrayMeta(L))
	}
	L.Push(t)
	return 1
}

// flux.log(level, msg)
func (e *Engine) luaLog(L *lua.LState) int {
	level := logging.ParseLevel(L.CheckString(1))
	msg := L.CheckString(2)
	e.logger.Log(context.Background(), level, msg, "source", "lua")
	return 0
}
