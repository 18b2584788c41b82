// Package terminal hosts bound components on a tcell screen.
//
// All drawing happens on the goroutine running Run. Code on other
// goroutines hands work to it with Schedule, which is what a bind.Binder
// should use as its scheduler.
package terminal

import (
	"context"
	"errors"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

var (
	// ErrQuit is returned by Run when a quit key is pressed.
	ErrQuit = errors.New("quit")

	// ErrClosed is returned after Fini.
	ErrClosed = errors.New("terminal closed")
)

// KeyHandler handles a key press. Returning ErrQuit stops Run.
type KeyHandler func(ev *tcell.EventKey) error

// Terminal wraps a tcell screen.
type Terminal struct {
	screen        tcell.Screen
	resizeHandler func(width, height int)
	closed        bool
	mu            sync.Mutex
}

// New creates a terminal on the controlling tty.
func New() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

// NewWithScreen creates a terminal on an existing screen, such as a
// tcell.SimulationScreen.
func NewWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

// Init initializes the screen.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.HideCursor()
	return nil
}

// Fini restores the terminal. Further calls have no effect.
func (t *Terminal) Fini() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	t.screen.Fini()
}

// Size returns the screen size in cells.
func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

// OnResize sets the callback run by Run after the screen is resized.
func (t *Terminal) OnResize(callback func(width, height int)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resizeHandler = callback
}

// Clear clears the screen buffer.
func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
}

// DrawText draws text starting at (x, y) and returns the number of columns
// used. Text is split into grapheme clusters so combining marks and wide
// characters occupy the right cells. Drawing stops at the right edge.
func (t *Terminal) DrawText(x, y int, text string, style tcell.Style) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	width, height := t.screen.Size()
	if y < 0 || y >= height {
		return 0
	}

	col := x
	gstate := -1
	rest := text
	for rest != "" {
		var cluster string
		var w int
		cluster, rest, w, gstate = uniseg.FirstGraphemeClusterInString(rest, gstate)
		if w == 0 {
			continue
		}
		if col+w > width {
			break
		}
		if col >= 0 {
			runes := []rune(cluster)
			t.screen.SetContent(col, y, runes[0], runes[1:], style)
		}
		col += w
	}
	return col - x
}

// Show flushes the buffer to the screen.
func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.closed {
		t.screen.Show()
	}
}

// Schedule runs fn on the goroutine running Run.
func (t *Terminal) Schedule(fn func()) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return t.screen.PostEvent(tcell.NewEventInterrupt(fn))
}

// quitMarker is posted to stop Run when its context ends.
type quitMarker struct{}

// Run processes screen events until a quit key is pressed, onKey returns an
// error, or ctx is done. Scheduled functions run here too.
//
// Escape, Ctrl-C and 'q' quit and make Run return ErrQuit.
func (t *Terminal) Run(ctx context.Context, onKey KeyHandler) error {
	stop := context.AfterFunc(ctx, func() {
		_ = t.screen.PostEvent(tcell.NewEventInterrupt(quitMarker{}))
	})
	defer stop()

	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return ErrClosed
		}

		switch e := ev.(type) {
		case *tcell.EventInterrupt:
			switch data := e.Data().(type) {
			case quitMarker:
				return ctx.Err()
			case func():
				data()
			}

		case *tcell.EventKey:
			if IsQuit(e) {
				return ErrQuit
			}
			if onKey == nil {
				continue
			}
			if err := onKey(e); err != nil {
				return err
			}

		case *tcell.EventResize:
			t.mu.Lock()
			t.screen.Sync()
			handler := t.resizeHandler
			t.mu.Unlock()
			if handler != nil {
				handler(e.Size())
			}
		}
	}
}

// IsQuit reports whether ev is one of the quit keys.
func IsQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}
	return false
}
