package terminal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"

	"github.com/dshills/flux/internal/bind"
)

func newSimTerminal(t *testing.T, w, h int) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	term := NewWithScreen(screen)
	require.NoError(t, term.Init())
	screen.SetSize(w, h)
	t.Cleanup(term.Fini)
	return term, screen
}

// row returns the text of screen row y with trailing blanks trimmed.
func row(screen tcell.SimulationScreen, y int) string {
	cells, w, _ := screen.GetContents()
	var b strings.Builder
	for x := 0; x < w; x++ {
		runes := cells[y*w+x].Runes
		if len(runes) == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteString(string(runes))
	}
	return strings.TrimRight(b.String(), " ")
}

func TestDrawText(t *testing.T) {
	term, screen := newSimTerminal(t, 20, 3)

	n := term.DrawText(2, 1, "count: 6", tcell.StyleDefault)
	term.Show()

	require.Equal(t, 8, n)
	require.Equal(t, "  count: 6", row(screen, 1))
	require.Equal(t, "", row(screen, 0))
}

func TestDrawText_ClipsAtEdge(t *testing.T) {
	term, screen := newSimTerminal(t, 5, 1)

	n := term.DrawText(0, 0, "abcdefgh", tcell.StyleDefault)
	term.Show()

	require.Equal(t, 5, n)
	require.Equal(t, "abcde", row(screen, 0))
	require.Zero(t, term.DrawText(0, 4, "off screen", tcell.StyleDefault))
}

func TestDrawText_WideCharacters(t *testing.T) {
	term, _ := newSimTerminal(t, 10, 1)
	require.Equal(t, 4, term.DrawText(0, 0, "日本", tcell.StyleDefault))
}

func TestTextView_Render(t *testing.T) {
	term, screen := newSimTerminal(t, 30, 4)

	view := NewTextView(term, nil)
	require.NoError(t, view.Render(bind.Props{"title": "Counter", "count": 16}))

	require.Equal(t, "count: 16", row(screen, 0))
	require.Equal(t, "title: Counter", row(screen, 1))

	// A later render replaces the earlier content.
	require.NoError(t, view.Render(bind.Props{"count": 17}))
	require.Equal(t, "count: 17", row(screen, 0))
	require.Equal(t, "", row(screen, 1))
}

func TestTextView_RenderAfterFini(t *testing.T) {
	term, _ := newSimTerminal(t, 10, 1)
	term.Fini()

	err := NewTextView(term, nil).Render(bind.Props{"a": 1})
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, term.Schedule(func() {}), ErrClosed)
}

func TestRun_KeysAndQuit(t *testing.T) {
	term, screen := newSimTerminal(t, 10, 1)

	var got []rune
	screen.InjectKey(tcell.KeyRune, '+', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 't', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)

	err := term.Run(context.Background(), func(ev *tcell.EventKey) error {
		got = append(got, ev.Rune())
		return nil
	})

	require.ErrorIs(t, err, ErrQuit)
	require.Equal(t, []rune{'+', 't'}, got)
}

func TestRun_HandlerError(t *testing.T) {
	term, screen := newSimTerminal(t, 10, 1)
	boom := errors.New("boom")

	screen.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	err := term.Run(context.Background(), func(*tcell.EventKey) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestRun_Schedule(t *testing.T) {
	term, screen := newSimTerminal(t, 10, 1)

	ran := make(chan struct{})
	go func() {
		err := term.Schedule(func() {
			term.DrawText(0, 0, "hi", tcell.StyleDefault)
			term.Show()
			close(ran)
		})
		if err != nil {
			t.Errorf("Schedule failed: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- term.Run(ctx, nil) }()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled function did not run")
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
	require.Equal(t, "hi", row(screen, 0))
}

func TestIsQuit(t *testing.T) {
	tests := []struct {
		ev   *tcell.EventKey
		want bool
	}{
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), true},
		{tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), true},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), true},
		{tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone), false},
		{tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, IsQuit(tt.ev), tt.ev.Name())
	}
}
