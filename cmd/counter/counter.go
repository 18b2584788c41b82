package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/flux"
	"github.com/dshills/flux/internal/bind"
)

// registerCounter installs the built-in handlers and intents. Scripts loaded
// afterwards may replace them.
func registerCounter(f *flux.Flux) {
	f.Handle("inc_by", flux.Typed(func(s flux.Snapshot, delta int) (flux.Snapshot, error) {
		if delta == 0 {
			delta = 1
		}
		n, _ := s.Lookup(flux.P("count"))
		return s.Set(flux.P("count"), n.Int()+int64(delta))
	}))
	f.Handle("reset", func(s flux.Snapshot, _ flux.Event) (flux.Snapshot, error) {
		return s.Set(flux.P("count"), 0)
	})

	f.Intent("inc", func(any) error {
		_, err := f.Dispatch("inc_by", nil)
		return err
	})
	f.Intent("inc_10", func(any) error {
		_, err := f.Dispatch("inc_by", 10)
		return err
	})
}

// handleKey maps a key press to an action. Quit keys never reach it.
func handleKey(f *flux.Flux, ev *tcell.EventKey) error {
	if ev.Key() != tcell.KeyRune {
		return nil
	}
	switch ev.Rune() {
	case '+':
		return f.Call("inc", nil)
	case 't':
		return f.Call("inc_10", nil)
	case 'r':
		_, err := f.Dispatch("reset", nil)
		return err
	}
	return nil
}

func counterLines(props bind.Props) []string {
	lines := []string{
		fmt.Sprint(props["title"]),
		"",
		fmt.Sprintf("count: %v", props["count"]),
	}
	if help, _ := props["help"].(bool); help {
		lines = append(lines, "", "+ increment   t add ten   r reset   q quit")
	}
	return lines
}
