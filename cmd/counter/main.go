// Package main is a terminal counter driven by a flux store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/flux"
	"github.com/dshills/flux/internal/bind"
	"github.com/dshills/flux/internal/config"
	"github.com/dshills/flux/internal/event"
	"github.com/dshills/flux/internal/logging"
	"github.com/dshills/flux/internal/state"
	"github.com/dshills/flux/internal/terminal"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	ConfigPath string
	ScriptPath string
	LogLevel   string
	LogFile    string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFile != "" {
		cfg.Log.File = opts.LogFile
	}
	if opts.ScriptPath != "" {
		cfg.Store.Scripts = append(cfg.Store.Scripts, opts.ScriptPath)
	}

	// The screen owns stderr, so records go to a file or nowhere.
	logCfg := cfg.Logging()
	logCfg.Output = io.Discard
	if cfg.Log.File != "" {
		f, err := logging.OpenFile(cfg.Log.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		logCfg.Output = f
	}
	logger, level, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	initial, err := cfg.InitialState()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if _, ok := initial.Lookup(state.P("count")); !ok {
		initial, _ = initial.Set(state.P("count"), 0)
	}

	term, err := terminal.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := term.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize terminal: %v\n", err)
		return 1
	}
	// Ensure cleanup on all exit paths
	defer term.Fini()

	store := flux.New(initial,
		flux.WithLogger(logger),
		flux.WithSource(cfg.Store.Source),
		flux.WithBinderOptions(bind.WithScheduler(func(fn func()) {
			if err := term.Schedule(fn); err != nil {
				logger.Warn("render dropped", "error", err)
			}
		})),
	)
	defer store.Close()

	registerCounter(store)
	for _, path := range cfg.Store.Scripts {
		if err := store.LoadScript(path); err != nil {
			term.Fini()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		logger.Info("script loaded", "path", path)
	}

	view := terminal.NewTextView(term, counterLines)
	counter := store.Connect(func(get state.Getter, own bind.Props) bind.Props {
		return bind.Props{"count": get.Get(state.P("count"), 0)}
	})(view, "")
	if err := counter.Mount(bind.Props{"title": cfg.UI.Title, "help": cfg.UI.ShowHelp}); err != nil {
		term.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer counter.Unmount()

	term.OnResize(func(int, int) {
		if err := counter.Render(); err != nil {
			logger.Warn("render failed", "error", err)
		}
	})

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.ConfigPath != "" {
		watcher, err := config.NewWatcher(opts.ConfigPath, func(next *config.Config, err error) {
			if err != nil {
				return
			}
			if opts.LogLevel == "" {
				level.Set(logging.ParseLevel(next.Log.Level))
			}
			props := bind.Props{"title": next.UI.Title, "help": next.UI.ShowHelp}
			if err := term.Schedule(func() { _ = counter.SetProps(props) }); err != nil {
				logger.Warn("config reload dropped", "error", err)
			}
		}, config.WithWatchLogger(logging.Component(logger, "config")))
		if err != nil {
			logger.Warn("config watch disabled", "error", err)
		} else {
			go watcher.Run(ctx)
		}
	}

	// Key presses go out on the bus for anything that wants to observe
	// input without touching the store.
	keys := event.NewPublisher(store.Bus(), "terminal")
	keyLog := logging.Component(logger, "keys")
	if _, err := store.Bus().Subscribe("key.*", func(_ context.Context, evt event.Event) {
		keyLog.Debug("key", "name", evt.Payload, "id", evt.Metadata.ID)
	}); err != nil {
		logger.Warn("key log disabled", "error", err)
	}

	err = term.Run(ctx, func(ev *tcell.EventKey) error {
		if _, err := keys.Publish(ctx, "key.pressed", ev.Name()); err != nil {
			logger.Debug("key publish failed", "error", err)
		}
		if err := handleKey(store, ev); err != nil {
			logger.Warn("key action failed", "key", ev.Name(), "error", err)
		}
		return nil
	})
	switch {
	case err == nil, errors.Is(err, terminal.ErrQuit), errors.Is(err, context.Canceled):
		return 0
	default:
		term.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.ScriptPath, "script", "", "Lua script with extra handlers and intents")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.LogFile, "log-file", "", "Write logs to this file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "counter - terminal counter on a flux store\n\n")
		fmt.Fprintf(os.Stderr, "Usage: counter [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  +          increment\n")
		fmt.Fprintf(os.Stderr, "  t          add ten\n")
		fmt.Fprintf(os.Stderr, "  r          reset\n")
		fmt.Fprintf(os.Stderr, "  q, Esc     quit\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("counter %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.LogLevel != "" && !logging.ValidLevel(opts.LogLevel) {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	return opts
}

