package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/dshills/flux/internal/logging"
	"github.com/dshills/flux/internal/state"
)

// Config holds all flux settings.
type Config struct {
	Log   LogConfig   `toml:"log" yaml:"log"`
	Store StoreConfig `toml:"store" yaml:"store"`
	UI    UIConfig    `toml:"ui" yaml:"ui"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`
	// Format is text or json.
	Format string `toml:"format" yaml:"format"`
	// File receives log output. Empty means stderr.
	File string `toml:"file" yaml:"file"`
}

// StoreConfig configures the store.
type StoreConfig struct {
	// Source is stamped on dispatched events.
	Source string `toml:"source" yaml:"source"`
	// InitialState is the first state of the store.
	InitialState map[string]any `toml:"initial_state" yaml:"initial_state"`
	// Scripts are Lua files loaded at startup, relative to the config file.
	Scripts []string `toml:"scripts" yaml:"scripts"`
}

// UIConfig configures the terminal front end.
type UIConfig struct {
	Title    string `toml:"title" yaml:"title"`
	ShowHelp bool   `toml:"show_help" yaml:"show_help"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
		Store: StoreConfig{
			Source:       "flux",
			InitialState: map[string]any{},
		},
		UI: UIConfig{
			Title:    "flux",
			ShowHelp: true,
		},
	}
}

// ApplyEnv overrides settings from FLUX_* environment variables.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv("FLUX_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv("FLUX_LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := os.LookupEnv("FLUX_LOG_FILE"); ok {
		c.Log.File = v
	}
}

// Validate checks every setting and joins the problems found.
func (c *Config) Validate() error {
	var errs []error
	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, &ValidationError{Path: "log.level", Message: "unknown level", Value: c.Log.Level})
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, &ValidationError{Path: "log.format", Message: "must be text or json", Value: c.Log.Format})
	}
	if c.Store.Source == "" {
		errs = append(errs, &ValidationError{Path: "store.source", Message: "must not be empty", Value: c.Store.Source})
	}
	for i, s := range c.Store.Scripts {
		if s == "" {
			errs = append(errs, &ValidationError{Path: fmt.Sprintf("store.scripts[%d]", i), Message: "must not be empty", Value: s})
		}
	}
	return errors.Join(errs...)
}

// InitialState returns store.initial_state as a Snapshot.
func (c *Config) InitialState() (state.Snapshot, error) {
	if len(c.Store.InitialState) == 0 {
		return state.Empty(), nil
	}
	s, err := state.FromValue(c.Store.InitialState)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("store.initial_state: %w", err)
	}
	return s, nil
}

// Logging returns the logging.Config for these settings.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:  c.Log.Level,
		Format: logging.Format(c.Log.Format),
	}
}
