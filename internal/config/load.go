package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a config file syntax.
type Format string

const (
	// FormatTOML is TOML.
	FormatTOML Format = "toml"

	// FormatYAML is YAML.
	FormatYAML Format = "yaml"
)

// FormatOf returns the format for a file path by its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. A missing file yields the defaults.
// Relative script paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		format, err := FormatOf(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults only.
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := decode(path, format, data, cfg); err != nil {
				return nil, err
			}
			cfg.resolveScripts(filepath.Dir(path))
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data in the given format over the defaults.
// Environment overrides are not applied.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()
	if err := decode("<input>", format, data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(source string, format Format, data []byte, cfg *Config) error {
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			perr := &ParseError{Path: source, Message: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, perr.Column = derr.Position()
			}
			return perr
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Path: source, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if cfg.Store.InitialState == nil {
		cfg.Store.InitialState = map[string]any{}
	}
	return nil
}

func (c *Config) resolveScripts(dir string) {
	for i, s := range c.Store.Scripts {
		if s != "" && !filepath.IsAbs(s) {
			c.Store.Scripts[i] = filepath.Join(dir, s)
		}
	}
}
