package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dshills/flux/internal/logging"
	"github.com/dshills/flux/internal/state"
)

const tomlDoc = `
[log]
level = "debug"
format = "json"

[store]
source = "counter"
scripts = ["counter.lua"]

[store.initial_state]
count = 5
label = "clicks"

[ui]
title = "Counter"
show_help = false
`

const yamlDoc = `
log:
  level: debug
  format: json
store:
  source: counter
  scripts:
    - counter.lua
  initial_state:
    count: 5
    label: clicks
ui:
  title: Counter
  show_help: false
`

type LoadSuite struct {
	suite.Suite
	dir string
}

func TestLoadSuite(t *testing.T) {
	suite.Run(t, new(LoadSuite))
}

func (s *LoadSuite) SetupTest() {
	s.dir = s.T().TempDir()
	for _, env := range []string{"FLUX_LOG_LEVEL", "FLUX_LOG_FORMAT", "FLUX_LOG_FILE"} {
		s.T().Setenv(env, "")
		os.Unsetenv(env)
	}
}

func (s *LoadSuite) write(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (s *LoadSuite) TestMissingFileYieldsDefaults() {
	cfg, err := Load(filepath.Join(s.dir, "absent.toml"))
	s.Require().NoError(err)
	s.Equal(Default(), cfg)
}

func (s *LoadSuite) TestEmptyPathYieldsDefaults() {
	cfg, err := Load("")
	s.Require().NoError(err)
	s.Equal("info", cfg.Log.Level)
}

func (s *LoadSuite) TestTOMLAndYAMLAgree() {
	fromTOML, err := Load(s.write("flux.toml", tomlDoc))
	s.Require().NoError(err)
	fromYAML, err := Load(s.write("flux.yaml", yamlDoc))
	s.Require().NoError(err)

	s.Equal("debug", fromTOML.Log.Level)
	s.Equal("json", fromTOML.Log.Format)
	s.Equal("counter", fromTOML.Store.Source)
	s.Equal("Counter", fromTOML.UI.Title)
	s.False(fromTOML.UI.ShowHelp)
	s.Equal([]string{filepath.Join(s.dir, "counter.lua")}, fromTOML.Store.Scripts)

	s.Equal(fromTOML.Log, fromYAML.Log)
	s.Equal(fromTOML.UI, fromYAML.UI)
	s.Equal(fromTOML.Store.Scripts, fromYAML.Store.Scripts)

	a, err := fromTOML.InitialState()
	s.Require().NoError(err)
	b, err := fromYAML.InitialState()
	s.Require().NoError(err)
	s.True(a.Equal(b), "initial states differ: %s vs %s", a.Raw(), b.Raw())
	s.Equal(float64(5), a.Get(state.P("count"), nil))
}

func (s *LoadSuite) TestEnvOverridesFile() {
	s.T().Setenv("FLUX_LOG_LEVEL", "warn")
	cfg, err := Load(s.write("flux.toml", tomlDoc))
	s.Require().NoError(err)
	s.Equal("warn", cfg.Log.Level)
}

func (s *LoadSuite) TestUnsupportedExtension() {
	_, err := Load(s.write("flux.ini", "x=1"))
	s.ErrorIs(err, ErrUnsupportedFormat)
}

func (s *LoadSuite) TestTOMLParseErrorPosition() {
	_, err := Load(s.write("bad.toml", "[log]\nlevel = \n"))
	var perr *ParseError
	s.Require().ErrorAs(err, &perr)
	s.Positive(perr.Line)
	s.Contains(perr.Error(), "bad.toml")
}

func (s *LoadSuite) TestYAMLParseError() {
	_, err := Load(s.write("bad.yaml", "log: [unclosed\n"))
	var perr *ParseError
	s.ErrorAs(err, &perr)
}

func (s *LoadSuite) TestValidationFailure() {
	_, err := Load(s.write("flux.toml", "[log]\nlevel = \"loud\"\nformat = \"xml\"\n"))
	s.Require().Error(err)
	s.ErrorIs(err, ErrInvalidConfig)
	s.Contains(err.Error(), "log.level")
	s.Contains(err.Error(), "log.format")
}

func TestParse_EmptyYAML(t *testing.T) {
	cfg, err := Parse(nil, FormatYAML)
	require.NoError(t, err)
	require.NotNil(t, cfg.Store.InitialState)
}

func TestInitialState_Empty(t *testing.T) {
	s, err := Default().InitialState()
	require.NoError(t, err)
	require.True(t, s.Equal(state.Empty()))
}

func TestConfig_Logging(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "json"
	require.Equal(t, logging.FormatJSON, cfg.Logging().Format)
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.toml", FormatTOML},
		{"a.TOML", FormatTOML},
		{"a.yaml", FormatYAML},
		{"dir/a.yml", FormatYAML},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		require.NoError(t, err, tt.path)
		require.Equal(t, tt.want, got, tt.path)
	}
	_, err := FormatOf("a.json")
	require.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flux.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntitle = \"one\"\n"), 0o644))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	}, WithDebounce(10*time.Millisecond), WithWatchLogger(logging.Discard()))
	require.NoError(t, err)
	require.Equal(t, path, w.Path())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntitle = \"two\"\n"), 0o644))

	select {
	case cfg := <-reloaded:
		require.Equal(t, "two", cfg.UI.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, w.Close())
}
