// Package config loads flux application settings.
//
// Settings are read from a TOML or YAML file, chosen by extension, over
// built-in defaults. Environment variables override the file:
//
//	FLUX_LOG_LEVEL   log.level
//	FLUX_LOG_FORMAT  log.format
//	FLUX_LOG_FILE    log.file
//
// A missing file is not an error; Load returns the defaults.
//
// The store.initial_state table becomes the store's first Snapshot:
//
//	[store]
//	source = "counter"
//	scripts = ["counter.lua"]
//
//	[store.initial_state]
//	count = 0
//
// Watcher reloads the file when it changes on disk.
package config
