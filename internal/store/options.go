package store

import "log/slog"

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for dispatch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets the source stamped on events created by Dispatch.
func WithSource(source string) Option {
	return func(s *Store) {
		if source != "" {
			s.source = source
		}
	}
}
