package flux

import (
	"log/slog"

	"github.com/dshills/flux/internal/bind"
	"github.com/dshills/flux/internal/script"
)

type options struct {
	logger     *slog.Logger
	source     string
	binderOpts []bind.Option
	scriptOpts []script.Option
}

// Option configures a Flux.
type Option func(*options)

// WithLogger sets the logger shared by all components.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSource sets the source stamped on dispatched events.
func WithSource(source string) Option {
	return func(o *options) {
		if source != "" {
			o.source = source
		}
	}
}

// WithBinderOptions passes options to the binder used by Connect, such as
// bind.WithScheduler.
func WithBinderOptions(opts ...bind.Option) Option {
	return func(o *options) {
		o.binderOpts = append(o.binderOpts, opts...)
	}
}

// WithScriptOptions passes options to the Lua engine used by LoadScript.
func WithScriptOptions(opts ...script.Option) Option {
	return func(o *options) {
		o.scriptOpts = append(o.scriptOpts, opts...)
	}
}
