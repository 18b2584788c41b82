package bind

import "log/slog"

// Scheduler runs fn on the goroutine that owns rendering.
// The default scheduler calls fn immediately.
type Scheduler func(fn func())

// ErrorHandler receives errors from renders triggered by state changes.
type ErrorHandler func(c *Connected, err error)

// Option configures a Binder.
type Option func(*Binder)

// WithScheduler sets the scheduler for state-driven renders.
func WithScheduler(s Scheduler) Option {
	return func(b *Binder) {
		if s != nil {
			b.schedule = s
		}
	}
}

// WithErrorHandler sets the handler for state-driven render errors.
// By default they are logged at warn level.
func WithErrorHandler(h ErrorHandler) Option {
	return func(b *Binder) {
		b.onError = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Binder) {
		if l != nil {
			b.logger = l
		}
	}
}

func immediate(fn func()) {
	fn()
}
