package event

import "log/slog"

// BusOption configures an event Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// source is stamped on events created by Publish.
	source string

	// panicHandler is called when a handler panics.
	panicHandler PanicHandler

	// logger receives panic reports from the default panic handler.
	logger *slog.Logger
}

// defaultBusConfig returns sensible default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		source: "bus",
		logger: slog.Default(),
	}
}

// WithSource sets the source stamped on published events.
func WithSource(source string) BusOption {
	return func(c *busConfig) {
		if source != "" {
			c.source = source
		}
	}
}

// WithPanicHandler sets the panic handler for the bus.
func WithPanicHandler(h PanicHandler) BusOption {
	return func(c *busConfig) {
		c.panicHandler = h
	}
}

// WithLogger sets the logger used by the default panic handler.
func WithLogger(l *slog.Logger) BusOption {
	return func(c *busConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*subscriptionConfig)

type subscriptionConfig struct {
	filter FilterFunc
	once   bool
}

// WithFilter delivers only events for which f returns true.
func WithFilter(f FilterFunc) SubscriptionOption {
	return func(c *subscriptionConfig) {
		c.filter = f
	}
}

// WithOnce cancels the subscription after its first delivery.
func WithOnce() SubscriptionOption {
	return func(c *subscriptionConfig) {
		c.once = true
	}
}
