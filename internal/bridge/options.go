package bridge

import (
	"log/slog"
	"time"
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClock replaces the time source used for correlation ids.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		if now != nil {
			b.now = now
		}
	}
}

// WithAutoReady fires the readiness signal after d when a send primitive is
// present, even if Init has not been called. Inbound envelopes stay buffered
// until Init regardless.
func WithAutoReady(d time.Duration) Option {
	return func(b *Bridge) {
		b.autoReady = d
	}
}
