package undo

import (
	"log/slog"

	"github.com/esantoro/gaphor/pkg/domain"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger used for playback failures and warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithHooks registers observability hooks. Multiple calls are merged.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithStackLimit bounds the undo stack to n transactions, evicting the oldest.
// Zero or a negative value means unlimited (default).
func WithStackLimit(n int) Option {
	return func(m *Manager) {
		if n < 0 {
			n = 0
		}
		m.stackLimit = n
	}
}
