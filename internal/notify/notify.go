// Package notify carries user-facing notices (connectivity, navigation
// outcome, toggle) to whatever presents them.
package notify

import (
	"context"
	"log/slog"
	"time"
)

type Kind string

const (
	KindConnected    Kind = "connected"
	KindDisconnected Kind = "disconnected"
	KindExecuted     Kind = "executed"
	KindNotFound     Kind = "not_found"
	KindToggle       Kind = "toggle"
)

const (
	DefaultDuration = 2000 * time.Millisecond
	ShortDuration   = 1500 * time.Millisecond
)

// Notice is one user-facing message.
type Notice struct {
	Kind     Kind
	Message  string
	Label    string
	Origin   string
	Duration time.Duration
	Time     time.Time
}

type Notifier interface {
	Notify(n Notice)
}

// Func adapts a function to Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Fanout delivers every notice to each notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(n Notice) {
	for _, nt := range f {
		if nt != nil {
			nt.Notify(n)
		}
	}
}

// Log writes notices as structured log lines.
func Log(logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return Func(func(n Notice) {
		attrs := []any{"kind", string(n.Kind), "message", n.Message}
		if n.Label != "" {
			attrs = append(attrs, "label", n.Label)
		}
		if n.Origin != "" {
			attrs = append(attrs, "origin", n.Origin)
		}
		switch n.Kind {
		case KindNotFound:
			logger.Warn("notice", attrs...)
		default:
			logger.Info("notice", attrs...)
		}
	})
}

// Gate drops notices while enabled reports false.
func Gate(next Notifier, enabled func() bool) Notifier {
	return Func(func(n Notice) {
		if enabled != nil && !enabled() {
			return
		}
		next.Notify(n)
	})
}

// Toaster shows a transient message on the page.
type Toaster interface {
	Toast(ctx context.Context, message string, d time.Duration) error
}

// Toast presents notices as page toasts. Failures are logged and dropped.
func Toast(ctx context.Context, t Toaster, logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return Func(func(n Notice) {
		d := n.Duration
		if d <= 0 {
			d = DefaultDuration
		}
		if err := t.Toast(ctx, n.Message, d); err != nil {
			logger.Debug("toast failed", "message", n.Message, "error", err)
		}
	})
}
