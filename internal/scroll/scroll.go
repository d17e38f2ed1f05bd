// Package scroll drives viewport scrolling: a continuous fixed-step scroll
// while a stick is held, and a one-shot smooth page jump.
package scroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	Step         = 15.0
	Interval     = 16 * time.Millisecond
	PageFraction = 0.8
)

// Direction of travel; Down moves the viewport towards the end of the document.
type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Target is the surface being scrolled.
type Target interface {
	ScrollBy(ctx context.Context, dy float64) error
	SmoothScrollBy(ctx context.Context, dy float64) error
	ViewportHeight(ctx context.Context) (float64, error)
}

// Controller owns the single continuous-scroll timer. It is driven from one
// goroutine; the timer itself runs on its own goroutine and only talks to
// the target.
type Controller struct {
	target   Target
	logger   *slog.Logger
	interval time.Duration
	step     float64

	cancel context.CancelFunc
	done   chan struct{}
	dir    Direction
}

// Option customises a Controller.
type Option func(*Controller)

// WithInterval overrides the continuous tick period.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger sets the logger used for per-tick failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(target Target, opts ...Option) *Controller {
	c := &Controller{
		target:   target,
		logger:   slog.Default(),
		interval: Interval,
		step:     Step,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Running reports the direction of the active continuous scroll.
func (c *Controller) Running() (Direction, bool) {
	if c.cancel == nil {
		return 0, false
	}
	return c.dir, true
}

// Start begins continuous scrolling. It returns false and does nothing when
// a scroll is already running, whatever its direction.
func (c *Controller) Start(ctx context.Context, dir Direction) bool {
	if c.cancel != nil {
		return false
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.dir = dir

	dy := float64(dir) * c.step
	go func() {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if err := c.target.ScrollBy(runCtx, dy); err != nil && runCtx.Err() == nil {
					c.logger.Debug("continuous scroll tick failed", "direction", dir.String(), "error", err)
				}
			}
		}
	}()
	return true
}

// Stop ends the continuous scroll and waits for its timer goroutine to exit,
// so no tick lands after Stop returns. It reports whether one was running.
func (c *Controller) Stop() bool {
	if c.cancel == nil {
		return false
	}
	c.cancel()
	<-c.done
	c.cancel = nil
	c.done = nil
	return true
}

// PageJump performs one smooth scroll of PageFraction of the current viewport
// height. It does not interact with the continuous timer.
func (c *Controller) PageJump(ctx context.Context, dir Direction) (float64, error) {
	h, err := c.target.ViewportHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("read viewport height: %w", err)
	}
	dy := float64(dir) * PageFraction * h
	if err := c.target.SmoothScrollBy(ctx, dy); err != nil {
		return 0, fmt.Errorf("smooth scroll: %w", err)
	}
	return dy, nil
}
