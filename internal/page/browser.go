// Package page drives the active browser tab over the DevTools protocol:
// DOM snapshots for the resolver, element activation, scrolling, toasts and
// the tab's own Gamepad API.
package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/net/html"

	"github.com/izzyreal/padnav/internal/gamepad"
	"github.com/izzyreal/padnav/internal/resolver"
)

const defaultEvalTimeout = 3 * time.Second

// Options selects how the browser is reached. RemoteURL attaches to a
// running Chrome; otherwise one is launched.
type Options struct {
	RemoteURL   string
	StartURL    string
	Headless    bool
	ProfileDir  string
	ExecPath    string
	EvalTimeout time.Duration
	Logger      *slog.Logger
}

// Browser is one attached tab. Safe for concurrent use; CDP serializes
// evaluations per target.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	evalTimeout time.Duration
	logger      *slog.Logger

	closeOnce sync.Once
}

// Open attaches to or launches Chrome and prepares the first tab.
func Open(opts Options) (*Browser, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	allocCtx, allocCancel := allocator(opts)
	ctx, cancel := chromedp.NewContext(allocCtx)

	b := &Browser{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		evalTimeout: opts.EvalTimeout,
		logger:      logger,
	}
	if b.evalTimeout <= 0 {
		b.evalTimeout = defaultEvalTimeout
	}

	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := cdppage.AddScriptToEvaluateOnNewDocument(gamepadEventsScript).Do(ctx)
			return err
		}),
	}
	if u := strings.TrimSpace(opts.StartURL); u != "" {
		actions = append(actions, chromedp.Navigate(u))
	}
	if err := chromedp.Run(ctx, actions...); err != nil {
		b.Close()
		return nil, fmt.Errorf("attach browser: %w", err)
	}
	logger.Info("browser attached", "remote", opts.RemoteURL != "", "start_url", opts.StartURL, "headless", opts.Headless)
	return b, nil
}

func allocator(opts Options) (context.Context, context.CancelFunc) {
	if u := strings.TrimSpace(opts.RemoteURL); u != "" {
		return chromedp.NewRemoteAllocator(context.Background(), u)
	}
	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-session-crashed-bubble", true),
		chromedp.WindowSize(1366, 768),
	}
	if opts.ProfileDir != "" {
		execOpts = append(execOpts, chromedp.UserDataDir(opts.ProfileDir))
	}
	if opts.ExecPath != "" {
		execOpts = append(execOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.Headless {
		execOpts = append(execOpts, chromedp.Headless)
	} else {
		execOpts = append(execOpts, chromedp.Flag("headless", false))
	}
	return chromedp.NewExecAllocator(context.Background(), execOpts...)
}

func (b *Browser) Close() {
	b.closeOnce.Do(func() {
		b.cancel()
		b.allocCancel()
	})
}

// eval runs expr in the tab, bounded by both ctx and the eval timeout.
func (b *Browser) eval(ctx context.Context, expr string, out any) error {
	runCtx, cancel := context.WithTimeout(b.ctx, b.evalTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, chromedp.Evaluate(expr, out)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Snapshot returns the annotated document of the active tab.
func (b *Browser) Snapshot(ctx context.Context) (*html.Node, error) {
	var src string
	if err := b.eval(ctx, snapshotScript, &src); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if src == "" {
		return nil, errors.New("snapshot: document has no root element")
	}
	return resolver.Parse(src)
}

func (b *Browser) DispatchClick(ctx context.Context, id int, x, y float64) error {
	var ok bool
	if err := b.eval(ctx, dispatchClickScript(id, x, y), &ok); err != nil {
		return err
	}
	if !ok {
		return ErrNoElement
	}
	return nil
}

func (b *Browser) NativeClick(ctx context.Context, id int) (bool, error) {
	var ok bool
	if err := b.eval(ctx, nativeClickScript(id), &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (b *Browser) ScrollBy(ctx context.Context, dy float64) error {
	var ok bool
	return b.eval(ctx, scrollByScript(dy), &ok)
}

func (b *Browser) SmoothScrollBy(ctx context.Context, dy float64) error {
	var ok bool
	return b.eval(ctx, smoothScrollByScript(dy), &ok)
}

func (b *Browser) ViewportHeight(ctx context.Context) (float64, error) {
	var h float64
	if err := b.eval(ctx, viewportHeightScript, &h); err != nil {
		return 0, fmt.Errorf("viewport height: %w", err)
	}
	return h, nil
}

// Snapshots reads the tab's connected controllers.
func (b *Browser) Snapshots(ctx context.Context) ([]gamepad.Snapshot, error) {
	var pads []gamepad.Snapshot
	if err := b.eval(ctx, gamepadsScript, &pads); err != nil {
		return nil, fmt.Errorf("read gamepads: %w", err)
	}
	return pads, nil
}

// Events drains the connect/disconnect events queued by the tab since the
// previous call.
func (b *Browser) Events(ctx context.Context) ([]gamepad.Event, error) {
	var raw []struct {
		Kind string `json:"kind"`
		ID   string `json:"id"`
	}
	if err := b.eval(ctx, gamepadEventsScript, &raw); err != nil {
		return nil, fmt.Errorf("read gamepad events: %w", err)
	}
	out := make([]gamepad.Event, 0, len(raw))
	for _, r := range raw {
		kind := gamepad.EventConnected
		if r.Kind == "disconnected" {
			kind = gamepad.EventDisconnected
		}
		out = append(out, gamepad.Event{Kind: kind, ID: r.ID})
	}
	return out, nil
}

func (b *Browser) Toast(ctx context.Context, message string, d time.Duration) error {
	var ok bool
	if err := b.eval(ctx, toastScript(message, d), &ok); err != nil {
		return err
	}
	if !ok {
		return errors.New("toast: page has no body")
	}
	return nil
}
