// Package session runs the navigation loop: it samples controllers on a
// fixed cadence, feeds the input machine and carries out the intents it
// emits against the page. All mutable state is owned by the goroutine
// running Run; other goroutines reach it through SubmitBridge and Toggle.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"

	"github.com/izzyreal/padnav/internal/gamepad"
	"github.com/izzyreal/padnav/internal/input"
	"github.com/izzyreal/padnav/internal/notify"
	"github.com/izzyreal/padnav/internal/page"
	"github.com/izzyreal/padnav/internal/protocol"
	"github.com/izzyreal/padnav/internal/scroll"
	"github.com/izzyreal/padnav/internal/status"
)

const (
	DefaultSampleInterval = 100 * time.Millisecond
	DefaultStatusInterval = 1000 * time.Millisecond
)

// ErrWrongMessageType is returned for bridge messages that are not gamepad
// updates. Such messages are ignored.
var ErrWrongMessageType = errors.New("not a gamepad update")

// Page is the browser tab the session acts on.
type Page interface {
	Snapshot(ctx context.Context) (*html.Node, error)
	page.Activator
	scroll.Target
}

// Journal records discrete dispatches.
type Journal interface {
	RecordAction(e protocol.JournalEntry) error
}

type Options struct {
	// Source reads natively connected controllers. Nil means bridge-only.
	Source   gamepad.Source
	Page     Page
	Notifier notify.Notifier
	Journal  Journal
	Hub      *status.Hub
	Logger   *slog.Logger

	SampleInterval time.Duration
	StatusInterval time.Duration
	ScrollOptions  []scroll.Option
	Now            func() time.Time
}

type toggleRequest struct {
	reply chan bool
}

type Session struct {
	source   gamepad.Source
	page     Page
	notifier notify.Notifier
	journal  Journal
	hub      *status.Hub
	logger   *slog.Logger
	now      func() time.Time

	sampleInterval time.Duration
	statusInterval time.Duration

	machine  *input.Machine
	scroller *scroll.Controller
	enabled  atomic.Bool

	bridgeCh chan []gamepad.Snapshot
	toggleCh chan toggleRequest

	// ctx is the context of the running loop; only read from the loop.
	ctx context.Context
}

func New(opts Options) *Session {
	s := &Session{
		source:         opts.Source,
		page:           opts.Page,
		notifier:       opts.Notifier,
		journal:        opts.Journal,
		hub:            opts.Hub,
		logger:         opts.Logger,
		now:            opts.Now,
		sampleInterval: opts.SampleInterval,
		statusInterval: opts.StatusInterval,
		bridgeCh:       make(chan []gamepad.Snapshot, 8),
		toggleCh:       make(chan toggleRequest),
		ctx:            context.Background(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.notifier == nil {
		s.notifier = notify.Log(s.logger)
	}
	if s.hub == nil {
		s.hub = status.NewHub()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sampleInterval <= 0 {
		s.sampleInterval = DefaultSampleInterval
	}
	if s.statusInterval <= 0 {
		s.statusInterval = DefaultStatusInterval
	}
	scrollOpts := append([]scroll.Option{scroll.WithLogger(s.logger)}, opts.ScrollOptions...)
	s.scroller = scroll.New(opts.Page, scrollOpts...)
	s.machine = input.NewMachine(s, s.logger)
	s.enabled.Store(true)
	return s
}

// Enabled reports the navigation toggle. Safe from any goroutine.
func (s *Session) Enabled() bool {
	return s.enabled.Load()
}

func (s *Session) Hub() *status.Hub {
	return s.hub
}

// Run drives the session until ctx is cancelled. A running continuous
// scroll is stopped on return.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	s.logger.Info("navigation session started", "sample_interval", s.sampleInterval.String(), "native_source", s.source != nil)
	defer s.logger.Info("navigation session stopped")
	defer s.scroller.Stop()

	sampleTicker := time.NewTicker(s.sampleInterval)
	defer sampleTicker.Stop()
	statusTicker := time.NewTicker(s.statusInterval)
	defer statusTicker.Stop()

	s.refreshStatus()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sampleTicker.C:
			s.sample(ctx)
		case <-statusTicker.C:
			s.refreshStatus()
		case pads := <-s.bridgeCh:
			s.machine.Bridge(s.now(), pads, s.enabled.Load())
		case req := <-s.toggleCh:
			req.reply <- s.toggle()
		}
	}
}

// SubmitBridge queues a forwarded controller update for the loop. Messages
// of another type are ignored and reported with ErrWrongMessageType.
func (s *Session) SubmitBridge(ctx context.Context, msg protocol.BridgeMessage) error {
	if msg.Type != protocol.BridgeMessageType {
		return ErrWrongMessageType
	}
	select {
	case s.bridgeCh <- msg.Gamepads:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Toggle flips the navigation flag and returns the new value. It is served
// by the loop, so Run must be active.
func (s *Session) Toggle(ctx context.Context) (bool, error) {
	req := toggleRequest{reply: make(chan bool, 1)}
	select {
	case s.toggleCh <- req:
	case <-ctx.Done():
		return s.enabled.Load(), ctx.Err()
	}
	select {
	case v := <-req.reply:
		return v, nil
	case <-ctx.Done():
		return s.enabled.Load(), ctx.Err()
	}
}

func (s *Session) sample(ctx context.Context) {
	if s.source == nil {
		return
	}
	if es, ok := s.source.(gamepad.EventSource); ok {
		events, err := es.Events(ctx)
		if err != nil {
			s.logger.Debug("read gamepad events failed", "error", err)
		}
		for _, ev := range events {
			s.platformEvent(ev)
		}
	}
	pads, err := s.source.Snapshots(ctx)
	if err != nil {
		// Skip the tick rather than read a failure as "no controllers".
		s.logger.Debug("read gamepads failed", "error", err)
		return
	}
	s.machine.Sample(s.now(), pads, s.enabled.Load())
}

func (s *Session) toggle() bool {
	v := !s.enabled.Load()
	s.enabled.Store(v)
	msg := "navigation disabled"
	if v {
		msg = "navigation enabled"
	}
	s.logger.Info("navigation toggled", "enabled", v)
	s.emit(notify.Notice{Kind: notify.KindToggle, Message: msg, Duration: notify.ShortDuration})
	s.refreshStatus()
	return v
}

func (s *Session) refreshStatus() {
	connected := s.machine.Connected()
	enabled := s.enabled.Load()
	dir, scrolling := s.scroller.Running()
	now := s.now().UTC()
	s.hub.Update(func(st *status.State) {
		st.Enabled = enabled
		st.Connected = connected
		st.Scrolling = ""
		if scrolling {
			st.Scrolling = dir.String()
		}
		st.UpdatedUTC = now
	})
}

func (s *Session) emit(n notify.Notice) {
	if n.Time.IsZero() {
		n.Time = s.now()
	}
	s.notifier.Notify(n)
	s.hub.Update(func(st *status.State) { st.LastNotice = n.Message })
}

func (s *Session) record(intent input.Intent, origin input.Origin, outcome, detail string) {
	if s.journal == nil {
		return
	}
	err := s.journal.RecordAction(protocol.JournalEntry{
		Intent:       intent.String(),
		Origin:       string(origin),
		Outcome:      outcome,
		Detail:       detail,
		TimestampUTC: s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("record action failed", "intent", intent.String(), "error", err)
	}
}
