package session

import (
	"errors"
	"fmt"

	"github.com/izzyreal/padnav/internal/gamepad"
	"github.com/izzyreal/padnav/internal/input"
	"github.com/izzyreal/padnav/internal/notify"
	"github.com/izzyreal/padnav/internal/page"
	"github.com/izzyreal/padnav/internal/protocol"
	"github.com/izzyreal/padnav/internal/resolver"
	"github.com/izzyreal/padnav/internal/scroll"
	"github.com/izzyreal/padnav/internal/status"
)

var _ input.Handler = (*Session)(nil)

func (s *Session) Discrete(intent input.Intent, origin input.Origin) {
	switch intent {
	case input.IntentNavigateNext:
		s.navigate(resolver.Next, intent, origin)
	case input.IntentNavigatePrevious:
		s.navigate(resolver.Previous, intent, origin)
	case input.IntentPageDown:
		s.pageJump(scroll.Down, intent, origin)
	case input.IntentPageUp:
		s.pageJump(scroll.Up, intent, origin)
	}
}

func (s *Session) ContinuousStart(intent input.Intent, origin input.Origin) {
	dir, ok := scrollDirection(intent)
	if !ok {
		return
	}
	if !s.scroller.Start(s.ctx, dir) {
		s.logger.Debug("scroll already running", "direction", dir.String(), "origin", string(origin))
		return
	}
	s.logger.Debug("scroll start", "direction", dir.String(), "origin", string(origin))
	s.hub.Update(func(st *status.State) { st.Scrolling = dir.String() })
}

func (s *Session) ContinuousStop(intent input.Intent, origin input.Origin) {
	if !s.scroller.Stop() {
		return
	}
	s.logger.Debug("scroll stop", "intent", intent.String(), "origin", string(origin))
	s.hub.Update(func(st *status.State) { st.Scrolling = "" })
}

func (s *Session) Connectivity(change input.Connectivity) {
	n := notify.Notice{Label: change.Label, Origin: string(change.Origin)}
	if change.Connected {
		n.Kind = notify.KindConnected
		n.Message = "gamepad connected!"
	} else {
		n.Kind = notify.KindDisconnected
		n.Message = "gamepad disconnected"
	}
	if change.Origin == input.OriginBridge {
		n.Message += " (bridge)"
	}
	s.emit(n)
	s.refreshStatus()
}

// platformEvent reports a connect/disconnect event raised by the tab itself.
func (s *Session) platformEvent(ev gamepad.Event) {
	n := notify.Notice{Label: ev.ID, Origin: string(input.OriginNative)}
	switch ev.Kind {
	case gamepad.EventConnected:
		n.Kind = notify.KindConnected
		n.Message = "gamepad connected: " + ev.ID
	case gamepad.EventDisconnected:
		n.Kind = notify.KindDisconnected
		n.Message = "gamepad disconnected: " + ev.ID
	default:
		return
	}
	s.emit(n)
}

// navigate resolves the target for dir against a fresh snapshot and
// activates it. Every outcome is reported; nothing is retried.
func (s *Session) navigate(dir resolver.Direction, intent input.Intent, origin input.Origin) {
	ctx := s.ctx
	logger := s.logger.With("direction", dir.String(), "origin", string(origin))

	doc, err := s.page.Snapshot(ctx)
	if err != nil {
		logger.Warn("page snapshot failed", "error", err)
		s.notFound(dir, intent, origin, protocol.OutcomeFailed, err.Error())
		return
	}
	el, err := resolver.Resolve(doc, dir)
	if errors.Is(err, resolver.ErrNotFound) {
		logger.Debug("navigation target not found")
		s.notFound(dir, intent, origin, protocol.OutcomeNotFound, "")
		return
	}
	if err != nil {
		logger.Warn("resolve failed", "error", err)
		s.notFound(dir, intent, origin, protocol.OutcomeFailed, err.Error())
		return
	}
	detail := fmt.Sprintf("%s %s %q", el.Tag(), el.Source, el.Token)
	logger.Debug("navigation target found", "tag", el.Tag(), "text", el.Text(), "match", string(el.Source), "token", el.Token)

	if err := page.Activate(ctx, s.page, el); err != nil {
		logger.Warn("activate failed", "tag", el.Tag(), "error", err)
		s.notFound(dir, intent, origin, protocol.OutcomeFailed, err.Error())
		return
	}
	s.emit(notify.Notice{
		Kind:     notify.KindExecuted,
		Message:  dir.String() + " executed",
		Origin:   string(origin),
		Duration: notify.ShortDuration,
	})
	s.record(intent, origin, protocol.OutcomeExecuted, detail)
}

func (s *Session) notFound(dir resolver.Direction, intent input.Intent, origin input.Origin, outcome, detail string) {
	s.emit(notify.Notice{
		Kind:    notify.KindNotFound,
		Message: dir.String() + " button not found",
		Origin:  string(origin),
	})
	s.record(intent, origin, outcome, detail)
}

func (s *Session) pageJump(dir scroll.Direction, intent input.Intent, origin input.Origin) {
	dy, err := s.scroller.PageJump(s.ctx, dir)
	if err != nil {
		s.logger.Warn("page scroll failed", "direction", dir.String(), "error", err)
		s.record(intent, origin, protocol.OutcomeFailed, err.Error())
		return
	}
	s.logger.Debug("page scroll", "direction", dir.String(), "dy", dy, "origin", string(origin))
	s.record(intent, origin, protocol.OutcomeExecuted, fmt.Sprintf("dy=%.0f", dy))
}

func scrollDirection(intent input.Intent) (scroll.Direction, bool) {
	switch intent {
	case input.IntentScrollUp:
		return scroll.Up, true
	case input.IntentScrollDown:
		return scroll.Down, true
	}
	return 0, false
}
