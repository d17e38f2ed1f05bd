package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/izzyreal/padnav/internal/protocol"
	"github.com/izzyreal/padnav/internal/server/navrpc"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

type connectionPhase string

const (
	phaseDisconnected connectionPhase = "disconnected"
	phaseConnecting   connectionPhase = "connecting"
	phaseConnected    connectionPhase = "connected"
	phaseReconnecting connectionPhase = "reconnecting"
)

type watchUpdate struct {
	phase      connectionPhase
	statusText string
	errText    string
	status     *protocol.StatusResponse
	client     *navrpc.Client
}

type guiApp struct {
	theme *material.Theme
	ops   op.Ops

	toggleBtn widget.Clickable

	window *app.Window
	addr   string

	watchMu     sync.Mutex
	watchCancel context.CancelFunc

	updates chan watchUpdate

	phase      connectionPhase
	statusText string
	lastError  string
	nav        protocol.StatusResponse
	haveNav    bool
	client     *navrpc.Client
}

func main() {
	addr := flag.String("server", defaultServerAddr(), "padnav gRPC address (host:port)")
	flag.Parse()
	go func() {
		w := new(app.Window)
		w.Option(
			app.Title("padnav"),
			app.Size(unit.Dp(420), unit.Dp(300)),
		)
		if err := run(w, normalizeServerAddr(*addr)); err != nil {
			log.Printf("padnav-gui: %v", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

func run(w *app.Window, addr string) error {
	model := &guiApp{
		theme:      material.NewTheme(),
		updates:    make(chan watchUpdate, 256),
		window:     w,
		addr:       addr,
		phase:      phaseDisconnected,
		statusText: "Disconnected",
	}
	model.startWatch()

	for {
		e := w.Event()
		switch e := e.(type) {
		case app.DestroyEvent:
			model.stopWatch()
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&model.ops, e)
			model.processUpdates()
			model.processActions(gtx)
			model.layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func defaultServerAddr() string {
	if v := strings.TrimSpace(os.Getenv("PADNAV_GUI_SERVER_ADDR")); v != "" {
		return normalizeServerAddr(v)
	}
	return "127.0.0.1:8113"
}

func normalizeServerAddr(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err == nil && strings.TrimSpace(u.Host) != "" {
			return strings.TrimSpace(u.Host)
		}
	}
	return raw
}

func (m *guiApp) processActions(gtx C) {
	for m.toggleBtn.Clicked(gtx) {
		m.requestToggle()
	}
}

// requestToggle flips navigation on the daemon. The new state arrives
// through the watch stream.
func (m *guiApp) requestToggle() {
	client := m.client
	if client == nil {
		m.lastError = "not connected"
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := client.Toggle(ctx); err != nil {
			m.enqueueUpdate(watchUpdate{errText: "toggle: " + err.Error()})
		}
	}()
}

func (m *guiApp) startWatch() {
	if m.addr == "" {
		m.statusText = "No server address; pass -server or set PADNAV_GUI_SERVER_ADDR"
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.watchMu.Lock()
	m.watchCancel = cancel
	m.watchMu.Unlock()
	m.phase = phaseConnecting
	m.statusText = "Connecting"
	go m.watchLoop(ctx, m.addr)
}

func (m *guiApp) stopWatch() {
	m.watchMu.Lock()
	cancel := m.watchCancel
	m.watchCancel = nil
	m.watchMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (m *guiApp) watchLoop(ctx context.Context, addr string) {
	defer m.enqueueUpdate(watchUpdate{phase: phaseDisconnected, statusText: "Disconnected"})

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		m.enqueueUpdate(watchUpdate{phase: phaseDisconnected, statusText: "Invalid address", errText: err.Error()})
		return
	}
	defer conn.Close()
	client := navrpc.NewClient(conn)

	backoff := time.Second
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		attempt++
		phase := phaseConnecting
		statusText := fmt.Sprintf("Connecting to %s", addr)
		if attempt > 1 {
			phase = phaseReconnecting
			statusText = fmt.Sprintf("Reconnecting to %s", addr)
		}
		m.enqueueUpdate(watchUpdate{phase: phase, statusText: statusText})

		stream, err := client.WatchStatus(ctx, grpc.WaitForReady(true))
		if err != nil {
			m.enqueueUpdate(watchUpdate{phase: phaseReconnecting, statusText: "Stream start failed", errText: err.Error()})
			if !sleepWithContext(ctx, backoff) {
				return
			}
			if backoff < 10*time.Second {
				backoff *= 2
			}
			continue
		}

		connected := false
		for {
			evt, err := stream.Recv()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				m.enqueueUpdate(watchUpdate{phase: phaseReconnecting, statusText: "Stream interrupted", errText: err.Error()})
				break
			}
			var st protocol.StatusResponse
			if err := navrpc.Decode(evt, &st); err != nil {
				m.enqueueUpdate(watchUpdate{errText: err.Error()})
				continue
			}
			u := watchUpdate{status: &st}
			if !connected {
				connected = true
				backoff = time.Second
				u.phase = phaseConnected
				u.statusText = fmt.Sprintf("Connected to %s", addr)
				u.client = client
			}
			m.enqueueUpdate(u)
		}
		if !sleepWithContext(ctx, backoff) {
			return
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (m *guiApp) enqueueUpdate(u watchUpdate) {
	select {
	case m.updates <- u:
	default:
		select {
		case <-m.updates:
		default:
		}
		select {
		case m.updates <- u:
		default:
		}
	}
	if m.window != nil {
		m.window.Invalidate()
	}
}

func (m *guiApp) processUpdates() {
	for {
		select {
		case u := <-m.updates:
			if u.phase != "" {
				m.phase = u.phase
				if u.phase != phaseConnected {
					m.client = nil
				}
			}
			if strings.TrimSpace(u.statusText) != "" {
				m.statusText = u.statusText
			}
			if strings.TrimSpace(u.errText) != "" {
				m.lastError = u.errText
			}
			if u.client != nil {
				m.client = u.client
			}
			if u.status != nil {
				m.nav = *u.status
				m.haveNav = true
			}
		default:
			return
		}
	}
}

func (m *guiApp) layout(gtx C) D {
	in := layout.UniformInset(unit.Dp(16))
	return in.Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(m.layoutIndicator),
			layout.Rigid(layout.Spacer{Height: unit.Dp(14)}.Layout),
			layout.Rigid(m.layoutStatusPanel),
		)
	})
}

// layoutIndicator is the NAV/OFF badge; clicking it toggles navigation.
func (m *guiApp) layoutIndicator(gtx C) D {
	label := "NAV"
	if m.haveNav {
		label = m.nav.Label
	}
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			btn := material.Button(m.theme, &m.toggleBtn, label)
			if m.haveNav && !m.nav.Enabled {
				btn.Background = m.theme.Palette.ContrastBg
				btn.Background.A = 0x66
			}
			return btn.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(12)}.Layout),
		layout.Flexed(1, func(gtx C) D {
			text := "no status yet"
			if m.haveNav {
				text = strings.Join(m.nav.Classes, " ")
				if m.nav.Scrolling != "" {
					text = strings.TrimSpace(text + " scrolling " + m.nav.Scrolling)
				}
			}
			return material.Body2(m.theme, text).Layout(gtx)
		}),
	)
}

func (m *guiApp) layoutStatusPanel(gtx C) D {
	notice := strings.TrimSpace(m.nav.LastNotice)
	if notice == "" {
		notice = "none"
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			l := material.Body1(m.theme, m.addr+": "+string(m.phase)+" - "+m.statusText)
			return l.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
		layout.Rigid(func(gtx C) D {
			return material.Body2(m.theme, "Last notice: "+notice).Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			err := strings.TrimSpace(m.lastError)
			if err == "" {
				err = "none"
			}
			l := material.Body2(m.theme, "Last error: "+err)
			return l.Layout(gtx)
		}),
	)
}
