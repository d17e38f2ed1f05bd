// Command padnav-pad reads the gamepads attached to this machine and forwards
// them to a padnav daemon, for hosts whose browser cannot see the controller.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/izzyreal/padnav/internal/forward"
	"github.com/izzyreal/padnav/internal/gamepad"
)

func main() {
	var serverURL, name string
	var interval time.Duration
	flag.StringVar(&serverURL, "server", os.Getenv("PADNAV_SERVER_URL"), "daemon address (host:port or URL); empty discovers over mDNS")
	flag.StringVar(&name, "name", "", "source name reported to the daemon")
	flag.DurationVar(&interval, "interval", forward.DefaultInterval, "forward interval")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pad := &padWindow{}
	go func() {
		err := forwardLoop(ctx, pad, serverURL, name, interval, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			pad.setStatus("forwarding stopped: " + err.Error())
			logger.Error("forward failed", "error", err)
		}
	}()

	ebiten.SetWindowSize(360, 180)
	ebiten.SetWindowTitle("padnav-pad")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	// Controllers are only read while the loop runs.
	ebiten.SetRunnableOnUnfocused(true)
	if err := ebiten.RunGame(pad); err != nil {
		fmt.Fprintf(os.Stderr, "padnav-pad: %v\n", err)
		os.Exit(1)
	}
}

func forwardLoop(ctx context.Context, src gamepad.Source, serverURL, name string, interval time.Duration, logger *slog.Logger) error {
	if strings.TrimSpace(serverURL) == "" {
		found, err := forward.Discover(ctx, 3*time.Second)
		if err != nil {
			return err
		}
		logger.Info("discovered padnav daemon", "url", found)
		serverURL = found
	}
	if p, ok := src.(*padWindow); ok {
		p.setStatus("forwarding to " + serverURL)
	}
	return forward.Run(ctx, forward.Options{
		URL:      serverURL,
		Source:   src,
		Interval: interval,
		Name:     name,
		Logger:   logger,
	})
}

// padWindow is the ebiten game: Update samples controllers on the main
// thread and Snapshots hands the latest sample to the forwarder.
type padWindow struct {
	mu     sync.Mutex
	pads   []gamepad.Snapshot
	status string
	ids    []ebiten.GamepadID
}

func (p *padWindow) Snapshots(context.Context) ([]gamepad.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gamepad.Snapshot(nil), p.pads...), nil
}

func (p *padWindow) setStatus(s string) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

func (p *padWindow) Update() error {
	p.ids = ebiten.AppendGamepadIDs(p.ids[:0])
	pads := make([]gamepad.Snapshot, 0, len(p.ids))
	for _, id := range p.ids {
		pads = append(pads, readGamepad(id))
	}
	p.mu.Lock()
	p.pads = pads
	p.mu.Unlock()
	return nil
}

func (p *padWindow) Draw(screen *ebiten.Image) {
	p.mu.Lock()
	lines := []string{p.status, fmt.Sprintf("%d gamepad(s)", len(p.pads))}
	for _, s := range p.pads {
		lines = append(lines, fmt.Sprintf("%s  y=%+.2f  L1=%v  L2=%.2f",
			s.Label(), s.Axis(gamepad.AxisLeftY),
			s.Button(gamepad.ButtonLeftShoulder).Pressed,
			s.Button(gamepad.ButtonLeftTrigger).Value))
	}
	p.mu.Unlock()
	ebitenutil.DebugPrint(screen, strings.Join(lines, "\n"))
}

func (p *padWindow) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// readGamepad maps one controller onto the W3C standard layout when ebiten
// knows it, and passes raw axes and buttons through otherwise.
func readGamepad(id ebiten.GamepadID) gamepad.Snapshot {
	s := gamepad.Snapshot{ID: ebiten.GamepadName(id), Index: int(id)}
	if ebiten.IsStandardGamepadLayoutAvailable(id) {
		s.Axes = make([]float64, int(ebiten.StandardGamepadAxisMax)+1)
		for i := range s.Axes {
			s.Axes[i] = ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxis(i))
		}
		s.Buttons = make([]gamepad.Button, int(ebiten.StandardGamepadButtonMax)+1)
		for i := range s.Buttons {
			b := ebiten.StandardGamepadButton(i)
			s.Buttons[i] = gamepad.Button{
				Pressed: ebiten.IsStandardGamepadButtonPressed(id, b),
				Value:   ebiten.StandardGamepadButtonValue(id, b),
			}
		}
		return s
	}

	s.Axes = make([]float64, ebiten.GamepadAxisCount(id))
	for i := range s.Axes {
		s.Axes[i] = ebiten.GamepadAxisValue(id, ebiten.GamepadAxisType(i))
	}
	s.Buttons = make([]gamepad.Button, ebiten.GamepadButtonCount(id))
	for i := range s.Buttons {
		if ebiten.IsGamepadButtonPressed(id, ebiten.GamepadButton(i)) {
			s.Buttons[i] = gamepad.Button{Pressed: true, Value: 1}
		}
	}
	return s
}
