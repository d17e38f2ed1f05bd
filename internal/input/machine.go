package input

import (
	"log/slog"
	"time"

	"github.com/izzyreal/padnav/internal/gamepad"
)

// Machine is the gamepad input state machine.
// Turns controller snapshots into edge-triggered, cooled-down actions.
// Not safe for concurrent use; one goroutine owns it.
type Machine struct {
	handler Handler
	logger  *slog.Logger

	// edges holds "was active last tick" per action, shared by both paths
	edges [actionCount]bool
	// cooldowns holds the instant after which a discrete action may fire again
	cooldowns [actionCount]time.Time

	// native and bridged are tracked apart so an empty local read does not
	// cancel controllers that arrive over the bridge.
	native  padSet
	bridged padSet
}

// padSet is the controller bookkeeping of one input path.
type padSet struct {
	count  int
	labels []string
	seen   time.Time
}

// NewMachine creates a machine reporting to h.
func NewMachine(h Handler, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{handler: h, logger: logger}
}

// Connected returns the controller count. Locally read controllers win;
// bridged ones count only while no local controller is present.
func (m *Machine) Connected() int {
	if m.native.count > 0 {
		return m.native.count
	}
	return m.bridged.count
}

// Active reports the stored edge state of a.
func (m *Machine) Active(a Action) bool {
	if a >= actionCount {
		return false
	}
	return m.edges[a]
}

// CooldownUntil returns the instant after which a may fire again.
func (m *Machine) CooldownUntil(a Action) time.Time {
	if a >= actionCount {
		return time.Time{}
	}
	return m.cooldowns[a]
}

// Sample processes one tick of natively read controllers.
// Connect/disconnect bookkeeping runs even when disabled; dispatch does not.
func (m *Machine) Sample(now time.Time, pads []gamepad.Snapshot, enabled bool) {
	m.track(&m.native, now, pads, OriginNative)
	if m.bridged.count > 0 && now.Sub(m.bridged.seen) > BridgeTimeout {
		m.track(&m.bridged, now, nil, OriginBridge)
	}
	if !enabled {
		return
	}
	for _, pad := range pads {
		active := activeActions(pad)
		for a := ActionShoulder; a < actionCount; a++ {
			m.step(now, a, active[a], NativeBindings[a], OriginNative)
		}
	}
}

// Bridge processes one forwarded update. Only stick actions are evaluated and
// the whole update is dropped while disabled, though it still keeps already
// bridged controllers from timing out.
func (m *Machine) Bridge(now time.Time, pads []gamepad.Snapshot, enabled bool) {
	if !enabled {
		if m.bridged.count > 0 {
			m.bridged.seen = now
		}
		return
	}
	m.track(&m.bridged, now, pads, OriginBridge)
	for _, pad := range pads {
		active := activeActions(pad)
		for a := ActionStickUp; a < actionCount; a++ {
			m.step(now, a, active[a], BridgeBindings[a], OriginBridge)
		}
	}
}

func activeActions(pad gamepad.Snapshot) [actionCount]bool {
	x := pad.Axis(gamepad.AxisLeftX)
	y := pad.Axis(gamepad.AxisLeftY)
	return [actionCount]bool{
		ActionShoulder:   pad.Button(gamepad.ButtonLeftShoulder).Pressed,
		ActionTrigger:    pad.Button(gamepad.ButtonLeftTrigger).Value > ButtonThreshold,
		ActionStickUp:    y < -StickThreshold,
		ActionStickDown:  y > StickThreshold,
		ActionStickLeft:  x < -StickThreshold,
		ActionStickRight: x > StickThreshold,
	}
}

func (m *Machine) step(now time.Time, a Action, active bool, intent Intent, origin Origin) {
	was := m.edges[a]
	m.edges[a] = active

	if a.Discrete() {
		if !active || was || !now.After(m.cooldowns[a]) {
			return
		}
		m.logger.Debug("action fired", "action", a.String(), "intent", intent.String(), "origin", origin)
		m.handler.Discrete(intent, origin)
		m.cooldowns[a] = now.Add(Cooldown)
		return
	}

	switch {
	case active && !was:
		m.logger.Debug("continuous start", "action", a.String(), "intent", intent.String(), "origin", origin)
		m.handler.ContinuousStart(intent, origin)
	case !active && was:
		m.logger.Debug("continuous stop", "action", a.String(), "intent", intent.String(), "origin", origin)
		m.handler.ContinuousStop(intent, origin)
	}
}

func (m *Machine) track(set *padSet, now time.Time, pads []gamepad.Snapshot, origin Origin) {
	labels := make([]string, 0, len(pads))
	for _, p := range pads {
		labels = append(labels, p.Label())
	}
	n := len(pads)
	prev, was := set.labels, set.count
	set.labels = labels
	set.seen = now
	if n == was {
		return
	}
	// The count is settled before the handler runs so it reads the new value.
	set.count = n
	switch {
	case n > was:
		m.handler.Connectivity(Connectivity{Connected: true, Count: m.Connected(), Label: firstMissing(labels, prev), Origin: origin})
	case was > 0:
		m.handler.Connectivity(Connectivity{Connected: false, Count: m.Connected(), Label: firstMissing(prev, labels), Origin: origin})
	}
}

// firstMissing returns the first label in a that b does not contain.
func firstMissing(a, b []string) string {
	seen := make(map[string]int, len(b))
	for _, l := range b {
		seen[l]++
	}
	for _, l := range a {
		if seen[l] == 0 {
			return l
		}
		seen[l]--
	}
	return ""
}
