package input

import (
	"fmt"
	"testing"
	"time"

	"github.com/izzyreal/padnav/internal/gamepad"
)

type recordedCall struct {
	kind   string
	intent Intent
	origin Origin
}

type recorder struct {
	calls        []recordedCall
	connectivity []Connectivity
}

func (r *recorder) Discrete(intent Intent, origin Origin) {
	r.calls = append(r.calls, recordedCall{kind: "discrete", intent: intent, origin: origin})
}

func (r *recorder) ContinuousStart(intent Intent, origin Origin) {
	r.calls = append(r.calls, recordedCall{kind: "start", intent: intent, origin: origin})
}

func (r *recorder) ContinuousStop(intent Intent, origin Origin) {
	r.calls = append(r.calls, recordedCall{kind: "stop", intent: intent, origin: origin})
}

func (r *recorder) Connectivity(change Connectivity) {
	r.connectivity = append(r.connectivity, change)
}

func (r *recorder) count(kind string, intent Intent) int {
	n := 0
	for _, c := range r.calls {
		if c.kind == kind && c.intent == intent {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.calls = nil
	r.connectivity = nil
}

func pad(x, y float64, shoulder bool, trigger float64) gamepad.Snapshot {
	buttons := make([]gamepad.Button, 8)
	buttons[gamepad.ButtonLeftShoulder] = gamepad.Button{Pressed: shoulder}
	if shoulder {
		buttons[gamepad.ButtonLeftShoulder].Value = 1
	}
	buttons[gamepad.ButtonLeftTrigger] = gamepad.Button{Pressed: trigger > 0, Value: trigger}
	return gamepad.Snapshot{ID: "pad-0", Axes: []float64{x, y}, Buttons: buttons}
}

func neutral() gamepad.Snapshot { return pad(0, 0, false, 0) }

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func TestShoulderScenarioConnectHoldRelease(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)

	m.Sample(at(0), []gamepad.Snapshot{neutral()}, true)
	if len(rec.connectivity) != 1 || !rec.connectivity[0].Connected || rec.connectivity[0].Count != 1 {
		t.Fatalf("expected one connect notification, got %+v", rec.connectivity)
	}
	if rec.connectivity[0].Label != "pad-0" {
		t.Fatalf("connect label: got %q", rec.connectivity[0].Label)
	}

	// press and hold for three ticks
	for i := 1; i <= 3; i++ {
		m.Sample(at(i*100), []gamepad.Snapshot{pad(0, 0, true, 0)}, true)
	}
	if got := rec.count("discrete", IntentNavigateNext); got != 1 {
		t.Fatalf("held press: got %d fires want 1", got)
	}

	m.Sample(at(400), []gamepad.Snapshot{neutral()}, true)
	m.Sample(at(1500), []gamepad.Snapshot{pad(0, 0, true, 0)}, true)
	if got := rec.count("discrete", IntentNavigateNext); got != 2 {
		t.Fatalf("re-press after cooldown: got %d fires want 2", got)
	}
}

func TestDiscreteCooldownBlocksFastRepress(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	ticks := []struct {
		ms      int
		pressed bool
	}{
		{0, true}, {100, false}, {200, true}, {300, false}, {900, true}, {1000, false}, {1100, true},
	}
	for _, tk := range ticks {
		m.Sample(at(tk.ms), []gamepad.Snapshot{pad(0, 0, tk.pressed, 0)}, true)
	}
	if got := rec.count("discrete", IntentNavigateNext); got != 2 {
		t.Fatalf("fires: got %d want 2 (t=0 and t=1100)", got)
	}
}

func TestCooldownExpiryDoesNotFireWhileHeld(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	m.Sample(at(0), []gamepad.Snapshot{pad(0, 0, true, 0)}, true)
	// still held long after the cooldown elapsed
	m.Sample(at(2000), []gamepad.Snapshot{pad(0, 0, true, 0)}, true)
	m.Sample(at(3000), []gamepad.Snapshot{pad(0, 0, true, 0)}, true)
	if got := rec.count("discrete", IntentNavigateNext); got != 1 {
		t.Fatalf("fires: got %d want 1", got)
	}
}

func TestReleaseObservedWhileCooldownBlocks(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	m.Sample(at(0), []gamepad.Snapshot{pad(0, 0, true, 0)}, true)
	m.Sample(at(100), []gamepad.Snapshot{neutral()}, true)
	// edge during cooldown: blocked, but edge state still records the press
	m.Sample(at(200), []gamepad.Snapshot{pad(0, 0, true, 0)}, true)
	if !m.Active(ActionShoulder) {
		t.Fatalf("edge state should record press even when blocked")
	}
	// still held once cooldown expires: no edge, no fire
	m.Sample(at(1200), []gamepad.Snapshot{pad(0, 0, true, 0)}, true)
	if got := rec.count("discrete", IntentNavigateNext); got != 1 {
		t.Fatalf("fires: got %d want 1", got)
	}
}

func TestTriggerNeedsAnalogAboveThreshold(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	m.Sample(at(0), []gamepad.Snapshot{pad(0, 0, false, 0.4)}, true)
	if got := rec.count("discrete", IntentNavigatePrevious); got != 0 {
		t.Fatalf("value 0.4 should not fire, got %d", got)
	}
	m.Sample(at(100), []gamepad.Snapshot{pad(0, 0, false, 0.9)}, true)
	if got := rec.count("discrete", IntentNavigatePrevious); got != 1 {
		t.Fatalf("value 0.9 should fire once, got %d", got)
	}
}

func TestTriggerReadsValueNotPressedFlag(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	p := neutral()
	p.Buttons[gamepad.ButtonLeftTrigger] = gamepad.Button{Pressed: false, Value: 0.8}
	m.Sample(at(0), []gamepad.Snapshot{p}, true)
	if got := rec.count("discrete", IntentNavigatePrevious); got != 1 {
		t.Fatalf("analog 0.8 without pressed flag: got %d want 1", got)
	}
}

func TestStickUpOneTickPagesDownOnce(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	m.Sample(at(0), []gamepad.Snapshot{pad(0, -0.9, false, 0)}, true)
	m.Sample(at(100), []gamepad.Snapshot{pad(0, 0, false, 0)}, true)
	if got := rec.count("discrete", IntentPageDown); got != 1 {
		t.Fatalf("page down: got %d want 1", got)
	}
	if got := rec.count("discrete", IntentPageUp); got != 0 {
		t.Fatalf("page up: got %d want 0", got)
	}
}

func TestStickDownPagesUp(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	m.Sample(at(0), []gamepad.Snapshot{pad(0, 0.71, false, 0)}, true)
	if got := rec.count("discrete", IntentPageUp); got != 1 {
		t.Fatalf("page up: got %d want 1", got)
	}
}

func TestContinuousScrollFollowsDeflectionExactly(t *testing.T) {
	xs := []float64{0, 0.5, 0.71, 0.9, 0.95, 0.7, 0.2, 0.8, 0}
	rec := &recorder{}
	m := NewMachine(rec, nil)
	var events []string
	for i, x := range xs {
		before := len(rec.calls)
		m.Sample(at(i*100), []gamepad.Snapshot{pad(x, 0, false, 0)}, true)
		for _, c := range rec.calls[before:] {
			events = append(events, fmt.Sprintf("%d:%s:%s", i, c.kind, c.intent))
		}
	}
	want := []string{
		"2:start:scroll-down",
		"5:stop:scroll-down",
		"7:start:scroll-down",
		"8:stop:scroll-down",
	}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Fatalf("events: got %v want %v", events, want)
	}
}

func TestContinuousHasNoCooldown(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	for i := 0; i < 6; i++ {
		x := -0.9
		if i%2 == 1 {
			x = 0
		}
		m.Sample(at(i*10), []gamepad.Snapshot{pad(x, 0, false, 0)}, true)
	}
	if got := rec.count("start", IntentScrollUp); got != 3 {
		t.Fatalf("starts: got %d want 3", got)
	}
	if got := rec.count("stop", IntentScrollUp); got != 3 {
		t.Fatalf("stops: got %d want 3", got)
	}
}

func TestActionsFireInFixedOrderWithinTick(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	m.Sample(at(0), []gamepad.Snapshot{pad(0.9, -0.9, true, 1)}, true)
	var got []Intent
	for _, c := range rec.calls {
		got = append(got, c.intent)
	}
	want := []Intent{IntentNavigateNext, IntentNavigatePrevious, IntentPageDown, IntentScrollDown}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("order: got %v want %v", got, want)
	}
}

func TestDisabledSkipsDispatchButTracksConnectivity(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	m.Sample(at(0), []gamepad.Snapshot{pad(0, 0, true, 0)}, false)
	if len(rec.calls) != 0 {
		t.Fatalf("disabled dispatch: got %+v", rec.calls)
	}
	if len(rec.connectivity) != 1 || m.Connected() != 1 {
		t.Fatalf("connectivity should still be tracked: %+v count=%d", rec.connectivity, m.Connected())
	}
	m.Sample(at(100), nil, false)
	if len(rec.connectivity) != 2 || rec.connectivity[1].Connected || rec.connectivity[1].Label != "pad-0" {
		t.Fatalf("disconnect: %+v", rec.connectivity)
	}
}

func TestNoDisconnectNoticeFromZero(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	m.Sample(at(0), nil, true)
	if len(rec.connectivity) != 0 {
		t.Fatalf("unexpected notices: %+v", rec.connectivity)
	}
}

func TestBridgeMapsStickToNavigation(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	m.Bridge(at(0), []gamepad.Snapshot{pad(0, -0.8, true, 1)}, true)
	if got := rec.count("discrete", IntentNavigateNext); got != 1 {
		t.Fatalf("bridge stick up: got %d want 1 navigate-next", got)
	}
	if got := rec.count("discrete", IntentNavigatePrevious); got != 0 {
		t.Fatalf("bridge must ignore trigger, got %d", got)
	}
	if got := rec.count("discrete", IntentPageDown); got != 0 {
		t.Fatalf("bridge must not page, got %d", got)
	}
	if len(rec.connectivity) != 1 || rec.connectivity[0].Origin != OriginBridge {
		t.Fatalf("bridge connectivity: %+v", rec.connectivity)
	}
}

func TestBridgeDroppedWhileDisabled(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	m.Bridge(at(0), []gamepad.Snapshot{pad(0, -0.8, false, 0)}, false)
	if len(rec.calls) != 0 || len(rec.connectivity) != 0 || m.Connected() != 0 {
		t.Fatalf("disabled bridge should be a no-op: %+v %+v", rec.calls, rec.connectivity)
	}
}

func TestBridgeAndNativeShareCooldown(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	up := pad(0, -0.8, false, 0)

	m.Bridge(at(0), []gamepad.Snapshot{up}, true)
	if got := rec.count("discrete", IntentNavigateNext); got != 1 {
		t.Fatalf("bridge fire: got %d want 1", got)
	}
	rec.reset()

	// native reports the same deflection within the window: shared edge and cooldown block it
	m.Sample(at(100), []gamepad.Snapshot{up}, true)
	m.Bridge(at(150), []gamepad.Snapshot{neutral()}, true)
	m.Bridge(at(200), []gamepad.Snapshot{up}, true)
	if got := rec.count("discrete", IntentNavigateNext); got != 0 {
		t.Fatalf("navigate-next inside cooldown window: got %d want 0", got)
	}
	if got := rec.count("discrete", IntentPageDown); got != 0 {
		t.Fatalf("page-down inside shared cooldown window: got %d want 0", got)
	}
	if until := m.CooldownUntil(ActionStickUp); !until.Equal(at(1000)) {
		t.Fatalf("cooldown: got %v want %v", until, at(1000))
	}
}

func TestConnectedCountSettledBeforeHandler(t *testing.T) {
	var seen []int
	var m *Machine
	m = NewMachine(&countingHandler{recorder: &recorder{}, read: func() { seen = append(seen, m.Connected()) }}, nil)

	m.Sample(at(0), []gamepad.Snapshot{neutral()}, true)
	m.Sample(at(100), nil, true)
	if fmt.Sprint(seen) != "[1 0]" {
		t.Fatalf("count seen by handler: got %v want [1 0]", seen)
	}
}

type countingHandler struct {
	*recorder
	read func()
}

func (h *countingHandler) Connectivity(change Connectivity) {
	h.read()
	h.recorder.Connectivity(change)
}

func TestEmptyNativeReadKeepsBridgedPads(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	for i := 0; i < 3; i++ {
		m.Sample(at(i*100), nil, true)
		m.Bridge(at(i*100+50), []gamepad.Snapshot{neutral()}, true)
	}
	if len(rec.connectivity) != 1 || !rec.connectivity[0].Connected || rec.connectivity[0].Origin != OriginBridge {
		t.Fatalf("connectivity: got %+v", rec.connectivity)
	}
	if m.Connected() != 1 {
		t.Fatalf("connected: got %d want 1", m.Connected())
	}

	// a local controller takes over the count
	m.Sample(at(400), []gamepad.Snapshot{neutral(), neutral()}, true)
	if m.Connected() != 2 {
		t.Fatalf("connected with local pads: got %d want 2", m.Connected())
	}
}

func TestBridgedPadsTimeOut(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	m.Bridge(at(0), []gamepad.Snapshot{neutral()}, true)
	m.Sample(at(int(BridgeTimeout/time.Millisecond)), nil, true)
	if m.Connected() != 1 {
		t.Fatalf("bridged pad dropped too early")
	}
	m.Sample(at(int(BridgeTimeout/time.Millisecond)+100), nil, true)
	if m.Connected() != 0 {
		t.Fatalf("connected after timeout: got %d want 0", m.Connected())
	}
	if len(rec.connectivity) != 2 || rec.connectivity[1].Connected || rec.connectivity[1].Origin != OriginBridge {
		t.Fatalf("connectivity: got %+v", rec.connectivity)
	}
}

func TestDisabledBridgeKeepsPadsAlive(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, nil)
	m.Bridge(at(0), []gamepad.Snapshot{neutral()}, true)
	for ms := 1000; ms <= 6000; ms += 1000 {
		m.Bridge(at(ms), []gamepad.Snapshot{neutral()}, false)
		m.Sample(at(ms+50), nil, false)
	}
	if m.Connected() != 1 || len(rec.connectivity) != 1 {
		t.Fatalf("disabled bridge should not time out: count=%d %+v", m.Connected(), rec.connectivity)
	}
}

func TestActionNames(t *testing.T) {
	if got := ActionStickLeft.String(); got != "stick-left" {
		t.Fatalf("name: got %q", got)
	}
	if ActionStickLeft.Discrete() || !ActionStickDown.Discrete() {
		t.Fatalf("discrete classification wrong")
	}
	if got := IntentPageDown.String(); got != "page-scroll-down" {
		t.Fatalf("intent name: got %q", got)
	}
}
