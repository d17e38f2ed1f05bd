package input

import "time"

const (
	StickThreshold  = 0.7
	ButtonThreshold = 0.5
	Cooldown        = 1000 * time.Millisecond
	// BridgeTimeout is how long bridged controllers stay connected without
	// a forwarded update.
	BridgeTimeout   = 3 * time.Second
)

// Action is a logical controller action. The declaration order is the
// order in which actions are evaluated within one controller.
type Action uint8

const (
	ActionShoulder Action = iota
	ActionTrigger
	ActionStickUp
	ActionStickDown
	ActionStickLeft
	ActionStickRight

	actionCount
)

var actionNames = [actionCount]string{
	ActionShoulder:   "shoulder-press",
	ActionTrigger:    "trigger-press",
	ActionStickUp:    "stick-up",
	ActionStickDown:  "stick-down",
	ActionStickLeft:  "stick-left",
	ActionStickRight: "stick-right",
}

func (a Action) String() string {
	if a >= actionCount {
		return "unknown"
	}
	return actionNames[a]
}

// Discrete reports whether a fires once per edge subject to a cooldown.
// The remaining actions are continuous.
func (a Action) Discrete() bool {
	return a <= ActionStickDown
}

// Intent is what an action asks the dispatcher to do.
type Intent uint8

const (
	IntentNone Intent = iota
	IntentNavigateNext
	IntentNavigatePrevious
	IntentPageDown
	IntentPageUp
	IntentScrollUp
	IntentScrollDown
)

var intentNames = map[Intent]string{
	IntentNone:             "none",
	IntentNavigateNext:     "navigate-next",
	IntentNavigatePrevious: "navigate-previous",
	IntentPageDown:         "page-scroll-down",
	IntentPageUp:           "page-scroll-up",
	IntentScrollUp:         "scroll-up",
	IntentScrollDown:       "scroll-down",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "unknown"
}

// Origin tells which input path produced an event.
type Origin string

const (
	OriginNative Origin = "native"
	OriginBridge Origin = "bridge"
)

// Bindings maps each action to its intent for one input path.
type Bindings [actionCount]Intent

// NativeBindings is the mapping for controllers read from the platform.
// Tilting the stick up pages the content down, like a scroll wheel.
var NativeBindings = Bindings{
	ActionShoulder:   IntentNavigateNext,
	ActionTrigger:    IntentNavigatePrevious,
	ActionStickUp:    IntentPageDown,
	ActionStickDown:  IntentPageUp,
	ActionStickLeft:  IntentScrollUp,
	ActionStickRight: IntentScrollDown,
}

// BridgeBindings is the reduced stick-only mapping for forwarded input.
// Stick up/down navigate instead of paging.
var BridgeBindings = Bindings{
	ActionShoulder:   IntentNone,
	ActionTrigger:    IntentNone,
	ActionStickUp:    IntentNavigateNext,
	ActionStickDown:  IntentNavigatePrevious,
	ActionStickLeft:  IntentScrollUp,
	ActionStickRight: IntentScrollDown,
}

// Connectivity describes a change in the number of connected controllers.
type Connectivity struct {
	Connected bool
	Count     int
	Label     string
	Origin    Origin
}

// Handler carries out what the machine decides. All calls happen on the
// goroutine that drives the machine.
type Handler interface {
	Discrete(intent Intent, origin Origin)
	ContinuousStart(intent Intent, origin Origin)
	ContinuousStop(intent Intent, origin Origin)
	Connectivity(change Connectivity)
}
