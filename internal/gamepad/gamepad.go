// Package gamepad models controller state as read from the W3C Gamepad API
// (standard mapping) or forwarded by a bridge.
package gamepad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
)

// Standard mapping slots used by padnav.
const (
	AxisLeftX = 0
	AxisLeftY = 1

	ButtonLeftShoulder = 4
	ButtonLeftTrigger  = 6
)

// Button is one button slot. Value is the analog travel in 0..1.
type Button struct {
	Pressed bool    `json:"pressed"`
	Value   float64 `json:"value"`
}

// UnmarshalJSON accepts the object form {"pressed":..,"value":..} as well as
// a bare number or bool, which some hosts send for compact payloads.
func (b *Button) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = Button{}
		return nil
	}
	switch data[0] {
	case '{':
		var raw struct {
			Pressed *bool    `json:"pressed"`
			Value   *float64 `json:"value"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode button: %w", err)
		}
		out := Button{}
		if raw.Value != nil {
			out.Value = clamp(*raw.Value, 0, 1)
		}
		if raw.Pressed != nil {
			out.Pressed = *raw.Pressed
		} else {
			out.Pressed = out.Value > 0
		}
		*b = out
		return nil
	case 't', 'f':
		var pressed bool
		if err := json.Unmarshal(data, &pressed); err != nil {
			return fmt.Errorf("decode button: %w", err)
		}
		*b = Button{Pressed: pressed}
		if pressed {
			b.Value = 1
		}
		return nil
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decode button: %w", err)
		}
		v = clamp(v, 0, 1)
		*b = Button{Pressed: v > 0, Value: v}
		return nil
	}
}

// Snapshot is the state of one connected controller at one tick.
// It is replaced every tick and never mutated.
type Snapshot struct {
	ID      string    `json:"id,omitempty"`
	Index   int       `json:"index"`
	Axes    []float64 `json:"axes"`
	Buttons []Button  `json:"buttons"`
}

// Axis returns axis i, or 0 when the slot is absent or not a number.
func (s Snapshot) Axis(i int) float64 {
	if i < 0 || i >= len(s.Axes) {
		return 0
	}
	v := s.Axes[i]
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v, -1, 1)
}

// Button returns button i, or an unpressed button when the slot is absent.
func (s Snapshot) Button(i int) Button {
	if i < 0 || i >= len(s.Buttons) {
		return Button{}
	}
	return s.Buttons[i]
}

// Label identifies the controller in notifications.
func (s Snapshot) Label() string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("gamepad %d", s.Index)
}

// Source enumerates the controllers connected right now.
type Source interface {
	Snapshots(ctx context.Context) ([]Snapshot, error)
}

// EventKind is a platform connect/disconnect notification kind.
type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
)

// Event is a platform connectivity event carrying the controller id.
type Event struct {
	Kind EventKind `json:"kind"`
	ID   string    `json:"id"`
}

// EventSource is implemented by sources that also surface platform
// gamepadconnected/gamepaddisconnected events.
type EventSource interface {
	Events(ctx context.Context) ([]Event, error)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
