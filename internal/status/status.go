package status

import (
	"fmt"
	"sync"
	"time"
)

// State is what the status indicator shows.
type State struct {
	Enabled    bool      `json:"enabled"`
	Connected  int       `json:"connected"`
	Scrolling  string    `json:"scrolling,omitempty"`
	LastNotice string    `json:"last_notice,omitempty"`
	UpdatedUTC time.Time `json:"updated_utc"`
}

// Label renders the indicator text: NAV/OFF with the controller count.
func (s State) Label() string {
	word := "NAV"
	if !s.Enabled {
		word = "OFF"
	}
	if s.Connected > 0 {
		return fmt.Sprintf("%s (%d)", word, s.Connected)
	}
	return word
}

// Classes returns the indicator style classes.
func (s State) Classes() []string {
	var out []string
	if s.Connected > 0 {
		out = append(out, "connected")
	}
	if !s.Enabled {
		out = append(out, "disabled")
	}
	return out
}

// Hub keeps the latest State and fans it out to watchers.
// Safe for concurrent use.
type Hub struct {
	mu       sync.Mutex
	state    State
	watchers map[chan State]struct{}
}

func NewHub() *Hub {
	return &Hub{
		state:    State{Enabled: true},
		watchers: make(map[chan State]struct{}),
	}
}

func (h *Hub) Current() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Publish replaces the state and offers it to every watcher. A slow watcher
// drops its oldest pending state rather than blocking the publisher.
func (h *Hub) Publish(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
	for ch := range h.watchers {
		offer(ch, s)
	}
}

// Update applies fn to the current state and publishes the result.
func (h *Hub) Update(fn func(*State)) State {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.state
	fn(&s)
	h.state = s
	for ch := range h.watchers {
		offer(ch, s)
	}
	return s
}

// Watch returns a channel receiving the current state followed by every
// published one, and a func that stops the watch.
func (h *Hub) Watch() (<-chan State, func()) {
	ch := make(chan State, 4)
	h.mu.Lock()
	h.watchers[ch] = struct{}{}
	ch <- h.state
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.watchers, ch)
			h.mu.Unlock()
		})
	}
}

func offer(ch chan State, s State) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
