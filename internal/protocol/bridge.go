package protocol

import (
	"time"

	"github.com/izzyreal/padnav/internal/gamepad"
)

// BridgeMessageType tags a forwarded controller update.
const BridgeMessageType = "GAMEPAD_UPDATE"

// MDNSService is the DNS-SD service type the daemon advertises.
const MDNSService = "_padnav._tcp"

// HTTP paths of the daemon API.
const (
	PathBridge   = "/api/v1/bridge"
	PathBridgeWS = "/api/v1/bridge/ws"
)

// BridgeMessage carries controller snapshots from a host that can read
// gamepads into the daemon.
type BridgeMessage struct {
	Type     string             `json:"type"`
	Gamepads []gamepad.Snapshot `json:"gamepads"`
	Source   string             `json:"source,omitempty"`
	SentUTC  time.Time          `json:"sent_utc,omitempty"`
}

type BridgeResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

type StatusResponse struct {
	Enabled    bool      `json:"enabled"`
	Connected  int       `json:"connected"`
	Label      string    `json:"label"`
	Classes    []string  `json:"classes"`
	Scrolling  string    `json:"scrolling,omitempty"`
	LastNotice string    `json:"last_notice,omitempty"`
	UpdatedUTC time.Time `json:"updated_utc"`
}

type ToggleResponse struct {
	Enabled bool `json:"enabled"`
}

type ServerInfoResponse struct {
	Name           string `json:"name"`
	APIVersion     int    `json:"api_version"`
	Version        string `json:"version"`
	Hostname       string `json:"hostname"`
	LastStartedUTC string `json:"last_started_utc,omitempty"`
}
