// Package forward relays controller snapshots read on one host to a padnav
// daemon over its websocket bridge.
package forward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/izzyreal/padnav/internal/gamepad"
	"github.com/izzyreal/padnav/internal/protocol"
	"github.com/izzyreal/padnav/internal/version"
)

const (
	DefaultInterval = 100 * time.Millisecond
	maxBackoff      = 10 * time.Second
	writeTimeout    = 2 * time.Second
)

type Options struct {
	// URL of the daemon: ws(s)://, http(s):// or a bare host:port.
	URL      string
	Source   gamepad.Source
	Interval time.Duration
	// Name tags forwarded messages; defaults to the host name.
	Name   string
	Logger *slog.Logger
	Dialer *websocket.Dialer
	Now    func() time.Time
}

// BridgeURL turns a daemon address into the websocket bridge URL.
func BridgeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty server address")
	}
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse server address: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server address %q has no host", raw)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = protocol.PathBridgeWS
	}
	return u.String(), nil
}

// Run keeps a bridge connection open and streams a snapshot every interval
// until ctx ends. Lost connections are redialed with exponential backoff.
func Run(ctx context.Context, opts Options) error {
	if opts.Source == nil {
		return errors.New("forward: source is required")
	}
	target, err := BridgeURL(opts.URL)
	if err != nil {
		return err
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if strings.TrimSpace(opts.Name) == "" {
		opts.Name, _ = os.Hostname()
	}
	logger := opts.Logger.With("target", target)

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}
		sent, err := stream(ctx, target, opts, logger)
		if ctx.Err() != nil {
			return nil
		}
		if sent > 0 {
			backoff = time.Second
		}
		logger.Warn("bridge connection lost", "sent", sent, "retry_in", backoff, "error", err)
		if !sleepWithContext(ctx, backoff) {
			return nil
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// stream runs one connection and returns how many messages it delivered.
func stream(ctx context.Context, target string, opts Options, logger *slog.Logger) (int, error) {
	header := http.Header{}
	header.Set("User-Agent", version.UserAgent("padnav-forward"))
	conn, _, err := opts.Dialer.DialContext(ctx, target, header)
	if err != nil {
		return 0, fmt.Errorf("dial bridge: %w", err)
	}
	defer conn.Close()
	logger.Info("bridge connected")

	readErr := make(chan error, 1)
	go func() {
		for {
			var resp protocol.BridgeResponse
			if err := conn.ReadJSON(&resp); err != nil {
				readErr <- err
				return
			}
			if !resp.Accepted {
				logger.Warn("bridge rejected update", "message", resp.Message)
			}
		}
	}()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()
	sent := 0
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return sent, nil
		case err := <-readErr:
			return sent, fmt.Errorf("read bridge: %w", err)
		case <-ticker.C:
			pads, err := opts.Source.Snapshots(ctx)
			if err != nil {
				logger.Debug("read gamepads failed", "error", err)
				continue
			}
			msg := protocol.BridgeMessage{
				Type:     protocol.BridgeMessageType,
				Gamepads: pads,
				Source:   opts.Name,
				SentUTC:  opts.Now().UTC(),
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				return sent, fmt.Errorf("write bridge: %w", err)
			}
			sent++
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
