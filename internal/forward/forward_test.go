package forward

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/mdns"

	"github.com/izzyreal/padnav/internal/gamepad"
	"github.com/izzyreal/padnav/internal/protocol"
)

type staticSource struct {
	pads  []gamepad.Snapshot
	err   error
	calls atomic.Int64
}

func (s *staticSource) Snapshots(context.Context) ([]gamepad.Snapshot, error) {
	s.calls.Add(1)
	return s.pads, s.err
}

func TestBridgeURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"127.0.0.1:8112", "ws://127.0.0.1:8112" + protocol.PathBridgeWS},
		{"http://tv.local:8112", "ws://tv.local:8112" + protocol.PathBridgeWS},
		{"https://tv.local/", "wss://tv.local" + protocol.PathBridgeWS},
		{"ws://tv.local:9000/custom", "ws://tv.local:9000/custom"},
	}
	for _, tc := range cases {
		got, err := BridgeURL(tc.in)
		if err != nil {
			t.Fatalf("BridgeURL(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("BridgeURL(%q): got %q want %q", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "ftp://tv.local", "http://"} {
		if _, err := BridgeURL(bad); err == nil {
			t.Fatalf("BridgeURL(%q): expected error", bad)
		}
	}
}

func newBridgeServer(t *testing.T, onMessage func(*websocket.Conn, protocol.BridgeMessage)) (*httptest.Server, chan string) {
	t.Helper()
	agents := make(chan string, 4)
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc(protocol.PathBridgeWS, func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg protocol.BridgeMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			onMessage(conn, msg)
		}
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, agents
}

func TestRunStreamsSnapshots(t *testing.T) {
	got := make(chan protocol.BridgeMessage, 16)
	ts, agents := newBridgeServer(t, func(_ *websocket.Conn, msg protocol.BridgeMessage) {
		select {
		case got <- msg:
		default:
		}
	})

	src := &staticSource{pads: []gamepad.Snapshot{{ID: "living room pad", Axes: []float64{0, 0.95}}}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{URL: ts.URL, Source: src, Interval: 10 * time.Millisecond, Name: "couch"})
	}()

	select {
	case msg := <-got:
		if msg.Type != protocol.BridgeMessageType || msg.Source != "couch" {
			t.Fatalf("message: got %+v", msg)
		}
		if len(msg.Gamepads) != 1 || msg.Gamepads[0].Axis(gamepad.AxisLeftY) != 0.95 {
			t.Fatalf("gamepads: got %+v", msg.Gamepads)
		}
		if msg.SentUTC.IsZero() {
			t.Fatalf("sent time not set")
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no message forwarded")
	}
	if ua := <-agents; !strings.HasPrefix(ua, "padnav-forward/") {
		t.Fatalf("user agent: got %q", ua)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not stop")
	}
}

func TestRunReconnectsAfterServerCloses(t *testing.T) {
	var conns atomic.Int64
	ts, agents := newBridgeServer(t, func(conn *websocket.Conn, _ protocol.BridgeMessage) {
		if conns.Add(1) == 1 {
			_ = conn.Close()
		}
	})

	src := &staticSource{pads: []gamepad.Snapshot{{ID: "pad"}}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = Run(ctx, Options{URL: ts.URL, Source: src, Interval: 10 * time.Millisecond})
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-agents:
		case <-time.After(5 * time.Second):
			t.Fatalf("connection %d not made", i+1)
		}
	}
}

func TestRunSkipsSourceErrors(t *testing.T) {
	got := make(chan protocol.BridgeMessage, 1)
	ts, _ := newBridgeServer(t, func(_ *websocket.Conn, msg protocol.BridgeMessage) {
		select {
		case got <- msg:
		default:
		}
	})
	src := &staticSource{err: errors.New("page gone")}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = Run(ctx, Options{URL: ts.URL, Source: src, Interval: 10 * time.Millisecond})

	if src.calls.Load() == 0 {
		t.Fatalf("source never read")
	}
	select {
	case msg := <-got:
		t.Fatalf("unexpected message %+v", msg)
	default:
	}
}

func TestRunRequiresSource(t *testing.T) {
	if err := Run(context.Background(), Options{URL: "127.0.0.1:1"}); err == nil {
		t.Fatalf("expected error without source")
	}
}

func TestEntryURL(t *testing.T) {
	e := &mdns.ServiceEntry{
		AddrV4:     net.ParseIP("192.168.1.20"),
		Port:       8112,
		InfoFields: []string{"name=padnav", "bridge_path=/api/v1/bridge/ws"},
	}
	if got, want := entryURL(e), "ws://192.168.1.20:8112/api/v1/bridge/ws"; got != want {
		t.Fatalf("entry url: got %q want %q", got, want)
	}
	if got := entryURL(&mdns.ServiceEntry{Port: 8112}); got != "" {
		t.Fatalf("entry without address: got %q", got)
	}
	if got := entryURL(nil); got != "" {
		t.Fatalf("nil entry: got %q", got)
	}
}
