package forward

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/izzyreal/padnav/internal/protocol"
)

// ErrNoDaemon is returned when discovery hears no padnav daemon.
var ErrNoDaemon = errors.New("no padnav daemon found on the local network")

// Discover looks up padnav daemons over mDNS and returns the bridge URL of
// the first one that answers within timeout.
func Discover(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	entries := make(chan *mdns.ServiceEntry, 8)
	params := mdns.DefaultParams(protocol.MDNSService)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	queryErr := make(chan error, 1)
	go func() {
		queryErr <- mdns.Query(params)
		close(entries)
	}()

	found := ""
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case e, ok := <-entries:
			if !ok {
				if err := <-queryErr; err != nil {
					return "", fmt.Errorf("mdns query: %w", err)
				}
				if found == "" {
					return "", ErrNoDaemon
				}
				return found, nil
			}
			if found == "" {
				found = entryURL(e)
			}
		}
	}
}

// entryURL builds the bridge URL an advertised service entry points at.
func entryURL(e *mdns.ServiceEntry) string {
	if e == nil || e.Port <= 0 {
		return ""
	}
	ip := e.AddrV4
	if ip == nil {
		ip = e.AddrV6
	}
	if ip == nil {
		return ""
	}
	path := protocol.PathBridgeWS
	for _, field := range e.InfoFields {
		if v, ok := strings.CutPrefix(field, "bridge_path="); ok && strings.HasPrefix(v, "/") {
			path = v
		}
	}
	return "ws://" + net.JoinHostPort(ip.String(), strconv.Itoa(e.Port)) + path
}
