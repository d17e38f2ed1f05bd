package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/izzyreal/padnav/internal/forward"
	"github.com/izzyreal/padnav/internal/page"
)

// runForward opens a local page, reads its gamepads and relays them to a
// daemon. Without -server the daemon is discovered over mDNS.
func runForward(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("forward", flag.ContinueOnError)
	var serverURL, cdpURL, startURL, name string
	var interval, discoverTimeout time.Duration
	fs.StringVar(&serverURL, "server", os.Getenv("PADNAV_SERVER_URL"), "daemon address (host:port or URL)")
	fs.StringVar(&cdpURL, "cdp", os.Getenv("PADNAV_CDP_URL"), "DevTools URL of a running Chrome")
	fs.StringVar(&startURL, "url", "about:blank", "page to open for gamepad access")
	fs.StringVar(&name, "name", "", "source name reported to the daemon")
	fs.DurationVar(&interval, "interval", forward.DefaultInterval, "sample interval")
	fs.DurationVar(&discoverTimeout, "discover-timeout", 3*time.Second, "mDNS lookup timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := slog.Default()

	if strings.TrimSpace(serverURL) == "" {
		found, err := forward.Discover(ctx, discoverTimeout)
		if err != nil {
			return err
		}
		logger.Info("discovered padnav daemon", "url", found)
		serverURL = found
	}

	browser, err := page.Open(page.Options{RemoteURL: cdpURL, StartURL: startURL, Logger: logger})
	if err != nil {
		return err
	}
	defer browser.Close()

	return forward.Run(ctx, forward.Options{
		URL:      serverURL,
		Source:   browser,
		Interval: interval,
		Name:     name,
		Logger:   logger,
	})
}
