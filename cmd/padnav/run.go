package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/izzyreal/padnav/internal/config"
	"github.com/izzyreal/padnav/internal/notify"
	"github.com/izzyreal/padnav/internal/page"
	"github.com/izzyreal/padnav/internal/server"
	"github.com/izzyreal/padnav/internal/session"
	"github.com/izzyreal/padnav/internal/store"
)

// loadConfig reads the YAML file named by path (or PADNAV_CONFIG), then
// applies PADNAV_* overrides.
func loadConfig(path string) (config.File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("PADNAV_CONFIG"))
	}
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.File{}, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if errs := cfg.Validate(); len(errs) > 0 {
		return config.File{}, fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func runDaemon(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var configPath, startURL string
	fs.StringVar(&configPath, "config", "", "path to padnav.yaml")
	fs.StringVar(&startURL, "url", "", "page to open (overrides browser.start_url)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(startURL) != "" {
		cfg.Browser.StartURL = startURL
	}
	logger := slog.Default()

	browser, err := page.Open(page.Options{
		RemoteURL:  cfg.Browser.RemoteURL,
		StartURL:   cfg.Browser.StartURL,
		Headless:   cfg.Browser.Headless,
		ProfileDir: cfg.Browser.ProfileDir,
		ExecPath:   cfg.Browser.ExecPath,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer browser.Close()

	var (
		journal     session.Journal
		journalAPI  server.JournalStore
		lastStarted string
	)
	if path := strings.TrimSpace(cfg.Journal.Path); path != "" {
		db, err := store.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()
		prev, err := db.MarkStarted(time.Now())
		if err != nil {
			logger.Warn("record start time failed", "error", err)
		}
		lastStarted = prev
		journal, journalAPI = db, db
	}

	var sess *session.Session
	// Toasts are gated on the toggle at show time; the log sees every notice.
	toasts := notify.Gate(notify.Toast(ctx, browser, logger), func() bool {
		return sess != nil && sess.Enabled()
	})
	sess = session.New(session.Options{
		Source:         browser,
		Page:           browser,
		Notifier:       notify.Fanout{notify.Log(logger), toasts},
		Journal:        journal,
		Logger:         logger,
		SampleInterval: cfg.Ticks.Sample(),
		StatusInterval: cfg.Ticks.Status(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)
	go func() {
		errCh <- server.Run(ctx, server.Options{
			Addr:           cfg.Server.Addr,
			GRPCAddr:       cfg.Server.GRPCAddr,
			MDNS:           cfg.Server.MDNSEnabled(),
			MDNSInstance:   cfg.Server.MDNSInstance,
			Navigator:      sess,
			Journal:        journalAPI,
			LastStartedUTC: lastStarted,
			Logger:         logger,
		})
	}()
	go func() {
		errCh <- sess.Run(ctx)
	}()

	// Either side stopping stops the other before the browser and journal close.
	err = <-errCh
	cancel()
	if other := <-errCh; err == nil {
		err = other
	}
	return err
}
