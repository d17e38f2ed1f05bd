package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	initLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "run":
		err = runDaemon(ctx, os.Args[2:])
	case "forward":
		err = runForward(ctx, os.Args[2:])
	case "resolve":
		err = runResolve(os.Stdout, os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "padnav: %v\n", err)
		os.Exit(1)
	}
}

func initLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(os.Getenv("PADNAV_LOG_LEVEL"))) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

func usage() {
	fmt.Fprintf(os.Stderr, `padnav - gamepad navigation for web pages

Usage:
  padnav <command> [flags]

Commands:
  run       Drive a Chrome page from connected gamepads and serve the bridge API
  forward   Read gamepads from a local Chrome page and forward them to a daemon
  resolve   Print the element "next" or "prev" would activate in an HTML file
  help      Show this help
`)
}
