package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"

	"github.com/izzyreal/padnav/internal/protocol"
	"github.com/izzyreal/padnav/internal/server/navrpc"
	"github.com/izzyreal/padnav/internal/status"
)

// Navigator is the running navigation session.
type Navigator interface {
	Enabled() bool
	Toggle(ctx context.Context) (bool, error)
	SubmitBridge(ctx context.Context, msg protocol.BridgeMessage) error
	Hub() *status.Hub
}

// JournalStore serves the action journal.
type JournalStore interface {
	ListActions(limit int) ([]protocol.JournalEntry, error)
	FlushActions() (int64, error)
}

type Options struct {
	Addr         string
	GRPCAddr     string
	MDNS         bool
	MDNSInstance string

	Navigator Navigator
	// Journal may be nil when journaling is disabled.
	Journal        JournalStore
	LastStartedUTC string
	Logger         *slog.Logger
}

type apiServer struct {
	nav         Navigator
	journal     JournalStore
	lastStarted string
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

func newAPIServer(opts Options) *apiServer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &apiServer{
		nav:         opts.Navigator,
		journal:     opts.Journal,
		lastStarted: opts.LastStartedUTC,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			// Forwarders are native clients or local pages on other origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Run serves the HTTP API and, when configured, the gRPC Navigator service
// until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Navigator == nil {
		return errors.New("server: navigator is required")
	}
	api := newAPIServer(opts)
	logger := api.logger
	router := buildRouter(api)

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Addr, err)
	}
	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with ctx, which also closes bridge websockets.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("padnav server started", "addr", ln.Addr().String())
		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve http: %w", err)
			return
		}
		errCh <- nil
	}()

	var grpcSrv *grpc.Server
	if addr := strings.TrimSpace(opts.GRPCAddr); addr != "" {
		gln, err := net.Listen("tcp", addr)
		if err != nil {
			_ = srv.Close()
			return fmt.Errorf("listen grpc %s: %w", addr, err)
		}
		grpcSrv = grpc.NewServer()
		navrpc.Register(grpcSrv, newNavigatorGRPCServer(router, opts.Navigator.Hub(), ctx.Done()))
		go func() {
			logger.Info("padnav grpc started", "addr", gln.Addr().String())
			if err := grpcSrv.Serve(gln); err != nil {
				errCh <- fmt.Errorf("serve grpc: %w", err)
			}
		}()
	}

	stopMDNS := func() {}
	if opts.MDNS {
		stopMDNS = startMDNSAdvertiser(ln.Addr().String(), opts.GRPCAddr, opts.MDNSInstance, logger)
	}
	defer stopMDNS()

	shutdown := func() error {
		if grpcSrv != nil {
			stopGRPC(grpcSrv, 5*time.Second)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		logger.Info("padnav server stopped")
		return nil
	}

	select {
	case <-ctx.Done():
		return shutdown()
	case err := <-errCh:
		if shutErr := shutdown(); err == nil {
			err = shutErr
		}
		return err
	}
}

// stopGRPC drains in-flight RPCs and force-closes whatever is left after
// timeout.
func stopGRPC(s *grpc.Server, timeout time.Duration) {
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-stopped:
	case <-t.C:
		s.Stop()
		<-stopped
	}
}
