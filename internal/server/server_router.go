package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/izzyreal/padnav/internal/protocol"
)

func buildRouter(s *apiServer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Health/info
	r.Get("/healthz", healthzHandler)
	r.Get("/api/v1/server-info", s.serverInfoHandler)

	// Navigation state
	r.Get("/api/v1/status", s.statusHandler)
	r.Post("/api/v1/toggle", s.toggleHandler)

	// Bridge
	r.Post(protocol.PathBridge, s.bridgeHandler)
	r.Get(protocol.PathBridgeWS, s.bridgeWSHandler)

	// Journal
	r.Get("/api/v1/journal", s.journalHandler)
	r.Post("/api/v1/journal/flush", s.flushJournalHandler)

	return r
}
