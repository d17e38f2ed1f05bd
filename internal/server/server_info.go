package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/izzyreal/padnav/internal/protocol"
	"github.com/izzyreal/padnav/internal/server/httpx"
	"github.com/izzyreal/padnav/internal/version"
)

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) serverInfoHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	host = strings.TrimSpace(host)
	httpx.WriteJSON(w, http.StatusOK, protocol.ServerInfoResponse{
		Name:           "padnav",
		APIVersion:     1,
		Version:        version.Current(),
		Hostname:       host,
		LastStartedUTC: s.lastStarted,
	})
}
