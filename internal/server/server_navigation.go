package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/izzyreal/padnav/internal/protocol"
	"github.com/izzyreal/padnav/internal/server/httpx"
	"github.com/izzyreal/padnav/internal/session"
	"github.com/izzyreal/padnav/internal/status"
)

const (
	submitTimeout    = 2 * time.Second
	maxJournalLimit  = 1000
	wsReadLimitBytes = 1 << 20
)

func statusResponse(st status.State) protocol.StatusResponse {
	classes := st.Classes()
	if classes == nil {
		classes = []string{}
	}
	return protocol.StatusResponse{
		Enabled:    st.Enabled,
		Connected:  st.Connected,
		Label:      st.Label(),
		Classes:    classes,
		Scrolling:  st.Scrolling,
		LastNotice: st.LastNotice,
		UpdatedUTC: st.UpdatedUTC,
	}
}

func (s *apiServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, statusResponse(s.nav.Hub().Current()))
}

func (s *apiServer) toggleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()
	enabled, err := s.nav.Toggle(ctx)
	if err != nil {
		http.Error(w, "navigation session is not running", http.StatusServiceUnavailable)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, protocol.ToggleResponse{Enabled: enabled})
}

func (s *apiServer) bridgeHandler(w http.ResponseWriter, r *http.Request) {
	var msg protocol.BridgeMessage
	if err := httpx.ReadJSON(w, r, &msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, code := s.submitBridge(r.Context(), msg)
	httpx.WriteJSON(w, code, resp)
}

func (s *apiServer) submitBridge(ctx context.Context, msg protocol.BridgeMessage) (protocol.BridgeResponse, int) {
	ctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()
	err := s.nav.SubmitBridge(ctx, msg)
	switch {
	case err == nil:
		return protocol.BridgeResponse{Accepted: true}, http.StatusOK
	case errors.Is(err, session.ErrWrongMessageType):
		return protocol.BridgeResponse{Accepted: false, Message: "ignored message type " + strconv.Quote(msg.Type)}, http.StatusOK
	default:
		s.logger.Warn("bridge submit failed", "source", msg.Source, "error", err)
		return protocol.BridgeResponse{Accepted: false, Message: "navigation session is busy"}, http.StatusServiceUnavailable
	}
}

// bridgeWSHandler accepts a stream of bridge messages. Each message is
// handled like a POST to the bridge endpoint; only rejections are answered.
func (s *apiServer) bridgeWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("bridge websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimitBytes)

	ctx := r.Context()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	remote := r.RemoteAddr
	s.logger.Info("bridge connected", "remote", remote, "user_agent", r.UserAgent())
	defer s.logger.Info("bridge disconnected", "remote", remote)

	for {
		var msg protocol.BridgeMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				s.logger.Debug("bridge read ended", "remote", remote, "error", err)
			}
			return
		}
		resp, _ := s.submitBridge(ctx, msg)
		if resp.Accepted {
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *apiServer) journalHandler(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "journal is disabled", http.StatusNotFound)
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxJournalLimit)
	}
	entries, err := s.journal.ListActions(limit)
	if err != nil {
		s.logger.Error("list journal failed", "error", err)
		http.Error(w, "list journal failed", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, protocol.JournalResponse{Entries: entries})
}

func (s *apiServer) flushJournalHandler(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "journal is disabled", http.StatusNotFound)
		return
	}
	n, err := s.journal.FlushActions()
	if err != nil {
		s.logger.Error("flush journal failed", "error", err)
		http.Error(w, "flush journal failed", http.StatusInternalServerError)
		return
	}
	s.logger.Info("journal flushed", "deleted", n)
	httpx.WriteJSON(w, http.StatusOK, protocol.FlushJournalResponse{Deleted: n})
}
