package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nvaldez/news-agent-go/agent"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The embedded UI and local clients connect from arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsInbound struct {
	Message string `json:"message"`
}

type wsError struct {
	Error string `json:"error"`
}

// handleWS upgrades the connection and serves chat turns until the
// client disconnects. Each received message runs one turn; its events
// are forwarded as they occur.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if s.agent == nil {
		_ = conn.WriteJSON(agent.Event{
			Type:  agent.EventError,
			Error: "Service not ready - agent not initialized",
		})
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", "error", err)
			}
			return
		}

		var inbound wsInbound
		if err := json.Unmarshal(data, &inbound); err != nil || inbound.Message == "" {
			if err := conn.WriteJSON(wsError{Error: "Empty message received"}); err != nil {
				return
			}
			continue
		}

		if !s.streamTurn(r.Context(), conn, inbound.Message) {
			return
		}
	}
}

// streamTurn forwards one turn's events to the client. Returns false
// when the connection is gone; the turn context is cancelled so the
// agent stops emitting.
func (s *Server) streamTurn(ctx context.Context, conn *websocket.Conn, message string) bool {
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := s.agent.RunStream(turnCtx, message)
	for event := range events {
		if err := conn.WriteJSON(event); err != nil {
			s.logger.Debug("websocket write failed", "error", err)
			cancel()
			// Drain so the agent goroutine can finish its current step.
			for range events {
			}
			return false
		}
	}
	return true
}
