package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nvaldez/news-agent-go/agent"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response  string               `json:"response"`
	ToolCalls []agent.ToolCallInfo `json:"tool_calls"`
}

// handleChat runs one full turn and returns the final answer along with
// every tool call the model made.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.agent == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Service not ready - agent not initialized")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.agent.Run(r.Context(), req.Message)
	if err != nil {
		s.logger.Error("chat turn failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Chat error: %v", err))
		return
	}

	toolCalls := resp.ToolCalls
	if toolCalls == nil {
		toolCalls = []agent.ToolCallInfo{}
	}
	s.writeJSON(w, http.StatusOK, chatResponse{
		Response:  resp.Content,
		ToolCalls: toolCalls,
	})
}
