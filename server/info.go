package server

import (
	"net/http"

	"github.com/nvaldez/news-agent-go/newsapi"
	"github.com/nvaldez/news-agent-go/tools/registry"
)

type agentDescription struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type modelInfo struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type agentInfoResponse struct {
	Status    string                `json:"status"`
	Agent     agentDescription      `json:"agent"`
	LLM       modelInfo             `json:"llm"`
	Tools     []registry.Descriptor `json:"tools"`
	NewsToken *newsapi.TokenInfo    `json:"news_token,omitempty"`
}

type notReadyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleAgentInfo reports the agent's model settings and tool catalog.
func (s *Server) handleAgentInfo(w http.ResponseWriter, _ *http.Request) {
	if s.agent == nil {
		s.writeJSON(w, http.StatusOK, notReadyResponse{
			Status:  "not_ready",
			Message: "Agent not initialized",
		})
		return
	}

	info := s.agent.Info()
	resp := agentInfoResponse{
		Status: "ready",
		Agent: agentDescription{
			Name:        "News Agent",
			Description: "AI assistant with access to news search and analysis tools",
		},
		LLM: modelInfo{
			Model:       info.Model,
			Temperature: info.Temperature,
			MaxTokens:   info.MaxTokens,
		},
		Tools: s.agent.Tools(),
	}
	if s.tokenStatus != nil {
		status := s.tokenStatus()
		resp.NewsToken = &status
	}
	s.writeJSON(w, http.StatusOK, resp)
}
