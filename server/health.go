package server

import "net/http"

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleHealth is a liveness probe. It answers healthy whenever the
// process is up, independent of agent readiness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Message: "Chat service is running",
	})
}
