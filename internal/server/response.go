package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// errorResponse is the one JSON error shape every endpoint speaks. Callers
// branch on the HTTP status; Missing and RequiresAPIKey carry the two
// recoverable cases (field validation, degraded mapping mode).
type errorResponse struct {
	Success        bool     `json:"success"`
	Error          string   `json:"error"`
	Missing        []string `json:"missing,omitempty"`
	RequiresAPIKey bool     `json:"requiresApiKey,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) writeMissingFields(w http.ResponseWriter, labels []string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:   "champs requis manquants",
		Missing: labels,
	})
}

// writeInternal hides failure detail from clients in production; the full
// error always goes to the log.
func (s *Server) writeInternal(w http.ResponseWriter, err error) {
	s.logger.Error("Internal error", zap.Error(err))
	message := "une erreur est survenue, veuillez réessayer"
	if !s.cfg.IsProduction() {
		message = err.Error()
	}
	s.writeError(w, http.StatusInternalServerError, message)
}
