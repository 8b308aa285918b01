package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Wrivard/demenagementboreal-sub000/internal/geo"
)

type distanceRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type distanceResponse struct {
	Success  bool   `json:"success"`
	Distance int    `json:"distance"`
	Duration string `json:"duration"`
}

// handleCalculateDistance proxies the mapping provider for driving
// distance between two free-text addresses.
func (s *Server) handleCalculateDistance(w http.ResponseWriter, r *http.Request) {
	var req distanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	req.Origin = strings.TrimSpace(req.Origin)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Origin == "" || req.Destination == "" {
		s.writeError(w, http.StatusBadRequest, "adresse de départ et d'arrivée requises")
		return
	}

	result, err := s.resolver.Distance(r.Context(), req.Origin, req.Destination)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, distanceResponse{
			Success:  true,
			Distance: result.DistanceKm,
			Duration: result.Duration,
		})
	case errors.Is(err, geo.ErrNoCredential):
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:          "service de cartographie non configuré",
			RequiresAPIKey: true,
		})
	case errors.Is(err, geo.ErrUnresolvable):
		s.writeError(w, http.StatusBadRequest, "adresse introuvable")
	default:
		s.writeInternal(w, err)
	}
}

// handleMapsKey hands the referrer-restricted provider key to the browser
// for the address-autocomplete widget.
func (s *Server) handleMapsKey(w http.ResponseWriter, _ *http.Request) {
	if !s.resolver.HasCredential() {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:          "service de cartographie non configuré",
			RequiresAPIKey: true,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"apiKey":  s.resolver.APIKey(),
	})
}
