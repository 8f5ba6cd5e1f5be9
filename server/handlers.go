package server

import (
	"encoding/json"
	"net/http"
	"time"

	"WaveFM/config"
	"WaveFM/core/auth"
	"WaveFM/core/rating"
	"WaveFM/core/station"
	"WaveFM/db"
	"WaveFM/logger"
)

// APIHandler handles all API requests.
type APIHandler struct {
	repos   *db.Repositories
	ledger  *rating.Ledger
	issuer  *auth.TokenIssuer
	station *station.Station // nil when redis is not configured
	hub     *StationHub      // nil in some tests
	cfg     *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	repos *db.Repositories,
	ledger *rating.Ledger,
	issuer *auth.TokenIssuer,
	st *station.Station,
	hub *StationHub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		repos:   repos,
		ledger:  ledger,
		issuer:  issuer,
		station: st,
		hub:     hub,
		cfg:     cfg,
	}
}

// respondJSON writes payload as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode JSON response", logger.ErrorField(err))
	}
}

// respondError writes a JSON error body of the form {"error": message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthHandler reports liveness for load balancers and the frontend.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	})
}
