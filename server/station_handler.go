package server

import (
	"errors"
	"net/http"
	"strconv"

	"WaveFM/core/station"
	"WaveFM/logger"
)

// NowPlayingHandler returns the station's current track.
func (h *APIHandler) NowPlayingHandler(w http.ResponseWriter, r *http.Request) {
	if h.station == nil {
		respondError(w, http.StatusServiceUnavailable, "Station is offline")
		return
	}

	np, err := h.station.NowPlaying(r.Context())
	if err != nil {
		if errors.Is(err, station.ErrNothingPlaying) {
			respondJSON(w, http.StatusOK, map[string]interface{}{"playing": false})
			return
		}
		logger.Error("Failed to read now playing", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to read now playing")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"playing":   true,
		"song":      np,
		"startedAt": np.StartedAt,
	})
}

// StationHistoryHandler returns recently played tracks, newest first.
func (h *APIHandler) StationHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if h.station == nil {
		respondError(w, http.StatusServiceUnavailable, "Station is offline")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	history, err := h.station.History(r.Context(), limit)
	if err != nil {
		logger.Error("Failed to read station history", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to read station history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}
