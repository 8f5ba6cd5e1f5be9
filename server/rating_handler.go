package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"WaveFM/core/rating"
	"WaveFM/logger"
	"WaveFM/model"

	"github.com/gorilla/mux"
)

// RatingRequest represents the submit and delete request bodies. The rating
// field is ignored on delete.
type RatingRequest struct {
	SongTitle  string `json:"songTitle"`
	SongArtist string `json:"songArtist"`
	Rating     int    `json:"rating"`
}

// ratingSongResponse is an aggregate tagged with the song it describes.
type ratingSongResponse struct {
	SongTitle  string `json:"songTitle"`
	SongArtist string `json:"songArtist"`
	model.RatingSummary
}

// SubmitRatingHandler records the caller's thumbs up or down for a song.
// Resubmitting replaces the previous rating.
func (h *APIHandler) SubmitRatingHandler(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	stored, err := h.ledger.Submit(r.Context(), caller.UserID, req.SongTitle, req.SongArtist, req.Rating)
	if err != nil {
		if errors.Is(err, rating.ErrValidation) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Failed to submit rating",
			logger.Int64("userId", caller.UserID),
			logger.String("title", req.SongTitle),
			logger.ErrorField(err),
		)
		respondError(w, http.StatusInternalServerError, "Failed to submit rating")
		return
	}

	logger.Info("Rating submitted",
		logger.Int64("userId", caller.UserID),
		logger.String("title", stored.SongTitle),
		logger.String("artist", stored.SongArtist),
		logger.String("rating", rating.Label(stored.Value)),
	)

	h.broadcastRatingChange(r, stored.SongTitle, stored.SongArtist)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Rating recorded",
		"rating":  rating.Label(stored.Value),
	})
}

// GetRatingHandler returns aggregate counts for one song. Unknown songs
// yield zeros. Authenticated callers also get their own rating, if any.
func (h *APIHandler) GetRatingHandler(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	vars := mux.Vars(r)
	title, err := url.PathUnescape(vars["title"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid song title encoding")
		return
	}
	artist, err := url.PathUnescape(vars["artist"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid song artist encoding")
		return
	}

	summary, err := h.ledger.Aggregate(r.Context(), title, artist, caller.UserID, caller.Authenticated)
	if err != nil {
		logger.Error("Failed to aggregate ratings",
			logger.String("title", title),
			logger.String("artist", artist),
			logger.ErrorField(err),
		)
		respondError(w, http.StatusInternalServerError, "Failed to load ratings")
		return
	}

	respondJSON(w, http.StatusOK, ratingSongResponse{
		SongTitle:     title,
		SongArtist:    artist,
		RatingSummary: summary,
	})
}

// ListMyRatingsHandler returns the caller's rating history, most recent
// first.
func (h *APIHandler) ListMyRatingsHandler(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	ratings, err := h.ledger.ListForUser(r.Context(), caller.UserID)
	if err != nil {
		logger.Error("Failed to list ratings",
			logger.Int64("userId", caller.UserID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list ratings")
		return
	}

	respondJSON(w, http.StatusOK, ratings)
}

// DeleteRatingHandler withdraws the caller's rating for a song. Deleting a
// rating that does not exist is a 404, not a no-op.
func (h *APIHandler) DeleteRatingHandler(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.ledger.Remove(r.Context(), caller.UserID, req.SongTitle, req.SongArtist); err != nil {
		switch {
		case errors.Is(err, rating.ErrValidation):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, rating.ErrNotFound):
			respondError(w, http.StatusNotFound, "No rating to delete")
		default:
			logger.Error("Failed to delete rating",
				logger.Int64("userId", caller.UserID),
				logger.String("title", req.SongTitle),
				logger.ErrorField(err),
			)
			respondError(w, http.StatusInternalServerError, "Failed to delete rating")
		}
		return
	}

	logger.Info("Rating withdrawn",
		logger.Int64("userId", caller.UserID),
		logger.String("title", req.SongTitle),
		logger.String("artist", req.SongArtist),
	)

	h.broadcastRatingChange(r, req.SongTitle, req.SongArtist)

	respondJSON(w, http.StatusOK, map[string]string{"message": "Rating deleted"})
}

// broadcastRatingChange pushes the fresh aggregate for a song to websocket
// listeners so visible counts update without a refresh.
func (h *APIHandler) broadcastRatingChange(r *http.Request, title, artist string) {
	if h.hub == nil {
		return
	}

	summary, err := h.ledger.Aggregate(r.Context(), title, artist, 0, false)
	if err != nil {
		logger.Warn("Failed to load aggregate for broadcast",
			logger.String("title", title), logger.ErrorField(err))
		return
	}

	h.hub.BroadcastEvent("rating", ratingSongResponse{
		SongTitle:     title,
		SongArtist:    artist,
		RatingSummary: summary,
	})
}
