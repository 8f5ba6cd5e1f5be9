package server

import (
	"encoding/json"
	"net/http"

	"WaveFM/logger"
	"WaveFM/model"
)

// SongRequest represents the create-song request body.
type SongRequest struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Duration int    `json:"duration"`
	FilePath string `json:"filePath"`
}

// ListSongsHandler returns the catalog. Anonymous callers see only the
// ownerless seed catalog; authenticated callers see everything with their
// own rows flagged.
func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	var (
		songs []*model.Song
		err   error
	)
	if caller.Authenticated {
		songs, err = h.repos.Songs.ListSongsWithOwnership(r.Context(), caller.UserID)
	} else {
		songs, err = h.repos.Songs.ListPublicSongs(r.Context())
	}
	if err != nil {
		logger.Error("Failed to list songs", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list songs")
		return
	}

	respondJSON(w, http.StatusOK, songs)
}

// ListMySongsHandler returns only the caller's own songs.
func (h *APIHandler) ListMySongsHandler(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	songs, err := h.repos.Songs.ListOwnedSongs(r.Context(), caller.UserID)
	if err != nil {
		logger.Error("Failed to list owned songs",
			logger.Int64("userId", caller.UserID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list songs")
		return
	}

	respondJSON(w, http.StatusOK, songs)
}

// CreateSongHandler adds a song to the catalog owned by the caller.
func (h *APIHandler) CreateSongHandler(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	var req SongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Title == "" || req.Artist == "" {
		respondError(w, http.StatusBadRequest, "Title and artist are required")
		return
	}

	song := &model.Song{
		Title:    req.Title,
		Artist:   req.Artist,
		Album:    req.Album,
		Duration: req.Duration,
		FilePath: req.FilePath,
	}
	// Anonymous contributions go into the shared catalog with no owner.
	if caller.Authenticated {
		ownerID := caller.UserID
		song.UserID = &ownerID
		song.IsMine = true
	}

	id, err := h.repos.Songs.CreateSong(r.Context(), song)
	if err != nil {
		logger.Error("Failed to create song",
			logger.String("title", req.Title),
			logger.String("artist", req.Artist),
			logger.ErrorField(err),
		)
		respondError(w, http.StatusInternalServerError, "Failed to create song")
		return
	}
	song.ID = id

	logger.Info("Song created",
		logger.Int64("songId", id),
		logger.String("title", song.Title),
		logger.String("artist", song.Artist),
	)

	respondJSON(w, http.StatusCreated, song)
}
