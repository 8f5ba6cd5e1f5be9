package server

import (
	"encoding/json"
	"net/http"

	"WaveFM/logger"
	"WaveFM/model"
)

// PlaylistRequest represents the create-playlist request body.
type PlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListPlaylistsHandler mirrors ListSongsHandler for playlists.
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	var (
		playlists []*model.Playlist
		err       error
	)
	if caller.Authenticated {
		playlists, err = h.repos.Playlists.ListPlaylistsWithOwnership(r.Context(), caller.UserID)
	} else {
		playlists, err = h.repos.Playlists.ListPublicPlaylists(r.Context())
	}
	if err != nil {
		logger.Error("Failed to list playlists", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list playlists")
		return
	}

	respondJSON(w, http.StatusOK, playlists)
}

// ListMyPlaylistsHandler returns only the caller's playlists.
func (h *APIHandler) ListMyPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	playlists, err := h.repos.Playlists.ListOwnedPlaylists(r.Context(), caller.UserID)
	if err != nil {
		logger.Error("Failed to list owned playlists",
			logger.Int64("userId", caller.UserID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list playlists")
		return
	}

	respondJSON(w, http.StatusOK, playlists)
}

// CreatePlaylistHandler creates a playlist owned by the caller.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	var req PlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}

	playlist := &model.Playlist{
		Name:        req.Name,
		Description: req.Description,
	}
	if caller.Authenticated {
		ownerID := caller.UserID
		playlist.UserID = &ownerID
		playlist.IsMine = true
	}

	id, err := h.repos.Playlists.CreatePlaylist(r.Context(), playlist)
	if err != nil {
		logger.Error("Failed to create playlist",
			logger.String("name", req.Name), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create playlist")
		return
	}
	playlist.ID = id

	logger.Info("Playlist created",
		logger.Int64("playlistId", id),
		logger.String("name", playlist.Name),
	)

	respondJSON(w, http.StatusCreated, playlist)
}
