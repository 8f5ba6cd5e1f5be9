package server

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"WaveFM/logger"
	"WaveFM/storage"

	"github.com/minio/minio-go/v7"
)

func streamContentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".m3u8"):
		return "application/vnd.apple.mpegurl"
	case strings.HasSuffix(name, ".ts"):
		return "video/MP2T"
	default:
		return "application/octet-stream"
	}
}

// StreamHandler serves HLS playlists and segments under /streams/. Objects
// come from MinIO when configured, with the local stream directory as the
// fallback.
func (h *APIHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	objectPath := strings.TrimPrefix(r.URL.Path, "/streams/")
	if objectPath == "" || strings.Contains(objectPath, "..") {
		respondError(w, http.StatusBadRequest, "Invalid stream path")
		return
	}

	if client := storage.GetMinioClient(); client != nil {
		h.serveFromMinio(w, r, client, objectPath)
		return
	}

	diskPath := filepath.Join(h.cfg.StreamDir, filepath.FromSlash(objectPath))
	w.Header().Set("Content-Type", streamContentType(objectPath))
	// Playlists are rewritten as the stream advances; only segments are
	// immutable.
	if strings.HasSuffix(objectPath, ".ts") {
		w.Header().Set("Cache-Control", "public, max-age=31536000")
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}
	http.ServeFile(w, r, diskPath)
}

func (h *APIHandler) serveFromMinio(w http.ResponseWriter, r *http.Request, client *minio.Client, objectPath string) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	object, err := client.GetObject(ctx, h.cfg.MinioBucket, "streams/"+objectPath, minio.GetObjectOptions{})
	if err != nil {
		respondError(w, http.StatusNotFound, "Stream not found")
		return
	}
	defer object.Close()

	if _, err := object.Stat(); err != nil {
		respondError(w, http.StatusNotFound, "Stream not found")
		return
	}

	w.Header().Set("Content-Type", streamContentType(objectPath))
	if strings.HasSuffix(objectPath, ".ts") {
		w.Header().Set("Cache-Control", "public, max-age=31536000")
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}

	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("Error serving stream object",
			logger.String("object", objectPath), logger.ErrorField(err))
	}
}
