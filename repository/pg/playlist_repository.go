package pg

import (
	"context"
	"fmt"

	"WaveFM/model"
	"WaveFM/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// playlistRepository implements repository.PlaylistRepository for PostgreSQL.
type playlistRepository struct {
	pool *pgxpool.Pool
}

// NewPlaylistRepository creates a PostgreSQL-backed PlaylistRepository.
func NewPlaylistRepository(pool *pgxpool.Pool) repository.PlaylistRepository {
	return &playlistRepository{pool: pool}
}

// CreatePlaylist adds a new playlist.
func (r *playlistRepository) CreatePlaylist(ctx context.Context, playlist *model.Playlist) (int64, error) {
	query := `INSERT INTO playlists (name, description, user_id)
	          VALUES ($1, NULLIF($2, ''), $3) RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query, playlist.Name, playlist.Description, playlist.UserID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert playlist: %w", err)
	}
	return id, nil
}

// ListPublicPlaylists returns ownerless playlists, newest first.
func (r *playlistRepository) ListPublicPlaylists(ctx context.Context) ([]*model.Playlist, error) {
	query := `SELECT id, name, COALESCE(description, ''), user_id, FALSE AS is_mine, created_at
	          FROM playlists WHERE user_id IS NULL ORDER BY created_at DESC, id DESC`
	return r.queryPlaylists(ctx, query)
}

// ListPlaylistsWithOwnership returns every playlist, flagging the viewer's own rows.
func (r *playlistRepository) ListPlaylistsWithOwnership(ctx context.Context, viewerID int64) ([]*model.Playlist, error) {
	query := `SELECT id, name, COALESCE(description, ''), user_id,
	                 (user_id = $1) IS TRUE AS is_mine, created_at
	          FROM playlists ORDER BY created_at DESC, id DESC`
	return r.queryPlaylists(ctx, query, viewerID)
}

// ListOwnedPlaylists returns the playlists created by userID, newest first.
func (r *playlistRepository) ListOwnedPlaylists(ctx context.Context, userID int64) ([]*model.Playlist, error) {
	query := `SELECT id, name, COALESCE(description, ''), user_id, TRUE AS is_mine, created_at
	          FROM playlists WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	return r.queryPlaylists(ctx, query, userID)
}

func (r *playlistRepository) queryPlaylists(ctx context.Context, query string, args ...interface{}) ([]*model.Playlist, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]*model.Playlist, 0)
	for rows.Next() {
		playlist := &model.Playlist{}
		if err := rows.Scan(&playlist.ID, &playlist.Name, &playlist.Description, &playlist.UserID,
			&playlist.IsMine, &playlist.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during playlists iteration: %w", err)
	}
	return playlists, nil
}
