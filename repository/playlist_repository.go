package repository

import (
	"context"
	"database/sql"
	"fmt"

	"WaveFM/model"
)

// PlaylistRepository defines the interface for playlist operations.
type PlaylistRepository interface {
	CreatePlaylist(ctx context.Context, playlist *model.Playlist) (int64, error)
	ListPublicPlaylists(ctx context.Context) ([]*model.Playlist, error)
	ListPlaylistsWithOwnership(ctx context.Context, viewerID int64) ([]*model.Playlist, error)
	ListOwnedPlaylists(ctx context.Context, userID int64) ([]*model.Playlist, error)
}

// sqlitePlaylistRepository implements PlaylistRepository for SQLite.
type sqlitePlaylistRepository struct {
	db *sql.DB
}

// NewSQLitePlaylistRepository creates a new sqlitePlaylistRepository.
func NewSQLitePlaylistRepository(db *sql.DB) PlaylistRepository {
	return &sqlitePlaylistRepository{db: db}
}

// CreatePlaylist adds a new playlist.
func (r *sqlitePlaylistRepository) CreatePlaylist(ctx context.Context, playlist *model.Playlist) (int64, error) {
	query := `INSERT INTO playlists (name, description, user_id) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		playlist.Name, nullString(playlist.Description), nullInt64(playlist.UserID))
	if err != nil {
		return 0, fmt.Errorf("failed to insert playlist: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for playlist: %w", err)
	}
	return id, nil
}

// ListPublicPlaylists returns ownerless playlists, newest first.
func (r *sqlitePlaylistRepository) ListPublicPlaylists(ctx context.Context) ([]*model.Playlist, error) {
	query := `SELECT id, name, description, user_id, 0 AS is_mine, created_at
	          FROM playlists WHERE user_id IS NULL ORDER BY created_at DESC, id DESC`
	return r.queryPlaylists(ctx, query)
}

// ListPlaylistsWithOwnership returns every playlist, flagging the viewer's own rows.
func (r *sqlitePlaylistRepository) ListPlaylistsWithOwnership(ctx context.Context, viewerID int64) ([]*model.Playlist, error) {
	query := `SELECT id, name, description, user_id,
	                 CASE WHEN user_id = ? THEN 1 ELSE 0 END AS is_mine, created_at
	          FROM playlists ORDER BY created_at DESC, id DESC`
	return r.queryPlaylists(ctx, query, viewerID)
}

// ListOwnedPlaylists returns the playlists created by userID, newest first.
func (r *sqlitePlaylistRepository) ListOwnedPlaylists(ctx context.Context, userID int64) ([]*model.Playlist, error) {
	query := `SELECT id, name, description, user_id, 1 AS is_mine, created_at
	          FROM playlists WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	return r.queryPlaylists(ctx, query, userID)
}

func (r *sqlitePlaylistRepository) queryPlaylists(ctx context.Context, query string, args ...interface{}) ([]*model.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]*model.Playlist, 0)
	for rows.Next() {
		playlist := &model.Playlist{}
		var description sql.NullString
		var userID sql.NullInt64
		if err := rows.Scan(&playlist.ID, &playlist.Name, &description, &userID,
			&playlist.IsMine, &playlist.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlist.Description = description.String
		if userID.Valid {
			playlist.UserID = &userID.Int64
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during playlists iteration: %w", err)
	}
	return playlists, nil
}
