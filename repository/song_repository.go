package repository

import (
	"context"
	"database/sql"
	"fmt"

	"WaveFM/model"
)

// SongRepository defines the interface for catalog song operations.
type SongRepository interface {
	CreateSong(ctx context.Context, song *model.Song) (int64, error)
	// ListPublicSongs returns ownerless (seed) songs, newest first.
	ListPublicSongs(ctx context.Context) ([]*model.Song, error)
	// ListSongsWithOwnership returns all songs with IsMine set for viewerID.
	ListSongsWithOwnership(ctx context.Context, viewerID int64) ([]*model.Song, error)
	// ListOwnedSongs returns only the songs created by userID.
	ListOwnedSongs(ctx context.Context, userID int64) ([]*model.Song, error)
}

// sqliteSongRepository implements SongRepository for SQLite.
type sqliteSongRepository struct {
	db *sql.DB
}

// NewSQLiteSongRepository creates a new sqliteSongRepository.
func NewSQLiteSongRepository(db *sql.DB) SongRepository {
	return &sqliteSongRepository{db: db}
}

// CreateSong adds a new song to the catalog.
func (r *sqliteSongRepository) CreateSong(ctx context.Context, song *model.Song) (int64, error) {
	query := `INSERT INTO songs (title, artist, album, duration, file_path, user_id)
	          VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		song.Title, song.Artist, nullString(song.Album), song.Duration, nullString(song.FilePath), nullInt64(song.UserID))
	if err != nil {
		return 0, fmt.Errorf("failed to insert song: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for song: %w", err)
	}
	return id, nil
}

// ListPublicSongs returns ownerless songs, newest first.
func (r *sqliteSongRepository) ListPublicSongs(ctx context.Context) ([]*model.Song, error) {
	query := `SELECT id, title, artist, album, duration, file_path, user_id, 0 AS is_mine, created_at
	          FROM songs WHERE user_id IS NULL ORDER BY created_at DESC, id DESC`
	return r.querySongs(ctx, query)
}

// ListSongsWithOwnership returns every song, flagging the viewer's own rows.
func (r *sqliteSongRepository) ListSongsWithOwnership(ctx context.Context, viewerID int64) ([]*model.Song, error) {
	query := `SELECT id, title, artist, album, duration, file_path, user_id,
	                 CASE WHEN user_id = ? THEN 1 ELSE 0 END AS is_mine, created_at
	          FROM songs ORDER BY created_at DESC, id DESC`
	return r.querySongs(ctx, query, viewerID)
}

// ListOwnedSongs returns the songs created by userID, newest first.
func (r *sqliteSongRepository) ListOwnedSongs(ctx context.Context, userID int64) ([]*model.Song, error) {
	query := `SELECT id, title, artist, album, duration, file_path, user_id, 1 AS is_mine, created_at
	          FROM songs WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	return r.querySongs(ctx, query, userID)
}

func (r *sqliteSongRepository) querySongs(ctx context.Context, query string, args ...interface{}) ([]*model.Song, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song := &model.Song{}
		var album, filePath sql.NullString
		var duration sql.NullInt64
		var userID sql.NullInt64
		if err := rows.Scan(&song.ID, &song.Title, &song.Artist, &album, &duration,
			&filePath, &userID, &song.IsMine, &song.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		song.Album = album.String
		song.FilePath = filePath.String
		song.Duration = int(duration.Int64)
		if userID.Valid {
			song.UserID = &userID.Int64
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during songs iteration: %w", err)
	}
	return songs, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
