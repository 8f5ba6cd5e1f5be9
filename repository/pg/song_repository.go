package pg

import (
	"context"
	"fmt"

	"WaveFM/model"
	"WaveFM/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// songRepository implements repository.SongRepository for PostgreSQL.
type songRepository struct {
	pool *pgxpool.Pool
}

// NewSongRepository creates a PostgreSQL-backed SongRepository.
func NewSongRepository(pool *pgxpool.Pool) repository.SongRepository {
	return &songRepository{pool: pool}
}

// CreateSong adds a new song to the catalog.
func (r *songRepository) CreateSong(ctx context.Context, song *model.Song) (int64, error) {
	query := `INSERT INTO songs (title, artist, album, duration, file_path, user_id)
	          VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6) RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		song.Title, song.Artist, song.Album, song.Duration, song.FilePath, song.UserID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert song: %w", err)
	}
	return id, nil
}

// ListPublicSongs returns ownerless songs, newest first.
func (r *songRepository) ListPublicSongs(ctx context.Context) ([]*model.Song, error) {
	query := `SELECT id, title, artist, COALESCE(album, ''), COALESCE(duration, 0),
	                 COALESCE(file_path, ''), user_id, FALSE AS is_mine, created_at
	          FROM songs WHERE user_id IS NULL ORDER BY created_at DESC, id DESC`
	return r.querySongs(ctx, query)
}

// ListSongsWithOwnership returns every song, flagging the viewer's own rows.
func (r *songRepository) ListSongsWithOwnership(ctx context.Context, viewerID int64) ([]*model.Song, error) {
	query := `SELECT id, title, artist, COALESCE(album, ''), COALESCE(duration, 0),
	                 COALESCE(file_path, ''), user_id,
	                 (user_id = $1) IS TRUE AS is_mine, created_at
	          FROM songs ORDER BY created_at DESC, id DESC`
	return r.querySongs(ctx, query, viewerID)
}

// ListOwnedSongs returns the songs created by userID, newest first.
func (r *songRepository) ListOwnedSongs(ctx context.Context, userID int64) ([]*model.Song, error) {
	query := `SELECT id, title, artist, COALESCE(album, ''), COALESCE(duration, 0),
	                 COALESCE(file_path, ''), user_id, TRUE AS is_mine, created_at
	          FROM songs WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	return r.querySongs(ctx, query, userID)
}

func (r *songRepository) querySongs(ctx context.Context, query string, args ...interface{}) ([]*model.Song, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song := &model.Song{}
		if err := rows.Scan(&song.ID, &song.Title, &song.Artist, &song.Album, &song.Duration,
			&song.FilePath, &song.UserID, &song.IsMine, &song.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during songs iteration: %w", err)
	}
	return songs, nil
}
