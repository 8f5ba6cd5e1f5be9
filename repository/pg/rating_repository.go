package pg

import (
	"context"
	"errors"
	"fmt"

	"WaveFM/model"
	"WaveFM/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ratingRepository implements repository.RatingRepository for PostgreSQL.
type ratingRepository struct {
	pool *pgxpool.Pool
}

// NewRatingRepository creates a PostgreSQL-backed RatingRepository.
func NewRatingRepository(pool *pgxpool.Pool) repository.RatingRepository {
	return &ratingRepository{pool: pool}
}

// Upsert inserts or overwrites the rating row for (userID, title, artist).
func (r *ratingRepository) Upsert(ctx context.Context, userID int64, title, artist string, value int) (*model.Rating, error) {
	query := `INSERT INTO ratings (user_id, song_title, song_artist, rating, submitted_at)
	          VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
	          ON CONFLICT (user_id, song_title, song_artist)
	          DO UPDATE SET rating = EXCLUDED.rating, submitted_at = CURRENT_TIMESTAMP
	          RETURNING id, user_id, song_title, song_artist, rating, submitted_at, created_at`
	rating := &model.Rating{}
	err := r.pool.QueryRow(ctx, query, userID, title, artist, value).
		Scan(&rating.ID, &rating.UserID, &rating.SongTitle, &rating.SongArtist,
			&rating.Value, &rating.SubmittedAt, &rating.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert rating: %w", err)
	}
	return rating, nil
}

// Aggregate counts the ledger rows matching (title, artist) by sign.
func (r *ratingRepository) Aggregate(ctx context.Context, title, artist string) (model.RatingSummary, error) {
	query := `SELECT
	            COUNT(CASE WHEN rating = 1 THEN 1 END) AS thumbs_up,
	            COUNT(CASE WHEN rating = -1 THEN 1 END) AS thumbs_down,
	            COUNT(*) AS total_ratings
	          FROM ratings WHERE song_title = $1 AND song_artist = $2`
	var summary model.RatingSummary
	err := r.pool.QueryRow(ctx, query, title, artist).
		Scan(&summary.ThumbsUp, &summary.ThumbsDown, &summary.TotalRatings)
	if err != nil {
		return model.RatingSummary{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return summary, nil
}

// UserRating returns the user's stored value for a song.
func (r *ratingRepository) UserRating(ctx context.Context, userID int64, title, artist string) (int, error) {
	query := `SELECT rating FROM ratings WHERE user_id = $1 AND song_title = $2 AND song_artist = $3`
	var value int
	err := r.pool.QueryRow(ctx, query, userID, title, artist).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("failed to query user rating: %w", err)
	}
	return value, nil
}

// Delete removes the rating row for (userID, title, artist).
func (r *ratingRepository) Delete(ctx context.Context, userID int64, title, artist string) error {
	query := `DELETE FROM ratings WHERE user_id = $1 AND song_title = $2 AND song_artist = $3`
	tag, err := r.pool.Exec(ctx, query, userID, title, artist)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's ratings, most recent submission first.
func (r *ratingRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Rating, error) {
	query := `SELECT id, user_id, song_title, song_artist, rating, submitted_at, created_at
	          FROM ratings WHERE user_id = $1 ORDER BY submitted_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings for user %d: %w", userID, err)
	}
	defer rows.Close()

	ratings := make([]*model.Rating, 0)
	for rows.Next() {
		rating := &model.Rating{}
		if err := rows.Scan(&rating.ID, &rating.UserID, &rating.SongTitle, &rating.SongArtist,
			&rating.Value, &rating.SubmittedAt, &rating.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during ratings iteration: %w", err)
	}
	return ratings, nil
}
