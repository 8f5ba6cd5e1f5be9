package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"WaveFM/model"
)

// RatingRepository defines the interface for rating ledger storage.
// Song identity is the exact (title, artist) string pair; the backing table
// carries a unique index on (user_id, song_title, song_artist).
type RatingRepository interface {
	// Upsert inserts the rating, or overwrites value and submitted_at when a
	// row for the same (user, title, artist) triple exists. Atomic with
	// respect to the uniqueness constraint: concurrent submits for the same
	// key collapse to a single row, last write wins.
	Upsert(ctx context.Context, userID int64, title, artist string, value int) (*model.Rating, error)

	// Aggregate counts thumbs up/down for a song. Unknown keys return zero
	// counts, not an error.
	Aggregate(ctx context.Context, title, artist string) (model.RatingSummary, error)

	// UserRating returns the user's rating value for a song, or ErrNotFound.
	UserRating(ctx context.Context, userID int64, title, artist string) (int, error)

	// Delete removes the user's rating for a song. Returns ErrNotFound when
	// no row matched; a repeated delete is an error, not a no-op.
	Delete(ctx context.Context, userID int64, title, artist string) error

	// ListByUser returns all of the user's ratings, most recent first.
	ListByUser(ctx context.Context, userID int64) ([]*model.Rating, error)
}

// sqliteRatingRepository implements RatingRepository for SQLite.
type sqliteRatingRepository struct {
	db *sql.DB
}

// NewSQLiteRatingRepository creates a new sqliteRatingRepository.
func NewSQLiteRatingRepository(db *sql.DB) RatingRepository {
	return &sqliteRatingRepository{db: db}
}

// Upsert inserts or overwrites the rating row for (userID, title, artist).
// The conflict clause keeps the original row's id and created_at; only value
// and submitted_at change on resubmission.
func (r *sqliteRatingRepository) Upsert(ctx context.Context, userID int64, title, artist string, value int) (*model.Rating, error) {
	query := `INSERT INTO ratings (user_id, song_title, song_artist, rating, submitted_at)
	          VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	          ON CONFLICT(user_id, song_title, song_artist)
	          DO UPDATE SET rating = excluded.rating, submitted_at = CURRENT_TIMESTAMP`
	if _, err := r.db.ExecContext(ctx, query, userID, title, artist, value); err != nil {
		return nil, fmt.Errorf("failed to upsert rating: %w", err)
	}
	return r.getByKey(ctx, userID, title, artist)
}

// Aggregate counts the ledger rows matching (title, artist) by sign.
func (r *sqliteRatingRepository) Aggregate(ctx context.Context, title, artist string) (model.RatingSummary, error) {
	query := `SELECT
	            COUNT(CASE WHEN rating = 1 THEN 1 END) AS thumbs_up,
	            COUNT(CASE WHEN rating = -1 THEN 1 END) AS thumbs_down,
	            COUNT(*) AS total_ratings
	          FROM ratings WHERE song_title = ? AND song_artist = ?`
	var summary model.RatingSummary
	err := r.db.QueryRowContext(ctx, query, title, artist).
		Scan(&summary.ThumbsUp, &summary.ThumbsDown, &summary.TotalRatings)
	if err != nil {
		return model.RatingSummary{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return summary, nil
}

// UserRating returns the user's stored value for a song.
func (r *sqliteRatingRepository) UserRating(ctx context.Context, userID int64, title, artist string) (int, error) {
	query := `SELECT rating FROM ratings WHERE user_id = ? AND song_title = ? AND song_artist = ?`
	var value int
	err := r.db.QueryRowContext(ctx, query, userID, title, artist).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to query user rating: %w", err)
	}
	return value, nil
}

// Delete removes the rating row for (userID, title, artist).
func (r *sqliteRatingRepository) Delete(ctx context.Context, userID int64, title, artist string) error {
	query := `DELETE FROM ratings WHERE user_id = ? AND song_title = ? AND song_artist = ?`
	res, err := r.db.ExecContext(ctx, query, userID, title, artist)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns the user's ratings, most recent submission first.
func (r *sqliteRatingRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Rating, error) {
	query := `SELECT id, user_id, song_title, song_artist, rating, submitted_at, created_at
	          FROM ratings WHERE user_id = ? ORDER BY submitted_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
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

func (r *sqliteRatingRepository) getByKey(ctx context.Context, userID int64, title, artist string) (*model.Rating, error) {
	query := `SELECT id, user_id, song_title, song_artist, rating, submitted_at, created_at
	          FROM ratings WHERE user_id = ? AND song_title = ? AND song_artist = ?`
	rating := &model.Rating{}
	err := r.db.QueryRowContext(ctx, query, userID, title, artist).
		Scan(&rating.ID, &rating.UserID, &rating.SongTitle, &rating.SongArtist,
			&rating.Value, &rating.SubmittedAt, &rating.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan rating row: %w", err)
	}
	return rating, nil
}
