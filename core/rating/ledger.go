// Package rating implements the thumbs-up/down ledger: one rating per
// (user, song title, song artist) triple, enforced by the backing store's
// unique index, with derived aggregate counts.
package rating

import (
	"context"
	"errors"
	"fmt"

	"WaveFM/model"
	"WaveFM/repository"
)

const (
	// ThumbsUp and ThumbsDown are the only legal rating values. There is no
	// neutral state and no magnitude scale.
	ThumbsUp   = 1
	ThumbsDown = -1
)

var (
	// ErrValidation reports malformed input, rejected before any store
	// access.
	ErrValidation = errors.New("invalid rating submission")

	// ErrNotFound reports a delete for a rating that does not exist. A
	// repeated delete fails with this; delete is deliberately not
	// idempotent.
	ErrNotFound = repository.ErrNotFound
)

// Ledger validates submissions and answers aggregate queries over a
// RatingRepository. Song identity is the exact (title, artist) pair; no
// case or whitespace normalization is applied, so two spellings of the same
// song are distinct keys.
type Ledger struct {
	repo repository.RatingRepository
}

// NewLedger creates a Ledger over the given repository.
func NewLedger(repo repository.RatingRepository) *Ledger {
	return &Ledger{repo: repo}
}

// Submit records a user's rating for a song. A resubmission for the same
// (user, title, artist) triple overwrites the prior value and timestamp;
// no history is kept. Returns the stored rating.
func (l *Ledger) Submit(ctx context.Context, userID int64, title, artist string, value int) (*model.Rating, error) {
	if title == "" || artist == "" {
		return nil, fmt.Errorf("%w: song title and artist are required", ErrValidation)
	}
	if value != ThumbsUp && value != ThumbsDown {
		return nil, fmt.Errorf("%w: rating must be 1 (thumbs up) or -1 (thumbs down)", ErrValidation)
	}
	return l.repo.Upsert(ctx, userID, title, artist, value)
}

// Aggregate returns thumbs-up/down counts for a song. Unknown songs yield
// zero counts, not an error. When the caller is authenticated, their own
// rating value is included if present.
func (l *Ledger) Aggregate(ctx context.Context, title, artist string, callerID int64, authenticated bool) (model.RatingSummary, error) {
	summary, err := l.repo.Aggregate(ctx, title, artist)
	if err != nil {
		return model.RatingSummary{}, err
	}

	if authenticated {
		value, err := l.repo.UserRating(ctx, callerID, title, artist)
		switch {
		case err == nil:
			summary.UserRating = &value
		case errors.Is(err, repository.ErrNotFound):
			// No own rating; leave UserRating unset.
		default:
			return model.RatingSummary{}, err
		}
	}
	return summary, nil
}

// Remove deletes a user's rating for a song. Returns ErrNotFound when no
// matching row exists.
func (l *Ledger) Remove(ctx context.Context, userID int64, title, artist string) error {
	if title == "" || artist == "" {
		return fmt.Errorf("%w: song title and artist are required", ErrValidation)
	}
	return l.repo.Delete(ctx, userID, title, artist)
}

// ListForUser returns all of a user's ratings, most recent first.
func (l *Ledger) ListForUser(ctx context.Context, userID int64) ([]*model.Rating, error) {
	return l.repo.ListByUser(ctx, userID)
}

// Label returns the wire label for a rating value.
func Label(value int) string {
	if value == ThumbsUp {
		return "thumbs_up"
	}
	return "thumbs_down"
}
