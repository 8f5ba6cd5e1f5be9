package rating

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"WaveFM/model"
	"WaveFM/repository"
)

// memRatingRepo is an in-memory RatingRepository mirroring the SQL backends'
// upsert and delete semantics.
type memRatingRepo struct {
	rows   map[string]*model.Rating
	nextID int64
}

func newMemRatingRepo() *memRatingRepo {
	return &memRatingRepo{rows: make(map[string]*model.Rating)}
}

func key(userID int64, title, artist string) string {
	return fmt.Sprintf("%d\x00%s\x00%s", userID, title, artist)
}

func (m *memRatingRepo) Upsert(_ context.Context, userID int64, title, artist string, value int) (*model.Rating, error) {
	k := key(userID, title, artist)
	if existing, ok := m.rows[k]; ok {
		existing.Value = value
		existing.SubmittedAt = time.Now()
		cp := *existing
		return &cp, nil
	}
	m.nextID++
	now := time.Now()
	r := &model.Rating{
		ID: m.nextID, UserID: userID, SongTitle: title, SongArtist: artist,
		Value: value, SubmittedAt: now, CreatedAt: now,
	}
	m.rows[k] = r
	cp := *r
	return &cp, nil
}

func (m *memRatingRepo) Aggregate(_ context.Context, title, artist string) (model.RatingSummary, error) {
	var summary model.RatingSummary
	for _, r := range m.rows {
		if r.SongTitle != title || r.SongArtist != artist {
			continue
		}
		summary.TotalRatings++
		if r.Value == ThumbsUp {
			summary.ThumbsUp++
		} else {
			summary.ThumbsDown++
		}
	}
	return summary, nil
}

func (m *memRatingRepo) UserRating(_ context.Context, userID int64, title, artist string) (int, error) {
	if r, ok := m.rows[key(userID, title, artist)]; ok {
		return r.Value, nil
	}
	return 0, repository.ErrNotFound
}

func (m *memRatingRepo) Delete(_ context.Context, userID int64, title, artist string) error {
	k := key(userID, title, artist)
	if _, ok := m.rows[k]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, k)
	return nil
}

func (m *memRatingRepo) ListByUser(_ context.Context, userID int64) ([]*model.Rating, error) {
	out := make([]*model.Rating, 0)
	for _, r := range m.rows {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		title  string
		artist string
		value  int
	}{
		{"zero value", "Ode", "Joy", 0},
		{"value too large", "Ode", "Joy", 2},
		{"value too small", "Ode", "Joy", -2},
		{"empty title", "", "Joy", 1},
		{"empty artist", "Ode", "", 1},
		{"all empty", "", "", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRatingRepo()
			ledger := NewLedger(repo)

			_, err := ledger.Submit(ctx, 1, tt.title, tt.artist, tt.value)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Submit(%q, %q, %d) error = %v, want ErrValidation", tt.title, tt.artist, tt.value, err)
			}
			// Validation failures must not touch the store.
			if len(repo.rows) != 0 {
				t.Errorf("store mutated by invalid submission: %d rows", len(repo.rows))
			}
		})
	}
}

func TestSubmitThenAggregateReportsUserRating(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRatingRepo())

	stored, err := ledger.Submit(ctx, 7, "Ode", "Joy", ThumbsUp)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if stored.Value != ThumbsUp {
		t.Errorf("stored value = %d, want %d", stored.Value, ThumbsUp)
	}

	summary, err := ledger.Aggregate(ctx, "Ode", "Joy", 7, true)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if summary.UserRating == nil || *summary.UserRating != ThumbsUp {
		t.Errorf("UserRating = %v, want %d", summary.UserRating, ThumbsUp)
	}
	if summary.ThumbsUp != 1 || summary.ThumbsDown != 0 || summary.TotalRatings != 1 {
		t.Errorf("summary = %+v, want 1/0/1", summary)
	}
}

func TestResubmitOverwritesWithoutGrowingCount(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRatingRepo())

	if _, err := ledger.Submit(ctx, 7, "Ode", "Joy", ThumbsUp); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := ledger.Submit(ctx, 7, "Ode", "Joy", ThumbsDown); err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	summary, err := ledger.Aggregate(ctx, "Ode", "Joy", 7, true)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if summary.TotalRatings != 1 {
		t.Errorf("TotalRatings = %d, want 1 (resubmission must replace, not append)", summary.TotalRatings)
	}
	if summary.UserRating == nil || *summary.UserRating != ThumbsDown {
		t.Errorf("UserRating = %v, want %d", summary.UserRating, ThumbsDown)
	}
	if summary.ThumbsUp != 0 || summary.ThumbsDown != 1 {
		t.Errorf("counts = %d/%d, want 0/1", summary.ThumbsUp, summary.ThumbsDown)
	}
}

func TestAggregateAcrossUsers(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRatingRepo())

	// 5 users: 3 up, 2 down.
	for userID := int64(1); userID <= 3; userID++ {
		if _, err := ledger.Submit(ctx, userID, "Ode", "Joy", ThumbsUp); err != nil {
			t.Fatalf("Submit up: %v", err)
		}
	}
	for userID := int64(4); userID <= 5; userID++ {
		if _, err := ledger.Submit(ctx, userID, "Ode", "Joy", ThumbsDown); err != nil {
			t.Fatalf("Submit down: %v", err)
		}
	}
	// A rating for a different song must not leak into the aggregate.
	if _, err := ledger.Submit(ctx, 1, "Other", "Artist", ThumbsUp); err != nil {
		t.Fatalf("Submit other: %v", err)
	}

	summary, err := ledger.Aggregate(ctx, "Ode", "Joy", 0, false)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if summary.ThumbsUp != 3 || summary.ThumbsDown != 2 || summary.TotalRatings != 5 {
		t.Errorf("summary = %+v, want 3/2/5", summary)
	}
	if summary.UserRating != nil {
		t.Errorf("anonymous aggregate should not carry UserRating, got %v", *summary.UserRating)
	}
}

func TestAggregateUnknownSongIsZero(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRatingRepo())

	summary, err := ledger.Aggregate(ctx, "Never Rated", "Nobody", 42, true)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if summary.ThumbsUp != 0 || summary.ThumbsDown != 0 || summary.TotalRatings != 0 {
		t.Errorf("summary = %+v, want all zeros", summary)
	}
	if summary.UserRating != nil {
		t.Errorf("UserRating = %v, want nil", *summary.UserRating)
	}
}

func TestRemoveIsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRatingRepo())

	if _, err := ledger.Submit(ctx, 7, "Ode", "Joy", ThumbsUp); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := ledger.Remove(ctx, 7, "Ode", "Joy"); err != nil {
		t.Fatalf("first Remove: %v", err)
	}
	if err := ledger.Remove(ctx, 7, "Ode", "Joy"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove error = %v, want ErrNotFound", err)
	}
}

func TestRemoveValidation(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRatingRepo())

	if err := ledger.Remove(ctx, 7, "", "Joy"); !errors.Is(err, ErrValidation) {
		t.Errorf("Remove with empty title error = %v, want ErrValidation", err)
	}
}

func TestExactStringIdentity(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRatingRepo())

	// Different spellings are distinct ledger keys; no normalization.
	if _, err := ledger.Submit(ctx, 7, "Ode", "Joy", ThumbsUp); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := ledger.Submit(ctx, 7, "ode", "Joy", ThumbsDown); err != nil {
		t.Fatalf("Submit lowercase: %v", err)
	}

	summary, err := ledger.Aggregate(ctx, "Ode", "Joy", 7, true)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if summary.TotalRatings != 1 {
		t.Errorf("TotalRatings = %d, want 1 (case variants are distinct keys)", summary.TotalRatings)
	}
}

// The walkthrough from the product brief: alice and bob rating "Ode" by "Joy".
func TestAliceAndBobScenario(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRatingRepo())
	const alice, bob = int64(1), int64(2)

	if _, err := ledger.Submit(ctx, alice, "Ode", "Joy", ThumbsUp); err != nil {
		t.Fatalf("alice Submit: %v", err)
	}
	summary, _ := ledger.Aggregate(ctx, "Ode", "Joy", alice, true)
	if summary.ThumbsUp != 1 || summary.ThumbsDown != 0 || summary.TotalRatings != 1 {
		t.Fatalf("after alice: %+v, want 1/0/1", summary)
	}
	if summary.UserRating == nil || *summary.UserRating != ThumbsUp {
		t.Fatalf("after alice: UserRating = %v, want 1", summary.UserRating)
	}

	if _, err := ledger.Submit(ctx, bob, "Ode", "Joy", ThumbsDown); err != nil {
		t.Fatalf("bob Submit: %v", err)
	}
	summary, _ = ledger.Aggregate(ctx, "Ode", "Joy", 0, false)
	if summary.ThumbsUp != 1 || summary.ThumbsDown != 1 || summary.TotalRatings != 2 {
		t.Fatalf("after bob: %+v, want 1/1/2", summary)
	}

	if _, err := ledger.Submit(ctx, alice, "Ode", "Joy", ThumbsDown); err != nil {
		t.Fatalf("alice resubmit: %v", err)
	}
	summary, _ = ledger.Aggregate(ctx, "Ode", "Joy", 0, false)
	if summary.ThumbsUp != 0 || summary.ThumbsDown != 2 || summary.TotalRatings != 2 {
		t.Fatalf("after alice resubmit: %+v, want 0/2/2", summary)
	}
}

func TestLabel(t *testing.T) {
	if got := Label(ThumbsUp); got != "thumbs_up" {
		t.Errorf("Label(1) = %q", got)
	}
	if got := Label(ThumbsDown); got != "thumbs_down" {
		t.Errorf("Label(-1) = %q", got)
	}
}
