package model

import "time"

// Rating is one listener's thumbs verdict on a song. Song identity is the
// exact (title, artist) string pair; no catalog row is required and no
// case or whitespace normalization is applied.
type Rating struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	SongTitle   string    `json:"songTitle"`
	SongArtist  string    `json:"songArtist"`
	Value       int       `json:"rating"` // +1 thumbs up, -1 thumbs down
	SubmittedAt time.Time `json:"submittedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RatingSummary aggregates all ratings for one (title, artist) key.
// UserRating carries the requesting user's own value when present.
type RatingSummary struct {
	ThumbsUp     int64 `json:"thumbsUp"`
	ThumbsDown   int64 `json:"thumbsDown"`
	TotalRatings int64 `json:"totalRatings"`
	UserRating   *int  `json:"userRating,omitempty"`
}
