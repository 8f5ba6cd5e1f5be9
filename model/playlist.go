package model

import "time"

// Playlist is a named collection of songs. A nil UserID marks seed/public
// data visible to anonymous callers.
type Playlist struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UserID      *int64    `json:"userId,omitempty"`
	IsMine      bool      `json:"isMine"`
	CreatedAt   time.Time `json:"createdAt"`
}
