package model

import "time"

// Song is a catalog entry. A nil UserID marks seed/public data visible to
// anonymous callers.
type Song struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album,omitempty"`
	Duration  int       `json:"duration,omitempty"` // seconds
	FilePath  string    `json:"filePath,omitempty"`
	UserID    *int64    `json:"userId,omitempty"`
	IsMine    bool      `json:"isMine"`
	CreatedAt time.Time `json:"createdAt"`
}
