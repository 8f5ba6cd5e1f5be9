package model

import "time"

// NowPlaying is the station's current (or recently played) track.
type NowPlaying struct {
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album,omitempty"`
	Duration  int       `json:"duration,omitempty"` // seconds
	StartedAt time.Time `json:"startedAt"`
}
