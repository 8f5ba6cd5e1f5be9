// Package station keeps the radio station's now-playing record and play
// history in redis, and rotates through the public catalog on a timer.
package station

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"WaveFM/logger"
	"WaveFM/model"
	"WaveFM/repository"

	"github.com/redis/go-redis/v9"
)

const (
	nowPlayingKey = "station:now"
	historyKey    = "station:history"
	historyMax    = 50
)

// ErrNothingPlaying reports that the station has no current track.
var ErrNothingPlaying = errors.New("nothing playing")

// Broadcaster pushes station events to connected listeners. Implemented by
// the websocket hub; injected here so this package stays transport-free.
type Broadcaster interface {
	BroadcastEvent(eventType string, data interface{})
}

// Station is the redis-backed now-playing record.
type Station struct {
	rdb       *redis.Client
	songs     repository.SongRepository
	broadcast Broadcaster
}

// New creates a Station. broadcast may be nil.
func New(rdb *redis.Client, songs repository.SongRepository, broadcast Broadcaster) *Station {
	return &Station{rdb: rdb, songs: songs, broadcast: broadcast}
}

// SetNowPlaying records the current track, pushes the previous one onto the
// capped history list, and notifies listeners.
func (s *Station) SetNowPlaying(ctx context.Context, np model.NowPlaying) error {
	if np.StartedAt.IsZero() {
		np.StartedAt = time.Now()
	}

	data, err := json.Marshal(np)
	if err != nil {
		return fmt.Errorf("failed to marshal now playing: %w", err)
	}

	if prev, err := s.NowPlaying(ctx); err == nil {
		prevData, err := json.Marshal(prev)
		if err == nil {
			pipe := s.rdb.Pipeline()
			pipe.LPush(ctx, historyKey, prevData)
			pipe.LTrim(ctx, historyKey, 0, historyMax-1)
			if _, err := pipe.Exec(ctx); err != nil {
				logger.Warn("failed to append station history", logger.ErrorField(err))
			}
		}
	}

	if err := s.rdb.Set(ctx, nowPlayingKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store now playing: %w", err)
	}

	if s.broadcast != nil {
		s.broadcast.BroadcastEvent("now_playing", np)
	}
	return nil
}

// NowPlaying returns the current track, or ErrNothingPlaying.
func (s *Station) NowPlaying(ctx context.Context) (model.NowPlaying, error) {
	data, err := s.rdb.Get(ctx, nowPlayingKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.NowPlaying{}, ErrNothingPlaying
		}
		return model.NowPlaying{}, fmt.Errorf("failed to read now playing: %w", err)
	}

	var np model.NowPlaying
	if err := json.Unmarshal(data, &np); err != nil {
		return model.NowPlaying{}, fmt.Errorf("failed to unmarshal now playing: %w", err)
	}
	return np, nil
}

// History returns up to limit recently played tracks, newest first.
func (s *Station) History(ctx context.Context, limit int) ([]model.NowPlaying, error) {
	if limit <= 0 || limit > historyMax {
		limit = historyMax
	}
	entries, err := s.rdb.LRange(ctx, historyKey, 0, int64(limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.NowPlaying{}, nil
		}
		return nil, fmt.Errorf("failed to read station history: %w", err)
	}

	history := make([]model.NowPlaying, 0, len(entries))
	for _, entry := range entries {
		var np model.NowPlaying
		if err := json.Unmarshal([]byte(entry), &np); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		history = append(history, np)
	}
	return history, nil
}

// RunRotation cycles through the public catalog on a fixed interval until
// ctx is cancelled, refreshing the catalog each pass so newly seeded songs
// join the rotation.
func (s *Station) RunRotation(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	advance := func(index int) int {
		songs, err := s.songs.ListPublicSongs(ctx)
		if err != nil {
			logger.Warn("rotation could not load catalog", logger.ErrorField(err))
			return index
		}
		if len(songs) == 0 {
			return index
		}
		index = index % len(songs)
		song := songs[index]
		np := model.NowPlaying{
			Title:    song.Title,
			Artist:   song.Artist,
			Album:    song.Album,
			Duration: song.Duration,
		}
		if err := s.SetNowPlaying(ctx, np); err != nil {
			logger.Warn("rotation could not set now playing", logger.ErrorField(err))
			return index
		}
		logger.Info("station rotated",
			logger.String("title", song.Title),
			logger.String("artist", song.Artist))
		return index + 1
	}

	index := advance(0)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			index = advance(index)
		}
	}
}
