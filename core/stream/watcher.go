// Package stream watches the local HLS output directory so listeners learn
// about playlist updates without polling.
package stream

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"WaveFM/logger"

	"github.com/fsnotify/fsnotify"
)

// Notifier receives stream-change events. Implemented by the websocket hub.
type Notifier interface {
	BroadcastEvent(eventType string, data interface{})
}

// Watcher announces HLS playlist updates in the stream directory.
type Watcher struct {
	dir      string
	notifier Notifier
}

// NewWatcher creates a Watcher over dir. notifier may be nil.
func NewWatcher(dir string, notifier Notifier) *Watcher {
	return &Watcher{dir: dir, notifier: notifier}
}

// Run watches until ctx is cancelled. Missing directories are not an error;
// the watcher just exits so a minio-only deployment needs no local dir.
func (w *Watcher) Run(ctx context.Context) error {
	if _, err := os.Stat(w.dir); os.IsNotExist(err) {
		logger.Debug("stream directory missing, watcher disabled", logger.String("dir", w.dir))
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	logger.Info("watching stream directory", logger.String("dir", w.dir))

	// FFmpeg rewrites the playlist once per segment; debounce so a burst of
	// writes produces one announcement.
	var pending string
	var timer *time.Timer
	fire := make(chan string, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".m3u8") {
				continue
			}
			pending = event.Name
			if timer != nil {
				timer.Stop()
			}
			name := pending
			timer = time.AfterFunc(500*time.Millisecond, func() {
				select {
				case fire <- name:
				default:
				}
			})

		case name := <-fire:
			playlist := filepath.Base(name)
			logger.Debug("stream playlist updated", logger.String("playlist", playlist))
			if w.notifier != nil {
				w.notifier.BroadcastEvent("stream", map[string]string{"playlist": playlist})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("stream watcher error", logger.ErrorField(err))
		}
	}
}
