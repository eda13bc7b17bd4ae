// Package watcher pre-warms the thumbnail cache. It watches the video root
// for new files and enqueues extraction once a file has stopped growing, so
// the first listing after a copy finishes already has its thumbnail. A
// startup sweep covers videos that arrived while the server was down.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// videoExtensions are the file types that get thumbnails.
var videoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".avi": true,
}

// Thumbnailer is the subset of the thumbnail cache the watcher needs.
type Thumbnailer interface {
	Ensure(title, videoPath string) (string, bool)
}

// Watcher monitors the video root for new files.
type Watcher struct {
	dir    string
	thumbs Thumbnailer
	logger *slog.Logger
	fsw    *fsnotify.Watcher
}

// New creates a Watcher over dir.
func New(dir string, thumbs Thumbnailer, logger *slog.Logger) *Watcher {
	return &Watcher{dir: dir, thumbs: thumbs, logger: logger}
}

// Start sweeps the directory once, then begins watching. The loop exits
// when ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.sweep()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return err
	}
	w.fsw = fsw

	w.logger.Info("video watcher started", "dir", w.dir)
	go w.loop(ctx)
	return nil
}

// sweep enqueues thumbnail generation for every un-thumbnailed video
// already on disk.
func (w *Watcher) sweep() {
	children, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("video sweep failed", "dir", w.dir, "error", err)
		return
	}
	for _, child := range children {
		if child.IsDir() {
			continue
		}
		name := child.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !videoExtensions[ext] {
			continue
		}
		title := strings.TrimSuffix(name, ext)
		w.thumbs.Ensure(title, filepath.Join(w.dir, name))
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.fsw.Close()

	// Debounce: enqueue only once a file has been stable for 3 seconds,
	// so half-copied videos do not produce broken frames.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			ext := strings.ToLower(filepath.Ext(event.Name))
			if !videoExtensions[ext] {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			now := time.Now()
			for path, lastSeen := range pending {
				if now.Sub(lastSeen) < 3*time.Second {
					continue
				}
				delete(pending, path)
				name := filepath.Base(path)
				title := strings.TrimSuffix(name, filepath.Ext(name))
				w.thumbs.Ensure(title, path)
			}
		}
	}
}
