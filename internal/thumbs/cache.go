// Package thumbs maintains the on-disk thumbnail cache for videos. One
// still frame per source title, generated at most once: existence of the
// output file is the cache key, so a stale thumbnail is never refreshed
// until it is deleted manually. Extraction runs on background workers so
// request handling never waits on ffmpeg.
package thumbs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// Extractor writes a single frame of src to dst. Replaced in tests.
type Extractor func(ctx context.Context, src, dst string) error

// FFmpegExtractor extracts the frame 10 seconds into the source with the
// given ffmpeg binary.
func FFmpegExtractor(ffmpegPath string) Extractor {
	return func(ctx context.Context, src, dst string) error {
		cmd := exec.CommandContext(ctx, ffmpegPath,
			"-ss", "00:00:10", "-i", src, "-frames:v", "1", "-y", dst)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("ffmpeg: %w: %s", err, out)
		}
		return nil
	}
}

type job struct {
	title string
	src   string
}

// Cache generates and serves thumbnails keyed by source title.
type Cache struct {
	dir     string
	extract Extractor
	logger  *slog.Logger

	jobs chan job

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewCache creates a Cache writing thumbnails to dir. Start must be called
// before Ensure can make progress on misses.
func NewCache(dir string, extract Extractor, logger *slog.Logger) *Cache {
	return &Cache{
		dir:      dir,
		extract:  extract,
		logger:   logger,
		jobs:     make(chan job, 64),
		inflight: make(map[string]struct{}),
	}
}

// Start launches workers background goroutines. They exit when ctx is
// cancelled.
func (c *Cache) Start(ctx context.Context, workers int) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go c.worker(ctx)
	}
	return nil
}

// Path returns the canonical thumbnail path for a source title.
func (c *Cache) Path(title string) string {
	return filepath.Join(c.dir, title+".jpg")
}

// Ensure returns the thumbnail path and true when it exists on disk. On a
// miss it enqueues generation (deduplicated per title) and returns false;
// the caller omits the entry from this listing. A failed generation leaves
// no file behind, so the next listing tries again.
func (c *Cache) Ensure(title, videoPath string) (string, bool) {
	dst := c.Path(title)
	if _, err := os.Stat(dst); err == nil {
		return dst, true
	}

	c.mu.Lock()
	if _, busy := c.inflight[title]; !busy {
		select {
		case c.jobs <- job{title: title, src: videoPath}:
			c.inflight[title] = struct{}{}
		default:
			// Queue full; the next listing enqueues again.
		}
	}
	c.mu.Unlock()
	return "", false
}

func (c *Cache) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-c.jobs:
			c.generate(ctx, j)
		}
	}
}

func (c *Cache) generate(ctx context.Context, j job) {
	defer func() {
		c.mu.Lock()
		delete(c.inflight, j.title)
		c.mu.Unlock()
	}()

	dst := c.Path(j.title)

	// A racing worker may have produced it while this job sat queued.
	if _, err := os.Stat(dst); err == nil {
		return
	}

	if err := c.extract(ctx, j.src, dst); err != nil {
		// Never leave a partial file behind: the cache key is existence.
		os.Remove(dst)
		c.logger.Warn("thumbnail extraction failed", "title", j.title, "source", j.src, "error", err)
		return
	}
	c.logger.Info("thumbnail generated", "title", j.title)
}
