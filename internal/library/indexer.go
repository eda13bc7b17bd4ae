// Package library enumerates the per-class media roots. Indexing is
// best-effort: an unreadable directory yields an empty listing, never a
// request failure. Nothing here is cached across requests — the filesystem
// owns the directory state.
package library

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/syncnest/syncnest/internal/models"
)

// Extension allow-lists per media class.
var classExtensions = map[models.MediaClass][]string{
	models.ClassVideo:    {".mp4", ".mkv", ".avi"},
	models.ClassMusic:    {".mp3", ".wav", ".flac"},
	models.ClassDocument: {".pdf", ".docx", ".txt", ".pptx"},
	models.ClassPicture:  {".jpg", ".jpeg", ".png", ".gif"},
}

// Thumbnailer resolves the cached thumbnail for a video, enqueueing
// generation on a miss. Implemented by thumbs.Cache.
type Thumbnailer interface {
	// Ensure returns the thumbnail path and true on a cache hit. On a miss
	// it schedules generation and returns false; the caller omits the entry
	// until a later listing finds the file on disk.
	Ensure(title, videoPath string) (string, bool)
}

// Indexer lists media files under the configured class roots.
type Indexer struct {
	home   string
	dirs   map[models.MediaClass]string
	logger *slog.Logger
}

// New creates an Indexer rooted at home with one directory per class.
func New(home string, dirs map[models.MediaClass]string, logger *slog.Logger) *Indexer {
	return &Indexer{home: filepath.Clean(home), dirs: dirs, logger: logger}
}

// Dir returns the configured root for class.
func (ix *Indexer) Dir(class models.MediaClass) string {
	return ix.dirs[class]
}

// List enumerates the immediate children of the class root, filtered by the
// class extension allow-list. Subdirectories are skipped, not descended
// into.
func (ix *Indexer) List(class models.MediaClass) []models.LibraryEntry {
	entries := make([]models.LibraryEntry, 0, 16)
	for _, f := range ix.scan(class) {
		entries = append(entries, models.LibraryEntry{
			Title: f.title,
			File:  ix.RelPath(f.path),
		})
	}
	return entries
}

// ListVideos enumerates the video root, attaching cached thumbnails. Videos
// without a thumbnail are handed to the Thumbnailer and omitted from this
// listing; they appear once generation has completed.
func (ix *Indexer) ListVideos(th Thumbnailer) []models.VideoEntry {
	entries := make([]models.VideoEntry, 0, 16)
	for _, f := range ix.scan(models.ClassVideo) {
		thumbPath, ok := th.Ensure(f.title, f.path)
		if !ok {
			continue
		}
		entries = append(entries, models.VideoEntry{
			Title:     f.title,
			Thumbnail: ix.RelPath(thumbPath),
			Video:     ix.RelPath(f.path),
		})
	}
	return entries
}

// RelPath rewrites an absolute path relative to the home root, with a
// leading slash and forward separators for client use.
func (ix *Indexer) RelPath(path string) string {
	rel, err := filepath.Rel(ix.home, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return "/" + filepath.ToSlash(rel)
}

type foundFile struct {
	title string
	path  string
}

func (ix *Indexer) scan(class models.MediaClass) []foundFile {
	dir := ix.dirs[class]
	exts := classExtensions[class]

	children, err := os.ReadDir(dir)
	if err != nil {
		ix.logger.Warn("library scan failed", "class", string(class), "dir", dir, "error", err)
		return nil
	}

	var files []foundFile
	for _, child := range children {
		if child.IsDir() {
			continue
		}
		name := child.Name()
		if !supportedExt(name, exts) {
			continue
		}
		files = append(files, foundFile{
			title: strings.TrimSuffix(name, filepath.Ext(name)),
			path:  filepath.Join(dir, name),
		})
	}
	return files
}

func supportedExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
