// Package upload classifies incoming files by declared content type, checks
// destination disk space before accepting any bytes, and stages writes
// through a temp file so a failed transfer leaves nothing behind.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/syncnest/syncnest/internal/audit"
	"github.com/syncnest/syncnest/internal/models"
)

var (
	// ErrInsufficientSpace rejects an upload before any byte is written.
	ErrInsufficientSpace = errors.New("not enough disk space to upload file")

	// ErrExists rejects a name collision in the destination directory.
	ErrExists = errors.New("a file with that name already exists")
)

// Document subtypes accepted under the application/* primary type.
var documentSubtypes = map[string]bool{
	"pdf":     true,
	"msword":  true,
	"vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"txt":   true,
	"plain": true,
}

// Dirs maps each media class to its destination directory, with a catch-all
// for unrecognized content types.
type Dirs struct {
	Video    string
	Music    string
	Document string
	Picture  string
	Overflow string
}

// Dispatcher routes uploads into the library.
type Dispatcher struct {
	dirs         Dirs
	minFreeBytes int64
	overwrite    bool
	store        audit.Store
	logger       *slog.Logger
}

// NewDispatcher creates a Dispatcher. When overwrite is false a name
// collision is rejected with ErrExists instead of the original
// last-write-wins behavior.
func NewDispatcher(dirs Dirs, minFreeBytes int64, overwrite bool, store audit.Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		dirs:         dirs,
		minFreeBytes: minFreeBytes,
		overwrite:    overwrite,
		store:        store,
		logger:       logger,
	}
}

// ResolveDestination maps a declared MIME type to its upload target. Pure:
// only the primary type and, for application/*, an allow-listed subtype set
// decide the route. Unrecognized combinations land in the overflow
// directory rather than failing.
func (d *Dispatcher) ResolveDestination(mimeType string) models.UploadTarget {
	primary, subtype := splitMime(mimeType)

	target := models.UploadTarget{DeclaredMimeType: mimeType}
	switch primary {
	case "image":
		target.Class, target.Dir = models.ClassPicture, d.dirs.Picture
	case "video":
		target.Class, target.Dir = models.ClassVideo, d.dirs.Video
	case "audio":
		target.Class, target.Dir = models.ClassMusic, d.dirs.Music
	case "application":
		if documentSubtypes[subtype] {
			target.Class, target.Dir = models.ClassDocument, d.dirs.Document
			break
		}
		target.Class, target.Dir = models.ClassDocument, d.dirs.Overflow
	default:
		target.Class, target.Dir = models.ClassDocument, d.dirs.Overflow
	}
	return target
}

// Accept routes and stores one upload. Order of operations: resolve the
// destination, preflight free space, record the Upload event, then copy.
// The event marks access initiated, not completed — a transfer that dies
// halfway still leaves its event (and no partial file).
func (d *Dispatcher) Accept(ctx context.Context, src io.Reader, filename, mimeType string) (models.StoredFile, error) {
	target := d.ResolveDestination(mimeType)

	if err := os.MkdirAll(target.Dir, 0o755); err != nil {
		return models.StoredFile{}, fmt.Errorf("create destination: %w", err)
	}

	free, err := freeBytes(target.Dir)
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("check disk space: %w", err)
	}
	if free < uint64(d.minFreeBytes) {
		return models.StoredFile{}, ErrInsufficientSpace
	}

	filename = filepath.Base(filename)
	dst := filepath.Join(target.Dir, filename)
	if !d.overwrite {
		if _, err := os.Stat(dst); err == nil {
			return models.StoredFile{}, ErrExists
		}
	}

	if _, err := d.store.Record(ctx, target.Class, filename, models.ActionUpload); err != nil {
		d.logger.Warn("audit write failed", "resource", filename, "error", err)
	}

	size, err := d.stageWrite(src, target.Dir, dst)
	if err != nil {
		return models.StoredFile{}, err
	}

	return models.StoredFile{
		Name:  filename,
		Class: target.Class,
		Path:  dst,
		Size:  size,
	}, nil
}

// stageWrite copies src into a uuid-named temp file in dir and renames it
// over dst, so a failed copy never leaves a partial destination file.
func (d *Dispatcher) stageWrite(src io.Reader, dir, dst string) (int64, error) {
	tmp := filepath.Join(dir, ".upload-"+uuid.New().String())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	size, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("write upload: %w", err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("finalize upload: %w", err)
	}
	return size, nil
}

func splitMime(mimeType string) (primary, subtype string) {
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	primary, subtype, _ = strings.Cut(mimeType, "/")
	return primary, subtype
}
