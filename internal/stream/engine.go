// Package stream serves library files as full or partial-content HTTP
// responses and records the access. Each request opens its own bounded read
// of the file, so concurrent streams of the same or different files never
// interfere and memory use is independent of file size.
package stream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/syncnest/syncnest/internal/audit"
	"github.com/syncnest/syncnest/internal/models"
)

// Request describes one file delivery.
type Request struct {
	Class models.MediaClass
	Dir   string // class root the name resolves under
	Name  string

	// Download forces an attachment response and a Download event.
	Download bool

	// InlineAction is the event recorded for inline delivery: Stream for
	// video and music, View for documents and pictures.
	InlineAction models.Action

	// ContentType overrides MIME detection when set.
	ContentType string

	// Disposition is an optional Content-Disposition for inline delivery
	// (PDF viewing sets "inline").
	Disposition string

	// Probe suppresses audit recording (gallery probes).
	Probe bool
}

// Engine serves single-file responses with byte-range support.
type Engine struct {
	store  audit.Store
	logger *slog.Logger
}

// NewEngine creates an Engine recording accesses to store.
func NewEngine(store audit.Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// Serve resolves the request under its class root and answers with 404,
// 416, 206 or 200. Exactly one audit event is written per successful
// non-probe delivery, at header-issue time; none for 404 or 416.
func (e *Engine) Serve(w http.ResponseWriter, r *http.Request, req Request) {
	name := filepath.Base(req.Name)
	path := filepath.Join(req.Dir, name)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	size := info.Size()

	contentType := req.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(req.Class, path)
	}

	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "failed to open file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if req.Download {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		e.record(r, req, name, models.ActionDownload)
		e.copy(w, f, name)
		return
	}

	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		start, end, err := parseRange(rangeHeader, size)
		if err != nil {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}

		length := end - start + 1
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusPartialContent)
		e.record(r, req, name, req.InlineAction)

		if _, err := f.Seek(start, io.SeekStart); err != nil {
			e.logger.Warn("seek failed", "resource", name, "error", err)
			return
		}
		if _, err := io.CopyN(w, f, length); err != nil {
			e.logClientAbort(name, err)
		}
		return
	}

	if req.Disposition != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", req.Disposition, name))
	}
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	e.record(r, req, name, req.InlineAction)
	e.copy(w, f, name)
}

// record writes one audit event unless the request is a probe. Failures are
// logged and dropped: audit writes never fail the delivery they annotate.
func (e *Engine) record(r *http.Request, req Request, name string, action models.Action) {
	if req.Probe {
		return
	}
	if _, err := e.store.Record(r.Context(), req.Class, name, action); err != nil {
		e.logger.Warn("audit write failed", "resource", name, "error", err)
	}
}

func (e *Engine) copy(w io.Writer, f *os.File, name string) {
	if _, err := io.Copy(w, f); err != nil {
		e.logClientAbort(name, err)
	}
}

// logClientAbort downgrades mid-stream transport errors: a client closing
// the player is the broken pipe, not a server fault.
func (e *Engine) logClientAbort(name string, err error) {
	e.logger.Debug("stream interrupted", "resource", name, "error", err)
}

var errUnsatisfiable = errors.New("requested range not satisfiable")

// parseRange parses a single bytes=start-end expression against size. Only
// the first range of a multi-range header is honored. The end is optional
// and defaults to the last byte. Anything malformed or outside
// 0 <= start <= end < size is unsatisfiable.
func parseRange(header string, size int64) (start, end int64, err error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, errUnsatisfiable
	}
	if i := strings.IndexByte(spec, ','); i >= 0 {
		spec = spec[:i]
	}

	startStr, endStr, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return 0, 0, errUnsatisfiable
	}

	start, err = strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, errUnsatisfiable
	}

	if endStr == "" {
		end = size - 1
	} else {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return 0, 0, errUnsatisfiable
		}
	}

	if start > end || start >= size || end >= size {
		return 0, 0, errUnsatisfiable
	}
	return start, end, nil
}
