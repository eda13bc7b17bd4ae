package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/syncnest/syncnest/internal/docview"
	"github.com/syncnest/syncnest/internal/models"
	"github.com/syncnest/syncnest/internal/stream"
)

// handleVideo handles GET /video/{name}[?download=true]: inline streaming
// with byte-range support, or a forced download.
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	req := stream.Request{
		Class:        models.ClassVideo,
		Dir:          s.indexer.Dir(models.ClassVideo),
		Name:         mux.Vars(r)["name"],
		InlineAction: models.ActionStream,
	}
	if r.URL.Query().Get("download") == "true" {
		req.Download = true
		req.ContentType = "application/octet-stream"
	}
	s.engine.Serve(w, r, req)
}

// handleMusicStream handles GET /stream/{name}.
func (s *Server) handleMusicStream(w http.ResponseWriter, r *http.Request) {
	s.engine.Serve(w, r, stream.Request{
		Class:        models.ClassMusic,
		Dir:          s.indexer.Dir(models.ClassMusic),
		Name:         mux.Vars(r)["name"],
		InlineAction: models.ActionStream,
	})
}

// handleMusicDownload handles GET /download/{name}.
func (s *Server) handleMusicDownload(w http.ResponseWriter, r *http.Request) {
	s.engine.Serve(w, r, stream.Request{
		Class:    models.ClassMusic,
		Dir:      s.indexer.Dir(models.ClassMusic),
		Name:     mux.Vars(r)["name"],
		Download: true,
	})
}

// handleDocumentView handles GET /view/{name}. DOCX is converted to HTML
// inline, PDF is delivered with an inline disposition, everything else is
// sent as-is. Each successful view records one View event.
func (s *Server) handleDocumentView(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(mux.Vars(r)["name"])
	dir := s.indexer.Dir(models.ClassDocument)

	req := stream.Request{
		Class:        models.ClassDocument,
		Dir:          dir,
		Name:         name,
		InlineAction: models.ActionView,
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		s.serveDocxAsHTML(w, r, dir, name)
		return
	case ".pdf":
		req.ContentType = "application/pdf"
		req.Disposition = "inline"
	}
	s.engine.Serve(w, r, req)
}

func (s *Server) serveDocxAsHTML(w http.ResponseWriter, r *http.Request, dir, name string) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}

	html, err := docview.ConvertFile(path)
	if err != nil {
		s.logger.Error("docx conversion failed", "resource", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Error converting DOCX to HTML")
		return
	}

	if _, err := s.store.Record(r.Context(), models.ClassDocument, name, models.ActionView); err != nil {
		s.logger.Warn("audit write failed", "resource", name, "error", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// handleDocumentDownload handles GET /document/download/{name}.
func (s *Server) handleDocumentDownload(w http.ResponseWriter, r *http.Request) {
	s.engine.Serve(w, r, stream.Request{
		Class:    models.ClassDocument,
		Dir:      s.indexer.Dir(models.ClassDocument),
		Name:     mux.Vars(r)["name"],
		Download: true,
	})
}

// handlePictureProbe handles GET /pictures/view/{name}: the gallery's bulk
// probe. Programmatic, so no audit event.
func (s *Server) handlePictureProbe(w http.ResponseWriter, r *http.Request) {
	s.engine.Serve(w, r, stream.Request{
		Class:        models.ClassPicture,
		Dir:          s.indexer.Dir(models.ClassPicture),
		Name:         mux.Vars(r)["name"],
		InlineAction: models.ActionView,
		Probe:        true,
	})
}

// handlePictureView handles GET /picture/view/{name}.
func (s *Server) handlePictureView(w http.ResponseWriter, r *http.Request) {
	s.engine.Serve(w, r, stream.Request{
		Class:        models.ClassPicture,
		Dir:          s.indexer.Dir(models.ClassPicture),
		Name:         mux.Vars(r)["name"],
		InlineAction: models.ActionView,
	})
}

// handlePictureDownload handles GET /picture/download/{name}.
func (s *Server) handlePictureDownload(w http.ResponseWriter, r *http.Request) {
	s.engine.Serve(w, r, stream.Request{
		Class:    models.ClassPicture,
		Dir:      s.indexer.Dir(models.ClassPicture),
		Name:     mux.Vars(r)["name"],
		Download: true,
	})
}
