package server

import (
	"net/http"

	"github.com/syncnest/syncnest/internal/models"
)

// handleReadVideos handles GET /read-videos. Videos still waiting on
// thumbnail generation are omitted; they appear on a later call once the
// background extraction has written the file.
func (s *Server) handleReadVideos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"videos":  s.indexer.ListVideos(s.thumbs),
	})
}

// handleReadMusic handles GET /read-music.
func (s *Server) handleReadMusic(w http.ResponseWriter, r *http.Request) {
	// Players poll this list; stale listings make freshly copied albums
	// invisible.
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"music":   s.indexer.List(models.ClassMusic),
	})
}

// handleReadDocuments handles GET /read-documents.
func (s *Server) handleReadDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"documents": s.indexer.List(models.ClassDocument),
	})
}

// handleReadPictures handles GET /read-pictures.
func (s *Server) handleReadPictures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"images":  s.indexer.List(models.ClassPicture),
	})
}

// handleEvents handles GET /events: every recorded access, most recent
// first. Unlike audit inserts, a store failure here is surfaced — returning
// events is this endpoint's whole purpose.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list events failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}
	if events == nil {
		events = []models.AuditEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
