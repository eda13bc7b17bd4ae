// Package server is the HTTP surface of the media library: listing routes,
// file delivery, uploads, and the audit event feed.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
	"github.com/syncnest/syncnest/internal/audit"
	"github.com/syncnest/syncnest/internal/library"
	"github.com/syncnest/syncnest/internal/stream"
	"github.com/syncnest/syncnest/internal/thumbs"
	"github.com/syncnest/syncnest/internal/upload"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// UploadMirror shadows accepted uploads to off-box storage. Optional; nil
// disables mirroring.
type UploadMirror interface {
	PutFileAsync(objectKey, path, contentType string)
}

// Server composes the indexer, thumbnail cache, streaming engine, upload
// dispatcher and audit store behind the HTTP routes.
type Server struct {
	indexer    *library.Indexer
	thumbs     *thumbs.Cache
	engine     *stream.Engine
	dispatcher *upload.Dispatcher
	store      audit.Store
	mirror     UploadMirror
	logger     *slog.Logger

	homeDir        string
	hostAddr       string
	serviceName    string
	maxUploadBytes int64

	router *mux.Router
}

// Options carries the server's request-independent settings.
type Options struct {
	HomeDir        string
	HostAddr       string
	ServiceName    string
	MaxUploadBytes int64
}

// New creates a Server with all routes registered. mirror may be nil.
func New(
	indexer *library.Indexer,
	thumbCache *thumbs.Cache,
	engine *stream.Engine,
	dispatcher *upload.Dispatcher,
	store audit.Store,
	mirror UploadMirror,
	logger *slog.Logger,
	opts Options,
) *Server {
	s := &Server{
		indexer:        indexer,
		thumbs:         thumbCache,
		engine:         engine,
		dispatcher:     dispatcher,
		store:          store,
		mirror:         mirror,
		logger:         logger,
		homeDir:        opts.HomeDir,
		hostAddr:       opts.HostAddr,
		serviceName:    opts.ServiceName,
		maxUploadBytes: opts.MaxUploadBytes,
		router:         mux.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes registers all HTTP routes. JSON endpoints compress with gzip; file
// delivery and upload routes carry tracing spans.
func (s *Server) routes() {
	jsonRoute := func(path string, h http.HandlerFunc) {
		s.router.Handle(path, gzhttp.GzipHandler(h)).Methods("GET")
	}
	fileRoute := func(path, name string, h http.HandlerFunc) {
		s.router.Handle(path, otelhttp.NewHandler(h, name)).Methods("GET")
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Library listings
	jsonRoute("/read-videos", s.handleReadVideos)
	jsonRoute("/read-music", s.handleReadMusic)
	jsonRoute("/read-documents", s.handleReadDocuments)
	jsonRoute("/read-pictures", s.handleReadPictures)

	// File delivery
	fileRoute("/video/{name}", "GET /video/{name}", s.handleVideo)
	fileRoute("/stream/{name}", "GET /stream/{name}", s.handleMusicStream)
	fileRoute("/download/{name}", "GET /download/{name}", s.handleMusicDownload)
	fileRoute("/view/{name}", "GET /view/{name}", s.handleDocumentView)
	fileRoute("/document/download/{name}", "GET /document/download/{name}", s.handleDocumentDownload)
	fileRoute("/pictures/view/{name}", "GET /pictures/view/{name}", s.handlePictureProbe)
	fileRoute("/picture/view/{name}", "GET /picture/view/{name}", s.handlePictureView)
	fileRoute("/picture/download/{name}", "GET /picture/download/{name}", s.handlePictureDownload)

	// Uploads
	s.router.Handle("/upload", otelhttp.NewHandler(http.HandlerFunc(s.handleUpload), "POST /upload")).Methods("POST")

	// Audit feed
	jsonRoute("/events", s.handleEvents)

	// The shell's UI fetches thumbnails and raw files by home-relative path.
	s.router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir(s.homeDir))))
}

// handleHealth reports liveness and the LAN address collaborators show to
// remote clients.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.serviceName,
		"host":    s.hostAddr,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
