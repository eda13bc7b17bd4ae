package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/syncnest/syncnest/internal/stream"
	"github.com/syncnest/syncnest/internal/upload"
)

// handleUpload handles POST /upload: a single multipart file field, routed
// by its declared content type. The part is streamed straight into the
// dispatcher, so the disk-space preflight runs before any byte of the file
// body is read off the wire.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			writeError(w, http.StatusBadRequest, "No file uploaded")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to parse multipart form")
			return
		}
		if part.FormName() != "file" || part.FileName() == "" {
			part.Close()
			continue
		}

		mimeType := part.Header.Get("Content-Type")
		stored, err := s.dispatcher.Accept(r.Context(), part, part.FileName(), mimeType)
		part.Close()
		if err != nil {
			switch {
			case errors.Is(err, upload.ErrInsufficientSpace):
				writeError(w, http.StatusInsufficientStorage, err.Error())
			case errors.Is(err, upload.ErrExists):
				writeError(w, http.StatusConflict, err.Error())
			default:
				s.logger.Error("upload failed", "file", part.FileName(), "error", err)
				writeError(w, http.StatusInternalServerError, "failed to store upload")
			}
			return
		}

		if s.mirror != nil {
			objectKey := fmt.Sprintf("%s/%s", stored.Class, stored.Name)
			s.mirror.PutFileAsync(objectKey, stored.Path, stream.ContentTypeFor(stored.Class, stored.Path))
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("%s uploaded successfully", stored.Name),
		})
		return
	}
}
