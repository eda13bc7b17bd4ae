package models

// MediaClass identifies one of the four library roots. The string values
// match the rows written to the audit store ("picture", not "image", kept
// for compatibility with existing events tables).
type MediaClass string

const (
	ClassVideo    MediaClass = "video"
	ClassMusic    MediaClass = "music"
	ClassDocument MediaClass = "document"
	ClassPicture  MediaClass = "picture"
)

// Action is the kind of access recorded in an audit event.
type Action string

const (
	ActionView     Action = "View"
	ActionStream   Action = "Stream"
	ActionDownload Action = "Download"
	ActionUpload   Action = "Upload"
)

// LibraryEntry is a file discovered under a media-class root. Paths are
// rewritten relative to the home root so identical filenames in different
// classes never collide in client-visible paths.
type LibraryEntry struct {
	Title string `json:"title"`
	File  string `json:"file"`
}

// VideoEntry is a library entry with its cached thumbnail. Videos whose
// thumbnail has not been generated yet are omitted from listings until the
// background extraction completes.
type VideoEntry struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Video     string `json:"video"`
}

// AuditEvent is an immutable record of a single access to a library
// resource. The id is assigned by the store; the time is ISO-8601, assigned
// when the triggering request is accepted.
type AuditEvent struct {
	ID     int64      `json:"id"`
	Class  MediaClass `json:"type"`
	Name   string     `json:"name"`
	Action Action     `json:"action"`
	Time   string     `json:"time"`
}

// UploadTarget is the resolution of an incoming upload's declared MIME type
// to a media class and destination directory.
type UploadTarget struct {
	DeclaredMimeType string
	Class            MediaClass
	Dir              string
}

// StoredFile describes an accepted upload.
type StoredFile struct {
	Name  string     `json:"name"`
	Class MediaClass `json:"type"`
	Path  string     `json:"path"`
	Size  int64      `json:"size"`
}
