package stream

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/syncnest/syncnest/internal/models"
)

// videoTypes is the fixed extension table for video delivery.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
}

const binaryType = "application/octet-stream"

// ContentTypeFor derives the response content type. Video uses the fixed
// table; everything else goes through the general extension lookup, falling
// back to an opaque binary type when unknown.
func ContentTypeFor(class models.MediaClass, path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if class == models.ClassVideo {
		if t, ok := videoTypes[ext]; ok {
			return t
		}
		return binaryType
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return binaryType
}
