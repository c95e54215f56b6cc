package types

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// AllowedVideoExtensions is the upload whitelist (lowercase, no dot).
var AllowedVideoExtensions = []string{"mp4", "avi", "mov", "mkv", "wmv", "flv", "webm", "mts"}

// videoMimeTypes maps extensions to Content-Type values for inline
// playback. Extensions not listed here stream as video/mp4.
var videoMimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mts":  "video/mp2t",
}

const defaultVideoMimeType = "video/mp4"

// IsAllowedVideoFilename checks the extension whitelist. Names without an
// extension are rejected.
func IsAllowedVideoFilename(name string) bool {
	if !strings.Contains(name, ".") {
		return false
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return lo.Contains(AllowedVideoExtensions, ext)
}

// MimeTypeFor returns the Content-Type for serving the given file inline.
func MimeTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mime, ok := videoMimeTypes[ext]; ok {
		return mime
	}
	return defaultVideoMimeType
}
