package util

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	whitespaceRuns    = regexp.MustCompile(`\s+`)
	unsafeNameChars   = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	fallbackUploadName = "upload"
)

// SanitizeFilename reduces a client-supplied filename to a safe basename:
// path components are stripped, whitespace collapses to underscores, and
// anything outside [A-Za-z0-9_.-] is removed. Returns "upload" when
// nothing survives.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = whitespaceRuns.ReplaceAllString(base, "_")
	base = unsafeNameChars.ReplaceAllString(base, "")
	base = strings.Trim(base, "._")
	if base == "" {
		return fallbackUploadName
	}
	return base
}

// FileStem returns the filename without its extension.
func FileStem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
