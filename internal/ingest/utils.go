package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/kyc-extractor/constants"
)

// Extensions picked up by batch and watch runs (lowercase, without '.').
var defaultExts = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// AllowedExt reports whether the pipeline can decode ext at all.
func AllowedExt(ext string) bool {
	return constants.MapExtToFormat(ext) != ""
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

func normalizeExt(ext string) string {
	return constants.NormalizeExt(ext)
}

func allowed(path string, exts map[string]struct{}) bool {
	ext := normalizeExt(filepath.Ext(path))
	if !AllowedExt(ext) {
		return false
	}
	_, ok := exts[ext]
	return ok
}
