package constants

import "strings"

const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	HEIC  = "HEIC" // needs an external converter before decoding
)

// AllowedExtensions holds the upload extensions the pipeline accepts.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"bmp":  {},
	"tif":  {},
	"tiff": {},
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns PDF, IMAGE, HEIC or "" for an unsupported extension.
func MapExtToFormat(ext string) string {
	ext = NormalizeExt(ext)
	if _, ok := AllowedExtensions[ext]; !ok {
		return ""
	}
	switch ext {
	case "pdf":
		return PDF
	case "heic", "heif":
		return HEIC
	}
	return IMAGE
}
