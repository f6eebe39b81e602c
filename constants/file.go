package constants

import "strings"

// Source formats for extracted invoice text.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	TXT   = "TXT"
)

// AllowedExtensions holds the upload/attachment extensions accepted for
// invoice ingestion (images and PDF, the same set the mailbox accepts).
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
	"bmp":  {},
	"tiff": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to a source format, or "" if unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "gif", "webp", "bmp", "tiff":
		return IMAGE
	case "txt":
		return TXT
	default:
		return ""
	}
}
