package imageprocessor

import (
	"path/filepath"
	"strings"
)

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatBMP     FormatType = "bmp"
	FormatPNG     FormatType = "png"
)

// Map of extensions to format types
var formatExtensions = map[string]FormatType{
	".bmp": FormatBMP,
	".dib": FormatBMP,
	".png": FormatPNG,
}

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	ext := strings.ToLower(filepath.Ext(path))
	format, exists := formatExtensions[ext]
	if !exists {
		return FormatUnknown
	}
	return format
}

// HasExtension reports whether path ends in ext, ignoring case.
// ext may be given with or without the leading dot.
func HasExtension(path, ext string) bool {
	if ext == "" {
		return true
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.EqualFold(filepath.Ext(path), ext)
}
