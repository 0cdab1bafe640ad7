package imageprocessor

import (
	"fmt"
	"image"
	"os"
)

// DefaultMaxPixels bounds the work spent on a single decoded image.
const DefaultMaxPixels = 4096 * 4096

// ImageLoader decodes an image file into a grayscale grid.
type ImageLoader interface {
	// CanLoad determines if this loader can handle the given file
	CanLoad(path string) bool

	// LoadImage loads an image and returns its grayscale representation
	LoadImage(path string) (*image.Gray, error)
}

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType
	// MaxPixels rejects images larger than width*height; zero means DefaultMaxPixels.
	MaxPixels int
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	format := GetFileFormat(path)
	for _, supported := range l.SupportedFormats {
		if format == supported {
			return true
		}
	}
	return false
}

// CheckSize rejects dimensions that are empty or exceed the pixel budget.
func (l *BaseImageLoader) CheckSize(path string, width, height int) error {
	limit := l.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if width <= 0 || height <= 0 {
		return newImageLoadError(fmt.Sprintf("empty image %dx%d", width, height), path)
	}
	if width*height > limit {
		return newImageLoadError(fmt.Sprintf("image %dx%d exceeds %d pixels", width, height, limit), path)
	}
	return nil
}

// decodeFile checks the header with decodeConfig before decoding the body.
func (l *BaseImageLoader) decodeFile(path string,
	decodeConfig func(f *os.File) (image.Config, error),
	decode func(f *os.File) (image.Image, error)) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := decodeConfig(f)
	if err != nil {
		return nil, newImageLoadError(fmt.Sprintf("bad header (%v)", err), path)
	}
	if err := l.CheckSize(path, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}

	img, err := decode(f)
	if err != nil {
		return nil, newImageLoadError(fmt.Sprintf("failed to decode image (%v)", err), path)
	}
	return ToGray(img), nil
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(message, path string) error {
	return fmt.Errorf("%s: %s", message, path)
}
