package imageprocessor

import (
	"image"
	"image/png"
	"os"

	"golang.org/x/image/bmp"
)

// BMPLoader decodes 8, 24 and 32 bit Windows bitmaps without cgo.
type BMPLoader struct {
	BaseImageLoader
}

// NewBMPLoader creates a new loader for bitmap files
func NewBMPLoader(maxPixels int) *BMPLoader {
	return &BMPLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatBMP},
			MaxPixels:        maxPixels,
		},
	}
}

// LoadImage loads a bitmap as grayscale
func (l *BMPLoader) LoadImage(path string) (*image.Gray, error) {
	return l.decodeFile(path,
		func(f *os.File) (image.Config, error) { return bmp.DecodeConfig(f) },
		func(f *os.File) (image.Image, error) { return bmp.Decode(f) })
}

// PNGLoader decodes PNG files.
type PNGLoader struct {
	BaseImageLoader
}

// NewPNGLoader creates a new loader for PNG files
func NewPNGLoader(maxPixels int) *PNGLoader {
	return &PNGLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatPNG},
			MaxPixels:        maxPixels,
		},
	}
}

// LoadImage loads a PNG as grayscale
func (l *PNGLoader) LoadImage(path string) (*image.Gray, error) {
	return l.decodeFile(path,
		func(f *os.File) (image.Config, error) { return png.DecodeConfig(f) },
		func(f *os.File) (image.Image, error) { return png.Decode(f) })
}
