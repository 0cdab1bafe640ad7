// Package cvloader decodes and resizes images with OpenCV.
package cvloader

import (
	"fmt"
	"image"
	"path/filepath"
	"runtime/debug"
	"strings"

	"bmpconverter/imageprocessor"

	"gocv.io/x/gocv"
)

// Loader reads any format OpenCV understands as an 8-bit grayscale grid.
type Loader struct {
	imageprocessor.BaseImageLoader
}

// NewLoader creates an OpenCV backed loader.
func NewLoader(maxPixels int) *Loader {
	return &Loader{BaseImageLoader: imageprocessor.BaseImageLoader{MaxPixels: maxPixels}}
}

// CanLoad checks the extension against the codecs OpenCV ships with.
func (l *Loader) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp", ".dib", ".png", ".jpg", ".jpeg", ".pbm", ".pgm", ".ppm", ".tif", ".tiff", ".webp":
		return true
	}
	return false
}

// LoadImage decodes path with cv::imread in grayscale mode.
func (l *Loader) LoadImage(path string) (img *image.Gray, err error) {
	// Use defer to recover from any panics inside the cgo boundary
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = fmt.Errorf("panic during image loading: %v: %s\n%s", r, path, debug.Stack())
		}
	}()

	mat := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to load image: %s", path)
	}
	if err := l.CheckSize(path, mat.Cols(), mat.Rows()); err != nil {
		return nil, err
	}

	decoded, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("cannot convert %s: %v", path, err)
	}
	return imageprocessor.ToGray(decoded), nil
}

// Resizer scales with cv::resize and linear interpolation.
type Resizer struct{}

func (Resizer) Resize(src *image.Gray, width, height int) (*image.Gray, error) {
	mat, err := gocv.ImageGrayToMatGray(src)
	if err != nil {
		return nil, fmt.Errorf("cannot convert canvas: %v", err)
	}
	defer mat.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationLinear)
	if resized.Empty() {
		return nil, fmt.Errorf("resize to %dx%d produced no data", width, height)
	}

	out, err := resized.ToImage()
	if err != nil {
		return nil, fmt.Errorf("cannot convert resized canvas: %v", err)
	}
	return imageprocessor.ToGray(out), nil
}
