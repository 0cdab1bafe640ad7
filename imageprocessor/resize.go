package imageprocessor

import (
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// Resizer scales a grayscale grid to an exact size.
type Resizer interface {
	Resize(src *image.Gray, width, height int) (*image.Gray, error)
}

// DrawResizer resizes with bilinear interpolation from golang.org/x/image.
type DrawResizer struct{}

func (DrawResizer) Resize(src *image.Gray, width, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid target size %dx%d", width, height)
	}
	if src.Bounds().Empty() {
		return nil, errors.New("cannot resize empty image")
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// ToGray converts any decoded image to an 8-bit grayscale grid anchored at
// the origin.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}
