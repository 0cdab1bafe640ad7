package imageprocessor

import (
	"image"
	"math"

	"bmpconverter/types"

	"github.com/pkg/errors"
)

// DefaultScale is the margin kept around a character so recentering on its
// centroid does not clip it.
const DefaultScale = 1.4

// ErrAbnormalImage is returned for images whose blob cannot be normalized:
// no foreground pixels, or a canvas geometry that leaves nothing to copy.
var ErrAbnormalImage = errors.New("abnormal image")

// Point is a sub-pixel position.
type Point struct {
	X, Y float64
}

// BlobGeometry describes the foreground of an image.
type BlobGeometry struct {
	// Bounds encloses every foreground pixel; Max is exclusive.
	Bounds image.Rectangle
	// Centroid is the mean foreground position relative to Bounds.Min.
	Centroid Point
	Points   int
}

// FindBlob scans img once and returns the geometry of all pixels > 0.
// ok is false when the image has no foreground.
func FindBlob(img *image.Gray) (geo BlobGeometry, ok bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	var sumX, sumY float64

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for i, v := range row[:b.Dx()] {
			if v == 0 {
				continue
			}
			x := b.Min.X + i
			geo.Points++
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
			sumX += float64(x)
			sumY += float64(y)
		}
	}
	if geo.Points == 0 {
		return BlobGeometry{}, false
	}

	geo.Bounds = image.Rect(minX, minY, maxX+1, maxY+1)
	n := float64(geo.Points)
	geo.Centroid = Point{X: sumX/n - float64(minX), Y: sumY/n - float64(minY)}
	return geo, true
}

// Invert flips pixel polarity in place so dark ink on a light page becomes
// bright foreground on a black background.
func Invert(img *image.Gray) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for i := range row[:b.Dx()] {
			row[i] = 255 - row[i]
		}
	}
}

// Normalizer produces canonical images.
type Normalizer struct {
	// Scale multiplies the longer blob side to get the canvas side.
	Scale   float64
	Resizer Resizer
}

// NewNormalizer returns a Normalizer using the native resizer.
func NewNormalizer(scale float64) *Normalizer {
	return &Normalizer{Scale: scale, Resizer: DrawResizer{}}
}

// Normalize inverts img in place, recenters its blob on a square canvas and
// resizes the canvas to 28x28. Blob content that would fall outside the
// canvas is truncated.
func (n *Normalizer) Normalize(img *image.Gray) (*image.Gray, error) {
	Invert(img)

	geo, ok := FindBlob(img)
	if !ok {
		return nil, errors.Wrap(ErrAbnormalImage, "no foreground pixels")
	}

	canvas, err := n.center(img, geo)
	if err != nil {
		return nil, err
	}

	out, err := n.Resizer.Resize(canvas, types.CanonicalWidth, types.CanonicalHeight)
	if err != nil {
		return nil, errors.Wrap(err, "resize")
	}
	if out.Bounds().Dx() != types.CanonicalWidth || out.Bounds().Dy() != types.CanonicalHeight {
		return nil, errors.Wrapf(ErrAbnormalImage, "resized to %v", out.Bounds().Size())
	}
	return out, nil
}

// center copies the blob of img onto a zeroed side x side canvas so that its
// centroid lands on the canvas center.
func (n *Normalizer) center(img *image.Gray, geo BlobGeometry) (*image.Gray, error) {
	w, h := geo.Bounds.Dx(), geo.Bounds.Dy()
	side := int(math.Ceil(float64(max(w, h)) * n.Scale))
	if side <= 0 {
		return nil, errors.Wrapf(ErrAbnormalImage, "canvas side %d", side)
	}
	canvas := image.NewGray(image.Rect(0, 0, side, side))

	half := 0.5 * float64(side)
	dx := max(int(math.Round(half-geo.Centroid.X)), 0)
	dy := max(int(math.Round(half-geo.Centroid.Y)), 0)
	cw := min(w, side-dx)
	ch := min(h, side-dy)
	if cw <= 0 || ch <= 0 {
		return nil, errors.Wrapf(ErrAbnormalImage, "blob %dx%d does not fit canvas %d at (%d,%d)", w, h, side, dx, dy)
	}

	for y := 0; y < ch; y++ {
		src := img.Pix[img.PixOffset(geo.Bounds.Min.X, geo.Bounds.Min.Y+y):]
		dst := canvas.Pix[canvas.PixOffset(dx, dy+y):]
		copy(dst[:cw], src[:cw])
	}
	return canvas, nil
}

// Pixels returns the row-major bytes of a canonical image.
func Pixels(img *image.Gray) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[off:off+b.Dx()]...)
	}
	return out
}
