package imageprocessor

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writeBMP(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, bmp.Encode(f, img))
}

func TestBMPLoaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img_0_7_x.bmp")
	src := page(12, 9, image.Rect(3, 2, 8, 6))
	writeBMP(t, path, src)

	loader := NewBMPLoader(0)
	require.True(t, loader.CanLoad(path))
	got, err := loader.LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), got.Bounds())
	assert.Equal(t, Pixels(src), Pixels(got))
}

func TestBMPLoaderRejectsOversize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big_a_x.bmp")
	writeBMP(t, path, page(40, 40, image.Rect(1, 1, 2, 2)))

	_, err := NewBMPLoader(100).LoadImage(path)
	assert.Error(t, err)
}

func TestBMPLoaderRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk_a_x.bmp")
	require.NoError(t, os.WriteFile(path, []byte("not a bitmap"), 0644))

	_, err := NewBMPLoader(0).LoadImage(path)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	bmpPath := filepath.Join(dir, "a_1_x.BMP")
	writeBMP(t, bmpPath, page(5, 5, image.Rect(1, 1, 3, 3)))

	pngPath := filepath.Join(dir, "a_2_x.png")
	f, err := os.Create(pngPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, page(6, 4, image.Rect(0, 0, 2, 2))))
	require.NoError(t, f.Close())

	r := NewImageLoaderRegistry(0)
	assert.True(t, r.CanLoad(bmpPath))
	assert.True(t, r.CanLoad(pngPath))
	assert.False(t, r.CanLoad(filepath.Join(dir, "a_3_x.txt")))

	img, err := r.LoadImage(bmpPath)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 5), img.Bounds())

	img, err = r.LoadImage(pngPath)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("x/a_1_b.bmp", ".bmp"))
	assert.True(t, HasExtension("x/a_1_b.BMP", "bmp"))
	assert.False(t, HasExtension("x/a_1_b.png", ".bmp"))
	assert.False(t, HasExtension("x/bmp", ".bmp"))
	assert.True(t, HasExtension("anything", ""))
}

func TestToGrayOffsetOrigin(t *testing.T) {
	src := image.NewGray(image.Rect(3, 3, 6, 5))
	src.Pix[src.PixOffset(4, 4)] = 9
	g := ToGray(src)
	assert.Equal(t, image.Rect(0, 0, 3, 2), g.Bounds())
	assert.Equal(t, uint8(9), g.GrayAt(1, 1).Y)
}
