package imageset

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNrgbaFromPixels(t *testing.T) {
	assert := assert.New(t)

	pixels := []uint8{
		10, 11, 12, 20, 21, 22, 30, 31, 32,
		40, 41, 42, 50, 51, 52, 60, 61, 62,
	}
	img := nrgbaFromPixels(pixels, 3, 2)

	assert.Equal(image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(color.NRGBA{R: 10, G: 11, B: 12, A: 255}, img.NRGBAAt(0, 0))
	assert.Equal(color.NRGBA{R: 30, G: 31, B: 32, A: 255}, img.NRGBAAt(2, 0))
	assert.Equal(color.NRGBA{R: 40, G: 41, B: 42, A: 255}, img.NRGBAAt(0, 1))
	assert.Equal(color.NRGBA{R: 60, G: 61, B: 62, A: 255}, img.NRGBAAt(2, 1))
}

func TestApplyMask(t *testing.T) {
	assert := assert.New(t)

	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 100, G: 110, B: 120, A: 255})
		}
	}

	masked := applyMask(src, []uint8{1, 0, 0, 1})

	assert.Equal(color.NRGBA{R: 100, G: 110, B: 120, A: 255}, masked.NRGBAAt(0, 0))
	assert.Equal(color.NRGBA{A: 255}, masked.NRGBAAt(1, 0))
	assert.Equal(color.NRGBA{A: 255}, masked.NRGBAAt(0, 1))
	assert.Equal(color.NRGBA{R: 100, G: 110, B: 120, A: 255}, masked.NRGBAAt(1, 1))

	// The source stays untouched.
	assert.Equal(color.NRGBA{R: 100, G: 110, B: 120, A: 255}, src.NRGBAAt(1, 0))
}

func TestDecodeImg_GrayscaleReplication(t *testing.T) {
	assert := assert.New(t)

	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range gray.Pix {
		gray.Pix[i] = 77
	}
	path := filepath.Join(t.TempDir(), "gray.png")
	f, err := os.Create(path)
	assert.NoError(err)
	assert.NoError(png.Encode(f, gray))
	assert.NoError(f.Close())

	img, err := decodeImg(path)
	assert.NoError(err)
	assert.Equal(color.NRGBA{R: 77, G: 77, B: 77, A: 255}, img.NRGBAAt(1, 2))
}

func TestDecodeImg_Missing(t *testing.T) {
	_, err := decodeImg(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}
