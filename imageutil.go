package imageset

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// decodeImg decodes an image file into an NRGBA image with min-point (0, 0).
// Grayscale sources come out channel-replicated, so every decoded image is a
// 3-channel image from the readers' point of view.
func decodeImg(path string) (*image.NRGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open the image file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", path, err)
	}
	return imaging.Clone(img), nil
}

// nrgbaFromPixels converts a flat, row-major HxWx3 pixel buffer to an image.
func nrgbaFromPixels(pixels []uint8, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))

	si := 0
	for y := 0; y < height; y++ {
		di := dst.PixOffset(0, y)
		for x := 0; x < width; x++ {
			dst.Pix[di+0] = pixels[si+0]
			dst.Pix[di+1] = pixels[si+1]
			dst.Pix[di+2] = pixels[si+2]
			dst.Pix[di+3] = 0xff
			si += 3
			di += 4
		}
	}
	return dst
}

// applyMask multiplies the image by a row-major binary mask of the same
// dimensions, blacking out every pixel where the mask is zero.
func applyMask(src *image.NRGBA, mask []uint8) *image.NRGBA {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := imaging.Clone(src)

	for y := 0; y < height; y++ {
		di := dst.PixOffset(0, y)
		for x := 0; x < width; x++ {
			if mask[y*width+x] == 0 {
				dst.Pix[di+0] = 0
				dst.Pix[di+1] = 0
				dst.Pix[di+2] = 0
			}
			di += 4
		}
	}
	return dst
}
