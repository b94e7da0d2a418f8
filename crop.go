package imageset

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/datum-tools/imageset/utils"
)

// Box is an axis-aligned bounding region in inclusive pixel coordinates.
type Box struct {
	X1, Y1, X2, Y2 int
}

// Width returns the inclusive pixel width of the box.
func (b Box) Width() int { return b.X2 - b.X1 + 1 }

// Height returns the inclusive pixel height of the box.
func (b Box) Height() int { return b.Y2 - b.Y1 + 1 }

// SquareCrop derives a square crop from the bounding box, with side length
// max(width, height): the shorter dimension is expanded symmetrically around
// the box center and clamped at the image edges. An edge-touching box may
// therefore produce an off-center crop, which is intentional. The crop is
// resized to size x size with area-preserving interpolation.
//
// It returns the resized crop, the scale factor size/side used for
// coordinate remapping and the crop origin before clamping to image bounds.
func SquareCrop(img *image.NRGBA, box Box, size int) (*image.NRGBA, float64, image.Point, error) {
	if box.X1 >= box.X2 || box.Y1 >= box.Y2 {
		return nil, 0, image.Point{}, fmt.Errorf("%w: (%d,%d)-(%d,%d)",
			ErrInvalidRegion, box.X1, box.Y1, box.X2, box.Y2)
	}

	width, height := box.Width(), box.Height()
	side := utils.Max(width, height)

	x1 := utils.Max(box.X1-(side-width)/2, 0)
	y1 := utils.Max(box.Y1-(side-height)/2, 0)
	origin := image.Point{X: x1, Y: y1}

	rect := image.Rect(x1, y1, x1+side, y1+side).Intersect(img.Bounds())
	crop := imaging.Crop(img, rect)
	resized := imaging.Resize(crop, size, size, imaging.Box)

	scale := float64(size) / float64(side)
	return resized, scale, origin, nil
}

// RemapKeypoint maps a raw pixel coordinate into the [-1,1] frame of a crop
// produced by SquareCrop: the crop origin is subtracted, the point is scaled
// into [0,size] and then mapped through 2*(v/size)-1. Only coordinates of
// visible keypoints should be remapped; callers keep invisible keypoints at
// their raw sentinel values.
func RemapKeypoint(x, y float64, origin image.Point, scale float64, size int) (float32, float32) {
	nx := 2*((x-float64(origin.X))*scale/float64(size)) - 1
	ny := 2*((y-float64(origin.Y))*scale/float64(size)) - 1
	return float32(nx), float32(ny)
}
