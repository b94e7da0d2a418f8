package imageset

import (
	"fmt"
	"image"
	"path"
	"path/filepath"
	"strings"

	"github.com/datum-tools/imageset/internal/mat5"
)

// cubParts is the number of annotated bird parts per sample; each part is a
// (x, y, visibility) triple, so keypoint vectors are 3*cubParts wide.
const cubParts = 15

// CubOptions configures the bird-part reader.
type CubOptions struct {
	// Split selects the annotation file, "train" or "val".
	Split string

	// ImgSize is the square output size in pixels.
	ImgSize int
}

// Cub reads the bird-part dataset: a struct-of-arrays annotation file per
// split referencing the raw photographs, their segmentation masks, bounding
// boxes and part keypoints. Samples are mask-composited, square-cropped
// around the bounding box and keypoints are remapped into the [-1,1] crop
// frame. The category folder name becomes the dense-mapped class.
type Cub struct {
	baseDir string
	opts    CubOptions
}

// NewCub constructs a bird-part reader rooted at baseDir.
func NewCub(baseDir string, opts CubOptions) (*Cub, error) {
	if opts.Split != "train" && opts.Split != "val" {
		return nil, fmt.Errorf("cub: split must be train or val, got %q", opts.Split)
	}
	if opts.ImgSize == 0 {
		opts.ImgSize = 256
	}
	return &Cub{baseDir: baseDir, opts: opts}, nil
}

func newCubFromOptions(baseDir string, raw map[string]string) (Reader, error) {
	o := newOptions(raw)
	split, err := o.split()
	if err != nil {
		return nil, err
	}
	imgSize, err := o.int("img-size", 256)
	if err != nil {
		return nil, err
	}
	if err := o.check(); err != nil {
		return nil, err
	}
	return NewCub(baseDir, CubOptions{Split: split, ImgSize: imgSize})
}

// Read implements the Reader interface.
func (c *Cub) Read() (*Record, error) {
	annPath := filepath.Join(c.baseDir, "from_cmr", "data",
		fmt.Sprintf("%s_cub_cleaned.mat", c.opts.Split))
	f, err := mat5.Open(annPath)
	if err != nil {
		return nil, fmt.Errorf("cub: %w", err)
	}
	images, err := f.Array("images")
	if err != nil {
		return nil, fmt.Errorf("%w: images struct in %s", ErrMissingAnnotation, annPath)
	}

	n := images.Len()
	imgs := make([]*image.NRGBA, 0, n)
	keypoints := make([][]float32, 0, n)
	rawClasses := make([]string, 0, n)

	for i := 0; i < n; i++ {
		sample, err := c.readSample(images, i)
		if err != nil {
			return nil, err
		}
		imgs = append(imgs, sample.img)
		keypoints = append(keypoints, sample.keypoints)
		rawClasses = append(rawClasses, sample.category)
	}

	mapper := newClassMapper()
	classes := make([]int, n)
	for i, raw := range rawClasses {
		classes[i] = mapper.id(raw)
	}

	rec := &Record{Images: imgs, Classes: classes, Keypoints: keypoints}
	return rec, rec.Validate()
}

type cubSample struct {
	img       *image.NRGBA
	keypoints []float32
	category  string
}

func (c *Cub) readSample(images *mat5.Array, i int) (*cubSample, error) {
	relPath, err := images.Field("rel_path", i)
	if err != nil {
		return nil, fmt.Errorf("%w: rel_path of sample %d", ErrMissingAnnotation, i)
	}

	imgPath := filepath.Join(c.baseDir, "images", filepath.FromSlash(relPath.Text()))
	img, err := decodeImg(imgPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingAnnotation, err)
	}

	mask, err := images.Field("mask", i)
	if err != nil {
		return nil, fmt.Errorf("%w: mask of sample %d", ErrMissingAnnotation, i)
	}
	masked := applyMask(img, rowMajor(mask))

	box, err := cubBox(images, i)
	if err != nil {
		return nil, err
	}
	crop, scale, origin, err := SquareCrop(masked, box, c.opts.ImgSize)
	if err != nil {
		return nil, err
	}

	parts, err := images.Field("parts", i)
	if err != nil {
		return nil, fmt.Errorf("%w: parts of sample %d", ErrMissingAnnotation, i)
	}
	kp, err := c.remapParts(parts, origin, scale)
	if err != nil {
		return nil, err
	}

	return &cubSample{
		img:       crop,
		keypoints: kp,
		category:  strings.SplitN(path.Clean(relPath.Text()), "/", 2)[0],
	}, nil
}

// cubBox converts the 1-based inclusive annotation box to 0-based pixels.
func cubBox(images *mat5.Array, i int) (Box, error) {
	bbox, err := images.Field("bbox", i)
	if err != nil {
		return Box{}, fmt.Errorf("%w: bbox of sample %d", ErrMissingAnnotation, i)
	}

	coord := func(name string) (int, error) {
		v, err := bbox.Field(name, 0)
		if err != nil {
			return 0, fmt.Errorf("%w: bbox.%s of sample %d", ErrMissingAnnotation, name, i)
		}
		return int(v.Float()), nil
	}

	x1, err := coord("x1")
	if err != nil {
		return Box{}, err
	}
	y1, err := coord("y1")
	if err != nil {
		return Box{}, err
	}
	x2, err := coord("x2")
	if err != nil {
		return Box{}, err
	}
	y2, err := coord("y2")
	if err != nil {
		return Box{}, err
	}
	return Box{X1: x1 - 1, Y1: y1 - 1, X2: x2 - 1, Y2: y2 - 1}, nil
}

// remapParts flattens the 3 x cubParts keypoint matrix into a 3*cubParts
// vector of (x, y, visibility) triples. Visible keypoints are shifted to
// 0-based coordinates and remapped into the crop frame; invisible ones pass
// through at their raw values, gated by the visibility flag.
func (c *Cub) remapParts(parts *mat5.Array, origin image.Point, scale float64) ([]float32, error) {
	vals := parts.Floats()
	if len(vals) != 3*cubParts {
		return nil, fmt.Errorf("cub: expected %d part values, got %d", 3*cubParts, len(vals))
	}

	kp := make([]float32, 0, 3*cubParts)
	for p := 0; p < cubParts; p++ {
		// Column-major: column p holds (x, y, visibility) of part p.
		x, y, visible := vals[3*p], vals[3*p+1], vals[3*p+2]

		if visible > 0 {
			nx, ny := RemapKeypoint(x-1, y-1, origin, scale, c.opts.ImgSize)
			kp = append(kp, nx, ny, float32(visible))
		} else {
			kp = append(kp, float32(x), float32(y), float32(visible))
		}
	}
	return kp, nil
}

// rowMajor flips a 2D column-major mask into row-major pixel order.
func rowMajor(mask *mat5.Array) []uint8 {
	height, width := mask.Dims[0], mask.Dims[1]
	src := mask.Uint8s()

	out := make([]uint8, len(src))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out[y*width+x] = src[x*height+y]
		}
	}
	return out
}
