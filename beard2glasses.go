package imageset

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// BeardGlassesOptions configures the attribute-pair reader.
type BeardGlassesOptions struct {
	// CropSize is the center crop applied before resizing, width x height.
	CropSize [2]int

	// TargetSize is the output image size, width x height.
	TargetSize [2]int
}

// BeardGlasses reads the attribute-pair dataset on top of the face-identity
// raw layout: the attribute rules split the samples into bearded men without
// glasses (class 0) and beardless men with glasses (class 1); everything
// else is dropped before any pixel work. Class ids stay raw, with no dense
// remap, so downstream consumers see the {0,1} encoding directly.
type BeardGlasses struct {
	baseDir string
	opts    BeardGlassesOptions
}

// NewBeardGlasses constructs an attribute-pair reader rooted at baseDir.
func NewBeardGlasses(baseDir string, opts BeardGlassesOptions) (*BeardGlasses, error) {
	if opts.CropSize == [2]int{} {
		opts.CropSize = [2]int{128, 128}
	}
	if opts.TargetSize == [2]int{} {
		opts.TargetSize = [2]int{128, 128}
	}
	return &BeardGlasses{baseDir: baseDir, opts: opts}, nil
}

func newBeardGlassesFromOptions(baseDir string, raw map[string]string) (Reader, error) {
	o := newOptions(raw)
	opts := BeardGlassesOptions{}

	var err error
	if opts.CropSize, err = o.size("crop-size", [2]int{128, 128}); err != nil {
		return nil, err
	}
	if opts.TargetSize, err = o.size("target-size", [2]int{128, 128}); err != nil {
		return nil, err
	}
	if err := o.check(); err != nil {
		return nil, err
	}
	return NewBeardGlasses(baseDir, opts)
}

// Read implements the Reader interface.
func (b *BeardGlasses) Read() (*Record, error) {
	paths, _, err := listFaceImgs(b.baseDir)
	if err != nil {
		return nil, err
	}
	attrMap, err := listFaceAttributes(b.baseDir)
	if err != nil {
		return nil, err
	}

	var keptPaths []string
	var classes []int
	for _, path := range paths {
		name := imgStem(path)
		attrs, ok := attrMap[name]
		if !ok {
			return nil, fmt.Errorf("%w: attributes of %s", ErrMissingAnnotation, name)
		}

		class := ClassifyAttributes(beardGlassesRules, attrs)
		if class == Unclassified {
			continue
		}
		keptPaths = append(keptPaths, path)
		classes = append(classes, class)
	}

	imgs := make([]*image.NRGBA, len(keptPaths))
	for i, path := range keptPaths {
		img, err := decodeImg(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingAnnotation, err)
		}
		img = imaging.CropCenter(img, b.opts.CropSize[0], b.opts.CropSize[1])
		imgs[i] = imaging.Resize(img, b.opts.TargetSize[0], b.opts.TargetSize[1], imaging.Box)
	}

	rec := &Record{Images: imgs, Classes: classes}
	return rec, rec.Validate()
}
