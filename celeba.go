package imageset

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// Raw layout of the aligned face datasets, shared by the face-identity and
// the attribute-pair readers.
const (
	faceImgDirA     = "Img"
	faceImgDirB     = "img_align_celeba_png.7z"
	faceImgDirC     = "img_align_celeba_png"
	faceIdentityRel = "identity_CelebA.txt"
	faceAttrRel     = "list_attr_celeba.txt"
	faceAnnoDir     = "Anno"
)

// CelebAOptions configures the face-identity reader.
type CelebAOptions struct {
	// CropSize is the center crop applied before resizing, width x height.
	CropSize [2]int

	// TargetSize is the output image size, width x height.
	TargetSize [2]int

	// NImages caps the sample count by drawing that many samples with
	// replacement from the full image list. Zero disables subsampling.
	NImages int

	// Seed drives the subsampling draw, so reads are reproducible.
	Seed int64

	// Detector localizes facial landmarks per sample. When nil, every
	// landmark vector stays at the zero sentinel.
	Detector Landmarker
}

// CelebA reads the face-identity dataset: aligned face photographs, a flat
// identity map and a flat attribute map. Every sample is center-cropped,
// resized and annotated with its dense-mapped identity, its 40-wide binary
// attribute vector and, when a detector is configured, 68 facial landmarks.
type CelebA struct {
	baseDir string
	opts    CelebAOptions
}

// NewCelebA constructs a face-identity reader rooted at baseDir.
func NewCelebA(baseDir string, opts CelebAOptions) (*CelebA, error) {
	if opts.CropSize == [2]int{} {
		opts.CropSize = [2]int{128, 128}
	}
	if opts.TargetSize == [2]int{} {
		opts.TargetSize = [2]int{128, 128}
	}
	if opts.NImages < 0 {
		return nil, fmt.Errorf("celeba: negative sample cap %d", opts.NImages)
	}
	return &CelebA{baseDir: baseDir, opts: opts}, nil
}

func newCelebAFromOptions(baseDir string, raw map[string]string) (Reader, error) {
	o := newOptions(raw)
	opts := CelebAOptions{}

	var err error
	if opts.CropSize, err = o.size("crop-size", [2]int{128, 128}); err != nil {
		return nil, err
	}
	if opts.TargetSize, err = o.size("target-size", [2]int{128, 128}); err != nil {
		return nil, err
	}
	if opts.NImages, err = o.int("n-images", 0); err != nil {
		return nil, err
	}
	seed, err := o.int("seed", 0)
	if err != nil {
		return nil, err
	}
	opts.Seed = int64(seed)

	faceCascade := o.string("face-cascade", "")
	puplocCascade := o.string("puploc-cascade", "")
	flpDir := o.string("flp-dir", "")
	if faceCascade != "" {
		if opts.Detector, err = NewPigoDetector(faceCascade, puplocCascade, flpDir); err != nil {
			return nil, err
		}
	}

	if err := o.check(); err != nil {
		return nil, err
	}
	return NewCelebA(baseDir, opts)
}

// Read implements the Reader interface.
func (c *CelebA) Read() (*Record, error) {
	paths, identities, err := listFaceImgs(c.baseDir)
	if err != nil {
		return nil, err
	}
	attrMap, err := listFaceAttributes(c.baseDir)
	if err != nil {
		return nil, err
	}

	if c.opts.NImages > 0 {
		rng := rand.New(rand.NewSource(c.opts.Seed))
		sampledPaths := make([]string, c.opts.NImages)
		sampledIDs := make([]string, c.opts.NImages)
		for i := range sampledPaths {
			// With replacement: a cap above the pool size repeats samples.
			j := rng.Intn(len(paths))
			sampledPaths[i] = paths[j]
			sampledIDs[i] = identities[j]
		}
		paths, identities = sampledPaths, sampledIDs
	}

	n := len(paths)
	imgs := make([]*image.NRGBA, n)
	classes := make([]int, n)
	attributes := make([][]int8, n)
	landmarks := make([][]int16, n)

	mapper := newClassMapper()
	for i := range paths {
		name := imgStem(paths[i])

		img, err := c.extractFace(paths[i])
		if err != nil {
			return nil, err
		}
		imgs[i] = img
		classes[i] = mapper.id(identities[i])

		attrs, ok := attrMap[name]
		if !ok {
			return nil, fmt.Errorf("%w: attributes of %s", ErrMissingAnnotation, name)
		}
		attributes[i] = attrs

		landmarks[i] = make([]int16, 2*LandmarkCount)
		if c.opts.Detector == nil {
			continue
		}
		points, err := c.opts.Detector.Detect(img)
		if errors.Is(err, ErrNoLandmarks) {
			// The zero sentinel stands in; one undetected face never
			// aborts the read.
			continue
		}
		if err != nil {
			return nil, err
		}
		copy(landmarks[i], points)
	}

	rec := &Record{
		Images:     imgs,
		Classes:    classes,
		Attributes: attributes,
		Landmarks:  landmarks,
	}
	return rec, rec.Validate()
}

func (c *CelebA) extractFace(path string) (*image.NRGBA, error) {
	img, err := decodeImg(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingAnnotation, err)
	}
	img = imaging.CropCenter(img, c.opts.CropSize[0], c.opts.CropSize[1])
	return imaging.Resize(img, c.opts.TargetSize[0], c.opts.TargetSize[1], imaging.Box), nil
}

// listFaceImgs parses the identity map: one "name identity" row per image.
func listFaceImgs(baseDir string) (paths, identities []string, err error) {
	imgsDir := filepath.Join(baseDir, faceImgDirA, faceImgDirB, faceImgDirC)
	mapPath := filepath.Join(baseDir, faceAnnoDir, faceIdentityRel)

	file, err := os.Open(mapPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMissingAnnotation, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("%w: identity row %q", ErrMissingAnnotation, line)
		}

		paths = append(paths, filepath.Join(imgsDir, imgStem(fields[0])+".png"))
		identities = append(identities, fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return paths, identities, nil
}

// listFaceAttributes parses the attribute map, skipping its two header lines.
// The raw -1/1 values are remapped to a 0/1 binary vector.
func listFaceAttributes(baseDir string) (map[string][]int8, error) {
	mapPath := filepath.Join(baseDir, faceAnnoDir, faceAttrRel)
	file, err := os.Open(mapPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingAnnotation, err)
	}
	defer file.Close()

	attrs := make(map[string][]int8)
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		if line <= 2 {
			continue
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		tokens := strings.Fields(text)
		if len(tokens) != AttributeCount+1 {
			return nil, fmt.Errorf("%w: attribute row %q", ErrMissingAnnotation, tokens[0])
		}

		vec := make([]int8, AttributeCount)
		for i, token := range tokens[1:] {
			v, err := strconv.Atoi(token)
			if err != nil {
				return nil, fmt.Errorf("%w: attribute row %q", ErrMissingAnnotation, tokens[0])
			}
			if v == 1 {
				vec[i] = 1
			}
		}
		attrs[imgStem(tokens[0])] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return attrs, nil
}

// imgStem strips the directory and extension of an image reference, the key
// format shared by both annotation maps.
func imgStem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
