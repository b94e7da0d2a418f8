package imageset

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// StackSource is the external collaborator behind the vehicle-category
// reader: it yields the raw per-category image stack, leaving this reader
// responsible only for geometric normalization and class assignment.
type StackSource interface {
	Stack(category string) ([]image.Image, error)
}

// Pascal3DOptions configures the vehicle-category reader.
type Pascal3DOptions struct {
	// Split selects the image set, "train" or "val".
	Split string

	// Category is the vehicle category to extract.
	Category string

	// ClassesPath points to the precomputed class archive, an npz file
	// holding a "classes" array parallel to the category stack.
	ClassesPath string

	// ImgSize is the square output size in pixels.
	ImgSize int

	// Source overrides the default directory-backed stack source.
	Source StackSource
}

// Pascal3D reads one vehicle category through an injected stack source and
// pairs it with precomputed classes from an external archive.
type Pascal3D struct {
	opts Pascal3DOptions
}

// NewPascal3D constructs a vehicle-category reader rooted at baseDir.
func NewPascal3D(baseDir string, opts Pascal3DOptions) (*Pascal3D, error) {
	if opts.Split != "train" && opts.Split != "val" {
		return nil, fmt.Errorf("pascal3d: split must be train or val, got %q", opts.Split)
	}
	if opts.Category == "" {
		return nil, fmt.Errorf("pascal3d: category is required")
	}
	if opts.ClassesPath == "" {
		return nil, fmt.Errorf("pascal3d: classes path is required")
	}
	if opts.ImgSize == 0 {
		opts.ImgSize = 128
	}
	if opts.Source == nil {
		opts.Source = &dirStackSource{baseDir: baseDir, split: opts.Split}
	}
	return &Pascal3D{opts: opts}, nil
}

func newPascal3DFromOptions(baseDir string, raw map[string]string) (Reader, error) {
	o := newOptions(raw)
	split, err := o.split()
	if err != nil {
		return nil, err
	}
	opts := Pascal3DOptions{
		Split:       split,
		Category:    o.string("category", ""),
		ClassesPath: o.string("classes-path", ""),
	}
	if opts.ImgSize, err = o.int("img-size", 128); err != nil {
		return nil, err
	}
	if err := o.check(); err != nil {
		return nil, err
	}
	return NewPascal3D(baseDir, opts)
}

// Read implements the Reader interface.
func (p *Pascal3D) Read() (*Record, error) {
	stack, err := p.opts.Source.Stack(p.opts.Category)
	if err != nil {
		return nil, fmt.Errorf("pascal3d: %w", err)
	}

	var rawClasses []int64
	if _, err := npzEntry(p.opts.ClassesPath, "classes", &rawClasses); err != nil {
		return nil, err
	}
	if len(rawClasses) != len(stack) {
		return nil, fmt.Errorf("pascal3d: %d classes for %d images", len(rawClasses), len(stack))
	}

	imgs := make([]*image.NRGBA, len(stack))
	classes := make([]int, len(stack))
	for i, src := range stack {
		imgs[i] = imaging.Resize(src, p.opts.ImgSize, p.opts.ImgSize, imaging.Box)
		classes[i] = int(rawClasses[i])
	}

	rec := &Record{Images: imgs, Classes: classes}
	return rec, rec.Validate()
}

// dirStackSource is the default stack source: one directory per category
// under the split directory, images in listing order.
type dirStackSource struct {
	baseDir string
	split   string
}

func (s *dirStackSource) Stack(category string) ([]image.Image, error) {
	dir := filepath.Join(s.baseDir, s.split, category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var stack []image.Image
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		img, err := decodeImg(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		stack = append(stack, img)
	}
	return stack, nil
}
