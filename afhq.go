package imageset

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// AFHQOptions configures the category-folder reader.
type AFHQOptions struct {
	// Split selects the split directory, "train" or "val".
	Split string

	// ImgSize is the square output size in pixels.
	ImgSize int
}

// AFHQ reads a directory-per-class tree: every subdirectory of the split
// directory is one class, identified by its position in listing order.
type AFHQ struct {
	baseDir string
	opts    AFHQOptions
}

// NewAFHQ constructs a category-folder reader rooted at baseDir.
func NewAFHQ(baseDir string, opts AFHQOptions) (*AFHQ, error) {
	if opts.Split != "train" && opts.Split != "val" {
		return nil, fmt.Errorf("afhq: split must be train or val, got %q", opts.Split)
	}
	if opts.ImgSize == 0 {
		opts.ImgSize = 128
	}
	return &AFHQ{baseDir: baseDir, opts: opts}, nil
}

func newAFHQFromOptions(baseDir string, raw map[string]string) (Reader, error) {
	o := newOptions(raw)
	split, err := o.split()
	if err != nil {
		return nil, err
	}
	imgSize, err := o.int("img-size", 128)
	if err != nil {
		return nil, err
	}
	if err := o.check(); err != nil {
		return nil, err
	}
	return NewAFHQ(baseDir, AFHQOptions{Split: split, ImgSize: imgSize})
}

// Read implements the Reader interface.
func (a *AFHQ) Read() (*Record, error) {
	splitDir := filepath.Join(a.baseDir, a.opts.Split)
	entries, err := os.ReadDir(splitDir)
	if err != nil {
		return nil, fmt.Errorf("afhq: %w", err)
	}

	var imgs []*image.NRGBA
	var classes []int

	classID := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		classDir := filepath.Join(splitDir, entry.Name())
		files, err := os.ReadDir(classDir)
		if err != nil {
			return nil, fmt.Errorf("afhq: %w", err)
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			img, err := decodeImg(filepath.Join(classDir, file.Name()))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMissingAnnotation, err)
			}
			imgs = append(imgs, imaging.Resize(img, a.opts.ImgSize, a.opts.ImgSize, imaging.Box))
			classes = append(classes, classID)
		}
		classID++
	}

	rec := &Record{Images: imgs, Classes: classes}
	return rec, rec.Validate()
}
