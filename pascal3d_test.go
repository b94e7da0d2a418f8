package imageset

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubStackSource struct {
	stacks map[string][]image.Image
}

func (s *stubStackSource) Stack(category string) ([]image.Image, error) {
	return s.stacks[category], nil
}

func uniformImage(width, height int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestPascal3D_Read(t *testing.T) {
	assert := assert.New(t)

	classesPath := filepath.Join(t.TempDir(), "car_classes.npz")
	writeNpz(t, classesPath, npzMember{
		name:  "classes",
		descr: "<i8",
		shape: []int{3},
		data:  int64Bytes(2, 0, 1),
	})

	source := &stubStackSource{stacks: map[string][]image.Image{
		"car": {
			uniformImage(20, 10, color.NRGBA{R: 250, A: 255}),
			uniformImage(16, 16, color.NRGBA{G: 250, A: 255}),
			uniformImage(8, 8, color.NRGBA{B: 250, A: 255}),
		},
	}}

	r, err := NewPascal3D("", Pascal3DOptions{
		Split:       "train",
		Category:    "car",
		ClassesPath: classesPath,
		ImgSize:     8,
		Source:      source,
	})
	assert.NoError(err)

	rec, err := r.Read()
	assert.NoError(err)
	assert.NoError(rec.Validate())
	assert.Equal(3, rec.Len())

	// Classes come verbatim from the precomputed archive.
	assert.Equal([]int{2, 0, 1}, rec.Classes)

	for _, img := range rec.Images {
		assert.Equal(8, img.Bounds().Dx())
		assert.Equal(8, img.Bounds().Dy())
	}
}

func TestPascal3D_ClassCountMismatch(t *testing.T) {
	assert := assert.New(t)

	classesPath := filepath.Join(t.TempDir(), "car_classes.npz")
	writeNpz(t, classesPath, npzMember{
		name:  "classes",
		descr: "<i8",
		shape: []int{1},
		data:  int64Bytes(0),
	})

	source := &stubStackSource{stacks: map[string][]image.Image{
		"car": {
			uniformImage(8, 8, color.NRGBA{A: 255}),
			uniformImage(8, 8, color.NRGBA{A: 255}),
		},
	}}

	r, err := NewPascal3D("", Pascal3DOptions{
		Split:       "val",
		Category:    "car",
		ClassesPath: classesPath,
		Source:      source,
	})
	assert.NoError(err)

	_, err = r.Read()
	assert.ErrorContains(err, "classes")
}

func TestPascal3D_RequiredOptions(t *testing.T) {
	assert := assert.New(t)

	_, err := NewPascal3D("", Pascal3DOptions{Split: "train", ClassesPath: "x"})
	assert.ErrorContains(err, "category")

	_, err = NewPascal3D("", Pascal3DOptions{Split: "train", Category: "car"})
	assert.ErrorContains(err, "classes path")
}

func TestPascal3D_DirStackSource(t *testing.T) {
	assert := assert.New(t)

	base := t.TempDir()
	writePNG(t, filepath.Join(base, "train", "car", "a.png"), 6, 6, color.NRGBA{R: 10, A: 255})
	writePNG(t, filepath.Join(base, "train", "car", "b.png"), 4, 4, color.NRGBA{R: 20, A: 255})

	source := &dirStackSource{baseDir: base, split: "train"}
	stack, err := source.Stack("car")
	assert.NoError(err)
	assert.Len(stack, 2)
}
