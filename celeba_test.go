package imageset

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubLandmarker struct {
	points []int16
	err    error
}

func (s *stubLandmarker) Detect(*image.NRGBA) ([]int16, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.points, nil
}

// attrRow renders one attribute map row with -1 everywhere except the given
// indices.
func attrRow(name string, set ...int) string {
	vals := make([]string, AttributeCount)
	for i := range vals {
		vals[i] = "-1"
	}
	for _, i := range set {
		vals[i] = "1"
	}
	return name + " " + strings.Join(vals, " ")
}

func faceFixture(t *testing.T) string {
	t.Helper()
	base := t.TempDir()

	imgDir := filepath.Join(base, faceImgDirA, faceImgDirB, faceImgDirC)
	writePNG(t, filepath.Join(imgDir, "000001.png"), 12, 12, color.NRGBA{R: 210, A: 255})
	writePNG(t, filepath.Join(imgDir, "000002.png"), 12, 12, color.NRGBA{G: 210, A: 255})
	writePNG(t, filepath.Join(imgDir, "000003.png"), 12, 12, color.NRGBA{B: 210, A: 255})

	annoDir := filepath.Join(base, faceAnnoDir)
	if err := os.MkdirAll(annoDir, 0o755); err != nil {
		t.Fatal(err)
	}

	identities := "000001.jpg 2880\n000002.jpg 2937\n000003.jpg 2880\n"
	if err := os.WriteFile(filepath.Join(annoDir, faceIdentityRel), []byte(identities), 0o644); err != nil {
		t.Fatal(err)
	}

	attrs := strings.Join([]string{
		"3",
		"5_o_Clock_Shadow Attractive ...",
		attrRow("000001.jpg", attrMale, attrMustache, attrNoBeard),
		attrRow("000002.jpg", attrMale, attrEyeglasses, attrNoBeard),
		attrRow("000003.jpg", attrMustache),
	}, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(annoDir, faceAttrRel), []byte(attrs), 0o644); err != nil {
		t.Fatal(err)
	}
	return base
}

func TestCelebA_Read(t *testing.T) {
	assert := assert.New(t)

	points := make([]int16, 2*LandmarkCount)
	for i := range points {
		points[i] = int16(i)
	}

	r, err := NewCelebA(faceFixture(t), CelebAOptions{
		CropSize:   [2]int{8, 8},
		TargetSize: [2]int{8, 8},
		Detector:   &stubLandmarker{points: points},
	})
	assert.NoError(err)

	rec, err := r.Read()
	assert.NoError(err)
	assert.NoError(rec.Validate())
	assert.Equal(3, rec.Len())

	// Identities dense-map in file order: 2880 -> 0, 2937 -> 1.
	assert.Equal([]int{0, 1, 0}, rec.Classes)

	for _, img := range rec.Images {
		assert.Equal(8, img.Bounds().Dx())
		assert.Equal(8, img.Bounds().Dy())
	}

	// The -1 raw values read back as zeros.
	assert.Equal(int8(1), rec.Attributes[0][attrMale])
	assert.Equal(int8(0), rec.Attributes[0][attrEyeglasses])
	assert.Equal(int8(1), rec.Attributes[1][attrEyeglasses])

	for i := range rec.Landmarks {
		assert.Equal(points, rec.Landmarks[i])
	}
}

func TestCelebA_DetectionFailureKeepsSentinel(t *testing.T) {
	assert := assert.New(t)

	r, err := NewCelebA(faceFixture(t), CelebAOptions{
		Detector: &stubLandmarker{err: ErrNoLandmarks},
	})
	assert.NoError(err)

	rec, err := r.Read()
	assert.NoError(err)

	zero := make([]int16, 2*LandmarkCount)
	for i := range rec.Landmarks {
		assert.Equal(zero, rec.Landmarks[i])
	}
}

func TestCelebA_NoDetectorKeepsSentinel(t *testing.T) {
	assert := assert.New(t)

	r, err := NewCelebA(faceFixture(t), CelebAOptions{})
	assert.NoError(err)

	rec, err := r.Read()
	assert.NoError(err)

	zero := make([]int16, 2*LandmarkCount)
	for i := range rec.Landmarks {
		assert.Equal(zero, rec.Landmarks[i])
	}
}

func TestCelebA_SubsampleWithReplacement(t *testing.T) {
	assert := assert.New(t)
	base := faceFixture(t)

	// A cap above the pool size still yields that many samples.
	r, err := NewCelebA(base, CelebAOptions{NImages: 7, Seed: 11})
	assert.NoError(err)
	rec, err := r.Read()
	assert.NoError(err)
	assert.Equal(7, rec.Len())

	// The same seed draws the same subsample.
	again, err := NewCelebA(base, CelebAOptions{NImages: 7, Seed: 11})
	assert.NoError(err)
	rec2, err := again.Read()
	assert.NoError(err)
	assert.True(reflect.DeepEqual(rec, rec2))
}

func TestCelebA_Idempotent(t *testing.T) {
	base := faceFixture(t)

	r, err := NewCelebA(base, CelebAOptions{})
	assert.NoError(t, err)

	first, err := r.Read()
	assert.NoError(t, err)
	second, err := r.Read()
	assert.NoError(t, err)

	if !reflect.DeepEqual(first, second) {
		t.Error("two reads of identical raw storage should be identical")
	}
}

func TestCelebA_MissingAttributeEntry(t *testing.T) {
	assert := assert.New(t)
	base := faceFixture(t)

	// Reference an image that has no attribute row.
	idPath := filepath.Join(base, faceAnnoDir, faceIdentityRel)
	imgDir := filepath.Join(base, faceImgDirA, faceImgDirB, faceImgDirC)
	writePNG(t, filepath.Join(imgDir, "000004.png"), 12, 12, color.NRGBA{A: 255})

	f, err := os.OpenFile(idPath, os.O_APPEND|os.O_WRONLY, 0o644)
	assert.NoError(err)
	fmt.Fprintln(f, "000004.jpg 2880")
	assert.NoError(f.Close())

	r, err := NewCelebA(base, CelebAOptions{})
	assert.NoError(err)

	_, err = r.Read()
	assert.ErrorIs(err, ErrMissingAnnotation)
}
