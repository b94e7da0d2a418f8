package imageset

import (
	"fmt"
	"image"
	"os"
	"sort"

	pigo "github.com/esimov/pigo/core"

	"github.com/datum-tools/imageset/utils"
)

// LandmarkCount is the fixed number of 2D landmark slots per sample. The
// record stores them as interleaved (x, y) pairs, 2*LandmarkCount values.
const LandmarkCount = 68

// Landmarker localizes facial landmarks on a single normalized image. Detect
// returns 2*LandmarkCount interleaved coordinates or ErrNoLandmarks when no
// face could be found. Implementations must be stateless across calls so a
// reader can invoke them per sample in any order.
type Landmarker interface {
	Detect(img *image.NRGBA) ([]int16, error)
}

// PigoDetector runs the pigo cascades: the face classifier finds the face
// region, the pupil cascade localizes both eyes and the facial landmark
// point cascades derive the remaining points from the eye positions.
type PigoDetector struct {
	classifier *pigo.Pigo
	puploc     *pigo.PuplocCascade
	flpcs      map[string][]*pigo.FlpCascade
	perturbs   int
}

// NewPigoDetector unpacks the face classification cascade, the pupil
// localization cascade and the facial landmark point cascade directory.
func NewPigoDetector(faceCascade, puplocCascade, flpCascadeDir string) (*PigoDetector, error) {
	faceFile, err := os.ReadFile(faceCascade)
	if err != nil {
		return nil, fmt.Errorf("error reading the face cascade file: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(faceFile)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the face cascade file: %w", err)
	}

	plcFile, err := os.ReadFile(puplocCascade)
	if err != nil {
		return nil, fmt.Errorf("error reading the puploc cascade file: %w", err)
	}
	plc, err := pigo.NewPuplocCascade().UnpackCascade(plcFile)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the puploc cascade file: %w", err)
	}

	flpcs, err := plc.ReadCascadeDir(flpCascadeDir)
	if err != nil {
		return nil, fmt.Errorf("error reading the landmark cascade directory: %w", err)
	}

	return &PigoDetector{
		classifier: classifier,
		puploc:     plc,
		flpcs:      flpcs,
		perturbs:   63,
	}, nil
}

// Detect localizes the landmark points of the first detected face. The
// returned vector is padded with zeros when the cascades produce fewer than
// LandmarkCount points and truncated when they produce more.
func (d *PigoDetector) Detect(img *image.NRGBA) ([]int16, error) {
	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()

	imgParams := pigo.ImageParams{
		Pixels: pigo.RgbToGrayscale(img),
		Rows:   rows,
		Cols:   cols,
		Dim:    cols,
	}
	cParams := pigo.CascadeParams{
		MinSize:     20,
		MaxSize:     utils.Max(cols, rows),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: imgParams,
	}

	faces := d.classifier.RunCascade(cParams, 0.0)
	faces = d.classifier.ClusterDetections(faces, 0.2)
	if len(faces) == 0 {
		return nil, ErrNoLandmarks
	}
	// On multiple ambiguous detections the first candidate wins.
	face := faces[0]

	scale := float64(face.Scale)
	leftEye := d.puploc.RunDetector(pigo.Puploc{
		Row:      face.Row - int(0.075*scale),
		Col:      face.Col - int(0.175*scale),
		Scale:    float32(scale * 0.25),
		Perturbs: d.perturbs,
	}, imgParams, 0.0, false)

	rightEye := d.puploc.RunDetector(pigo.Puploc{
		Row:      face.Row - int(0.075*scale),
		Col:      face.Col + int(0.185*scale),
		Scale:    float32(scale * 0.25),
		Perturbs: d.perturbs,
	}, imgParams, 0.0, false)

	points := make([]int16, 0, 2*LandmarkCount)
	points = append(points, int16(leftEye.Col), int16(leftEye.Row))
	points = append(points, int16(rightEye.Col), int16(rightEye.Row))

	// The cascade directory is a map; a fixed iteration order keeps the
	// landmark slots stable across reads.
	names := make([]string, 0, len(d.flpcs))
	for name := range d.flpcs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, flpc := range d.flpcs[name] {
			flp := flpc.GetLandmarkPoint(leftEye, rightEye, imgParams, d.perturbs, false)
			points = append(points, int16(flp.Col), int16(flp.Row))

			flp = flpc.GetLandmarkPoint(leftEye, rightEye, imgParams, d.perturbs, true)
			points = append(points, int16(flp.Col), int16(flp.Row))
		}
	}

	points = points[:utils.Min(len(points), 2*LandmarkCount)]
	for len(points) < 2*LandmarkCount {
		points = append(points, 0)
	}
	return points, nil
}
