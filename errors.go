package imageset

import "errors"

// Extraction error taxonomy. Structural errors (unknown dataset, malformed
// region, missing raw data) abort the whole read and propagate to the caller.
// ErrNoLandmarks is recovered locally: the sample keeps its zero sentinel
// landmark vector and the read continues.
var (
	// ErrInvalidRegion is returned when a degenerate bounding box is passed
	// to the geometric normalizer.
	ErrInvalidRegion = errors.New("invalid bounding region")

	// ErrUnknownDataset is returned by the registry for unrecognized names.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrMissingAnnotation is returned when a referenced image or attribute
	// entry is absent from its annotation map.
	ErrMissingAnnotation = errors.New("missing annotation")

	// ErrNoLandmarks is returned by a Landmarker when no face could be
	// localized on the input image.
	ErrNoLandmarks = errors.New("no landmarks detected")
)
