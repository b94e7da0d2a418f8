package imageset

import (
	"fmt"
	"image"
)

// Record is the uniform output every dataset reader produces. Images holds N
// fixed-size RGB images; the label sequences run parallel to it, index i
// describing sample i. Optional sequences are nil when the dataset does not
// provide them.
type Record struct {
	// Images is the ordered sequence of extracted samples.
	Images []*image.NRGBA

	// Classes holds one identity class per sample, dense-mapped to [0,K)
	// unless the reader documents a raw encoding.
	Classes []int

	// Contents holds discrete pose/viewpoint codes.
	Contents []int

	// Keypoints holds flattened per-sample keypoint vectors in the
	// normalized [-1,1] frame.
	Keypoints [][]float32

	// Attributes holds fixed-width binary attribute vectors.
	Attributes [][]int8

	// Landmarks holds fixed-length landmark coordinate vectors; an all-zero
	// vector marks a sample where detection failed.
	Landmarks [][]int16
}

// Len returns the number of extracted samples.
func (r *Record) Len() int {
	return len(r.Images)
}

// Validate checks that every populated sequence has the same length as Images.
func (r *Record) Validate() error {
	n := len(r.Images)

	if len(r.Classes) != n {
		return fmt.Errorf("record: %d classes for %d images", len(r.Classes), n)
	}
	if r.Contents != nil && len(r.Contents) != n {
		return fmt.Errorf("record: %d contents for %d images", len(r.Contents), n)
	}
	if r.Keypoints != nil && len(r.Keypoints) != n {
		return fmt.Errorf("record: %d keypoint vectors for %d images", len(r.Keypoints), n)
	}
	if r.Attributes != nil && len(r.Attributes) != n {
		return fmt.Errorf("record: %d attribute vectors for %d images", len(r.Attributes), n)
	}
	if r.Landmarks != nil && len(r.Landmarks) != n {
		return fmt.Errorf("record: %d landmark vectors for %d images", len(r.Landmarks), n)
	}
	return nil
}

// Reader is the common dataset extraction contract. Read produces the whole
// record in one synchronous batch and never mutates the raw storage.
type Reader interface {
	Read() (*Record, error)
}

// classMapper assigns contiguous ids, in first-seen order, to an arbitrary
// set of raw identifiers.
type classMapper struct {
	ids map[string]int
}

func newClassMapper() *classMapper {
	return &classMapper{ids: make(map[string]int)}
}

func (m *classMapper) id(raw string) int {
	if id, ok := m.ids[raw]; ok {
		return id
	}
	id := len(m.ids)
	m.ids[raw] = id
	return id
}

func (m *classMapper) count() int {
	return len(m.ids)
}
