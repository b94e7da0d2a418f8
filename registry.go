package imageset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NewReaderFunc constructs a reader rooted at a base storage directory from a
// set of dataset-specific options. Unrecognized option keys are rejected.
type NewReaderFunc func(baseDir string, opts map[string]string) (Reader, error)

// datasets is the static registry of supported dataset names. It is
// read-only after initialization.
var datasets = map[string]NewReaderFunc{
	"cars3d":        newCars3DFromOptions,
	"cub":           newCubFromOptions,
	"pascal3d":      newPascal3DFromOptions,
	"celeba":        newCelebAFromOptions,
	"beard2glasses": newBeardGlassesFromOptions,
	"afhq":          newAFHQFromOptions,
}

// Resolve returns the reader constructor registered for the dataset name.
func Resolve(name string) (NewReaderFunc, error) {
	newReader, ok := datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	return newReader, nil
}

// Datasets returns the sorted names of all registered datasets.
func Datasets() []string {
	names := make([]string, 0, len(datasets))
	for name := range datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// options wraps the raw key=value option map and tracks which keys were
// consumed, so constructors can reject unrecognized ones.
type options struct {
	raw  map[string]string
	seen map[string]bool
}

func newOptions(raw map[string]string) *options {
	return &options{raw: raw, seen: make(map[string]bool)}
}

func (o *options) string(key, fallback string) string {
	o.seen[key] = true
	if v, ok := o.raw[key]; ok {
		return v
	}
	return fallback
}

func (o *options) int(key string, fallback int) (int, error) {
	o.seen[key] = true
	v, ok := o.raw[key]
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("option %s: %w", key, err)
	}
	return n, nil
}

// size parses a WxH option value, e.g. "128x128".
func (o *options) size(key string, fallback [2]int) ([2]int, error) {
	o.seen[key] = true
	v, ok := o.raw[key]
	if !ok {
		return fallback, nil
	}
	parts := strings.SplitN(v, "x", 2)
	if len(parts) != 2 {
		return [2]int{}, fmt.Errorf("option %s: expected WxH, got %q", key, v)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return [2]int{}, fmt.Errorf("option %s: %w", key, err)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return [2]int{}, fmt.Errorf("option %s: %w", key, err)
	}
	return [2]int{w, h}, nil
}

func (o *options) split() (string, error) {
	sp := o.string("split", "")
	switch sp {
	case "train", "val":
		return sp, nil
	case "":
		return "", fmt.Errorf("option split is required")
	default:
		return "", fmt.Errorf("option split: expected train or val, got %q", sp)
	}
}

// check fails on any option key that no reader consumed.
func (o *options) check() error {
	for key := range o.raw {
		if !o.seen[key] {
			return fmt.Errorf("unrecognized option %q", key)
		}
	}
	return nil
}
