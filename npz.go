package imageset

import (
	"archive/zip"
	"fmt"

	"github.com/sbinet/npyio"
)

// npzEntry reads the named array out of an npz archive into ptr, which must
// be a pointer to a slice of the matching element type. Multi-dimensional
// arrays are read flattened in row-major order; the header shape is returned
// so callers can reassemble them.
func npzEntry(path, name string, ptr interface{}) ([]int, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("could not open the archive %s: %w", path, err)
	}
	defer archive.Close()

	for _, member := range archive.File {
		if member.Name != name && member.Name != name+".npy" {
			continue
		}

		rc, err := member.Open()
		if err != nil {
			return nil, fmt.Errorf("could not open archive member %s: %w", member.Name, err)
		}
		defer rc.Close()

		r, err := npyio.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("could not parse archive member %s: %w", member.Name, err)
		}
		if err := r.Read(ptr); err != nil {
			return nil, fmt.Errorf("could not read archive member %s: %w", member.Name, err)
		}
		return r.Header.Descr.Shape, nil
	}

	return nil, fmt.Errorf("%w: array %q in %s", ErrMissingAnnotation, name, path)
}
