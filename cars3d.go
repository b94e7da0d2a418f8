package imageset

import (
	"fmt"
	"image"
	"path/filepath"
)

// The multi-view archive holds one image per (elevation, azimuth, object)
// triple in a fixed enumeration order.
const (
	cars3DElevations = 4
	cars3DAzimuths   = 24
	cars3DObjects    = 183
)

// Cars3D reads the multi-view object archive: a single npz file whose imgs
// array enumerates elevations x azimuths x objects. The object index becomes
// the class and the viewpoint index elevation*24+azimuth the content code.
type Cars3D struct {
	dataPath string
}

// NewCars3D constructs a reader over the cars3d.npz archive under baseDir.
func NewCars3D(baseDir string) *Cars3D {
	return &Cars3D{dataPath: filepath.Join(baseDir, "cars3d.npz")}
}

func newCars3DFromOptions(baseDir string, raw map[string]string) (Reader, error) {
	o := newOptions(raw)
	if err := o.check(); err != nil {
		return nil, err
	}
	return NewCars3D(baseDir), nil
}

// Read implements the Reader interface.
func (c *Cars3D) Read() (*Record, error) {
	var pixels []uint8
	shape, err := npzEntry(c.dataPath, "imgs", &pixels)
	if err != nil {
		return nil, err
	}
	if len(shape) != 4 || shape[3] != 3 {
		return nil, fmt.Errorf("cars3d: unexpected imgs shape %v", shape)
	}

	n, height, width := shape[0], shape[1], shape[2]
	if want := cars3DElevations * cars3DAzimuths * cars3DObjects; n != want {
		return nil, fmt.Errorf("cars3d: expected %d samples, archive holds %d", want, n)
	}

	imgs := make([]*image.NRGBA, n)
	stride := height * width * 3
	for i := range imgs {
		imgs[i] = nrgbaFromPixels(pixels[i*stride:(i+1)*stride], width, height)
	}

	classes := make([]int, n)
	contents := make([]int, n)
	for elevation := 0; elevation < cars3DElevations; elevation++ {
		for azimuth := 0; azimuth < cars3DAzimuths; azimuth++ {
			for object := 0; object < cars3DObjects; object++ {
				idx := elevation*cars3DAzimuths*cars3DObjects + azimuth*cars3DObjects + object

				classes[idx] = object
				contents[idx] = elevation*cars3DAzimuths + azimuth
			}
		}
	}

	rec := &Record{Images: imgs, Classes: classes, Contents: contents}
	return rec, rec.Validate()
}
