package imageset

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

// cars3dFixture writes a full-enumeration archive of 2x2 images whose first
// pixel encodes the sample index, so image order can be verified.
func cars3dFixture(t *testing.T) string {
	t.Helper()

	n := cars3DElevations * cars3DAzimuths * cars3DObjects
	stride := 2 * 2 * 3
	pixels := make([]byte, n*stride)
	for i := 0; i < n; i++ {
		pixels[i*stride] = byte(i % 251)
	}

	dir := t.TempDir()
	writeNpz(t, filepath.Join(dir, "cars3d.npz"), npzMember{
		name:  "imgs",
		descr: "|u1",
		shape: []int{n, 2, 2, 3},
		data:  pixels,
	})
	return dir
}

func TestCars3D_Enumeration(t *testing.T) {
	assert := assert.New(t)

	rec, err := NewCars3D(cars3dFixture(t)).Read()
	assert.NoError(err)
	assert.NoError(rec.Validate())
	assert.Equal(cars3DElevations*cars3DAzimuths*cars3DObjects, rec.Len())

	for elevation := 0; elevation < cars3DElevations; elevation++ {
		for azimuth := 0; azimuth < cars3DAzimuths; azimuth++ {
			for object := 0; object < cars3DObjects; object++ {
				idx := elevation*cars3DAzimuths*cars3DObjects + azimuth*cars3DObjects + object

				if rec.Classes[idx] != object {
					t.Fatalf("sample %d: class expected to be %d. Got %d", idx, object, rec.Classes[idx])
				}
				if want := elevation*cars3DAzimuths + azimuth; rec.Contents[idx] != want {
					t.Fatalf("sample %d: content expected to be %d. Got %d", idx, want, rec.Contents[idx])
				}
			}
		}
	}
}

func TestCars3D_ImageOrderAndShape(t *testing.T) {
	assert := assert.New(t)

	rec, err := NewCars3D(cars3dFixture(t)).Read()
	assert.NoError(err)

	for _, idx := range []int{0, 1, 250, 17567} {
		img := rec.Images[idx]
		assert.Equal(2, img.Bounds().Dx())
		assert.Equal(2, img.Bounds().Dy())
		assert.Equal(uint8(idx%251), img.Pix[0])
		assert.Equal(uint8(0xff), img.Pix[3])
	}
}

func TestCars3D_Idempotent(t *testing.T) {
	dir := cars3dFixture(t)

	first, err := NewCars3D(dir).Read()
	assert.NoError(t, err)
	second, err := NewCars3D(dir).Read()
	assert.NoError(t, err)

	if !reflect.DeepEqual(first, second) {
		t.Error("two reads of identical raw storage should be identical")
	}
}

func TestCars3D_MissingArchive(t *testing.T) {
	_, err := NewCars3D(t.TempDir()).Read()
	assert.Error(t, err)
}
