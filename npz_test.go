package imageset

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type npzMember struct {
	name  string
	descr string
	shape []int
	data  []byte
}

// writeNpy emits a version 1.0 npy payload: magic, header length, the
// python dict header padded to a 16-byte boundary, then the raw data.
func writeNpy(t *testing.T, w *bytes.Buffer, m npzMember) {
	t.Helper()

	dims := make([]string, len(m.shape))
	for i, d := range m.shape {
		dims[i] = strconv.Itoa(d)
	}
	shape := "(" + strings.Join(dims, ", ") + ")"
	if len(m.shape) == 1 {
		shape = "(" + dims[0] + ",)"
	}

	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", m.descr, shape)
	for (6+2+2+len(header)+1)%16 != 0 {
		header += " "
	}
	header += "\n"

	w.WriteString("\x93NUMPY")
	w.Write([]byte{1, 0})
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		t.Fatal(err)
	}
	w.WriteString(header)
	w.Write(m.data)
}

func writeNpz(t *testing.T, path string, members ...npzMember) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, m := range members {
		var buf bytes.Buffer
		writeNpy(t, &buf, m)

		mw, err := zw.Create(m.name + ".npy")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := mw.Write(buf.Bytes()); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func int64Bytes(vals ...int64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	return buf
}

func TestNpzEntry_ReadsNamedArray(t *testing.T) {
	assert := assert.New(t)

	path := t.TempDir() + "/classes.npz"
	writeNpz(t, path, npzMember{
		name:  "classes",
		descr: "<i8",
		shape: []int{3},
		data:  int64Bytes(4, 0, 2),
	})

	var classes []int64
	shape, err := npzEntry(path, "classes", &classes)
	assert.NoError(err)
	assert.Equal([]int{3}, shape)
	assert.Equal([]int64{4, 0, 2}, classes)
}

func TestNpzEntry_MissingArray(t *testing.T) {
	path := t.TempDir() + "/classes.npz"
	writeNpz(t, path, npzMember{
		name:  "classes",
		descr: "<i8",
		shape: []int{1},
		data:  int64Bytes(0),
	})

	var out []int64
	_, err := npzEntry(path, "labels", &out)
	assert.ErrorIs(t, err, ErrMissingAnnotation)
}
