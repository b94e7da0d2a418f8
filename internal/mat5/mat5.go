// Package mat5 provides a pure Go reader for MAT-File level 5 containers,
// covering the subset produced by the annotation tooling this module
// consumes: numeric, character and struct arrays, optionally wrapped in
// zlib-compressed elements. Numeric payloads are widened to float64 and kept
// in the file's column-major order.
package mat5

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Common errors.
var (
	ErrNotMat      = errors.New("not a MAT level 5 file")
	ErrCorrupted   = errors.New("corrupted MAT element")
	ErrNotFound    = errors.New("array not found")
	ErrUnsupported = errors.New("unsupported MAT feature")
)

// MAT data element types.
const (
	miInt8       = 1
	miUInt8      = 2
	miInt16      = 3
	miUInt16     = 4
	miInt32      = 5
	miUInt32     = 6
	miSingle     = 7
	miDouble     = 9
	miInt64      = 12
	miUInt64     = 13
	miMatrix     = 14
	miCompressed = 15
	miUtf8       = 16
	miUtf16      = 17
)

// Class identifies the MATLAB array class of an element.
type Class byte

// Array classes.
const (
	ClassCell   Class = 1
	ClassStruct Class = 2
	ClassChar   Class = 4
	ClassDouble Class = 6
	ClassSingle Class = 7
	ClassInt8   Class = 8
	ClassUInt8  Class = 9
	ClassInt16  Class = 10
	ClassUInt16 Class = 11
	ClassInt32  Class = 12
	ClassUInt32 Class = 13
	ClassInt64  Class = 14
	ClassUInt64 Class = 15
)

// Array is a single MATLAB array. Numeric values are widened to float64 and
// stored column-major, exactly as laid out in the file.
type Array struct {
	Name  string
	Class Class
	Dims  []int

	vals   []float64
	text   string
	cells  []*Array
	fields map[string][]*Array
	order  []string
}

// Len returns the number of elements, the product of the dimensions.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.Dims {
		n *= d
	}
	return n
}

// Floats returns the column-major numeric values.
func (a *Array) Floats() []float64 { return a.vals }

// Float returns the first numeric value, the usual accessor for 1x1 scalars.
func (a *Array) Float() float64 {
	if len(a.vals) == 0 {
		return math.NaN()
	}
	return a.vals[0]
}

// Uint8s returns the numeric values truncated to bytes, column-major.
func (a *Array) Uint8s() []uint8 {
	out := make([]uint8, len(a.vals))
	for i, v := range a.vals {
		out[i] = uint8(v)
	}
	return out
}

// Text returns the decoded character data.
func (a *Array) Text() string { return a.text }

// Cell returns element i of a cell array.
func (a *Array) Cell(i int) *Array { return a.cells[i] }

// FieldNames returns the struct field names in declaration order.
func (a *Array) FieldNames() []string { return a.order }

// Field returns the named field of struct element i.
func (a *Array) Field(name string, i int) (*Array, error) {
	elems, ok := a.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: field %q", ErrNotFound, name)
	}
	if i < 0 || i >= len(elems) {
		return nil, fmt.Errorf("%w: element %d of field %q", ErrNotFound, i, name)
	}
	return elems[i], nil
}

// File holds the top-level arrays of a parsed container.
type File struct {
	arrays []*Array
	byName map[string]*Array
}

// Array returns the top-level array with the given name.
func (f *File) Array(name string) (*Array, error) {
	a, ok := f.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return a, nil
}

// Arrays returns all top-level arrays in file order.
func (f *File) Arrays() []*Array { return f.arrays }

// Open reads and parses the MAT file at path.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses an in-memory MAT level 5 container.
func Parse(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, ErrNotMat
	}
	version := binary.LittleEndian.Uint16(data[124:126])
	if version != 0x0100 {
		return nil, fmt.Errorf("%w: version %#04x", ErrNotMat, version)
	}
	// "IM" marks little-endian byte order, "MI" the byte-swapped variant.
	if string(data[126:128]) != "IM" {
		return nil, fmt.Errorf("%w: big-endian containers", ErrUnsupported)
	}

	f := &File{byName: make(map[string]*Array)}
	d := &decoder{buf: data, pos: headerSize}

	for d.more() {
		typ, payload, err := d.element()
		if err != nil {
			return nil, err
		}

		if typ == miCompressed {
			payload, err = inflate(payload)
			if err != nil {
				return nil, err
			}
			inner := &decoder{buf: payload}
			typ, payload, err = inner.element()
			if err != nil {
				return nil, err
			}
		}

		if typ != miMatrix {
			return nil, fmt.Errorf("%w: top-level element type %d", ErrCorrupted, typ)
		}
		a, err := parseMatrix(payload)
		if err != nil {
			return nil, err
		}
		f.arrays = append(f.arrays, a)
		f.byName[a.Name] = a
	}
	return f, nil
}

const headerSize = 128

func inflate(payload []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return out, nil
}

// decoder walks the data elements of a byte buffer. Elements carry an 8-byte
// tag (type, size) and are padded to 8-byte boundaries; small elements pack
// type, size and payload into a single 8-byte unit.
type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) more() bool {
	return d.pos+8 <= len(d.buf)
}

func (d *decoder) element() (uint32, []byte, error) {
	if d.pos+8 > len(d.buf) {
		return 0, nil, fmt.Errorf("%w: truncated element tag", ErrCorrupted)
	}
	word := binary.LittleEndian.Uint32(d.buf[d.pos:])

	if word>>16 != 0 {
		// Small data element format.
		typ := word & 0xffff
		size := int(word >> 16)
		if size > 4 {
			return 0, nil, fmt.Errorf("%w: small element of %d bytes", ErrCorrupted, size)
		}
		payload := d.buf[d.pos+4 : d.pos+4+size]
		d.pos += 8
		return typ, payload, nil
	}

	typ := word
	size := int(binary.LittleEndian.Uint32(d.buf[d.pos+4:]))
	if d.pos+8+size > len(d.buf) {
		return 0, nil, fmt.Errorf("%w: element of %d bytes exceeds buffer", ErrCorrupted, size)
	}
	payload := d.buf[d.pos+8 : d.pos+8+size]

	d.pos += 8 + size
	// Compressed elements are the only ones written without tail padding.
	if typ != miCompressed && size%8 != 0 {
		d.pos += 8 - size%8
		if d.pos > len(d.buf) {
			d.pos = len(d.buf)
		}
	}
	return typ, payload, nil
}

func parseMatrix(data []byte) (*Array, error) {
	d := &decoder{buf: data}

	typ, flags, err := d.element()
	if err != nil {
		return nil, err
	}
	if typ != miUInt32 || len(flags) < 4 {
		return nil, fmt.Errorf("%w: bad array flags", ErrCorrupted)
	}
	a := &Array{Class: Class(flags[0])}

	typ, dimsData, err := d.element()
	if err != nil {
		return nil, err
	}
	if typ != miInt32 {
		return nil, fmt.Errorf("%w: bad dimensions element", ErrCorrupted)
	}
	for i := 0; i+4 <= len(dimsData); i += 4 {
		a.Dims = append(a.Dims, int(int32(binary.LittleEndian.Uint32(dimsData[i:]))))
	}

	_, nameData, err := d.element()
	if err != nil {
		return nil, err
	}
	a.Name = string(nameData)

	switch a.Class {
	case ClassChar:
		typ, payload, err := d.element()
		if err != nil {
			return nil, err
		}
		a.text, err = decodeChars(typ, payload)
		if err != nil {
			return nil, err
		}

	case ClassStruct:
		if err := parseStruct(d, a); err != nil {
			return nil, err
		}

	case ClassCell:
		for i := 0; i < a.Len(); i++ {
			typ, payload, err := d.element()
			if err != nil {
				return nil, err
			}
			if typ != miMatrix {
				return nil, fmt.Errorf("%w: cell element type %d", ErrCorrupted, typ)
			}
			cell, err := parseMatrix(payload)
			if err != nil {
				return nil, err
			}
			a.cells = append(a.cells, cell)
		}

	default:
		typ, payload, err := d.element()
		if err != nil {
			return nil, err
		}
		a.vals, err = widen(typ, payload)
		if err != nil {
			return nil, err
		}
		// An imaginary part may follow; this reader has no use for it.
	}

	return a, nil
}

func parseStruct(d *decoder, a *Array) error {
	typ, lenData, err := d.element()
	if err != nil {
		return err
	}
	if typ != miInt32 || len(lenData) < 4 {
		return fmt.Errorf("%w: bad field name length", ErrCorrupted)
	}
	nameLen := int(int32(binary.LittleEndian.Uint32(lenData)))
	if nameLen <= 0 {
		return fmt.Errorf("%w: field name length %d", ErrCorrupted, nameLen)
	}

	_, namesData, err := d.element()
	if err != nil {
		return err
	}
	nfields := len(namesData) / nameLen
	names := make([]string, 0, nfields)
	for i := 0; i < nfields; i++ {
		raw := namesData[i*nameLen : (i+1)*nameLen]
		names = append(names, string(bytes.TrimRight(raw, "\x00")))
	}

	a.order = names
	a.fields = make(map[string][]*Array, nfields)

	// Field matrices are stored element-major: all fields of element 0,
	// then all fields of element 1, and so on.
	for e := 0; e < a.Len(); e++ {
		for _, name := range names {
			typ, payload, err := d.element()
			if err != nil {
				return err
			}
			if typ != miMatrix {
				return fmt.Errorf("%w: struct field element type %d", ErrCorrupted, typ)
			}
			field, err := parseMatrix(payload)
			if err != nil {
				return err
			}
			a.fields[name] = append(a.fields[name], field)
		}
	}
	return nil
}

func decodeChars(typ uint32, payload []byte) (string, error) {
	switch typ {
	case miUInt16, miUtf16:
		runes := make([]rune, 0, len(payload)/2)
		for i := 0; i+2 <= len(payload); i += 2 {
			runes = append(runes, rune(binary.LittleEndian.Uint16(payload[i:])))
		}
		return string(runes), nil
	case miInt8, miUInt8, miUtf8:
		return string(payload), nil
	default:
		return "", fmt.Errorf("%w: char data type %d", ErrUnsupported, typ)
	}
}

func widen(typ uint32, payload []byte) ([]float64, error) {
	le := binary.LittleEndian
	switch typ {
	case miInt8:
		out := make([]float64, len(payload))
		for i, b := range payload {
			out[i] = float64(int8(b))
		}
		return out, nil
	case miUInt8:
		out := make([]float64, len(payload))
		for i, b := range payload {
			out[i] = float64(b)
		}
		return out, nil
	case miInt16:
		out := make([]float64, len(payload)/2)
		for i := range out {
			out[i] = float64(int16(le.Uint16(payload[i*2:])))
		}
		return out, nil
	case miUInt16:
		out := make([]float64, len(payload)/2)
		for i := range out {
			out[i] = float64(le.Uint16(payload[i*2:]))
		}
		return out, nil
	case miInt32:
		out := make([]float64, len(payload)/4)
		for i := range out {
			out[i] = float64(int32(le.Uint32(payload[i*4:])))
		}
		return out, nil
	case miUInt32:
		out := make([]float64, len(payload)/4)
		for i := range out {
			out[i] = float64(le.Uint32(payload[i*4:]))
		}
		return out, nil
	case miSingle:
		out := make([]float64, len(payload)/4)
		for i := range out {
			out[i] = float64(math.Float32frombits(le.Uint32(payload[i*4:])))
		}
		return out, nil
	case miDouble:
		out := make([]float64, len(payload)/8)
		for i := range out {
			out[i] = math.Float64frombits(le.Uint64(payload[i*8:]))
		}
		return out, nil
	case miInt64:
		out := make([]float64, len(payload)/8)
		for i := range out {
			out[i] = float64(int64(le.Uint64(payload[i*8:])))
		}
		return out, nil
	case miUInt64:
		out := make([]float64, len(payload)/8)
		for i := range out {
			out[i] = float64(le.Uint64(payload[i*8:]))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: numeric data type %d", ErrUnsupported, typ)
	}
}
