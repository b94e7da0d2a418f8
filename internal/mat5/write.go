package mat5

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// The write side covers the same subset the reader understands. It exists so
// annotation fixtures can be produced without MATLAB; elements are written
// uncompressed with full 8-byte tags.

// NewNumeric builds a double array with column-major values.
func NewNumeric(name string, dims []int, vals []float64) *Array {
	return &Array{Name: name, Class: ClassDouble, Dims: dims, vals: vals}
}

// NewUint8 builds a uint8 array with column-major values.
func NewUint8(name string, dims []int, vals []uint8) *Array {
	widened := make([]float64, len(vals))
	for i, v := range vals {
		widened[i] = float64(v)
	}
	return &Array{Name: name, Class: ClassUInt8, Dims: dims, vals: widened}
}

// NewScalar builds a 1x1 double array.
func NewScalar(name string, v float64) *Array {
	return NewNumeric(name, []int{1, 1}, []float64{v})
}

// NewChar builds a 1xN character array.
func NewChar(name, text string) *Array {
	return &Array{Name: name, Class: ClassChar, Dims: []int{1, len(text)}, text: text}
}

// NewStruct builds a 1xN struct array. fieldNames fixes the field order;
// elems holds one field-name-to-array map per struct element.
func NewStruct(name string, fieldNames []string, elems ...map[string]*Array) *Array {
	a := &Array{
		Name:   name,
		Class:  ClassStruct,
		Dims:   []int{1, len(elems)},
		order:  fieldNames,
		fields: make(map[string][]*Array, len(fieldNames)),
	}
	for _, elem := range elems {
		for _, fname := range fieldNames {
			a.fields[fname] = append(a.fields[fname], elem[fname])
		}
	}
	return a
}

// Write emits a MAT level 5 container holding the given top-level arrays.
func Write(w io.Writer, arrays ...*Array) error {
	header := make([]byte, headerSize)
	copy(header, "MATLAB 5.0 MAT-file, written by mat5")
	for i := len("MATLAB 5.0 MAT-file, written by mat5"); i < 124; i++ {
		header[i] = ' '
	}
	binary.LittleEndian.PutUint16(header[124:], 0x0100)
	copy(header[126:], "IM")
	if _, err := w.Write(header); err != nil {
		return err
	}

	for _, a := range arrays {
		payload, err := encodeMatrix(a)
		if err != nil {
			return err
		}
		if err := writeElement(w, miMatrix, payload); err != nil {
			return err
		}
	}
	return nil
}

func writeElement(w io.Writer, typ uint32, payload []byte) error {
	var tag [8]byte
	binary.LittleEndian.PutUint32(tag[0:], typ)
	binary.LittleEndian.PutUint32(tag[4:], uint32(len(payload)))
	if _, err := w.Write(tag[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if pad := len(payload) % 8; pad != 0 {
		if _, err := w.Write(make([]byte, 8-pad)); err != nil {
			return err
		}
	}
	return nil
}

func encodeMatrix(a *Array) ([]byte, error) {
	var buf bytes.Buffer

	flags := make([]byte, 8)
	flags[0] = byte(a.Class)
	if err := writeElement(&buf, miUInt32, flags); err != nil {
		return nil, err
	}

	dims := make([]byte, 4*len(a.Dims))
	for i, d := range a.Dims {
		binary.LittleEndian.PutUint32(dims[i*4:], uint32(int32(d)))
	}
	if err := writeElement(&buf, miInt32, dims); err != nil {
		return nil, err
	}

	if err := writeElement(&buf, miInt8, []byte(a.Name)); err != nil {
		return nil, err
	}

	switch a.Class {
	case ClassChar:
		payload := make([]byte, 2*len(a.text))
		for i, r := range []rune(a.text) {
			binary.LittleEndian.PutUint16(payload[i*2:], uint16(r))
		}
		if err := writeElement(&buf, miUInt16, payload); err != nil {
			return nil, err
		}

	case ClassStruct:
		nameLen := 0
		for _, fname := range a.order {
			if len(fname)+1 > nameLen {
				nameLen = len(fname) + 1
			}
		}
		lenData := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenData, uint32(int32(nameLen)))
		if err := writeElement(&buf, miInt32, lenData); err != nil {
			return nil, err
		}

		names := make([]byte, nameLen*len(a.order))
		for i, fname := range a.order {
			copy(names[i*nameLen:], fname)
		}
		if err := writeElement(&buf, miInt8, names); err != nil {
			return nil, err
		}

		for e := 0; e < a.Len(); e++ {
			for _, fname := range a.order {
				field, err := a.Field(fname, e)
				if err != nil {
					return nil, err
				}
				// Struct fields carry empty names of their own.
				unnamed := *field
				unnamed.Name = ""
				payload, err := encodeMatrix(&unnamed)
				if err != nil {
					return nil, err
				}
				if err := writeElement(&buf, miMatrix, payload); err != nil {
					return nil, err
				}
			}
		}

	case ClassDouble:
		payload := make([]byte, 8*len(a.vals))
		for i, v := range a.vals {
			binary.LittleEndian.PutUint64(payload[i*8:], math.Float64bits(v))
		}
		if err := writeElement(&buf, miDouble, payload); err != nil {
			return nil, err
		}

	case ClassUInt8:
		payload := make([]byte, len(a.vals))
		for i, v := range a.vals {
			payload[i] = uint8(v)
		}
		if err := writeElement(&buf, miUInt8, payload); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: writing class %d", ErrUnsupported, a.Class)
	}

	return buf.Bytes(), nil
}
