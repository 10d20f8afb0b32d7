package compute

import (
	"encoding/binary"
	"fmt"
	"math"
)

// View is a read-only description of a flat byte buffer: the bytes, a
// logical shape and the size of one element. A valid view satisfies
// len(bytes) == product(shape) * elemSize.
//
// Views do not copy their bytes. Callers must not mutate a slice after
// handing it to a view; backends never write through one.
type View struct {
	data     []byte
	shape    []int
	elemSize int
}

func NewView(data []byte, shape []int, elemSize int) View {
	s := make([]int, len(shape))
	copy(s, shape)
	return View{data: data, shape: s, elemSize: elemSize}
}

// ViewFromFloat32 encodes data as little-endian f32. With no shape the view
// is one-dimensional.
func ViewFromFloat32(data []float32, shape ...int) View {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	return NewView(Float32Bytes(data), shape, 4)
}

// Placeholder returns a zeroed f32 view of the given shape. Kernels use
// placeholders to learn the size of an output.
// A shape whose size does not fit in memory yields an empty view that
// fails Validate.
func Placeholder(shape ...int) View {
	n, ok := elements(shape, 4)
	if !ok {
		n = 0
	}
	return NewView(make([]byte, n*4), shape, 4)
}

// elements is the product of shape, or false if a dimension is negative or
// product*elemSize overflows int.
func elements(shape []int, elemSize int) (int, bool) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, false
		}
		if d != 0 && n > math.MaxInt/d {
			return 0, false
		}
		n *= d
	}
	if elemSize > 0 && n > math.MaxInt/elemSize {
		return 0, false
	}
	return n, true
}

func (v View) Bytes() []byte { return v.data }
func (v View) ElemSize() int { return v.elemSize }

func (v View) Shape() []int {
	s := make([]int, len(v.shape))
	copy(s, v.shape)
	return s
}

// Len is the element count implied by the shape. A rank-0 view holds one
// element. Len is 0 for shapes Validate rejects as overflowing.
func (v View) Len() int {
	n, _ := elements(v.shape, 1)
	return n
}

// Rows and Cols read a rank-2 shape; Cols of a rank-1 view is its length.
func (v View) Rows() int {
	if len(v.shape) < 2 {
		return 1
	}
	if v.Cols() == 0 {
		return 0
	}
	return v.Len() / v.Cols()
}

func (v View) Cols() int {
	if len(v.shape) == 0 {
		return 1
	}
	return v.shape[len(v.shape)-1]
}

func (v View) Validate() error {
	if v.elemSize <= 0 {
		return fmt.Errorf("%w: element size %d", ErrShapeMismatch, v.elemSize)
	}
	for i, d := range v.shape {
		if d < 0 {
			return fmt.Errorf("%w: negative dimension %d at axis %d", ErrShapeMismatch, d, i)
		}
	}
	n, ok := elements(v.shape, v.elemSize)
	if !ok {
		return fmt.Errorf("%w: shape %v x %d overflows", ErrShapeMismatch, v.shape, v.elemSize)
	}
	if want := n * v.elemSize; len(v.data) != want {
		return fmt.Errorf("%w: %d bytes for shape %v x %d (want %d)",
			ErrShapeMismatch, len(v.data), v.shape, v.elemSize, want)
	}
	return nil
}

// Float32s decodes the view into a fresh slice.
func (v View) Float32s() []float32 {
	return BytesFloat32(v.data)
}

func Float32Bytes(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, f := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func BytesFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
