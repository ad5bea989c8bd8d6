package tensor

import (
	"fmt"
	"unsafe"

	"github.com/x448/float16"
)

// Array is the concrete dense tensor: a contiguous row-major byte buffer
// with shape and runtime type information.
//
// Array carries values only. Gradients, device placement and asynchronous
// scheduling belong to the execution engine behind the operator namespace,
// not here.
type Array struct {
	data  []byte
	shape Shape
	dtype DataType
}

// NewArray creates a zero-filled array with the given shape and type.
func NewArray(shape Shape, dtype DataType) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Array{
		data:  make([]byte, shape.NumElements()*dtype.Size()),
		shape: shape.Clone(),
		dtype: dtype,
	}, nil
}

// Shape returns the array's shape.
func (a *Array) Shape() Shape {
	return a.shape
}

// DType returns the array's data type.
func (a *Array) DType() DataType {
	return a.dtype
}

// NumElements returns the total number of elements.
func (a *Array) NumElements() int {
	return a.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (a *Array) ByteSize() int {
	return len(a.data)
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (a *Array) Data() []byte {
	return a.data
}

// AsFloat32 interprets the data as []float32.
// Panics if the array's dtype is not Float32.
func (a *Array) AsFloat32() []float32 {
	if a.dtype != Float32 {
		panic(fmt.Sprintf("array dtype is %s, not float32", a.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&a.data[0])), a.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the array's dtype is not Float64.
func (a *Array) AsFloat64() []float64 {
	if a.dtype != Float64 {
		panic(fmt.Sprintf("array dtype is %s, not float64", a.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&a.data[0])), a.NumElements())
}

// AsFloat16 interprets the data as []float16.Float16.
// Panics if the array's dtype is not Float16.
func (a *Array) AsFloat16() []float16.Float16 {
	if a.dtype != Float16 {
		panic(fmt.Sprintf("array dtype is %s, not float16", a.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float16.Float16)(unsafe.Pointer(&a.data[0])), a.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the array's dtype is not Int32.
func (a *Array) AsInt32() []int32 {
	if a.dtype != Int32 {
		panic(fmt.Sprintf("array dtype is %s, not int32", a.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&a.data[0])), a.NumElements())
}

// AsInt64 interprets the data as []int64.
// Panics if the array's dtype is not Int64.
func (a *Array) AsInt64() []int64 {
	if a.dtype != Int64 {
		panic(fmt.Sprintf("array dtype is %s, not int64", a.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int64)(unsafe.Pointer(&a.data[0])), a.NumElements())
}

// AsUint8 interprets the data as []uint8.
// Panics if the array's dtype is not Uint8.
func (a *Array) AsUint8() []uint8 {
	if a.dtype != Uint8 {
		panic(fmt.Sprintf("array dtype is %s, not uint8", a.dtype))
	}
	return a.data // Already []byte = []uint8
}

// AsBool interprets the data as []bool.
// Panics if the array's dtype is not Bool.
func (a *Array) AsBool() []bool {
	if a.dtype != Bool {
		panic(fmt.Sprintf("array dtype is %s, not bool", a.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*bool)(unsafe.Pointer(&a.data[0])), a.NumElements())
}

// Float returns element i as float64, converting from the array's dtype.
// Panics for Bool arrays and out-of-range indices. Intended for
// initialization and small per-channel loops, not hot kernels.
func (a *Array) Float(i int) float64 {
	switch a.dtype {
	case Float32:
		return float64(a.AsFloat32()[i])
	case Float64:
		return a.AsFloat64()[i]
	case Float16:
		return float64(a.AsFloat16()[i].Float32())
	case Int32:
		return float64(a.AsInt32()[i])
	case Int64:
		return float64(a.AsInt64()[i])
	case Uint8:
		return float64(a.AsUint8()[i])
	default:
		panic(fmt.Sprintf("Float: unsupported dtype %s", a.dtype))
	}
}

// SetFloat writes v to element i, converting to the array's dtype.
// Panics for Bool arrays and out-of-range indices.
func (a *Array) SetFloat(i int, v float64) {
	switch a.dtype {
	case Float32:
		a.AsFloat32()[i] = float32(v)
	case Float64:
		a.AsFloat64()[i] = v
	case Float16:
		a.AsFloat16()[i] = float16.Fromfloat32(float32(v))
	case Int32:
		a.AsInt32()[i] = int32(v)
	case Int64:
		a.AsInt64()[i] = int64(v)
	case Uint8:
		a.AsUint8()[i] = uint8(v)
	default:
		panic(fmt.Sprintf("SetFloat: unsupported dtype %s", a.dtype))
	}
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	data := make([]byte, len(a.data))
	copy(data, a.data)
	return &Array{
		data:  data,
		shape: a.shape.Clone(),
		dtype: a.dtype,
	}
}

// View returns an array sharing this array's data under a new shape.
// The element count must match.
func (a *Array) View(shape Shape) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != a.NumElements() {
		return nil, fmt.Errorf("cannot view %s array as %s: element count %d vs %d",
			a.shape, shape, a.NumElements(), shape.NumElements())
	}
	return &Array{
		data:  a.data,
		shape: shape.Clone(),
		dtype: a.dtype,
	}, nil
}

// String formats the array header, e.g. "Array(2, 3) float32".
func (a *Array) String() string {
	return fmt.Sprintf("Array%s %s", a.shape, a.dtype)
}
