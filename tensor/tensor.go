// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/weft-ml/weft/internal/tensor"
)

// Shape is a concrete row-major tensor extent.
type Shape = tensor.Shape

// Dim is a single dimension that may still be unknown.
type Dim = tensor.Dim

// PartialShape is a shape declaration whose dimensions may be unresolved.
type PartialShape = tensor.PartialShape

// DataType identifies the element type of an Array.
type DataType = tensor.DataType

// Element types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Float16 = tensor.Float16
	Int32   = tensor.Int32
	Int64   = tensor.Int64
	Uint8   = tensor.Uint8
	Bool    = tensor.Bool
)

// Array is a concrete tensor: contiguous row-major data with a shape and
// a data type.
type Array = tensor.Array

// ErrShapeConflict reports two irreconcilable resolutions of the same
// dimension.
var ErrShapeConflict = tensor.ErrShapeConflict

// Unresolved is a dimension whose value is not yet known.
var Unresolved = tensor.Unresolved

// D creates a resolved dimension. It panics when n is not positive.
func D(n int) Dim {
	return tensor.D(n)
}

// FromShape converts a concrete shape into a fully resolved PartialShape.
func FromShape(s Shape) PartialShape {
	return tensor.FromShape(s)
}

// BroadcastShapes applies NumPy broadcasting rules to two shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}

// NewArray allocates a zeroed array.
func NewArray(shape Shape, dtype DataType) (*Array, error) {
	return tensor.NewArray(shape, dtype)
}

// Zeros creates a zero-filled array. It panics on an invalid shape.
func Zeros(shape Shape, dtype DataType) *Array {
	return tensor.Zeros(shape, dtype)
}

// Ones creates a one-filled array.
func Ones(shape Shape, dtype DataType) *Array {
	return tensor.Ones(shape, dtype)
}

// Full creates an array filled with value.
func Full(shape Shape, dtype DataType, value float64) *Array {
	return tensor.Full(shape, dtype, value)
}

// FromFloat32 wraps data in a float32 array of the given shape.
func FromFloat32(data []float32, shape Shape) (*Array, error) {
	return tensor.FromFloat32(data, shape)
}

// FromFloat64 wraps data in a float64 array of the given shape.
func FromFloat64(data []float64, shape Shape) (*Array, error) {
	return tensor.FromFloat64(data, shape)
}

// FromInt32 wraps data in an int32 array of the given shape.
func FromInt32(data []int32, shape Shape) (*Array, error) {
	return tensor.FromInt32(data, shape)
}

// FromInt64 wraps data in an int64 array of the given shape.
func FromInt64(data []int64, shape Shape) (*Array, error) {
	return tensor.FromInt64(data, shape)
}

// RandomUniform creates a float array with values drawn uniformly from
// [low, high). A nil rng uses the global source.
func RandomUniform(shape Shape, dtype DataType, low, high float64, rng *rand.Rand) *Array {
	return tensor.RandomUniform(shape, dtype, low, high, rng)
}

// Convert copies an array into another numeric data type.
func Convert(a *Array, to DataType) (*Array, error) {
	return tensor.Convert(a, to)
}
