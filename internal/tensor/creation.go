package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a zero-filled array.
// Panics on an invalid shape.
func Zeros(shape Shape, dtype DataType) *Array {
	a, err := NewArray(shape, dtype)
	if err != nil {
		panic(err) // Shape validation should prevent this
	}
	return a
}

// Ones creates an array filled with ones.
func Ones(shape Shape, dtype DataType) *Array {
	return Full(shape, dtype, 1)
}

// Full creates an array filled with a specific value, converted to dtype.
func Full(shape Shape, dtype DataType, value float64) *Array {
	a := Zeros(shape, dtype)
	if value == 0 {
		return a
	}
	for i := 0; i < a.NumElements(); i++ {
		a.SetFloat(i, value)
	}
	return a
}

// FromFloat32 creates a Float32 array from a slice.
// The slice length must match the shape's element count.
func FromFloat32(data []float32, shape Shape) (*Array, error) {
	a, err := NewArray(shape, Float32)
	if err != nil {
		return nil, err
	}
	if len(data) != a.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %s (%d elements)",
			len(data), shape, a.NumElements())
	}
	copy(a.AsFloat32(), data)
	return a, nil
}

// FromFloat64 creates a Float64 array from a slice.
func FromFloat64(data []float64, shape Shape) (*Array, error) {
	a, err := NewArray(shape, Float64)
	if err != nil {
		return nil, err
	}
	if len(data) != a.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %s (%d elements)",
			len(data), shape, a.NumElements())
	}
	copy(a.AsFloat64(), data)
	return a, nil
}

// FromInt32 creates an Int32 array from a slice.
func FromInt32(data []int32, shape Shape) (*Array, error) {
	a, err := NewArray(shape, Int32)
	if err != nil {
		return nil, err
	}
	if len(data) != a.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %s (%d elements)",
			len(data), shape, a.NumElements())
	}
	copy(a.AsInt32(), data)
	return a, nil
}

// FromInt64 creates an Int64 array from a slice.
func FromInt64(data []int64, shape Shape) (*Array, error) {
	a, err := NewArray(shape, Int64)
	if err != nil {
		return nil, err
	}
	if len(data) != a.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %s (%d elements)",
			len(data), shape, a.NumElements())
	}
	copy(a.AsInt64(), data)
	return a, nil
}

// RandomUniform creates a float array with values uniformly distributed
// in [low, high). A nil rng falls back to the global source.
// Note: Uses math/rand (not crypto/rand) - appropriate for ML purposes.
func RandomUniform(shape Shape, dtype DataType, low, high float64, rng *rand.Rand) *Array {
	if !dtype.IsFloat() {
		panic(fmt.Sprintf("RandomUniform: dtype must be a float type, got %s", dtype))
	}
	a := Zeros(shape, dtype)
	for i := 0; i < a.NumElements(); i++ {
		var u float64
		if rng != nil {
			u = rng.Float64()
		} else {
			u = rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally
		}
		a.SetFloat(i, low+u*(high-low))
	}
	return a
}
