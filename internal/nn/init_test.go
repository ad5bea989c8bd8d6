package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/tensor"
)

// TestInitializers_FixedValues tests the deterministic fills.
func TestInitializers_FixedValues(t *testing.T) {
	tests := []struct {
		name string
		init Initializer
		want float32
	}{
		{"zeros", Zeros{}, 0},
		{"ones", Ones{}, 1},
		{"constant", Constant{Value: 3.5}, 3.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tensor.Zeros(tensor.Shape{2, 3}, tensor.Float32)
			require.NoError(t, tt.init.Fill(a))
			for _, v := range a.AsFloat32() {
				assert.Equal(t, tt.want, v)
			}
		})
	}
}

// TestInitializers_Float16 tests that fills go through the half-precision
// storage correctly.
func TestInitializers_Float16(t *testing.T) {
	a := tensor.Zeros(tensor.Shape{4}, tensor.Float16)
	require.NoError(t, Constant{Value: 1.5}.Fill(a))
	for _, h := range a.AsFloat16() {
		assert.Equal(t, float32(1.5), h.Float32())
	}
}

// TestUniform_Bounds tests the default scale and the value range.
func TestUniform_Bounds(t *testing.T) {
	a := tensor.Zeros(tensor.Shape{1000}, tensor.Float32)
	require.NoError(t, Uniform{}.Fill(a))

	var distinct bool
	vals := a.AsFloat32()
	for _, v := range vals {
		// Small headroom for float32 rounding at the bound.
		assert.LessOrEqual(t, math.Abs(float64(v)), 0.07+1e-6)
		if v != vals[0] {
			distinct = true
		}
	}
	assert.True(t, distinct, "uniform fill should not be constant")
}

// TestNormal_Spread tests that the default sigma produces small, varied
// values.
func TestNormal_Spread(t *testing.T) {
	a := tensor.Zeros(tensor.Shape{1000}, tensor.Float64)
	require.NoError(t, Normal{}.Fill(a))

	var sum float64
	vals := a.AsFloat64()
	for _, v := range vals {
		assert.Less(t, math.Abs(v), 0.2, "5 sigma outlier")
		sum += v
	}
	assert.InDelta(t, 0, sum/float64(len(vals)), 0.005)
}

// TestXavier_Bounds tests the fan-derived bound and the rank requirement.
func TestXavier_Bounds(t *testing.T) {
	a := tensor.Zeros(tensor.Shape{30, 20}, tensor.Float32)
	require.NoError(t, Xavier{}.Fill(a))

	bound := math.Sqrt(6.0/50.0) + 1e-6
	for _, v := range a.AsFloat32() {
		assert.LessOrEqual(t, math.Abs(float64(v)), bound)
	}

	vec := tensor.Zeros(tensor.Shape{8}, tensor.Float32)
	assert.Error(t, Xavier{}.Fill(vec))
}

// TestFill_RejectsBool tests the one unsupported dtype.
func TestFill_RejectsBool(t *testing.T) {
	a := tensor.Zeros(tensor.Shape{2}, tensor.Bool)
	assert.Error(t, Zeros{}.Fill(a))
}
