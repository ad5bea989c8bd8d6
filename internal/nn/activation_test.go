package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// TestActivation_Values tests every named function against its closed
// form.
func TestActivation_Values(t *testing.T) {
	input := []float32{-2, -0.5, 0, 1, 3}

	tests := []struct {
		fn   ops.ActFunc
		want func(float64) float64
	}{
		{ops.ReLU, func(v float64) float64 { return math.Max(v, 0) }},
		{ops.Sigmoid, func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }},
		{ops.Tanh, math.Tanh},
		{ops.SoftReLU, func(v float64) float64 { return math.Log1p(math.Exp(v)) }},
		{ops.SoftSign, func(v float64) float64 { return v / (1 + math.Abs(v)) }},
	}
	for _, tt := range tests {
		t.Run(string(tt.fn), func(t *testing.T) {
			x, err := tensor.FromFloat32(input, tensor.Shape{5})
			require.NoError(t, err)

			out, err := NewActivation(tt.fn).Forward(nil, x)
			require.NoError(t, err)
			for i, v := range out.AsFloat32() {
				assert.InDelta(t, tt.want(float64(input[i])), v, 1e-6)
			}
		})
	}
}

// TestActivation_UnknownPanics tests constructor validation.
func TestActivation_UnknownPanics(t *testing.T) {
	assert.Panics(t, func() { NewActivation("gelu") })
	assert.Panics(t, func() { NewActivation("") })
}

// TestActivation_IntRejected tests dtype validation at the op.
func TestActivation_IntRejected(t *testing.T) {
	x, err := tensor.FromInt32([]int32{1, 2}, tensor.Shape{2})
	require.NoError(t, err)
	_, err = NewActivation(ops.ReLU).Forward(nil, x)
	assert.ErrorIs(t, err, ops.ErrDType)
}

// TestActivation_AliasNaming tests that auto-names come from the
// function, counted per parent.
func TestActivation_AliasNaming(t *testing.T) {
	seq := NewSequential()
	seq.Add(NewActivation(ops.ReLU), NewActivation(ops.ReLU), NewActivation(ops.Tanh))

	children := seq.Children()
	assert.Equal(t, "relu0", children[0].Name)
	assert.Equal(t, "relu1", children[1].Name)
	assert.Equal(t, "tanh0", children[2].Name)
}

// TestActivation_Repr tests the display form.
func TestActivation_Repr(t *testing.T) {
	assert.Equal(t, "Activation(sigmoid)", NewActivation(ops.Sigmoid).String())
}

// TestLeakyReLU_Values tests the negative-slope behavior.
func TestLeakyReLU_Values(t *testing.T) {
	l := NewLeakyReLU(0.1)
	x, err := tensor.FromFloat32([]float32{-10, -1, 0, 2}, tensor.Shape{4})
	require.NoError(t, err)

	out, err := l.Forward(nil, x)
	require.NoError(t, err)

	want := []float32{-1, -0.1, 0, 2}
	for i, v := range out.AsFloat32() {
		assert.InDelta(t, want[i], v, 1e-6)
	}
	assert.Equal(t, 0.1, l.Alpha())
}

// TestLeakyReLU_NegativeAlphaPanics tests constructor validation.
func TestLeakyReLU_NegativeAlphaPanics(t *testing.T) {
	assert.Panics(t, func() { NewLeakyReLU(-0.01) })
}

// TestLeakyReLU_Repr tests the display form.
func TestLeakyReLU_Repr(t *testing.T) {
	assert.Equal(t, "LeakyReLU(0.01)", NewLeakyReLU(0.01).String())
}
