package eager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// testSlot is a minimal storage cell for Bind tests.
type testSlot struct {
	name string
	arr  *tensor.Array
	err  error
}

func (s *testSlot) SlotName() string { return s.name }

func (s *testSlot) SlotValue() (*tensor.Array, error) { return s.arr, s.err }

// TestNamespace_ConstantRealize tests the lift-in and lift-out round trip.
func TestNamespace_ConstantRealize(t *testing.T) {
	f := New().Namespace(nil)

	a, err := tensor.FromFloat32([]float32{1, 2, 3}, tensor.Shape{3})
	require.NoError(t, err)

	v := f.Constant(a)
	assert.Equal(t, tensor.Shape{3}, v.Shape())
	assert.Equal(t, tensor.Float32, v.DType())

	got, err := f.Realize(v)
	require.NoError(t, err)
	assert.Same(t, a, got, "realize should return the lifted array")
}

// TestNamespace_Bind tests slot binding.
func TestNamespace_Bind(t *testing.T) {
	f := New().Namespace(nil)

	arr, err := tensor.FromFloat32([]float32{5}, tensor.Shape{1})
	require.NoError(t, err)

	v, err := f.Bind(&testSlot{name: "weight", arr: arr})
	require.NoError(t, err)
	got, err := f.Realize(v)
	require.NoError(t, err)
	assert.Same(t, arr, got, "bound value should alias the slot storage")

	_, err = f.Bind(&testSlot{name: "weight", err: assert.AnError})
	assert.Error(t, err, "slot failure should propagate")
}

// TestNamespace_Add tests element-wise addition and broadcasting.
func TestNamespace_Add(t *testing.T) {
	f := New().Namespace(nil)

	a, err := tensor.FromFloat32([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	b, err := tensor.FromFloat32([]float32{10, 20, 30}, tensor.Shape{3})
	require.NoError(t, err)

	sum, err := f.Add(f.Constant(a), f.Constant(b))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, sum.Shape())

	got, err := f.Realize(sum)
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, got.AsFloat32())
}

// TestNamespace_AddShapeError tests incompatible operand shapes.
func TestNamespace_AddShapeError(t *testing.T) {
	f := New().Namespace(nil)

	a := tensor.Zeros(tensor.Shape{2, 3}, tensor.Float32)
	b := tensor.Zeros(tensor.Shape{2, 4}, tensor.Float32)

	_, err := f.Add(f.Constant(a), f.Constant(b))
	assert.ErrorIs(t, err, tensor.ErrShapeConflict)
}

// TestNamespace_DTypeMismatch tests mixed-dtype rejection.
func TestNamespace_DTypeMismatch(t *testing.T) {
	f := New().Namespace(nil)

	a := tensor.Zeros(tensor.Shape{2}, tensor.Float32)
	b := tensor.Zeros(tensor.Shape{2}, tensor.Float64)

	_, err := f.Add(f.Constant(a), f.Constant(b))
	assert.ErrorIs(t, err, ops.ErrDType)
}

// TestNamespace_Arithmetic tests Sub, Mul, Div and the scalar forms.
func TestNamespace_Arithmetic(t *testing.T) {
	f := New().Namespace(nil)

	a, err := tensor.FromFloat32([]float32{4, 9, 16}, tensor.Shape{3})
	require.NoError(t, err)
	b, err := tensor.FromFloat32([]float32{2, 3, 4}, tensor.Shape{3})
	require.NoError(t, err)
	va, vb := f.Constant(a), f.Constant(b)

	sub, err := f.Sub(va, vb)
	require.NoError(t, err)
	got, _ := f.Realize(sub)
	assert.Equal(t, []float32{2, 6, 12}, got.AsFloat32())

	mul, err := f.Mul(va, vb)
	require.NoError(t, err)
	got, _ = f.Realize(mul)
	assert.Equal(t, []float32{8, 27, 64}, got.AsFloat32())

	div, err := f.Div(va, vb)
	require.NoError(t, err)
	got, _ = f.Realize(div)
	assert.Equal(t, []float32{2, 3, 4}, got.AsFloat32())

	adds, err := f.AddScalar(va, 1)
	require.NoError(t, err)
	got, _ = f.Realize(adds)
	assert.Equal(t, []float32{5, 10, 17}, got.AsFloat32())

	muls, err := f.MulScalar(va, 0.5)
	require.NoError(t, err)
	got, _ = f.Realize(muls)
	assert.Equal(t, []float32{2, 4.5, 8}, got.AsFloat32())
}

// TestNamespace_MatMul tests BLAS-backed matrix multiplication.
func TestNamespace_MatMul(t *testing.T) {
	f := New().Namespace(nil)

	a, err := tensor.FromFloat32([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	b, err := tensor.FromFloat32([]float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})
	require.NoError(t, err)

	out, err := f.MatMul(f.Constant(a), f.Constant(b))
	require.NoError(t, err)
	got, err := f.Realize(out)
	require.NoError(t, err)

	// [1 2 3; 4 5 6] @ [7 8; 9 10; 11 12] = [58 64; 139 154]
	assert.Equal(t, []float32{58, 64, 139, 154}, got.AsFloat32())
}

// TestNamespace_MatMulFloat64 tests the float64 GEMM path.
func TestNamespace_MatMulFloat64(t *testing.T) {
	f := New().Namespace(nil)

	a, err := tensor.FromFloat64([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	b, err := tensor.FromFloat64([]float64{5, 6, 7, 8}, tensor.Shape{2, 2})
	require.NoError(t, err)

	out, err := f.MatMul(f.Constant(a), f.Constant(b))
	require.NoError(t, err)
	got, err := f.Realize(out)
	require.NoError(t, err)
	assert.Equal(t, []float64{19, 22, 43, 50}, got.AsFloat64())
}

// TestNamespace_FullyConnected tests x @ W^T + b.
func TestNamespace_FullyConnected(t *testing.T) {
	f := New().Namespace(nil)

	x, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	// W is (units=3, in=2)
	w, err := tensor.FromFloat32([]float32{1, 0, 0, 1, 1, 1}, tensor.Shape{3, 2})
	require.NoError(t, err)
	b, err := tensor.FromFloat32([]float32{10, 20, 30}, tensor.Shape{3})
	require.NoError(t, err)

	out, err := f.FullyConnected(f.Constant(x), f.Constant(w), f.Constant(b))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())

	got, err := f.Realize(out)
	require.NoError(t, err)
	// Row 1: [1, 2] -> [1+10, 2+20, 3+30]; row 2: [3, 4] -> [13, 24, 37]
	assert.Equal(t, []float32{11, 22, 33, 13, 24, 37}, got.AsFloat32())
}

// TestNamespace_FullyConnectedNoBias tests the nil-bias form.
func TestNamespace_FullyConnectedNoBias(t *testing.T) {
	f := New().Namespace(nil)

	x, err := tensor.FromFloat32([]float32{1, 2}, tensor.Shape{1, 2})
	require.NoError(t, err)
	w, err := tensor.FromFloat32([]float32{3, 4}, tensor.Shape{1, 2})
	require.NoError(t, err)

	out, err := f.FullyConnected(f.Constant(x), f.Constant(w), nil)
	require.NoError(t, err)
	got, err := f.Realize(out)
	require.NoError(t, err)
	assert.Equal(t, []float32{11}, got.AsFloat32())
}

// TestNamespace_FullyConnectedRankError tests strict rank-2 input checking.
func TestNamespace_FullyConnectedRankError(t *testing.T) {
	f := New().Namespace(nil)

	x := tensor.Zeros(tensor.Shape{2, 3, 4}, tensor.Float32)
	w := tensor.Zeros(tensor.Shape{5, 4}, tensor.Float32)

	_, err := f.FullyConnected(f.Constant(x), f.Constant(w), nil)
	assert.ErrorIs(t, err, ops.ErrRank, "rank-3 input must be rejected, not flattened")
}

// TestNamespace_FullyConnectedBiasDType tests bias dtype checking.
func TestNamespace_FullyConnectedBiasDType(t *testing.T) {
	f := New().Namespace(nil)

	x := tensor.Zeros(tensor.Shape{1, 2}, tensor.Float32)
	w := tensor.Zeros(tensor.Shape{3, 2}, tensor.Float32)
	b := tensor.Zeros(tensor.Shape{3}, tensor.Float64)

	_, err := f.FullyConnected(f.Constant(x), f.Constant(w), f.Constant(b))
	assert.ErrorIs(t, err, ops.ErrDType)
}

// TestNamespace_FullyConnectedFloat16 tests the widened float16 path.
func TestNamespace_FullyConnectedFloat16(t *testing.T) {
	f := New().Namespace(nil)

	x32, err := tensor.FromFloat32([]float32{1, 2}, tensor.Shape{1, 2})
	require.NoError(t, err)
	w32, err := tensor.FromFloat32([]float32{0.5, 0.25}, tensor.Shape{1, 2})
	require.NoError(t, err)

	x16, err := tensor.Convert(x32, tensor.Float16)
	require.NoError(t, err)
	w16, err := tensor.Convert(w32, tensor.Float16)
	require.NoError(t, err)

	out, err := f.FullyConnected(f.Constant(x16), f.Constant(w16), nil)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float16, out.DType())

	got, err := f.Realize(out)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, float64(got.AsFloat16()[0].Float32()), 1e-3)
}
