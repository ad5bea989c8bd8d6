package symbolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/backend/eager"
	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// memSlot is a mutable storage cell for re-binding tests.
type memSlot struct {
	name string
	arr  *tensor.Array
}

func (s *memSlot) SlotName() string { return s.name }

func (s *memSlot) SlotValue() (*tensor.Array, error) { return s.arr, nil }

// TestTracer_RecordAndReplay tests the capture/replay round trip.
func TestTracer_RecordAndReplay(t *testing.T) {
	tr := NewTracer(nil)

	x := tr.Placeholder(tensor.Shape{2, 2}, tensor.Float32)
	two := tensor.Full(tensor.Shape{2, 2}, tensor.Float32, 2)
	scaled, err := tr.Mul(x, tr.Constant(two))
	require.NoError(t, err)
	out, err := tr.AddScalar(scaled, 1)
	require.NoError(t, err)

	prog, err := tr.Compile(out)
	require.NoError(t, err)
	assert.Equal(t, 1, prog.NumInputs())
	assert.Equal(t, 4, prog.NumNodes())

	f := eager.New().Namespace(nil)
	in, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)

	res, err := prog.Run(f, f.Constant(in))
	require.NoError(t, err)
	got, err := f.Realize(res)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 5, 7, 9}, got.AsFloat32())
	assert.Equal(t, int64(1), prog.Replays())
}

// TestTracer_SlotRebinding tests that replays observe slot updates without
// re-recording.
func TestTracer_SlotRebinding(t *testing.T) {
	w, err := tensor.FromFloat32([]float32{10}, tensor.Shape{1})
	require.NoError(t, err)
	slot := &memSlot{name: "weight", arr: w}

	tr := NewTracer(nil)
	x := tr.Placeholder(tensor.Shape{1}, tensor.Float32)
	wv, err := tr.Bind(slot)
	require.NoError(t, err)
	out, err := tr.Add(x, wv)
	require.NoError(t, err)

	prog, err := tr.Compile(out)
	require.NoError(t, err)

	f := eager.New().Namespace(nil)
	in, err := tensor.FromFloat32([]float32{1}, tensor.Shape{1})
	require.NoError(t, err)

	res, err := prog.Run(f, f.Constant(in))
	require.NoError(t, err)
	got, _ := f.Realize(res)
	assert.Equal(t, []float32{11}, got.AsFloat32())

	// Swap the slot contents; the program must see the new value.
	slot.arr, err = tensor.FromFloat32([]float32{100}, tensor.Shape{1})
	require.NoError(t, err)

	res, err = prog.Run(f, f.Constant(in))
	require.NoError(t, err)
	got, _ = f.Realize(res)
	assert.Equal(t, []float32{101}, got.AsFloat32(), "replay should read the updated slot")
	assert.Equal(t, int64(2), prog.Replays())
}

// TestTracer_RealizeFails tests that concrete data access surfaces ErrTrace.
func TestTracer_RealizeFails(t *testing.T) {
	tr := NewTracer(nil)
	x := tr.Placeholder(tensor.Shape{2}, tensor.Float32)

	_, err := tr.Realize(x)
	assert.ErrorIs(t, err, ops.ErrTrace)
}

// TestTracer_ShapeErrorsAtRecordTime tests that invalid calls fail during
// recording, exactly as they would eagerly.
func TestTracer_ShapeErrorsAtRecordTime(t *testing.T) {
	tr := NewTracer(nil)

	x := tr.Placeholder(tensor.Shape{2, 3, 4}, tensor.Float32)
	w := tr.Placeholder(tensor.Shape{5, 4}, tensor.Float32)

	_, err := tr.FullyConnected(x, w, nil)
	assert.ErrorIs(t, err, ops.ErrRank)

	a := tr.Placeholder(tensor.Shape{2}, tensor.Float32)
	b := tr.Placeholder(tensor.Shape{3}, tensor.Float32)
	_, err = tr.Add(a, b)
	assert.ErrorIs(t, err, tensor.ErrShapeConflict)

	i := tr.Placeholder(tensor.Shape{2}, tensor.Int32)
	_, err = tr.Activation(i, ops.ReLU)
	assert.ErrorIs(t, err, ops.ErrDType)
}

// TestProgram_InputMismatch tests replay input validation.
func TestProgram_InputMismatch(t *testing.T) {
	tr := NewTracer(nil)
	x := tr.Placeholder(tensor.Shape{2}, tensor.Float32)
	out, err := tr.AddScalar(x, 1)
	require.NoError(t, err)
	prog, err := tr.Compile(out)
	require.NoError(t, err)

	f := eager.New().Namespace(nil)

	_, err = prog.Run(f)
	assert.Error(t, err, "missing input must fail")

	wrong := tensor.Zeros(tensor.Shape{3}, tensor.Float32)
	_, err = prog.Run(f, f.Constant(wrong))
	assert.Error(t, err, "shape mismatch must fail")

	wrongType := tensor.Zeros(tensor.Shape{2}, tensor.Float64)
	_, err = prog.Run(f, f.Constant(wrongType))
	assert.Error(t, err, "dtype mismatch must fail")
}

// TestProgram_ModeDecidedAtReplay tests that one program serves both
// execution modes: dropout is recorded once and behaves per replay env.
func TestProgram_ModeDecidedAtReplay(t *testing.T) {
	tr := NewTracer(nil)
	x := tr.Placeholder(tensor.Shape{4}, tensor.Float32)
	out, err := tr.Dropout(x, 1)
	require.NoError(t, err)
	prog, err := tr.Compile(out)
	require.NoError(t, err)

	in, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{4})
	require.NoError(t, err)

	// Inference replay: identity.
	fi := eager.New().Namespace(&ops.Env{Mode: ops.Inference})
	res, err := prog.Run(fi, fi.Constant(in))
	require.NoError(t, err)
	got, _ := fi.Realize(res)
	assert.Equal(t, []float32{1, 2, 3, 4}, got.AsFloat32())

	// Training replay of the same program: rate-1 dropout zeroes.
	ft := eager.New().Namespace(&ops.Env{Mode: ops.Training})
	res, err = prog.Run(ft, ft.Constant(in))
	require.NoError(t, err)
	got, _ = ft.Realize(res)
	assert.Equal(t, []float32{0, 0, 0, 0}, got.AsFloat32())
}

// TestTracer_ForeignValueRejected tests cross-namespace value detection.
func TestTracer_ForeignValueRejected(t *testing.T) {
	tr := NewTracer(nil)
	f := eager.New().Namespace(nil)

	a := f.Constant(tensor.Zeros(tensor.Shape{2}, tensor.Float32))
	b := tr.Placeholder(tensor.Shape{2}, tensor.Float32)

	_, err := tr.Add(a, b)
	assert.Error(t, err, "eager value must be rejected by the tracer")

	other := NewTracer(nil)
	c := other.Placeholder(tensor.Shape{2}, tensor.Float32)
	_, err = tr.Add(b, c)
	assert.Error(t, err, "value from another trace must be rejected")
}

// TestTracer_FullyConnectedGraph tests a parameterized projection graph
// end to end.
func TestTracer_FullyConnectedGraph(t *testing.T) {
	w, err := tensor.FromFloat32([]float32{1, 0, 0, 1, 1, 1}, tensor.Shape{3, 2})
	require.NoError(t, err)
	b, err := tensor.FromFloat32([]float32{0, 0, 100}, tensor.Shape{3})
	require.NoError(t, err)
	wSlot := &memSlot{name: "weight", arr: w}
	bSlot := &memSlot{name: "bias", arr: b}

	tr := NewTracer(nil)
	x := tr.Placeholder(tensor.Shape{1, 2}, tensor.Float32)
	wv, err := tr.Bind(wSlot)
	require.NoError(t, err)
	bv, err := tr.Bind(bSlot)
	require.NoError(t, err)
	fc, err := tr.FullyConnected(x, wv, bv)
	require.NoError(t, err)
	out, err := tr.Activation(fc, ops.ReLU)
	require.NoError(t, err)

	prog, err := tr.Compile(out)
	require.NoError(t, err)

	f := eager.New().Namespace(nil)
	in, err := tensor.FromFloat32([]float32{2, 3}, tensor.Shape{1, 2})
	require.NoError(t, err)
	res, err := prog.Run(f, f.Constant(in))
	require.NoError(t, err)
	got, err := f.Realize(res)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3, 105}, got.AsFloat32())
}
