package nn

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// testMLP is a custom hybrid block: two projections composed in
// HybridForward. It doubles as the embedding-API example.
type testMLP struct {
	HybridBase
	hidden *Dense
	out    *Dense
}

func newTestMLP() *testMLP {
	m := &testMLP{}
	m.InitHybrid(m, "", "mlp")
	m.hidden = NewDense(16, DenseOpts{Activation: ops.ReLU})
	m.out = NewDense(4)
	m.RegisterChild(m.hidden)
	m.RegisterChild(m.out)
	return m
}

func (m *testMLP) HybridForward(f ops.Ops, x ops.Value, _ map[string]ops.Value) (ops.Value, error) {
	h, err := m.hidden.Apply(f, x)
	if err != nil {
		return nil, err
	}
	return m.out.Apply(f, h)
}

func (m *testMLP) String() string {
	return treeString("testMLP", m.Children())
}

// TestHybrid_EagerAndCapturedAgree tests that hybridizing changes the
// execution strategy, never the result.
func TestHybrid_EagerAndCapturedAgree(t *testing.T) {
	m := newTestMLP()
	x := tensor.RandomUniform(tensor.Shape{4, 8}, tensor.Float32, -1, 1, rand.New(rand.NewSource(1)))

	direct, err := m.Forward(nil, x)
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.TraceCount())

	m.Hybridize(true)
	replayed, err := m.Forward(nil, x)
	require.NoError(t, err)

	assert.Equal(t, int64(1), m.TraceCount())
	assert.Equal(t, tensor.Shape{4, 4}, replayed.Shape())
	assert.Equal(t, direct.AsFloat32(), replayed.AsFloat32())
}

// TestHybrid_CacheReuse tests that repeated same-signature calls replay
// one program and a signature change captures a new one.
func TestHybrid_CacheReuse(t *testing.T) {
	m := newTestMLP()
	m.Hybridize(true)

	for i := 0; i < 3; i++ {
		x := tensor.RandomUniform(tensor.Shape{4, 8}, tensor.Float32, -1, 1, rand.New(rand.NewSource(int64(i))))
		_, err := m.Forward(nil, x)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), m.TraceCount(), "same signature must not retrace")

	// A different batch size is a new signature.
	x := tensor.Zeros(tensor.Shape{9, 8}, tensor.Float32)
	_, err := m.Forward(nil, x)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.TraceCount())

	// A different feature width conflicts with the materialized weight.
	bad := tensor.Zeros(tensor.Shape{4, 5}, tensor.Float32)
	_, err = m.Forward(nil, bad)
	assert.ErrorIs(t, err, tensor.ErrShapeConflict)
}

// TestHybrid_SetDataVisibleWithoutRetrace tests that programs hold
// parameter identities: a value swap shows up on replay with no capture.
func TestHybrid_SetDataVisibleWithoutRetrace(t *testing.T) {
	d := NewDense(2, DenseOpts{
		InUnits:    tensor.D(2),
		NoBias:     true,
		WeightInit: Constant{Value: 1},
	})
	d.Hybridize(true)

	x, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)

	// All-ones weight: each output is the feature sum.
	out, err := d.Forward(nil, x)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 3, 7, 7}, out.AsFloat32())

	// Swap in the identity matrix; the cached program must see it.
	eye, err := tensor.FromFloat32([]float32{1, 0, 0, 1}, tensor.Shape{2, 2})
	require.NoError(t, err)
	require.NoError(t, d.Weight().SetData(eye))

	out, err = d.Forward(nil, x)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, out.AsFloat32())
	assert.Equal(t, int64(1), d.TraceCount(), "value update must not retrace")
}

// TestHybrid_ModeDecidedPerCall tests that one captured program serves
// both execution modes.
func TestHybrid_ModeDecidedPerCall(t *testing.T) {
	d := NewDropout(1)
	d.Hybridize(true)

	x, err := tensor.FromFloat32([]float32{1, 2, 3}, tensor.Shape{1, 3})
	require.NoError(t, err)

	// Inference: identity.
	out, err := d.Forward(nil, x)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, out.AsFloat32())

	// Training, same program: everything dropped.
	out, err = d.Forward(&ops.Env{Mode: ops.Training}, x)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, out.AsFloat32())

	assert.Equal(t, int64(1), d.TraceCount(), "mode must not be part of the signature")
}

// TestHybrid_Unhybridize tests switching capture back off.
func TestHybrid_Unhybridize(t *testing.T) {
	m := newTestMLP()
	x := tensor.RandomUniform(tensor.Shape{2, 8}, tensor.Float32, -1, 1, rand.New(rand.NewSource(3)))

	m.Hybridize(true)
	captured, err := m.Forward(nil, x)
	require.NoError(t, err)

	m.Hybridize(false)
	direct, err := m.Forward(nil, x)
	require.NoError(t, err)

	assert.Equal(t, captured.AsFloat32(), direct.AsFloat32())
	assert.Equal(t, int64(1), m.TraceCount(), "eager calls must not capture")
}

// TestHybrid_HybridizeCascades tests that the switch reaches hybrid
// descendants through plain containers.
func TestHybrid_HybridizeCascades(t *testing.T) {
	leaf := NewDense(3, DenseOpts{InUnits: tensor.D(2)})
	inner := NewHybridSequential()
	inner.Add(leaf)
	outer := NewSequential()
	outer.Add(inner)

	outer.Hybridize(true)

	x := tensor.Zeros(tensor.Shape{2, 2}, tensor.Float32)
	_, err := outer.Forward(nil, x)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inner.TraceCount(),
		"hybridize through a plain container must reach hybrid children")
	assert.Equal(t, int64(0), leaf.TraceCount(),
		"a leaf inlined into its parent's program does not capture itself")
}

// TestHybrid_ConcurrentReplay tests the documented concurrency contract:
// after a serialized first call, concurrent Forwards share the cache.
func TestHybrid_ConcurrentReplay(t *testing.T) {
	m := newTestMLP()
	m.Hybridize(true)
	x := tensor.RandomUniform(tensor.Shape{4, 8}, tensor.Float32, -1, 1, rand.New(rand.NewSource(5)))

	want, err := m.Forward(nil, x)
	require.NoError(t, err)

	errc := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			out, err := m.Forward(nil, x)
			if err == nil && !assert.ObjectsAreEqual(want.AsFloat32(), out.AsFloat32()) {
				err = fmt.Errorf("replay diverged")
			}
			errc <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-errc)
	}
	assert.Equal(t, int64(1), m.TraceCount())
}

// TestHybrid_CustomBlockTree tests naming and display for an
// embedded-base custom block.
func TestHybrid_CustomBlockTree(t *testing.T) {
	m := newTestMLP()
	assert.Equal(t, "dense0", m.hidden.Name())
	assert.Equal(t, "dense1", m.out.Name())

	collected, err := m.CollectParams()
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"dense0.weight", "dense0.bias", "dense1.weight", "dense1.bias"},
		names(collected))

	want := "testMLP(\n" +
		"  (dense0): Dense(16, Activation(relu))\n" +
		"  (dense1): Dense(4, linear)\n" +
		")"
	assert.Equal(t, want, m.String())
}
