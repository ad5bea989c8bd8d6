package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

var trainEnv = &ops.Env{Mode: ops.Training}

// TestBatchNorm_TrainingNormalizes tests batch statistics and the moving
// update against hand-computed numbers.
func TestBatchNorm_TrainingNormalizes(t *testing.T) {
	bn := NewBatchNorm()

	// Channels {1,3} and {2,4}: means (2,3), biased variances (1,1).
	x, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)

	out, err := bn.Forward(trainEnv, x)
	require.NoError(t, err)

	want := []float32{-1, -1, 1, 1}
	for i, v := range out.AsFloat32() {
		assert.InDelta(t, want[i], v, 1e-3)
	}

	// moving = 0.9*init + 0.1*batch.
	mean, err := bn.RunningMean().Data()
	require.NoError(t, err)
	assert.InDelta(t, 0.2, mean.Float(0), 1e-6)
	assert.InDelta(t, 0.3, mean.Float(1), 1e-6)

	variance, err := bn.RunningVar().Data()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, variance.Float(0), 1e-6)
	assert.InDelta(t, 1.0, variance.Float(1), 1e-6)

	// A second training step keeps folding the batch in.
	_, err = bn.Forward(trainEnv, x)
	require.NoError(t, err)
	mean, err = bn.RunningMean().Data()
	require.NoError(t, err)
	assert.InDelta(t, 0.38, mean.Float(0), 1e-6)
}

// TestBatchNorm_InferenceUsesMoving tests that inference reads the moving
// statistics and leaves them untouched.
func TestBatchNorm_InferenceUsesMoving(t *testing.T) {
	bn := NewBatchNorm(BatchNormOpts{InChannels: tensor.D(1)})
	require.NoError(t, bn.Initialize())

	mean, err := tensor.FromFloat32([]float32{1}, tensor.Shape{1})
	require.NoError(t, err)
	require.NoError(t, bn.RunningMean().SetData(mean))
	variance, err := tensor.FromFloat32([]float32{4}, tensor.Shape{1})
	require.NoError(t, err)
	require.NoError(t, bn.RunningVar().SetData(variance))

	x, err := tensor.FromFloat32([]float32{1, 3, 5}, tensor.Shape{3, 1})
	require.NoError(t, err)
	out, err := bn.Forward(nil, x)
	require.NoError(t, err)

	want := []float32{0, 1, 2}
	for i, v := range out.AsFloat32() {
		assert.InDelta(t, want[i], v, 1e-3)
	}

	got, err := bn.RunningMean().Data()
	require.NoError(t, err)
	assert.Equal(t, float32(1), got.AsFloat32()[0], "inference must not update statistics")
}

// TestBatchNorm_FrozenStats tests that the moving statistics are
// parameters but never trainable, and that NoScale freezes gamma.
func TestBatchNorm_FrozenStats(t *testing.T) {
	bn := NewBatchNorm(BatchNormOpts{Name: "bn"})

	assert.Equal(t, Frozen, bn.RunningMean().Grad())
	assert.Equal(t, Frozen, bn.RunningVar().Grad())

	collected, err := bn.CollectParams()
	require.NoError(t, err)
	assert.Equal(t, 4, collected.Len())

	var trainable []string
	for name := range collected.Trainable() {
		trainable = append(trainable, name)
	}
	assert.Equal(t, []string{"bn.gamma", "bn.beta"}, trainable)

	frozen := NewBatchNorm(BatchNormOpts{NoScale: true, NoCenter: true})
	assert.Equal(t, Frozen, frozen.Gamma().Grad())
	assert.Equal(t, Frozen, frozen.Beta().Grad())
}

// TestBatchNorm_DeferredChannels tests channel inference along the
// default axis of an NCHW input.
func TestBatchNorm_DeferredChannels(t *testing.T) {
	bn := NewBatchNorm()
	assert.False(t, bn.Gamma().Resolved())

	x := tensor.Zeros(tensor.Shape{2, 3, 2, 2}, tensor.Float32)
	_, err := bn.Forward(nil, x)
	require.NoError(t, err)

	for _, p := range []*Parameter{bn.Gamma(), bn.Beta(), bn.RunningMean(), bn.RunningVar()} {
		assert.Equal(t, "(3)", p.Shape().String())
	}
}

// TestBatchNorm_AxisOutOfRange tests inference failure on insufficient
// rank.
func TestBatchNorm_AxisOutOfRange(t *testing.T) {
	bn := NewBatchNorm(BatchNormOpts{Axis: 3})
	_, err := bn.Forward(nil, tensor.Zeros(tensor.Shape{2, 4}, tensor.Float32))
	assert.ErrorIs(t, err, ErrShapeInference)
}

// TestBatchNorm_ConstructorPanics tests option validation.
func TestBatchNorm_ConstructorPanics(t *testing.T) {
	assert.Panics(t, func() { NewBatchNorm(BatchNormOpts{Axis: -1}) })
	assert.Panics(t, func() { NewBatchNorm(BatchNormOpts{Momentum: 1}) })
	assert.Panics(t, func() { NewBatchNorm(BatchNormOpts{Momentum: -0.5}) })
	assert.Panics(t, func() { NewBatchNorm(BatchNormOpts{Epsilon: -1e-5}) })
}

// TestBatchNorm_HybridizedTrainingUpdates tests that a captured program
// still maintains the moving statistics: the update flows through the
// bound parameter storage.
func TestBatchNorm_HybridizedTrainingUpdates(t *testing.T) {
	bn := NewBatchNorm()
	bn.Hybridize(true)

	x, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)

	_, err = bn.Forward(trainEnv, x)
	require.NoError(t, err)
	mean, err := bn.RunningMean().Data()
	require.NoError(t, err)
	assert.InDelta(t, 0.2, mean.Float(0), 1e-6)

	_, err = bn.Forward(trainEnv, x)
	require.NoError(t, err)
	mean, err = bn.RunningMean().Data()
	require.NoError(t, err)
	assert.InDelta(t, 0.38, mean.Float(0), 1e-6)

	// One program throughout; inference replay reads the statistics.
	assert.Equal(t, int64(1), bn.TraceCount())
	out, err := bn.Forward(nil, x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
}

// TestBatchNorm_Repr tests both display forms.
func TestBatchNorm_Repr(t *testing.T) {
	bn := NewBatchNorm()
	assert.Equal(t, "BatchNorm(axis=1, eps=0.001, momentum=0.9)", bn.String())

	sized := NewBatchNorm(BatchNormOpts{InChannels: tensor.D(4), Momentum: 0.99})
	assert.Equal(t, "BatchNorm(axis=1, eps=0.001, momentum=0.99, in_channels=4)", sized.String())
}
