package nn

import (
	"fmt"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// BatchNormOpts configures NewBatchNorm. Zero values mean: axis 1,
// momentum 0.9, epsilon 1e-3, learned scale and center, channel count
// inferred from the first input.
type BatchNormOpts struct {
	// Axis is the channel axis to normalize over; every other axis is
	// reduced. The default is 1, the channel axis of (N, C, ...) layouts.
	// Axis 0 is the batch axis and is not normalizable.
	Axis int

	// Momentum weights the moving statistics update:
	// moving = momentum*moving + (1-momentum)*batch. Zero means 0.9.
	Momentum float64

	// Epsilon is added to the variance for numerical stability. Zero
	// means 1e-3.
	Epsilon float64

	// NoCenter drops the learned offset: beta stays zero and frozen.
	NoCenter bool

	// NoScale drops the learned scale: gamma stays one and frozen.
	NoScale bool

	GammaInit Initializer // default Ones
	BetaInit  Initializer // default Zeros
	MeanInit  Initializer // default Zeros, moving mean
	VarInit   Initializer // default Ones, moving variance

	// InChannels fixes the channel count up front instead of deferring
	// to the first input.
	InChannels tensor.Dim

	Name   string
	Params *ParameterDict
}

// BatchNorm normalizes activations per channel: subtract the mean, divide
// by sqrt(variance+epsilon), then apply the learned scale and offset.
//
// In training mode the statistics come from the current batch and the
// moving statistics are updated in place; in inference mode the moving
// statistics are used. The moving statistics are parameters of the layer
// but always frozen: optimizers never touch them, the forward pass itself
// maintains them.
type BatchNorm struct {
	HybridBase
	axis     int
	momentum float64
	epsilon  float64

	gamma   *Parameter
	beta    *Parameter
	movMean *Parameter
	movVar  *Parameter
}

// NewBatchNorm creates a batch normalization layer. It panics on a
// negative axis, momentum outside [0, 1), or negative epsilon.
func NewBatchNorm(opts ...BatchNormOpts) *BatchNorm {
	var o BatchNormOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Axis < 0 {
		panic(fmt.Sprintf("nn: batchnorm axis must be non-negative, got %d", o.Axis))
	}
	if o.Axis == 0 {
		o.Axis = 1
	}
	if o.Momentum < 0 || o.Momentum >= 1 {
		panic(fmt.Sprintf("nn: batchnorm momentum must be in [0, 1), got %v", o.Momentum))
	}
	if o.Momentum == 0 {
		o.Momentum = 0.9
	}
	if o.Epsilon < 0 {
		panic(fmt.Sprintf("nn: batchnorm epsilon must be non-negative, got %v", o.Epsilon))
	}
	if o.Epsilon == 0 {
		o.Epsilon = 1e-3
	}

	b := &BatchNorm{axis: o.Axis, momentum: o.Momentum, epsilon: o.Epsilon}
	b.InitHybrid(b, o.Name, "batchnorm", o.Params)

	channels := tensor.PartialShape{o.InChannels}
	gammaGrad, betaGrad := Trainable, Trainable
	if o.NoScale {
		gammaGrad = Frozen
	}
	if o.NoCenter {
		betaGrad = Frozen
	}
	b.gamma = b.params.MustGet("gamma", channels,
		ParameterOpts{Init: initOr(o.GammaInit, Ones{}), Grad: gammaGrad})
	b.beta = b.params.MustGet("beta", channels,
		ParameterOpts{Init: initOr(o.BetaInit, Zeros{}), Grad: betaGrad})
	b.movMean = b.params.MustGet("running_mean", channels,
		ParameterOpts{Init: initOr(o.MeanInit, Zeros{}), Grad: Frozen})
	b.movVar = b.params.MustGet("running_var", channels,
		ParameterOpts{Init: initOr(o.VarInit, Ones{}), Grad: Frozen})
	return b
}

// initOr returns init, or fallback when nil.
func initOr(init, fallback Initializer) Initializer {
	if init == nil {
		return fallback
	}
	return init
}

// Gamma returns the learned scale parameter.
func (b *BatchNorm) Gamma() *Parameter { return b.gamma }

// Beta returns the learned offset parameter.
func (b *BatchNorm) Beta() *Parameter { return b.beta }

// RunningMean returns the frozen moving mean.
func (b *BatchNorm) RunningMean() *Parameter { return b.movMean }

// RunningVar returns the frozen moving variance.
func (b *BatchNorm) RunningVar() *Parameter { return b.movVar }

// InferShapes resolves the channel count from the input dimension along
// the normalization axis.
func (b *BatchNorm) InferShapes(in tensor.Shape) error {
	if b.axis >= len(in) {
		return fmt.Errorf("%w: axis %d out of range for rank-%d input %v",
			ErrShapeInference, b.axis, len(in), in)
	}
	channels := tensor.PartialShape{tensor.D(in[b.axis])}
	for _, p := range []*Parameter{b.gamma, b.beta, b.movMean, b.movVar} {
		if err := p.Resolve(channels); err != nil {
			return err
		}
	}
	return nil
}

// HybridForward normalizes x.
func (b *BatchNorm) HybridForward(f ops.Ops, x ops.Value, params map[string]ops.Value) (ops.Value, error) {
	return f.BatchNorm(x, params["gamma"], params["beta"],
		params["running_mean"], params["running_var"],
		b.axis, b.momentum, b.epsilon)
}

// String returns "BatchNorm(axis=1, eps=0.001, momentum=0.9,
// in_channels=4)"; in_channels is omitted while still deferred.
func (b *BatchNorm) String() string {
	s := fmt.Sprintf("BatchNorm(axis=%d, eps=%v, momentum=%v", b.axis, b.epsilon, b.momentum)
	if c := b.gamma.Shape()[0]; c.Resolved() {
		s += fmt.Sprintf(", in_channels=%d", c.Value())
	}
	return s + ")"
}
