package nn

import (
	"fmt"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// DenseOpts configures NewDense. The zero value means: bias, no
// activation, input width inferred from the first input, uniform weight
// init, zero bias init, float32.
type DenseOpts struct {
	// Activation appends the named activation after the projection.
	Activation ops.ActFunc

	// NoBias drops the additive bias term.
	NoBias bool

	// InUnits fixes the input width up front. Left unresolved, the
	// weight stays deferred until the first input fixes it.
	InUnits tensor.Dim

	WeightInit Initializer
	BiasInit   Initializer
	DType      tensor.DataType
	Name       string

	// Params shares parameters with blocks constructed over the same
	// dict.
	Params *ParameterDict
}

// Dense is a fully connected layer: out = act(x · weightᵀ + bias).
//
// The input must be rank-2 (batch, features). The weight has shape
// (units, inUnits); when InUnits is left unresolved the weight is
// materialized on the first forward, and later inputs with a different
// feature width fail with tensor.ErrShapeConflict.
//
// Example:
//
//	layer := nn.NewDense(32, nn.DenseOpts{Activation: ops.ReLU})
//	out, err := layer.Forward(nil, x) // x: (batch, features)
type Dense struct {
	HybridBase
	units  int
	act    *Activation
	weight *Parameter
	bias   *Parameter
}

// NewDense creates a fully connected layer with the given output width.
// It panics when units is not positive or an option value is invalid.
func NewDense(units int, opts ...DenseOpts) *Dense {
	if units <= 0 {
		panic(fmt.Sprintf("nn: dense units must be positive, got %d", units))
	}
	var o DenseOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	d := &Dense{units: units}
	d.InitHybrid(d, o.Name, "dense", o.Params)

	wInit := o.WeightInit
	if wInit == nil {
		wInit = Uniform{}
	}
	d.weight = d.params.MustGet("weight",
		tensor.PartialShape{tensor.D(units), o.InUnits},
		ParameterOpts{DType: o.DType, Init: wInit})
	if !o.NoBias {
		bInit := o.BiasInit
		if bInit == nil {
			bInit = Zeros{}
		}
		d.bias = d.params.MustGet("bias",
			tensor.PartialShape{tensor.D(units)},
			ParameterOpts{DType: o.DType, Init: bInit})
	}
	if o.Activation != "" {
		d.act = NewActivation(o.Activation)
		d.RegisterChild(d.act)
	}
	return d
}

// Units returns the output width.
func (d *Dense) Units() int {
	return d.units
}

// Weight returns the weight parameter, deferred until resolution.
func (d *Dense) Weight() *Parameter {
	return d.weight
}

// Bias returns the bias parameter, nil when constructed with NoBias.
func (d *Dense) Bias() *Parameter {
	return d.bias
}

// InferShapes resolves the weight's input width from the last axis of a
// rank-2 input.
func (d *Dense) InferShapes(in tensor.Shape) error {
	if len(in) != 2 {
		return fmt.Errorf("%w: need a rank-2 (batch, features) input, got shape %v",
			ErrShapeInference, in)
	}
	if in[1] <= 0 {
		return fmt.Errorf("%w: input shape %v has no feature width",
			ErrShapeInference, in)
	}
	return d.weight.Resolve(tensor.PartialShape{tensor.D(d.units), tensor.D(in[1])})
}

// HybridForward projects x and applies the optional activation.
func (d *Dense) HybridForward(f ops.Ops, x ops.Value, params map[string]ops.Value) (ops.Value, error) {
	out, err := f.FullyConnected(x, params["weight"], params["bias"])
	if err != nil {
		return nil, err
	}
	if d.act != nil {
		return d.act.Apply(f, out)
	}
	return out, nil
}

// String returns "Dense(7 -> 32, Activation(relu))", or "Dense(32,
// linear)" while the input width is still deferred.
func (d *Dense) String() string {
	act := "linear"
	if d.act != nil {
		act = d.act.String()
	}
	in := d.weight.Shape()[1]
	if in.Resolved() {
		return fmt.Sprintf("Dense(%d -> %d, %s)", in.Value(), d.units, act)
	}
	return fmt.Sprintf("Dense(%d, %s)", d.units, act)
}
