package nn

import (
	"fmt"

	"github.com/weft-ml/weft/internal/ops"
)

// ActivationOpts configures NewActivation and NewLeakyReLU.
type ActivationOpts struct {
	Name string
}

// Activation applies a named element-wise activation function. It has no
// parameters and preserves the input shape. Its alias is the function
// name, so auto-naming yields "relu0", "tanh0" and so on.
type Activation struct {
	HybridBase
	fn ops.ActFunc
}

// NewActivation creates an activation layer. It panics on an unknown
// function name.
func NewActivation(fn ops.ActFunc, opts ...ActivationOpts) *Activation {
	if !fn.Valid() {
		panic(fmt.Sprintf("nn: unknown activation function %q", fn))
	}
	var o ActivationOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	a := &Activation{fn: fn}
	a.InitHybrid(a, o.Name, string(fn))
	return a
}

// Func returns the activation function name.
func (a *Activation) Func() ops.ActFunc {
	return a.fn
}

// HybridForward applies the activation.
func (a *Activation) HybridForward(f ops.Ops, x ops.Value, _ map[string]ops.Value) (ops.Value, error) {
	return f.Activation(x, a.fn)
}

// String returns "Activation(relu)".
func (a *Activation) String() string {
	return fmt.Sprintf("Activation(%s)", a.fn)
}

// LeakyReLU applies x if x >= 0 and alpha*x otherwise, keeping a small
// gradient for negative inputs.
type LeakyReLU struct {
	HybridBase
	alpha float64
}

// NewLeakyReLU creates the leaky rectifier with the given negative slope.
// It panics when alpha is negative.
func NewLeakyReLU(alpha float64, opts ...ActivationOpts) *LeakyReLU {
	if alpha < 0 {
		panic(fmt.Sprintf("nn: leaky relu slope must be non-negative, got %v", alpha))
	}
	var o ActivationOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	l := &LeakyReLU{alpha: alpha}
	l.InitHybrid(l, o.Name, "leakyrelu")
	return l
}

// Alpha returns the negative slope.
func (l *LeakyReLU) Alpha() float64 {
	return l.alpha
}

// HybridForward applies the leaky rectifier.
func (l *LeakyReLU) HybridForward(f ops.Ops, x ops.Value, _ map[string]ops.Value) (ops.Value, error) {
	return f.LeakyReLU(x, l.alpha)
}

// String returns "LeakyReLU(0.01)".
func (l *LeakyReLU) String() string {
	return fmt.Sprintf("LeakyReLU(%v)", l.alpha)
}
