package nn

import (
	"fmt"

	"github.com/weft-ml/weft/internal/tensor"
)

// GradMode tells the external gradient engine whether a parameter
// receives updates.
type GradMode int

const (
	// Trainable parameters are exposed to optimizers.
	Trainable GradMode = iota

	// Frozen parameters are skipped by optimizers. Batch-norm moving
	// statistics are always frozen: they are updated by the forward pass
	// itself, never by gradients.
	Frozen
)

// String returns "trainable" or "frozen".
func (g GradMode) String() string {
	if g == Frozen {
		return "frozen"
	}
	return "trainable"
}

// Parameter is a named storage cell for layer state: weights, biases,
// moving statistics.
//
// A parameter is declared with a possibly partial shape and materialized
// lazily: dimensions left unresolved at construction are filled in by
// shape inference when the first input is seen. Until materialization the
// data cannot be read.
//
// Parameters implement ops.Slot, so captured programs store the parameter
// identity rather than its value. Updating the data through SetData is
// therefore visible to every cached program without re-tracing.
//
// Example:
//
//	w := nn.NewParameter("weight", tensor.PartialShape{tensor.D(32), tensor.Unresolved})
//	_ = w.Resolve(tensor.PartialShape{tensor.Unresolved, tensor.D(7)})
//	_ = w.Materialize()
//	data, _ := w.Data() // (32, 7) array
type Parameter struct {
	name       string
	shape      tensor.PartialShape
	dtype      tensor.DataType
	init       Initializer
	grad       GradMode
	deferrable bool
	data       *tensor.Array
}

// ParameterOpts configures NewParameter. The zero value selects Float32,
// uniform initialization, trainable, and deferrable.
type ParameterOpts struct {
	DType tensor.DataType
	Init  Initializer
	Grad  GradMode

	// NoDeferred makes Materialize fail instead of waiting when the
	// shape is unresolved. Layers whose shapes never depend on the input
	// set it so misconfiguration surfaces early.
	NoDeferred bool
}

// NewParameter creates a parameter with the given short name and declared
// shape. It panics on an empty name, a programmer error.
func NewParameter(name string, shape tensor.PartialShape, opts ...ParameterOpts) *Parameter {
	if name == "" {
		panic("nn: parameter name must not be empty")
	}
	var o ParameterOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	init := o.Init
	if init == nil {
		init = Uniform{}
	}
	return &Parameter{
		name:       name,
		shape:      shape.Clone(),
		dtype:      o.DType,
		init:       init,
		grad:       o.Grad,
		deferrable: !o.NoDeferred,
	}
}

// Name returns the short (unqualified) name.
func (p *Parameter) Name() string {
	return p.name
}

// Shape returns the declared shape, partial until resolution completes.
func (p *Parameter) Shape() tensor.PartialShape {
	return p.shape.Clone()
}

// DType returns the parameter's data type.
func (p *Parameter) DType() tensor.DataType {
	return p.dtype
}

// Grad reports whether the parameter is trainable or frozen.
func (p *Parameter) Grad() GradMode {
	return p.grad
}

// Resolved reports whether every dimension is known.
func (p *Parameter) Resolved() bool {
	return p.shape.Resolved()
}

// Initialized reports whether the parameter holds data.
func (p *Parameter) Initialized() bool {
	return p.data != nil
}

// Resolve merges an observed shape into the declaration. Refinement is
// monotone: resolving a dimension twice to the same value is a no-op,
// while a contradiction fails with tensor.ErrShapeConflict. After
// materialization the shape is fully concrete, so any mismatching
// observation fails the same way.
func (p *Parameter) Resolve(observed tensor.PartialShape) error {
	merged, err := p.shape.Merge(observed)
	if err != nil {
		return fmt.Errorf("parameter %q: declared %s, observed %s: %w", p.name, p.shape, observed, err)
	}
	p.shape = merged
	return nil
}

// Materialize allocates and initializes the data once the shape is fully
// resolved. It is idempotent: a materialized parameter is left untouched.
// An unresolved deferrable parameter quietly keeps waiting for shape
// inference; an unresolved non-deferrable one fails with ErrNotDeferrable.
func (p *Parameter) Materialize() error {
	if p.data != nil {
		return nil
	}
	if !p.shape.Resolved() {
		if p.deferrable {
			return nil
		}
		return fmt.Errorf("parameter %q with shape %s: %w", p.name, p.shape, ErrNotDeferrable)
	}
	concrete, err := p.shape.Concrete()
	if err != nil {
		return fmt.Errorf("parameter %q: %w", p.name, err)
	}
	arr, err := tensor.NewArray(concrete, p.dtype)
	if err != nil {
		return fmt.Errorf("parameter %q: %w", p.name, err)
	}
	if err := p.init.Fill(arr); err != nil {
		return fmt.Errorf("parameter %q: %w", p.name, err)
	}
	p.data = arr
	return nil
}

// Data returns the live parameter array. Before materialization it fails
// with ErrUninitialized; deferred parameters cannot be read until an
// input has fixed their shape.
func (p *Parameter) Data() (*tensor.Array, error) {
	if p.data == nil {
		return nil, fmt.Errorf("parameter %q (shape %s): %w", p.name, p.shape, ErrUninitialized)
	}
	return p.data, nil
}

// SetData replaces the parameter value, typically from an external
// trainer or a checkpoint loader. The replacement must match the declared
// shape and data type. Cached programs observe the new value on their
// next replay because they hold the parameter, not the array.
func (p *Parameter) SetData(a *tensor.Array) error {
	if a.DType() != p.dtype {
		return fmt.Errorf("parameter %q: cannot set %s data on %s parameter", p.name, a.DType(), p.dtype)
	}
	merged, err := p.shape.Merge(tensor.FromShape(a.Shape()))
	if err != nil {
		return fmt.Errorf("parameter %q: declared %s, data %v: %w", p.name, p.shape, a.Shape(), err)
	}
	p.shape = merged
	p.data = a
	return nil
}

// SlotName implements ops.Slot.
func (p *Parameter) SlotName() string {
	return p.name
}

// SlotValue implements ops.Slot.
func (p *Parameter) SlotValue() (*tensor.Array, error) {
	return p.Data()
}

// String returns a short description like
// "Parameter weight (shape=(32, ?), dtype=float32)".
func (p *Parameter) String() string {
	return fmt.Sprintf("Parameter %s (shape=%s, dtype=%s)", p.name, p.shape, p.dtype)
}
