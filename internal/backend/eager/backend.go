// Package eager implements the operator namespace with immediate CPU
// computation. It is the reference namespace: recorded programs are
// replayed against it, so its semantics define the library's semantics.
package eager

import (
	"fmt"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// Backend creates eager namespaces.
type Backend struct{}

// New creates a new eager backend.
func New() *Backend {
	return &Backend{}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "eager"
}

// Namespace binds a namespace to the given execution environment.
func (b *Backend) Namespace(env *ops.Env) ops.Ops {
	return &Namespace{env: env}
}

// Namespace computes every operator immediately on concrete arrays.
type Namespace struct {
	env *ops.Env
}

// value wraps a concrete array as an ops.Value.
type value struct {
	arr *tensor.Array
}

// Shape returns the array's shape.
func (v value) Shape() tensor.Shape {
	return v.arr.Shape()
}

// DType returns the array's data type.
func (v value) DType() tensor.DataType {
	return v.arr.DType()
}

// Env returns the bound execution environment.
func (n *Namespace) Env() *ops.Env {
	return n.env
}

// Constant lifts a concrete array into the namespace.
func (n *Namespace) Constant(a *tensor.Array) ops.Value {
	return value{arr: a}
}

// Bind reads a storage slot and lifts its current contents.
func (n *Namespace) Bind(s ops.Slot) (ops.Value, error) {
	arr, err := s.SlotValue()
	if err != nil {
		return nil, fmt.Errorf("bind %q: %w", s.SlotName(), err)
	}
	return value{arr: arr}, nil
}

// Realize returns the concrete array behind a value.
func (n *Namespace) Realize(v ops.Value) (*tensor.Array, error) {
	ev, ok := v.(value)
	if !ok {
		return nil, fmt.Errorf("realize: value of type %T was not produced by the eager namespace", v)
	}
	return ev.arr, nil
}

// arr unwraps an operand, reporting the operator on failure.
func (n *Namespace) arr(v ops.Value, op string) (*tensor.Array, error) {
	ev, ok := v.(value)
	if !ok {
		return nil, fmt.Errorf("%s: value of type %T was not produced by the eager namespace", op, v)
	}
	return ev.arr, nil
}
