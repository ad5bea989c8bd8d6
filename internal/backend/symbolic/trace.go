// Package symbolic implements the operator namespace as a recorder: calls
// are captured into a Program that can be replayed against any other
// namespace. Parameters enter programs as slot references, never as
// values, so replays observe parameter updates without re-recording.
package symbolic

import (
	"fmt"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// kind identifies a recorded operator.
type kind int

const (
	kindConstant kind = iota
	kindPlaceholder
	kindSlot
	kindAdd
	kindSub
	kindMul
	kindDiv
	kindAddScalar
	kindMulScalar
	kindMatMul
	kindFullyConnected
	kindActivation
	kindLeakyReLU
	kindDropout
	kindBatchNorm
	kindEmbedding
	kindReshape
	kindCast
)

// node is one recorded operator application. Result metadata is inferred
// at record time with the same helpers the eager namespace uses, so a
// program's shapes can never drift from eager semantics.
type node struct {
	kind  kind
	args  []int
	shape tensor.Shape
	dtype tensor.DataType

	// Static attributes, populated per kind.
	arr      *tensor.Array // kindConstant only: constants are baked in
	slot     ops.Slot      // kindSlot only: identity, re-read every replay
	fn       ops.ActFunc
	scalar   float64 // AddScalar/MulScalar operand, LeakyReLU alpha, Dropout rate
	axis     int
	momentum float64
	epsilon  float64
	dims     []int
	castTo   tensor.DataType
	hasBias  bool
}

// Tracer records operator calls. It implements ops.Ops, so any code
// written against the namespace can be captured unchanged.
type Tracer struct {
	env   *ops.Env
	nodes []node
	ins   []int
}

// NewTracer creates a tracer bound to the given environment.
func NewTracer(env *ops.Env) *Tracer {
	return &Tracer{env: env}
}

// symValue is a handle to a recorded node.
type symValue struct {
	tr *Tracer
	id int
}

// Shape returns the node's inferred shape.
func (v symValue) Shape() tensor.Shape {
	return v.tr.nodes[v.id].shape
}

// DType returns the node's inferred data type.
func (v symValue) DType() tensor.DataType {
	return v.tr.nodes[v.id].dtype
}

// Env returns the bound execution environment.
func (t *Tracer) Env() *ops.Env {
	return t.env
}

// Placeholder introduces a program input with fixed shape and dtype.
func (t *Tracer) Placeholder(shape tensor.Shape, dtype tensor.DataType) ops.Value {
	id := t.record(node{kind: kindPlaceholder, shape: shape.Clone(), dtype: dtype})
	t.ins = append(t.ins, id)
	return symValue{tr: t, id: id}
}

// Constant bakes a concrete array into the program.
func (t *Tracer) Constant(a *tensor.Array) ops.Value {
	id := t.record(node{kind: kindConstant, arr: a, shape: a.Shape(), dtype: a.DType()})
	return symValue{tr: t, id: id}
}

// Bind records a slot reference. Only metadata is read here; the contents
// are read again by every replay.
func (t *Tracer) Bind(s ops.Slot) (ops.Value, error) {
	arr, err := s.SlotValue()
	if err != nil {
		return nil, fmt.Errorf("bind %q: %w", s.SlotName(), err)
	}
	id := t.record(node{kind: kindSlot, slot: s, shape: arr.Shape(), dtype: arr.DType()})
	return symValue{tr: t, id: id}, nil
}

// Realize fails: a traced value has no data. Layer code that branches on
// values gets this error instead of recording a wrong program.
func (t *Tracer) Realize(v ops.Value) (*tensor.Array, error) {
	return nil, fmt.Errorf("realize: %w", ops.ErrTrace)
}

// record appends a node and returns its id.
func (t *Tracer) record(n node) int {
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

// operand unwraps a value produced by this tracer.
func (t *Tracer) operand(v ops.Value, op string) (int, error) {
	sv, ok := v.(symValue)
	if !ok {
		return 0, fmt.Errorf("%s: value of type %T was not produced by this trace", op, v)
	}
	if sv.tr != t {
		return 0, fmt.Errorf("%s: value belongs to a different trace", op)
	}
	return sv.id, nil
}

// binary records a broadcasting element-wise operator.
func (t *Tracer) binary(k kind, op string, x, y ops.Value) (ops.Value, error) {
	xi, err := t.operand(x, op)
	if err != nil {
		return nil, err
	}
	yi, err := t.operand(y, op)
	if err != nil {
		return nil, err
	}
	dt, err := ops.ElemwiseDType(x.DType(), y.DType())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	shape, err := ops.ElemwiseShape(x.Shape(), y.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	id := t.record(node{kind: k, args: []int{xi, yi}, shape: shape, dtype: dt})
	return symValue{tr: t, id: id}, nil
}

// Add records element-wise addition.
func (t *Tracer) Add(x, y ops.Value) (ops.Value, error) {
	return t.binary(kindAdd, "add", x, y)
}

// Sub records element-wise subtraction.
func (t *Tracer) Sub(x, y ops.Value) (ops.Value, error) {
	return t.binary(kindSub, "sub", x, y)
}

// Mul records element-wise multiplication.
func (t *Tracer) Mul(x, y ops.Value) (ops.Value, error) {
	return t.binary(kindMul, "mul", x, y)
}

// Div records element-wise division.
func (t *Tracer) Div(x, y ops.Value) (ops.Value, error) {
	if err := ops.FloatDType(x.DType()); err != nil {
		return nil, fmt.Errorf("div: %w", err)
	}
	return t.binary(kindDiv, "div", x, y)
}

// scalarOp records a scalar-operand element-wise operator.
func (t *Tracer) scalarOp(k kind, op string, x ops.Value, c float64) (ops.Value, error) {
	xi, err := t.operand(x, op)
	if err != nil {
		return nil, err
	}
	if err := ops.FloatDType(x.DType()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	id := t.record(node{kind: k, args: []int{xi}, scalar: c, shape: x.Shape().Clone(), dtype: x.DType()})
	return symValue{tr: t, id: id}, nil
}

// AddScalar records scalar addition.
func (t *Tracer) AddScalar(x ops.Value, c float64) (ops.Value, error) {
	return t.scalarOp(kindAddScalar, "add_scalar", x, c)
}

// MulScalar records scalar multiplication.
func (t *Tracer) MulScalar(x ops.Value, c float64) (ops.Value, error) {
	return t.scalarOp(kindMulScalar, "mul_scalar", x, c)
}

// MatMul records a rank-2 matrix multiplication.
func (t *Tracer) MatMul(x, y ops.Value) (ops.Value, error) {
	xi, err := t.operand(x, "matmul")
	if err != nil {
		return nil, err
	}
	yi, err := t.operand(y, "matmul")
	if err != nil {
		return nil, err
	}
	dt, err := ops.ElemwiseDType(x.DType(), y.DType())
	if err != nil {
		return nil, fmt.Errorf("matmul: %w", err)
	}
	shape, err := ops.MatMulShape(x.Shape(), y.Shape())
	if err != nil {
		return nil, fmt.Errorf("matmul: %w", err)
	}
	id := t.record(node{kind: kindMatMul, args: []int{xi, yi}, shape: shape, dtype: dt})
	return symValue{tr: t, id: id}, nil
}

// FullyConnected records a dense projection.
func (t *Tracer) FullyConnected(x, weight, bias ops.Value) (ops.Value, error) {
	xi, err := t.operand(x, "fully_connected")
	if err != nil {
		return nil, err
	}
	wi, err := t.operand(weight, "fully_connected")
	if err != nil {
		return nil, err
	}
	args := []int{xi, wi}
	var biasShape tensor.Shape
	if bias != nil {
		bi, err := t.operand(bias, "fully_connected")
		if err != nil {
			return nil, err
		}
		args = append(args, bi)
		biasShape = bias.Shape()
	}
	dt, err := ops.ElemwiseDType(x.DType(), weight.DType())
	if err != nil {
		return nil, fmt.Errorf("fully_connected: %w", err)
	}
	if bias != nil {
		if _, err := ops.ElemwiseDType(dt, bias.DType()); err != nil {
			return nil, fmt.Errorf("fully_connected: %w", err)
		}
	}
	shape, err := ops.FullyConnectedShape(x.Shape(), weight.Shape(), biasShape)
	if err != nil {
		return nil, fmt.Errorf("fully_connected: %w", err)
	}
	id := t.record(node{kind: kindFullyConnected, args: args, hasBias: bias != nil, shape: shape, dtype: dt})
	return symValue{tr: t, id: id}, nil
}

// Activation records a named element-wise activation.
func (t *Tracer) Activation(x ops.Value, fn ops.ActFunc) (ops.Value, error) {
	xi, err := t.operand(x, "activation")
	if err != nil {
		return nil, err
	}
	if !fn.Valid() {
		return nil, fmt.Errorf("activation: unknown function %q", fn)
	}
	if err := ops.FloatDType(x.DType()); err != nil {
		return nil, fmt.Errorf("activation: %w", err)
	}
	id := t.record(node{kind: kindActivation, args: []int{xi}, fn: fn, shape: x.Shape().Clone(), dtype: x.DType()})
	return symValue{tr: t, id: id}, nil
}

// LeakyReLU records the negative-slope activation.
func (t *Tracer) LeakyReLU(x ops.Value, alpha float64) (ops.Value, error) {
	return t.scalarOp(kindLeakyReLU, "leaky_relu", x, alpha)
}

// Dropout records a dropout application. Whether it masks or passes
// through is decided by the replaying namespace's environment.
func (t *Tracer) Dropout(x ops.Value, rate float64) (ops.Value, error) {
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("dropout: rate %v outside [0, 1]", rate)
	}
	return t.scalarOp(kindDropout, "dropout", x, rate)
}

// BatchNorm records a batch normalization, parameters as slot references.
func (t *Tracer) BatchNorm(x, gamma, beta, runningMean, runningVar ops.Value, axis int, momentum, epsilon float64) (ops.Value, error) {
	ids := make([]int, 0, 5)
	for _, v := range []ops.Value{x, gamma, beta, runningMean, runningVar} {
		id, err := t.operand(v, "batchnorm")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := ops.FloatDType(x.DType()); err != nil {
		return nil, fmt.Errorf("batchnorm: %w", err)
	}
	shape, err := ops.BatchNormShape(x.Shape(), axis, gamma.Shape(), beta.Shape(), runningMean.Shape(), runningVar.Shape())
	if err != nil {
		return nil, fmt.Errorf("batchnorm: %w", err)
	}
	id := t.record(node{
		kind: kindBatchNorm, args: ids,
		axis: axis, momentum: momentum, epsilon: epsilon,
		shape: shape, dtype: x.DType(),
	})
	return symValue{tr: t, id: id}, nil
}

// Embedding records a table lookup.
func (t *Tracer) Embedding(indices, table ops.Value) (ops.Value, error) {
	ii, err := t.operand(indices, "embedding")
	if err != nil {
		return nil, err
	}
	ti, err := t.operand(table, "embedding")
	if err != nil {
		return nil, err
	}
	shape, err := ops.EmbeddingShape(indices.Shape(), indices.DType(), table.Shape())
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	id := t.record(node{kind: kindEmbedding, args: []int{ii, ti}, shape: shape, dtype: table.DType()})
	return symValue{tr: t, id: id}, nil
}

// Reshape records a shape change.
func (t *Tracer) Reshape(x ops.Value, dims []int) (ops.Value, error) {
	xi, err := t.operand(x, "reshape")
	if err != nil {
		return nil, err
	}
	shape, err := ops.ReshapeShape(x.Shape(), dims)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	id := t.record(node{kind: kindReshape, args: []int{xi}, dims: append([]int(nil), dims...), shape: shape, dtype: x.DType()})
	return symValue{tr: t, id: id}, nil
}

// Cast records a dtype conversion.
func (t *Tracer) Cast(x ops.Value, dtype tensor.DataType) (ops.Value, error) {
	xi, err := t.operand(x, "cast")
	if err != nil {
		return nil, err
	}
	if dtype == tensor.Bool || x.DType() == tensor.Bool {
		return nil, fmt.Errorf("cast: %w: cannot cast %s to %s", ops.ErrDType, x.DType(), dtype)
	}
	id := t.record(node{kind: kindCast, args: []int{xi}, castTo: dtype, shape: x.Shape().Clone(), dtype: dtype})
	return symValue{tr: t, id: id}, nil
}
