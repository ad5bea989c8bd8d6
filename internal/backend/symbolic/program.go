package symbolic

import (
	"fmt"
	"sync/atomic"

	"github.com/weft-ml/weft/internal/ops"
)

// Program is a frozen recording of operator applications. It is immutable
// after Compile and safe for concurrent replay.
type Program struct {
	nodes   []node
	ins     []int
	out     int
	replays atomic.Int64
}

// Compile freezes the recorded calls that produce out into a Program.
// The tracer should be discarded afterwards.
func (t *Tracer) Compile(out ops.Value) (*Program, error) {
	id, err := t.operand(out, "compile")
	if err != nil {
		return nil, err
	}
	return &Program{
		nodes: append([]node(nil), t.nodes...),
		ins:   append([]int(nil), t.ins...),
		out:   id,
	}, nil
}

// NumNodes returns the number of recorded operators, inclusive of inputs,
// constants and slot references.
func (p *Program) NumNodes() int {
	return len(p.nodes)
}

// NumInputs returns the number of placeholders the program expects.
func (p *Program) NumInputs() int {
	return len(p.ins)
}

// Replays returns how many times the program has been run.
func (p *Program) Replays() int64 {
	return p.replays.Load()
}

// Run replays the program against the given namespace. Slot references
// are re-bound through f, so the current slot contents flow in, and
// mode-dependent operators consult f's environment, so one program serves
// training and inference alike.
func (p *Program) Run(f ops.Ops, inputs ...ops.Value) (ops.Value, error) {
	if len(inputs) != len(p.ins) {
		return nil, fmt.Errorf("program expects %d inputs, got %d", len(p.ins), len(inputs))
	}
	p.replays.Add(1)

	vals := make([]ops.Value, len(p.nodes))
	next := 0
	for id := range p.nodes {
		n := &p.nodes[id]
		v, err := p.apply(f, n, vals, inputs, &next)
		if err != nil {
			return nil, err
		}
		vals[id] = v
	}
	return vals[p.out], nil
}

// apply executes one node against the namespace.
func (p *Program) apply(f ops.Ops, n *node, vals []ops.Value, inputs []ops.Value, next *int) (ops.Value, error) {
	switch n.kind {
	case kindPlaceholder:
		in := inputs[*next]
		*next++
		if !in.Shape().Equal(n.shape) || in.DType() != n.dtype {
			return nil, fmt.Errorf("program input %d has shape %s dtype %s, recorded %s %s",
				*next-1, in.Shape(), in.DType(), n.shape, n.dtype)
		}
		return in, nil
	case kindConstant:
		return f.Constant(n.arr), nil
	case kindSlot:
		return f.Bind(n.slot)
	case kindAdd:
		return f.Add(vals[n.args[0]], vals[n.args[1]])
	case kindSub:
		return f.Sub(vals[n.args[0]], vals[n.args[1]])
	case kindMul:
		return f.Mul(vals[n.args[0]], vals[n.args[1]])
	case kindDiv:
		return f.Div(vals[n.args[0]], vals[n.args[1]])
	case kindAddScalar:
		return f.AddScalar(vals[n.args[0]], n.scalar)
	case kindMulScalar:
		return f.MulScalar(vals[n.args[0]], n.scalar)
	case kindMatMul:
		return f.MatMul(vals[n.args[0]], vals[n.args[1]])
	case kindFullyConnected:
		var bias ops.Value
		if n.hasBias {
			bias = vals[n.args[2]]
		}
		return f.FullyConnected(vals[n.args[0]], vals[n.args[1]], bias)
	case kindActivation:
		return f.Activation(vals[n.args[0]], n.fn)
	case kindLeakyReLU:
		return f.LeakyReLU(vals[n.args[0]], n.scalar)
	case kindDropout:
		return f.Dropout(vals[n.args[0]], n.scalar)
	case kindBatchNorm:
		return f.BatchNorm(vals[n.args[0]], vals[n.args[1]], vals[n.args[2]], vals[n.args[3]], vals[n.args[4]],
			n.axis, n.momentum, n.epsilon)
	case kindEmbedding:
		return f.Embedding(vals[n.args[0]], vals[n.args[1]])
	case kindReshape:
		return f.Reshape(vals[n.args[0]], n.dims)
	case kindCast:
		return f.Cast(vals[n.args[0]], n.castTo)
	default:
		return nil, fmt.Errorf("program contains unknown operator kind %d", n.kind)
	}
}
