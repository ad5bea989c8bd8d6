package eager

import (
	"fmt"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/parallel"
	"github.com/weft-ml/weft/internal/tensor"
)

// elemCfg chunks element-wise loops across workers. Small arrays run
// sequentially.
var elemCfg = parallel.DefaultConfig()

// Add performs element-wise addition with NumPy-style broadcasting.
func (n *Namespace) Add(x, y ops.Value) (ops.Value, error) {
	return n.binary("add", x, y, func(a, b float64) float64 { return a + b })
}

// Sub performs element-wise subtraction with broadcasting.
func (n *Namespace) Sub(x, y ops.Value) (ops.Value, error) {
	return n.binary("sub", x, y, func(a, b float64) float64 { return a - b })
}

// Mul performs element-wise multiplication with broadcasting.
func (n *Namespace) Mul(x, y ops.Value) (ops.Value, error) {
	return n.binary("mul", x, y, func(a, b float64) float64 { return a * b })
}

// Div performs element-wise division with broadcasting.
// Float types only: integer division by zero is not defined here.
func (n *Namespace) Div(x, y ops.Value) (ops.Value, error) {
	if err := ops.FloatDType(x.DType()); err != nil {
		return nil, fmt.Errorf("div: %w", err)
	}
	return n.binary("div", x, y, func(a, b float64) float64 { return a / b })
}

// AddScalar adds a scalar to every element.
func (n *Namespace) AddScalar(x ops.Value, c float64) (ops.Value, error) {
	return n.unary("add_scalar", x, func(v float64) float64 { return v + c })
}

// MulScalar multiplies every element by a scalar.
func (n *Namespace) MulScalar(x ops.Value, c float64) (ops.Value, error) {
	return n.unary("mul_scalar", x, func(v float64) float64 { return v * c })
}

// binary applies f element-wise over two broadcast-compatible operands.
func (n *Namespace) binary(op string, x, y ops.Value, f func(a, b float64) float64) (ops.Value, error) {
	ax, err := n.arr(x, op)
	if err != nil {
		return nil, err
	}
	ay, err := n.arr(y, op)
	if err != nil {
		return nil, err
	}
	dt, err := ops.ElemwiseDType(ax.DType(), ay.DType())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	outShape, needsBroadcast, err := tensor.BroadcastShapes(ax.Shape(), ay.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, tensor.ErrShapeConflict, err)
	}
	out := tensor.Zeros(outShape, dt)

	if !needsBroadcast {
		// Fast path: aligned buffers
		switch dt {
		case tensor.Float32:
			xs, ys, os := ax.AsFloat32(), ay.AsFloat32(), out.AsFloat32()
			parallel.Range(len(os), func(start, end int) {
				for i := start; i < end; i++ {
					os[i] = float32(f(float64(xs[i]), float64(ys[i])))
				}
			}, elemCfg)
		case tensor.Float64:
			xs, ys, os := ax.AsFloat64(), ay.AsFloat64(), out.AsFloat64()
			parallel.Range(len(os), func(start, end int) {
				for i := start; i < end; i++ {
					os[i] = f(xs[i], ys[i])
				}
			}, elemCfg)
		default:
			parallel.Range(out.NumElements(), func(start, end int) {
				for i := start; i < end; i++ {
					out.SetFloat(i, f(ax.Float(i), ay.Float(i)))
				}
			}, elemCfg)
		}
		return value{arr: out}, nil
	}

	// Slow path: strided broadcast indexing
	outStrides := outShape.ComputeStrides()
	xIdx := broadcastIndexer(outShape, outStrides, ax.Shape())
	yIdx := broadcastIndexer(outShape, outStrides, ay.Shape())
	parallel.Range(out.NumElements(), func(start, end int) {
		for i := start; i < end; i++ {
			out.SetFloat(i, f(ax.Float(xIdx(i)), ay.Float(yIdx(i))))
		}
	}, elemCfg)
	return value{arr: out}, nil
}

// unary applies f element-wise. Float types only.
func (n *Namespace) unary(op string, x ops.Value, f func(v float64) float64) (ops.Value, error) {
	ax, err := n.arr(x, op)
	if err != nil {
		return nil, err
	}
	if err := ops.FloatDType(ax.DType()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := tensor.Zeros(ax.Shape(), ax.DType())
	switch ax.DType() {
	case tensor.Float32:
		xs, os := ax.AsFloat32(), out.AsFloat32()
		parallel.Range(len(os), func(start, end int) {
			for i := start; i < end; i++ {
				os[i] = float32(f(float64(xs[i])))
			}
		}, elemCfg)
	case tensor.Float64:
		xs, os := ax.AsFloat64(), out.AsFloat64()
		parallel.Range(len(os), func(start, end int) {
			for i := start; i < end; i++ {
				os[i] = f(xs[i])
			}
		}, elemCfg)
	default:
		parallel.Range(out.NumElements(), func(start, end int) {
			for i := start; i < end; i++ {
				out.SetFloat(i, f(ax.Float(i)))
			}
		}, elemCfg)
	}
	return value{arr: out}, nil
}

// broadcastIndexer maps a flat index in the output to the flat index in an
// operand that may have fewer or size-1 dimensions.
func broadcastIndexer(outShape tensor.Shape, outStrides []int, inShape tensor.Shape) func(int) int {
	if outShape.Equal(inShape) {
		return func(i int) int { return i }
	}
	inStrides := inShape.ComputeStrides()
	offset := len(outShape) - len(inShape)
	return func(flat int) int {
		idx := 0
		for d := range outShape {
			coord := (flat / outStrides[d]) % outShape[d]
			in := d - offset
			if in < 0 {
				continue
			}
			if inShape[in] == 1 {
				continue
			}
			idx += coord * inStrides[in]
		}
		return idx
	}
}
