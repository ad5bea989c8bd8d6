package eager

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// MatMul performs rank-2 matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Dispatches to BLAS GEMM; float16 operands are computed in float32.
func (n *Namespace) MatMul(x, y ops.Value) (ops.Value, error) {
	ax, err := n.arr(x, "matmul")
	if err != nil {
		return nil, err
	}
	ay, err := n.arr(y, "matmul")
	if err != nil {
		return nil, err
	}
	dt, err := ops.ElemwiseDType(ax.DType(), ay.DType())
	if err != nil {
		return nil, fmt.Errorf("matmul: %w", err)
	}
	if err := ops.FloatDType(dt); err != nil {
		return nil, fmt.Errorf("matmul: %w", err)
	}
	outShape, err := ops.MatMulShape(ax.Shape(), ay.Shape())
	if err != nil {
		return nil, fmt.Errorf("matmul: %w", err)
	}
	out, err := gemm(blas.NoTrans, ax, ay, outShape)
	if err != nil {
		return nil, fmt.Errorf("matmul: %w", err)
	}
	return value{arr: out}, nil
}

// FullyConnected computes x @ weight^T (+ bias) for a rank-2 input and a
// (units, in) weight matrix.
func (n *Namespace) FullyConnected(x, weight, bias ops.Value) (ops.Value, error) {
	ax, err := n.arr(x, "fully_connected")
	if err != nil {
		return nil, err
	}
	aw, err := n.arr(weight, "fully_connected")
	if err != nil {
		return nil, err
	}
	var ab *tensor.Array
	var biasShape tensor.Shape
	if bias != nil {
		if ab, err = n.arr(bias, "fully_connected"); err != nil {
			return nil, err
		}
		biasShape = ab.Shape()
	}
	dt, err := ops.ElemwiseDType(ax.DType(), aw.DType())
	if err != nil {
		return nil, fmt.Errorf("fully_connected: %w", err)
	}
	if ab != nil {
		if _, err := ops.ElemwiseDType(dt, ab.DType()); err != nil {
			return nil, fmt.Errorf("fully_connected: %w", err)
		}
	}
	if err := ops.FloatDType(dt); err != nil {
		return nil, fmt.Errorf("fully_connected: %w", err)
	}
	outShape, err := ops.FullyConnectedShape(ax.Shape(), aw.Shape(), biasShape)
	if err != nil {
		return nil, fmt.Errorf("fully_connected: %w", err)
	}

	out, err := gemm(blas.Trans, ax, aw, outShape)
	if err != nil {
		return nil, fmt.Errorf("fully_connected: %w", err)
	}
	if ab != nil {
		addBiasRows(out, ab)
	}
	return value{arr: out}, nil
}

// gemm multiplies a by b (transposed according to tB) into a fresh array of
// shape outShape. Float16 inputs are widened to float32 for the BLAS call
// and the result is narrowed back.
func gemm(tB blas.Transpose, a, b *tensor.Array, outShape tensor.Shape) (*tensor.Array, error) {
	m, n := outShape[0], outShape[1]

	switch a.DType() {
	case tensor.Float32:
		out := tensor.Zeros(outShape, tensor.Float32)
		ga := blas32.General{Rows: a.Shape()[0], Cols: a.Shape()[1], Stride: a.Shape()[1], Data: a.AsFloat32()}
		gb := blas32.General{Rows: b.Shape()[0], Cols: b.Shape()[1], Stride: b.Shape()[1], Data: b.AsFloat32()}
		gc := blas32.General{Rows: m, Cols: n, Stride: n, Data: out.AsFloat32()}
		blas32.Gemm(blas.NoTrans, tB, 1, ga, gb, 0, gc)
		return out, nil

	case tensor.Float64:
		out := tensor.Zeros(outShape, tensor.Float64)
		ga := blas64.General{Rows: a.Shape()[0], Cols: a.Shape()[1], Stride: a.Shape()[1], Data: a.AsFloat64()}
		gb := blas64.General{Rows: b.Shape()[0], Cols: b.Shape()[1], Stride: b.Shape()[1], Data: b.AsFloat64()}
		gc := blas64.General{Rows: m, Cols: n, Stride: n, Data: out.AsFloat64()}
		blas64.Gemm(blas.NoTrans, tB, 1, ga, gb, 0, gc)
		return out, nil

	case tensor.Float16:
		wa, err := tensor.Convert(a, tensor.Float32)
		if err != nil {
			return nil, err
		}
		wb, err := tensor.Convert(b, tensor.Float32)
		if err != nil {
			return nil, err
		}
		wide, err := gemm(tB, wa, wb, outShape)
		if err != nil {
			return nil, err
		}
		return tensor.Convert(wide, tensor.Float16)

	default:
		return nil, fmt.Errorf("%w: gemm does not support %s", ops.ErrDType, a.DType())
	}
}

// addBiasRows adds a length-N bias vector to every row of an (M, N) array.
func addBiasRows(out, bias *tensor.Array) {
	rows, cols := out.Shape()[0], out.Shape()[1]
	switch out.DType() {
	case tensor.Float32:
		os, bs := out.AsFloat32(), bias.AsFloat32()
		for r := 0; r < rows; r++ {
			row := os[r*cols : (r+1)*cols]
			for c := range row {
				row[c] += bs[c]
			}
		}
	case tensor.Float64:
		os, bs := out.AsFloat64(), bias.AsFloat64()
		for r := 0; r < rows; r++ {
			row := os[r*cols : (r+1)*cols]
			for c := range row {
				row[c] += bs[c]
			}
		}
	default:
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				i := r*cols + c
				out.SetFloat(i, out.Float(i)+bias.Float(c))
			}
		}
	}
}
