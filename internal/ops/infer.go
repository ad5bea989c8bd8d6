package ops

import (
	"fmt"

	"github.com/weft-ml/weft/internal/tensor"
)

// Shape and dtype inference shared by every namespace implementation.
// Keeping these in one place guarantees that a traced program and the
// eager namespace can never disagree on result metadata.

// ElemwiseShape returns the broadcasted result shape of a binary
// element-wise operator.
func ElemwiseShape(a, b tensor.Shape) (tensor.Shape, error) {
	out, _, err := tensor.BroadcastShapes(a, b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tensor.ErrShapeConflict, err)
	}
	return out, nil
}

// ElemwiseDType checks that both operands share a data type and returns it.
func ElemwiseDType(a, b tensor.DataType) (tensor.DataType, error) {
	if a != b {
		return 0, fmt.Errorf("%w: %s vs %s", ErrDType, a, b)
	}
	return a, nil
}

// FloatDType checks that the data type is a floating point type.
func FloatDType(dt tensor.DataType) error {
	if !dt.IsFloat() {
		return fmt.Errorf("%w: %s is not a float type", ErrDType, dt)
	}
	return nil
}

// MatMulShape returns the result shape of (M, K) @ (K, N).
func MatMulShape(a, b tensor.Shape) (tensor.Shape, error) {
	if len(a) != 2 || len(b) != 2 {
		return nil, fmt.Errorf("%w: matmul needs rank-2 operands, got %s and %s", ErrRank, a, b)
	}
	if a[1] != b[0] {
		return nil, fmt.Errorf("%w: matmul %s @ %s", tensor.ErrShapeConflict, a, b)
	}
	return tensor.Shape{a[0], b[1]}, nil
}

// FullyConnectedShape returns the result shape of x @ weight^T (+ bias).
// x must be rank 2 (batch, in), weight (units, in), bias (units) or nil.
func FullyConnectedShape(x, weight, bias tensor.Shape) (tensor.Shape, error) {
	if len(x) != 2 {
		return nil, fmt.Errorf("%w: fully connected input must be rank 2 (batch, in), got %s", ErrRank, x)
	}
	if len(weight) != 2 {
		return nil, fmt.Errorf("%w: fully connected weight must be rank 2 (units, in), got %s", ErrRank, weight)
	}
	if x[1] != weight[1] {
		return nil, fmt.Errorf("%w: input features %d vs weight features %d", tensor.ErrShapeConflict, x[1], weight[1])
	}
	if bias != nil {
		if len(bias) != 1 {
			return nil, fmt.Errorf("%w: fully connected bias must be rank 1, got %s", ErrRank, bias)
		}
		if bias[0] != weight[0] {
			return nil, fmt.Errorf("%w: bias length %d vs units %d", tensor.ErrShapeConflict, bias[0], weight[0])
		}
	}
	return tensor.Shape{x[0], weight[0]}, nil
}

// BatchNormShape validates batch normalization inputs and returns the
// (unchanged) result shape. Every parameter must be a rank-1 vector with
// one entry per channel along axis.
func BatchNormShape(x tensor.Shape, axis int, gamma, beta, runningMean, runningVar tensor.Shape) (tensor.Shape, error) {
	if axis < 0 || axis >= len(x) {
		return nil, fmt.Errorf("%w: batchnorm axis %d out of range for input %s", ErrRank, axis, x)
	}
	channels := x[axis]
	for _, p := range []struct {
		name  string
		shape tensor.Shape
	}{
		{"gamma", gamma}, {"beta", beta}, {"running_mean", runningMean}, {"running_var", runningVar},
	} {
		if len(p.shape) != 1 {
			return nil, fmt.Errorf("%w: batchnorm %s must be rank 1, got %s", ErrRank, p.name, p.shape)
		}
		if p.shape[0] != channels {
			return nil, fmt.Errorf("%w: batchnorm %s has %d channels, input has %d",
				tensor.ErrShapeConflict, p.name, p.shape[0], channels)
		}
	}
	return x.Clone(), nil
}

// EmbeddingShape returns the result shape of an embedding lookup: the
// indices shape with the embedding dimension appended. Indices must be an
// integer type and the table rank 2.
func EmbeddingShape(indices tensor.Shape, indicesDType tensor.DataType, table tensor.Shape) (tensor.Shape, error) {
	if indicesDType != tensor.Int32 && indicesDType != tensor.Int64 {
		return nil, fmt.Errorf("%w: embedding indices must be int32 or int64, got %s", ErrDType, indicesDType)
	}
	if len(indices) < 1 {
		return nil, fmt.Errorf("%w: embedding indices must have rank >= 1", ErrRank)
	}
	if len(table) != 2 {
		return nil, fmt.Errorf("%w: embedding table must be rank 2 (vocab, dim), got %s", ErrRank, table)
	}
	out := indices.Clone()
	return append(out, table[1]), nil
}

// ReshapeShape resolves a reshape target. dims entries may be KeepDim
// (copy the input dimension at that position) or, at most once, InferDim
// (derive the size from the remaining element count).
func ReshapeShape(in tensor.Shape, dims []int) (tensor.Shape, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: reshape target must have rank >= 1", ErrRank)
	}
	out := make(tensor.Shape, len(dims))
	infer := -1
	known := 1
	for i, d := range dims {
		switch {
		case d == KeepDim:
			if i >= len(in) {
				return nil, fmt.Errorf("%w: reshape keeps dimension %d but input is %s", ErrRank, i, in)
			}
			out[i] = in[i]
			known *= out[i]
		case d == InferDim:
			if infer >= 0 {
				return nil, fmt.Errorf("%w: reshape allows a single inferred dimension", tensor.ErrShapeConflict)
			}
			infer = i
		case d > 0:
			out[i] = d
			known *= d
		default:
			return nil, fmt.Errorf("%w: invalid reshape dimension %d", tensor.ErrShapeConflict, d)
		}
	}
	total := in.NumElements()
	if infer >= 0 {
		if known == 0 || total%known != 0 {
			return nil, fmt.Errorf("%w: cannot infer dimension for %s -> %v", tensor.ErrShapeConflict, in, dims)
		}
		out[infer] = total / known
		known *= out[infer]
	}
	if known != total {
		return nil, fmt.Errorf("%w: reshape %s -> %s changes element count", tensor.ErrShapeConflict, in, out)
	}
	return out, nil
}
