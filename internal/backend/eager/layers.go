package eager

import (
	"fmt"
	"math"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/parallel"
	"github.com/weft-ml/weft/internal/tensor"
)

// rowCfg chunks row-granular loops, where each item already copies a
// full table row.
var rowCfg = func() parallel.Config {
	cfg := parallel.DefaultConfig()
	cfg.MinChunkSize = 64
	return cfg
}()

// Activation applies a named element-wise activation function.
func (n *Namespace) Activation(x ops.Value, fn ops.ActFunc) (ops.Value, error) {
	f, ok := actFn(fn)
	if !ok {
		return nil, fmt.Errorf("activation: unknown function %q", fn)
	}
	return n.unary("activation("+string(fn)+")", x, f)
}

// actFn returns the scalar function for a named activation.
func actFn(fn ops.ActFunc) (func(float64) float64, bool) {
	switch fn {
	case ops.ReLU:
		return func(v float64) float64 { return math.Max(0, v) }, true
	case ops.Sigmoid:
		return func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }, true
	case ops.Tanh:
		return math.Tanh, true
	case ops.SoftReLU:
		return func(v float64) float64 {
			// log(1 + exp(v)), stable for large v
			if v > 32 {
				return v
			}
			return math.Log1p(math.Exp(v))
		}, true
	case ops.SoftSign:
		return func(v float64) float64 { return v / (1 + math.Abs(v)) }, true
	default:
		return nil, false
	}
}

// LeakyReLU computes x for x >= 0 and alpha*x otherwise.
func (n *Namespace) LeakyReLU(x ops.Value, alpha float64) (ops.Value, error) {
	return n.unary("leaky_relu", x, func(v float64) float64 {
		if v < 0 {
			return alpha * v
		}
		return v
	})
}

// Dropout zeroes a fraction rate of elements in training mode and rescales
// the survivors by 1/(1-rate). In inference mode it is the identity.
func (n *Namespace) Dropout(x ops.Value, rate float64) (ops.Value, error) {
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("dropout: rate %v outside [0, 1]", rate)
	}
	ax, err := n.arr(x, "dropout")
	if err != nil {
		return nil, err
	}
	if err := ops.FloatDType(ax.DType()); err != nil {
		return nil, fmt.Errorf("dropout: %w", err)
	}
	if !n.env.Training() || rate == 0 {
		return x, nil
	}
	if rate == 1 {
		return value{arr: tensor.Zeros(ax.Shape(), ax.DType())}, nil
	}

	scale := 1 / (1 - rate)
	out := tensor.Zeros(ax.Shape(), ax.DType())
	for i := 0; i < out.NumElements(); i++ {
		if n.env.Float64() < rate {
			continue
		}
		out.SetFloat(i, ax.Float(i)*scale)
	}
	return value{arr: out}, nil
}

// BatchNorm normalizes x per channel along axis.
//
// Training mode computes batch statistics (biased variance) and folds them
// into the running statistics in place:
//
//	running = momentum*running + (1-momentum)*batch
//
// Inference mode normalizes with the running statistics unchanged.
func (n *Namespace) BatchNorm(x, gamma, beta, runningMean, runningVar ops.Value, axis int, momentum, epsilon float64) (ops.Value, error) {
	ax, err := n.arr(x, "batchnorm")
	if err != nil {
		return nil, err
	}
	ag, err := n.arr(gamma, "batchnorm")
	if err != nil {
		return nil, err
	}
	ab, err := n.arr(beta, "batchnorm")
	if err != nil {
		return nil, err
	}
	am, err := n.arr(runningMean, "batchnorm")
	if err != nil {
		return nil, err
	}
	av, err := n.arr(runningVar, "batchnorm")
	if err != nil {
		return nil, err
	}
	if err := ops.FloatDType(ax.DType()); err != nil {
		return nil, fmt.Errorf("batchnorm: %w", err)
	}
	if _, err := ops.BatchNormShape(ax.Shape(), axis, ag.Shape(), ab.Shape(), am.Shape(), av.Shape()); err != nil {
		return nil, fmt.Errorf("batchnorm: %w", err)
	}

	shape := ax.Shape()
	strides := shape.ComputeStrides()
	channels := shape[axis]
	total := ax.NumElements()
	perChannel := total / channels
	channelOf := func(i int) int { return (i / strides[axis]) % channels }

	mean := make([]float64, channels)
	variance := make([]float64, channels)

	if n.env.Training() {
		for i := 0; i < total; i++ {
			mean[channelOf(i)] += ax.Float(i)
		}
		for c := range mean {
			mean[c] /= float64(perChannel)
		}
		for i := 0; i < total; i++ {
			d := ax.Float(i) - mean[channelOf(i)]
			variance[channelOf(i)] += d * d
		}
		for c := range variance {
			variance[c] /= float64(perChannel)
		}
		// Fold the batch statistics into the running statistics. The
		// slot-bound arrays are the parameter storage, so the update is
		// visible to later inference calls without any retrace.
		for c := 0; c < channels; c++ {
			am.SetFloat(c, momentum*am.Float(c)+(1-momentum)*mean[c])
			av.SetFloat(c, momentum*av.Float(c)+(1-momentum)*variance[c])
		}
	} else {
		for c := 0; c < channels; c++ {
			mean[c] = am.Float(c)
			variance[c] = av.Float(c)
		}
	}

	out := tensor.Zeros(shape, ax.DType())
	inv := make([]float64, channels)
	for c := range inv {
		inv[c] = 1 / math.Sqrt(variance[c]+epsilon)
	}
	parallel.Range(total, func(start, end int) {
		for i := start; i < end; i++ {
			c := channelOf(i)
			out.SetFloat(i, ag.Float(c)*(ax.Float(i)-mean[c])*inv[c]+ab.Float(c))
		}
	}, elemCfg)
	return value{arr: out}, nil
}

// Embedding gathers rows of table by integer indices.
func (n *Namespace) Embedding(indices, table ops.Value) (ops.Value, error) {
	ai, err := n.arr(indices, "embedding")
	if err != nil {
		return nil, err
	}
	at, err := n.arr(table, "embedding")
	if err != nil {
		return nil, err
	}
	outShape, err := ops.EmbeddingShape(ai.Shape(), ai.DType(), at.Shape())
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	vocab := at.Shape()[0]
	rowBytes := at.Shape()[1] * at.DType().Size()
	out := tensor.Zeros(outShape, at.DType())

	lookup := func(pos int) (int, error) {
		var idx int
		if ai.DType() == tensor.Int32 {
			idx = int(ai.AsInt32()[pos])
		} else {
			idx = int(ai.AsInt64()[pos])
		}
		if idx < 0 || idx >= vocab {
			return 0, fmt.Errorf("embedding: index %d at position %d outside table of size %d", idx, pos, vocab)
		}
		return idx, nil
	}

	// Validate every index up front so a bad one reports its position
	// deterministically, then gather rows in parallel.
	positions := ai.NumElements()
	rows := make([]int, positions)
	for pos := 0; pos < positions; pos++ {
		idx, err := lookup(pos)
		if err != nil {
			return nil, err
		}
		rows[pos] = idx
	}
	parallel.For(positions, func(pos int) {
		copy(out.Data()[pos*rowBytes:(pos+1)*rowBytes], at.Data()[rows[pos]*rowBytes:(rows[pos]+1)*rowBytes])
	}, rowCfg)
	return value{arr: out}, nil
}

// Reshape changes the shape metadata over shared data.
func (n *Namespace) Reshape(x ops.Value, dims []int) (ops.Value, error) {
	ax, err := n.arr(x, "reshape")
	if err != nil {
		return nil, err
	}
	outShape, err := ops.ReshapeShape(ax.Shape(), dims)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	view, err := ax.View(outShape)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	return value{arr: view}, nil
}

// Cast converts the value to another data type.
func (n *Namespace) Cast(x ops.Value, dtype tensor.DataType) (ops.Value, error) {
	ax, err := n.arr(x, "cast")
	if err != nil {
		return nil, err
	}
	out, err := tensor.Convert(ax, dtype)
	if err != nil {
		return nil, fmt.Errorf("cast: %w: %v", ops.ErrDType, err)
	}
	return value{arr: out}, nil
}
