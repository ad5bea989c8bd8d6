package nn

import (
	"fmt"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// EmbeddingOpts configures NewEmbedding. The zero value means float32
// vectors with uniform initialization.
type EmbeddingOpts struct {
	// DType is the vector element type. Float16 halves the table size at
	// some precision cost.
	DType tensor.DataType

	WeightInit Initializer
	Name       string
	Params     *ParameterDict
}

// Embedding maps integer indices to learned vectors: an input of shape
// (d1, ..., dk) with values in [0, inputDim) yields (d1, ..., dk,
// outputDim) rows gathered from a (inputDim, outputDim) table.
//
// Indices must be an integer dtype; lookups with float indices fail with
// ops.ErrDType. Unlike Dense, the table's shape is known at construction,
// so the layer never defers initialization.
type Embedding struct {
	HybridBase
	inputDim  int
	outputDim int
	weight    *Parameter
}

// NewEmbedding creates an embedding table for inputDim distinct indices
// with outputDim-wide vectors. It panics when either dimension is not
// positive.
func NewEmbedding(inputDim, outputDim int, opts ...EmbeddingOpts) *Embedding {
	if inputDim <= 0 || outputDim <= 0 {
		panic(fmt.Sprintf("nn: embedding dimensions must be positive, got (%d, %d)", inputDim, outputDim))
	}
	var o EmbeddingOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	e := &Embedding{inputDim: inputDim, outputDim: outputDim}
	e.InitHybrid(e, o.Name, "embedding", o.Params)
	e.weight = e.params.MustGet("weight",
		tensor.PartialShape{tensor.D(inputDim), tensor.D(outputDim)},
		ParameterOpts{DType: o.DType, Init: initOr(o.WeightInit, Uniform{}), NoDeferred: true})
	return e
}

// InputDim returns the number of distinct indices.
func (e *Embedding) InputDim() int { return e.inputDim }

// OutputDim returns the vector width.
func (e *Embedding) OutputDim() int { return e.outputDim }

// Weight returns the table parameter.
func (e *Embedding) Weight() *Parameter { return e.weight }

// HybridForward gathers table rows by index.
func (e *Embedding) HybridForward(f ops.Ops, x ops.Value, params map[string]ops.Value) (ops.Value, error) {
	return f.Embedding(x, params["weight"])
}

// String returns "Embedding(1000 -> 16, float32)".
func (e *Embedding) String() string {
	return fmt.Sprintf("Embedding(%d -> %d, %s)", e.inputDim, e.outputDim, e.weight.DType())
}
