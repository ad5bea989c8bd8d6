// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/weft-ml/weft/internal/nn"
	"github.com/weft-ml/weft/ops"
	"github.com/weft-ml/weft/tensor"
)

// Blocks

// Block is the interface all layers and containers implement.
type Block = nn.Block

// BlockBase provides name, scope, parameter, and child bookkeeping for
// custom blocks. Embed it and call InitBlock from the constructor.
type BlockBase = nn.BlockBase

// NamedChild pairs a child block with its name inside the parent.
type NamedChild = nn.NamedChild

// HybridBlock is a block whose computation can be captured into a
// replayable program.
type HybridBlock = nn.HybridBlock

// HybridBase provides program capture and caching for custom hybrid
// blocks. Embed it and call InitHybrid from the constructor.
//
// Example:
//
//	type MLP struct {
//	    nn.HybridBase
//	    hidden *nn.Dense
//	    out    *nn.Dense
//	}
//
//	func NewMLP() *MLP {
//	    m := &MLP{}
//	    m.InitHybrid(m, "", "mlp")
//	    m.hidden = nn.NewDense(64, nn.DenseOpts{Activation: ops.ReLU})
//	    m.out = nn.NewDense(10)
//	    m.RegisterChild(m.hidden)
//	    m.RegisterChild(m.out)
//	    return m
//	}
//
//	func (m *MLP) HybridForward(f ops.Ops, x ops.Value, params map[string]ops.Value) (ops.Value, error) {
//	    h, err := m.hidden.Apply(f, x)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return m.out.Apply(f, h)
//	}
type HybridBase = nn.HybridBase

// ShapeInferer is implemented by blocks that resolve deferred parameter
// shapes from the input shape.
type ShapeInferer = nn.ShapeInferer

// Parameters

// Parameter is a named tensor owned by a block: a weight, a bias, or a
// running statistic.
type Parameter = nn.Parameter

// ParameterOpts configures NewParameter.
type ParameterOpts = nn.ParameterOpts

// GradMode tells an external training loop whether a parameter should
// receive gradient updates.
type GradMode = nn.GradMode

// Gradient modes.
const (
	Trainable = nn.Trainable
	Frozen    = nn.Frozen
)

// NewParameter creates a parameter. Dimensions given as tensor.Unresolved
// are filled in by shape inference before the parameter is materialized.
func NewParameter(name string, shape tensor.PartialShape, opts ...ParameterOpts) *Parameter {
	return nn.NewParameter(name, shape, opts...)
}

// ParameterDict is an ordered, prefix-scoped collection of parameters.
type ParameterDict = nn.ParameterDict

// NewParameterDict creates a parameter dict. Optional shared dicts are
// consulted by Get before creating a new parameter, which is how blocks
// share weights.
func NewParameterDict(prefix string, shared ...*ParameterDict) *ParameterDict {
	return nn.NewParameterDict(prefix, shared...)
}

// Initializers

// Initializer fills a freshly allocated parameter array.
type Initializer = nn.Initializer

// Zeros fills with zeros.
type Zeros = nn.Zeros

// Ones fills with ones.
type Ones = nn.Ones

// Constant fills with a fixed value.
type Constant = nn.Constant

// Uniform fills with draws from [-Scale, Scale].
type Uniform = nn.Uniform

// Normal fills with draws from N(0, Sigma).
type Normal = nn.Normal

// Xavier fills with the Glorot uniform scheme.
type Xavier = nn.Xavier

// Layers

// Dense is a fully connected layer: y = activation(x W^T + b).
type Dense = nn.Dense

// DenseOpts configures NewDense.
type DenseOpts = nn.DenseOpts

// NewDense creates a fully connected layer with the given output width.
//
// Example:
//
//	layer := nn.NewDense(128, nn.DenseOpts{Activation: ops.ReLU})
func NewDense(units int, opts ...DenseOpts) *Dense {
	return nn.NewDense(units, opts...)
}

// Activation applies a named element-wise activation function.
type Activation = nn.Activation

// ActivationOpts configures NewActivation and NewLeakyReLU.
type ActivationOpts = nn.ActivationOpts

// NewActivation creates an activation layer.
//
// Example:
//
//	relu := nn.NewActivation(ops.ReLU)
func NewActivation(fn ops.ActFunc, opts ...ActivationOpts) *Activation {
	return nn.NewActivation(fn, opts...)
}

// LeakyReLU applies the leaky rectifier: x for x >= 0, alpha*x otherwise.
type LeakyReLU = nn.LeakyReLU

// NewLeakyReLU creates a leaky ReLU layer with the given negative slope.
func NewLeakyReLU(alpha float64, opts ...ActivationOpts) *LeakyReLU {
	return nn.NewLeakyReLU(alpha, opts...)
}

// Dropout zeroes a fraction of elements during training and rescales the
// survivors. It is the identity during inference.
type Dropout = nn.Dropout

// DropoutOpts configures NewDropout.
type DropoutOpts = nn.DropoutOpts

// NewDropout creates a dropout layer with the given drop rate in [0, 1].
func NewDropout(rate float64, opts ...DropoutOpts) *Dropout {
	return nn.NewDropout(rate, opts...)
}

// BatchNorm normalizes activations over the batch and maintains running
// statistics for inference.
type BatchNorm = nn.BatchNorm

// BatchNormOpts configures NewBatchNorm.
type BatchNormOpts = nn.BatchNormOpts

// NewBatchNorm creates a batch normalization layer.
//
// Example:
//
//	bn := nn.NewBatchNorm(nn.BatchNormOpts{InChannels: 64})
func NewBatchNorm(opts ...BatchNormOpts) *BatchNorm {
	return nn.NewBatchNorm(opts...)
}

// Embedding maps integer indices to dense vectors via a lookup table.
type Embedding = nn.Embedding

// EmbeddingOpts configures NewEmbedding.
type EmbeddingOpts = nn.EmbeddingOpts

// NewEmbedding creates an embedding layer.
//
// Example:
//
//	embed := nn.NewEmbedding(50000, 768) // vocab=50000, dim=768
func NewEmbedding(inputDim, outputDim int, opts ...EmbeddingOpts) *Embedding {
	return nn.NewEmbedding(inputDim, outputDim, opts...)
}

// Flatten collapses all dimensions after the first into one.
type Flatten = nn.Flatten

// FlattenOpts configures NewFlatten.
type FlattenOpts = nn.FlattenOpts

// NewFlatten creates a flatten layer.
func NewFlatten(opts ...FlattenOpts) *Flatten {
	return nn.NewFlatten(opts...)
}

// Containers

// Sequential chains blocks, feeding each output to the next block.
type Sequential = nn.Sequential

// SequentialOpts configures NewSequential and NewHybridSequential.
type SequentialOpts = nn.SequentialOpts

// NewSequential creates a sequential container. It accepts any blocks,
// at the cost of never being capturable as one program.
func NewSequential(opts ...SequentialOpts) *Sequential {
	return nn.NewSequential(opts...)
}

// HybridSequential chains hybrid blocks and can capture the whole chain
// into a single program.
type HybridSequential = nn.HybridSequential

// NewHybridSequential creates a hybrid sequential container.
//
// Example:
//
//	net := nn.NewHybridSequential()
//	net.Add(
//	    nn.NewDense(128, nn.DenseOpts{Activation: ops.ReLU}),
//	    nn.NewDense(10),
//	)
//	net.Hybridize(true)
func NewHybridSequential(opts ...SequentialOpts) *HybridSequential {
	return nn.NewHybridSequential(opts...)
}

// Errors

var (
	// ErrShapeInference reports an input a layer cannot infer parameter
	// shapes from.
	ErrShapeInference = nn.ErrShapeInference

	// ErrNotDeferrable reports an attempt to materialize a parameter whose
	// shape is not fully resolved and cannot be deferred.
	ErrNotDeferrable = nn.ErrNotDeferrable

	// ErrDuplicateName reports two distinct parameters under one name.
	ErrDuplicateName = nn.ErrDuplicateName

	// ErrUninitialized reports a read of a parameter with no data yet.
	ErrUninitialized = nn.ErrUninitialized
)
