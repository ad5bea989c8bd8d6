// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops exposes the operator namespace that layers are written
// against. A namespace is bound per forward call, so the same layer code
// computes immediately through the eager namespace or records a replayable
// program through the symbolic one.
package ops

import "github.com/weft-ml/weft/internal/ops"

// Value is an opaque handle to a tensor inside one namespace. Eager values
// carry concrete data; symbolic values carry graph nodes.
type Value = ops.Value

// Slot is a named storage cell, typically a parameter. Namespaces read the
// slot at binding time (eager) or at every replay (symbolic).
type Slot = ops.Slot

// Ops is the operator namespace bound to one execution environment.
type Ops = ops.Ops

// Backend creates namespaces for an execution environment.
type Backend = ops.Backend

// Env carries the per-call execution environment: mode and RNG.
type Env = ops.Env

// Mode selects inference or training behavior for mode-dependent
// operators such as Dropout and BatchNorm.
type Mode = ops.Mode

// Execution modes. The zero value is Inference.
const (
	Inference = ops.Inference
	Training  = ops.Training
)

// ActFunc names an element-wise activation function.
type ActFunc = ops.ActFunc

// Supported activation functions.
const (
	ReLU     = ops.ReLU
	Sigmoid  = ops.Sigmoid
	Tanh     = ops.Tanh
	SoftReLU = ops.SoftReLU
	SoftSign = ops.SoftSign
)

// Special dimension values accepted by Reshape.
const (
	KeepDim  = ops.KeepDim
	InferDim = ops.InferDim
)

// Sentinel errors shared by all namespaces.
var (
	// ErrRank reports an operand with an unsupported number of dimensions.
	ErrRank = ops.ErrRank

	// ErrDType reports an operand with an unsupported data type.
	ErrDType = ops.ErrDType

	// ErrTrace reports an attempt to read concrete data while tracing.
	ErrTrace = ops.ErrTrace
)
