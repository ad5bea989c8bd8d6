// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides composable neural-network layers: fully connected
// layers, activations, dropout, batch normalization, embeddings, and the
// containers that assemble them into models.
//
// # Overview
//
// Layers are blocks. A block owns parameters, may contain child blocks,
// and transforms an input array into an output array:
//
//	net := nn.NewHybridSequential()
//	net.Add(
//	    nn.NewDense(128, nn.DenseOpts{Activation: ops.ReLU}),
//	    nn.NewDropout(0.5),
//	    nn.NewDense(10),
//	)
//	y, err := net.Forward(nil, x)
//
// The nil environment runs inference. Pass &ops.Env{Mode: ops.Training}
// to enable dropout masking and batch-statistics updates.
//
// # Hybridization
//
// Hybrid blocks run eagerly by default: every operator computes
// immediately, and intermediate results can be inspected. Calling
// Hybridize captures the block's computation into a program on the next
// forward call and replays that program afterwards:
//
//	net.Hybridize(true)
//	y, err := net.Forward(nil, x) // traced once, replayed after
//
// Programs are cached per input signature (dtype and shape) and rebind
// parameter storage on every replay, so assigning new parameter data
// takes effect without retracing. Execution mode is resolved at replay
// time too: one program serves both inference and training.
//
// # Deferred Initialization
//
// Layers created without input sizes defer parameter allocation until the
// first forward call reveals them:
//
//	layer := nn.NewDense(64)            // input width unknown
//	y, err := layer.Forward(nil, x)     // x is (32, 20): weight becomes (64, 20)
//
// A later input with a different width fails with tensor.ErrShapeConflict.
// Layers given explicit input sizes can be initialized up front with
// Initialize.
//
// # Parameter Sharing
//
// Blocks can share parameters by constructing one block with another's
// parameter dict:
//
//	a := nn.NewDense(64, nn.DenseOpts{InUnits: 32})
//	b := nn.NewDense(64, nn.DenseOpts{InUnits: 32, Params: a.Params()})
//
// CollectParams lists each shared parameter once, under the first name
// that reaches it.
package nn
