// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the shapes and arrays the weft layer library
// computes over.
//
// # Overview
//
// Three kinds of shape appear throughout weft:
//   - Shape: a concrete row-major extent, e.g. tensor.Shape{32, 7}
//   - Dim: a single possibly-unknown dimension (tensor.D(7) or
//     tensor.Unresolved)
//   - PartialShape: a parameter declaration whose entries may still be
//     unresolved; Merge folds observed shapes in until all are known
//
// Array is the concrete eager tensor: contiguous data plus Shape and
// DataType. It is deliberately small; computation lives behind the ops
// namespace so the same layer code can also run against a captured
// program.
//
// # Basic Usage
//
//	x, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	y := tensor.Zeros(tensor.Shape{2, 2}, tensor.Float32)
//	h := tensor.Ones(tensor.Shape{4}, tensor.Float16)
//
// # Supported Data Types
//
//   - float32, float64 (floating point)
//   - float16 (half precision, stored as x448/float16 bit patterns)
//   - int32, int64 (signed integers, embedding indices)
//   - uint8 (unsigned, useful for image data)
//   - bool (masks)
//
// # Deferred Shapes
//
// Layers declare parameter shapes before the input width is known:
//
//	decl := tensor.PartialShape{tensor.D(32), tensor.Unresolved}
//	seen := tensor.FromShape(tensor.Shape{32, 7})
//	resolved, err := decl.Merge(seen) // (32, 7)
//
// Merge never loses information: a dimension resolved twice to different
// values fails with ErrShapeConflict.
package tensor
