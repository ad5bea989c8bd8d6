// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package eager provides the immediate-execution backend. Every operator
// call computes its result right away on concrete arrays, which makes it
// the natural backend for debugging and for stepping through a model
// layer by layer.
//
// The eager backend is also the substrate that captured programs replay
// against: the symbolic backend records operator calls and feeds them back
// through an eager namespace at run time.
package eager

import (
	"github.com/weft-ml/weft/internal/backend/eager"
	"github.com/weft-ml/weft/ops"
)

// Backend creates eager namespaces.
//
// Example:
//
//	f := eager.New().Namespace(&ops.Env{Mode: ops.Training})
//	y, err := f.Add(f.Constant(a), f.Constant(b))
type Backend = eager.Backend

// Compile-time interface check.
var _ ops.Backend = (*Backend)(nil)

// New creates the eager backend.
func New() *Backend {
	return eager.New()
}
