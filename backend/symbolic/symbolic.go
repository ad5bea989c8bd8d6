// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package symbolic provides the capture-and-replay backend. A Tracer
// records operator calls into a Program instead of computing them; the
// program is then replayed against the eager backend with fresh inputs.
//
// Programs store slot identities rather than parameter values, so data
// assigned to a parameter after capture is visible on the next replay
// without retracing. Execution mode is likewise resolved at replay time:
// one program serves both inference and training.
//
// Most users never construct a Tracer directly; hybrid blocks in package
// nn capture and cache programs on their own when hybridized.
package symbolic

import (
	"github.com/weft-ml/weft/internal/backend/symbolic"
	"github.com/weft-ml/weft/ops"
)

// Tracer is an operator namespace that records instead of computing.
type Tracer = symbolic.Tracer

// Program is a captured operator sequence ready for replay.
type Program = symbolic.Program

// Compile-time interface check.
var _ ops.Ops = (*Tracer)(nil)

// NewTracer creates a tracer bound to the given environment. A nil env
// defaults to inference; the env recorded here never constrains replays.
func NewTracer(env *ops.Env) *Tracer {
	return symbolic.NewTracer(env)
}
