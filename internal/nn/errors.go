package nn

import "errors"

// Layer-level errors. Blocks wrap these with the failing parameter or
// block name so callers can classify failures with errors.Is.
var (
	// ErrShapeInference is returned when an input's known shape is
	// insufficient to determine a layer's parameter shapes.
	ErrShapeInference = errors.New("cannot infer parameter shapes")

	// ErrNotDeferrable is returned when a parameter with unresolved
	// dimensions is materialized but its layer does not support deferred
	// initialization.
	ErrNotDeferrable = errors.New("parameter shape not fully resolved")

	// ErrDuplicateName is returned when two distinct parameters collide
	// under one fully qualified name.
	ErrDuplicateName = errors.New("duplicate parameter name")

	// ErrUninitialized is returned when parameter data is read before
	// materialization.
	ErrUninitialized = errors.New("parameter not initialized")
)
