package ops

import "errors"

// Operator-level errors. Namespaces wrap these with operator context so
// callers can classify failures with errors.Is.
var (
	// ErrRank is returned when an input has the wrong number of dimensions.
	ErrRank = errors.New("rank mismatch")

	// ErrDType is returned when an input has an unsupported data type.
	ErrDType = errors.New("dtype mismatch")

	// ErrTrace is returned when concrete data is requested from a value
	// that is being traced and has no data.
	ErrTrace = errors.New("concrete data not available while tracing")
)
