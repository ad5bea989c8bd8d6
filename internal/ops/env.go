package ops

import "math/rand"

// Mode selects between training and inference behavior for operators like
// Dropout and BatchNorm. The mode is an execution input carried by Env and
// is never baked into layers or recorded programs.
type Mode int

// Execution modes.
const (
	Inference Mode = iota
	Training
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case Inference:
		return "inference"
	case Training:
		return "training"
	default:
		return "unknown"
	}
}

// Env is the ambient execution context for one namespace binding: the
// train/infer mode plus the random source for stochastic operators.
type Env struct {
	Mode Mode
	RNG  *rand.Rand
}

// Training reports whether the environment runs in training mode.
// A nil environment is inference.
func (e *Env) Training() bool {
	return e != nil && e.Mode == Training
}

// Float64 returns a uniform sample in [0, 1) from the environment's
// source, falling back to the global source when none is set.
func (e *Env) Float64() float64 {
	if e != nil && e.RNG != nil {
		return e.RNG.Float64()
	}
	return rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally
}
