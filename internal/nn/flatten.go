package nn

import (
	"github.com/weft-ml/weft/internal/ops"
)

// FlattenOpts configures NewFlatten.
type FlattenOpts struct {
	Name string
}

// Flatten collapses all axes after the first: (N, d1, ..., dk) becomes
// (N, d1*...*dk), elements kept in row-major order. A rank-1 input (N)
// becomes (N, 1).
type Flatten struct {
	HybridBase
}

// NewFlatten creates a flatten layer.
func NewFlatten(opts ...FlattenOpts) *Flatten {
	var o FlattenOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	f := &Flatten{}
	f.InitHybrid(f, o.Name, "flatten")
	return f
}

// HybridForward reshapes to (batch, rest).
func (l *Flatten) HybridForward(f ops.Ops, x ops.Value, _ map[string]ops.Value) (ops.Value, error) {
	return f.Reshape(x, []int{ops.KeepDim, ops.InferDim})
}

// String returns "Flatten".
func (l *Flatten) String() string {
	return "Flatten"
}
