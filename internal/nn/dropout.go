package nn

import (
	"fmt"

	"github.com/weft-ml/weft/internal/ops"
)

// DropoutOpts configures NewDropout.
type DropoutOpts struct {
	Name string
}

// Dropout zeroes each element with probability rate during training and
// scales the survivors by 1/(1-rate), keeping the expected sum unchanged.
// During inference it is the identity. The decision is made by the
// executing namespace's environment at call time, so a captured program
// serves both modes.
type Dropout struct {
	HybridBase
	rate float64
}

// NewDropout creates a dropout layer. It panics when rate is outside
// [0, 1].
func NewDropout(rate float64, opts ...DropoutOpts) *Dropout {
	if rate < 0 || rate > 1 {
		panic(fmt.Sprintf("nn: dropout rate must be in [0, 1], got %v", rate))
	}
	var o DropoutOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	d := &Dropout{rate: rate}
	d.InitHybrid(d, o.Name, "dropout")
	return d
}

// Rate returns the drop probability.
func (d *Dropout) Rate() float64 {
	return d.rate
}

// HybridForward applies dropout.
func (d *Dropout) HybridForward(f ops.Ops, x ops.Value, _ map[string]ops.Value) (ops.Value, error) {
	return f.Dropout(x, d.rate)
}

// String returns "Dropout(p = 0.5)".
func (d *Dropout) String() string {
	return fmt.Sprintf("Dropout(p = %v)", d.rate)
}
