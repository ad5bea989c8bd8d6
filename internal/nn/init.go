package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/weft-ml/weft/internal/tensor"
)

// Initializer fills a freshly allocated parameter array with starting
// values. Implementations must support every numeric data type, including
// Float16.
type Initializer interface {
	Fill(a *tensor.Array) error
}

// Zeros initializes every element to 0. This is the default bias
// initializer.
type Zeros struct{}

// Fill implements Initializer.
func (Zeros) Fill(a *tensor.Array) error {
	return fill(a, func() float64 { return 0 })
}

// Ones initializes every element to 1. Used for batch-norm scale and
// moving variance.
type Ones struct{}

// Fill implements Initializer.
func (Ones) Fill(a *tensor.Array) error {
	return fill(a, func() float64 { return 1 })
}

// Constant initializes every element to Value.
type Constant struct {
	Value float64
}

// Fill implements Initializer.
func (c Constant) Fill(a *tensor.Array) error {
	return fill(a, func() float64 { return c.Value })
}

// Uniform draws values from U(-Scale, Scale). A zero Scale means 0.07,
// the conventional default for weight matrices.
type Uniform struct {
	Scale float64
}

// Fill implements Initializer.
func (u Uniform) Fill(a *tensor.Array) error {
	scale := u.Scale
	if scale == 0 {
		scale = 0.07
	}
	return fill(a, func() float64 {
		//nolint:gosec // math/rand is fine for weight initialization
		return (rand.Float64()*2 - 1) * scale
	})
}

// Normal draws values from N(0, Sigma^2). A zero Sigma means 0.01.
type Normal struct {
	Sigma float64
}

// Fill implements Initializer.
func (n Normal) Fill(a *tensor.Array) error {
	sigma := n.Sigma
	if sigma == 0 {
		sigma = 0.01
	}
	return fill(a, func() float64 {
		//nolint:gosec // math/rand is fine for weight initialization
		return rand.NormFloat64() * sigma
	})
}

// Xavier draws values from U(-b, b) with b = sqrt(6 / (fanIn + fanOut)),
// keeping activation variance stable across layers. It requires a weight
// of rank >= 2: fanOut is the first dimension, fanIn the product of the
// rest.
type Xavier struct{}

// Fill implements Initializer.
func (Xavier) Fill(a *tensor.Array) error {
	shape := a.Shape()
	if len(shape) < 2 {
		return fmt.Errorf("xavier: weight must have rank >= 2, got shape %v", shape)
	}
	fanOut := shape[0]
	fanIn := 1
	for _, d := range shape[1:] {
		fanIn *= d
	}
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return fill(a, func() float64 {
		//nolint:gosec // math/rand is fine for weight initialization
		return (rand.Float64()*2 - 1) * bound
	})
}

// fill writes next() into every element through the scalar converter, so
// one loop serves all numeric dtypes.
func fill(a *tensor.Array, next func() float64) error {
	if a.DType() == tensor.Bool {
		return fmt.Errorf("cannot initialize %s parameter", a.DType())
	}
	for i := 0; i < a.NumElements(); i++ {
		a.SetFloat(i, next())
	}
	return nil
}
