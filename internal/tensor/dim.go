package tensor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrShapeConflict is returned when two shape declarations disagree on a
// resolved dimension or on rank.
var ErrShapeConflict = errors.New("shape conflict")

// Dim is a single, possibly unresolved dimension of a parameter shape.
//
// The zero value is unresolved. Unresolved dimensions are filled in later
// from observed input shapes, which is how layers defer parameter sizing
// until the first forward call.
type Dim struct {
	n     int
	known bool
}

// Unresolved is the unresolved dimension.
var Unresolved = Dim{}

// D returns a resolved dimension of size n.
// Panics if n <= 0.
func D(n int) Dim {
	if n <= 0 {
		panic(fmt.Sprintf("tensor.D: dimension must be > 0, got %d", n))
	}
	return Dim{n: n, known: true}
}

// Resolved reports whether the dimension has a concrete size.
func (d Dim) Resolved() bool {
	return d.known
}

// Value returns the concrete size.
// Panics if the dimension is unresolved.
func (d Dim) Value() int {
	if !d.known {
		panic("tensor.Dim: dimension is unresolved")
	}
	return d.n
}

// String returns the size, or "?" for an unresolved dimension.
func (d Dim) String() string {
	if !d.known {
		return "?"
	}
	return strconv.Itoa(d.n)
}

// PartialShape is a shape declaration whose dimensions may be unresolved.
//
// Parameters are declared with a PartialShape and refined against observed
// input shapes via Merge until every dimension is resolved.
type PartialShape []Dim

// FromShape converts a concrete shape into a fully resolved PartialShape.
func FromShape(s Shape) PartialShape {
	p := make(PartialShape, len(s))
	for i, dim := range s {
		p[i] = D(dim)
	}
	return p
}

// Rank returns the number of dimensions.
func (p PartialShape) Rank() int {
	return len(p)
}

// Resolved reports whether every dimension has a concrete size.
func (p PartialShape) Resolved() bool {
	for _, d := range p {
		if !d.known {
			return false
		}
	}
	return true
}

// Concrete returns the fully resolved shape.
// Fails if any dimension is still unresolved.
func (p PartialShape) Concrete() (Shape, error) {
	s := make(Shape, len(p))
	for i, d := range p {
		if !d.known {
			return nil, fmt.Errorf("shape %s has unresolved dimension at index %d", p, i)
		}
		s[i] = d.n
	}
	return s, nil
}

// Equal checks if two partial shapes agree exactly, including which
// dimensions are unresolved.
func (p PartialShape) Equal(other PartialShape) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the partial shape.
func (p PartialShape) Clone() PartialShape {
	clone := make(PartialShape, len(p))
	copy(clone, p)
	return clone
}

// Merge combines two shape declarations into the most resolved shape
// consistent with both. It is defined for every pair of inputs:
//
//   - Ranks must match, otherwise ErrShapeConflict.
//   - Per dimension: two unresolved stay unresolved, one resolved wins,
//     two equal resolved keep the value, two different resolved fail
//     with ErrShapeConflict.
//
// Merge never mutates its operands.
func (p PartialShape) Merge(other PartialShape) (PartialShape, error) {
	if len(p) != len(other) {
		return nil, fmt.Errorf("%w: rank %d vs %d (%s vs %s)", ErrShapeConflict, len(p), len(other), p, other)
	}
	out := make(PartialShape, len(p))
	for i := range p {
		a, b := p[i], other[i]
		switch {
		case !a.known:
			out[i] = b
		case !b.known:
			out[i] = a
		case a.n == b.n:
			out[i] = a
		default:
			return nil, fmt.Errorf("%w: dimension %d is %d vs %d (%s vs %s)", ErrShapeConflict, i, a.n, b.n, p, other)
		}
	}
	return out, nil
}

// String formats the shape as "(64, ?)".
func (p PartialShape) String() string {
	parts := make([]string, len(p))
	for i, d := range p {
		parts[i] = d.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
