package nn

import (
	"fmt"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// SequentialOpts configures the container constructors.
type SequentialOpts struct {
	Name string
}

// Sequential chains blocks, feeding each child's output to the next.
//
// Example:
//
//	net := nn.NewSequential()
//	net.Add(
//		nn.NewDense(64, nn.DenseOpts{Activation: ops.ReLU}),
//		nn.NewDropout(0.5),
//		nn.NewDense(10),
//	)
//	out, err := net.Forward(nil, x)
type Sequential struct {
	BlockBase
}

// NewSequential creates an empty chain. It accepts any Block, hybrid or
// not; use HybridSequential when the whole chain should be capturable.
func NewSequential(opts ...SequentialOpts) *Sequential {
	var o SequentialOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	s := &Sequential{}
	s.InitBlock(o.Name, "sequential")
	return s
}

// Add registers blocks in order.
func (s *Sequential) Add(blocks ...Block) {
	for _, b := range blocks {
		s.RegisterChild(b)
	}
}

// Len returns the number of chained blocks.
func (s *Sequential) Len() int {
	return len(s.children)
}

// Forward applies the children in registration order. An empty chain is
// the identity. The first failing child aborts with its name attached.
func (s *Sequential) Forward(env *ops.Env, x *tensor.Array) (*tensor.Array, error) {
	for _, c := range s.children {
		y, err := c.Block.Forward(env, x)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		x = y
	}
	return x, nil
}

// String renders the chain as a tree.
func (s *Sequential) String() string {
	return treeString("Sequential", s.children)
}

// HybridSequential chains hybrid blocks. Because children compose through
// Apply, hybridizing the container captures the entire chain into a
// single program.
type HybridSequential struct {
	HybridBase
}

// NewHybridSequential creates an empty capturable chain.
func NewHybridSequential(opts ...SequentialOpts) *HybridSequential {
	var o SequentialOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	s := &HybridSequential{}
	s.InitHybrid(s, o.Name, "hybridsequential")
	return s
}

// Add registers blocks in order.
func (s *HybridSequential) Add(blocks ...HybridBlock) {
	for _, b := range blocks {
		s.RegisterChild(b)
	}
}

// Len returns the number of chained blocks.
func (s *HybridSequential) Len() int {
	return len(s.children)
}

// HybridForward applies the children in registration order through their
// Apply, composing into whatever namespace the container was handed.
func (s *HybridSequential) HybridForward(f ops.Ops, x ops.Value, _ map[string]ops.Value) (ops.Value, error) {
	for _, c := range s.children {
		y, err := c.Block.(HybridBlock).Apply(f, x)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		x = y
	}
	return x, nil
}

// String renders the chain as a tree.
func (s *HybridSequential) String() string {
	return treeString("HybridSequential", s.children)
}
