// Package nn provides composable neural-network layers over the weft
// operator namespace.
//
// Layers are Blocks arranged in a tree. Every block owns its parameters
// and its children; names are assigned deterministically when a child is
// registered, and a block's scope is the concatenation of the names on
// the path from the root. There is no ambient naming state: constructing
// the same tree twice yields the same names.
//
// HybridBlocks additionally express their computation against the
// abstract ops.Ops namespace, which lets one definition run eagerly or be
// captured into a replayable program (see Hybridize).
package nn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// NamedChild pairs a registered child with the name it is registered
// under.
type NamedChild struct {
	Name  string
	Block Block
}

// Block is a node in a layer tree: a leaf layer or a container.
//
// Custom blocks embed BlockBase (or HybridBase) to satisfy the interface;
// the unexported hook prevents outside implementations that would miss
// the registration and scoping machinery.
type Block interface {
	// Name returns the block's registered name, "" before registration
	// when none was given explicitly.
	Name() string

	// Scope returns the fully qualified prefix for the block's
	// parameters, e.g. "model.dense0.".
	Scope() string

	// Params returns the block's own parameters, excluding children.
	Params() *ParameterDict

	// Children returns the registered children in registration order.
	Children() []NamedChild

	// CollectParams flattens the subtree's parameters into one dict
	// under fully qualified names.
	CollectParams() (*ParameterDict, error)

	// Initialize materializes every parameter in the subtree whose shape
	// is already resolved. Deferred parameters keep waiting for the
	// first input.
	Initialize() error

	// Forward runs the block eagerly on a concrete array.
	Forward(env *ops.Env, x *tensor.Array) (*tensor.Array, error)

	// Hybridize turns program capture on or off for every hybrid block
	// in the subtree.
	Hybridize(on bool)

	fmt.Stringer

	base() *BlockBase
}

// BlockBase carries the name, scope, parameter and child bookkeeping
// shared by all blocks. Embed it and call InitBlock first in the
// constructor.
type BlockBase struct {
	name     string
	alias    string
	scope    string
	params   *ParameterDict
	children []NamedChild
	aliasN   map[string]int
}

// InitBlock prepares an embedded base in place. name may be empty, in
// which case a parent assigns alias plus a per-parent index at
// registration ("dense0"). An optional shared dict becomes the parameter
// pool for reuse across blocks.
func (b *BlockBase) InitBlock(name, alias string, shared ...*ParameterDict) {
	var pool *ParameterDict
	if len(shared) > 0 {
		pool = shared[0]
	}
	b.name = name
	b.alias = alias
	if name != "" {
		b.scope = name + "."
	}
	b.params = NewParameterDict(b.scope, pool)
}

func (b *BlockBase) base() *BlockBase { return b }

// Name returns the registered name.
func (b *BlockBase) Name() string {
	return b.name
}

// Scope returns the fully qualified parameter prefix.
func (b *BlockBase) Scope() string {
	return b.scope
}

// Params returns the block's own parameter dict.
func (b *BlockBase) Params() *ParameterDict {
	return b.params
}

// Children returns a copy of the child list in registration order.
func (b *BlockBase) Children() []NamedChild {
	out := make([]NamedChild, len(b.children))
	copy(out, b.children)
	return out
}

// label returns the block's name for error messages, falling back to its
// kind before registration has named it.
func (b *BlockBase) label(fallback string) string {
	if b.name != "" {
		return b.name
	}
	return fallback
}

// RegisterChild appends a child and rescopes its subtree under this
// block. Children registered without an explicit name are named
// alias+index, counted per parent and per alias, so registration order
// fully determines naming. A duplicate child name panics, a programmer
// error.
func (b *BlockBase) RegisterChild(child Block) {
	cb := child.base()
	name := cb.name
	if name == "" {
		alias := cb.alias
		if alias == "" {
			alias = "block"
		}
		if b.aliasN == nil {
			b.aliasN = make(map[string]int)
		}
		name = alias + strconv.Itoa(b.aliasN[alias])
		b.aliasN[alias]++
		cb.name = name
	}
	for _, c := range b.children {
		if c.Name == name {
			panic(fmt.Sprintf("nn: block already has a child named %q", name))
		}
	}
	b.children = append(b.children, NamedChild{Name: name, Block: child})
	cb.setScope(b.scope + name + ".")
}

// setScope rescopes this block and its whole subtree.
func (b *BlockBase) setScope(scope string) {
	b.scope = scope
	b.params.setPrefix(scope)
	for _, c := range b.children {
		c.Block.base().setScope(scope + c.Name + ".")
	}
}

// CollectParams flattens the subtree into a fresh unscoped dict. Two
// distinct parameters under one fully qualified name fail with
// ErrDuplicateName; a parameter shared across blocks is listed once.
func (b *BlockBase) CollectParams() (*ParameterDict, error) {
	out := NewParameterDict("")
	if err := b.collectInto(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BlockBase) collectInto(out *ParameterDict) error {
	if err := out.Merge(b.params); err != nil {
		return err
	}
	for _, c := range b.children {
		if err := c.Block.base().collectInto(out); err != nil {
			return err
		}
	}
	return nil
}

// Initialize materializes every already-resolvable parameter in the
// subtree. Parameters with deferred dimensions quietly wait for the first
// input to fix their shape.
func (b *BlockBase) Initialize() error {
	collected, err := b.CollectParams()
	if err != nil {
		return err
	}
	for name, p := range collected.All() {
		if err := p.Materialize(); err != nil {
			return fmt.Errorf("initialize %s: %w", name, err)
		}
	}
	return nil
}

// Hybridize forwards the request to hybrid descendants. A plain block
// stays imperative itself.
func (b *BlockBase) Hybridize(on bool) {
	for _, c := range b.children {
		if hb, ok := c.Block.(HybridBlock); ok {
			hb.Hybridize(on)
		}
	}
}

// treeString renders a container header with one line per child,
// "(name): repr", nested blocks indented.
func treeString(header string, children []NamedChild) string {
	if len(children) == 0 {
		return header + "()"
	}
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("(\n")
	for _, c := range children {
		fmt.Fprintf(&sb, "  (%s): %s\n", c.Name, indentTail(c.Block.String(), 2))
	}
	sb.WriteString(")")
	return sb.String()
}

// indentTail indents every line after the first by n spaces.
func indentTail(s string, n int) string {
	return strings.ReplaceAll(s, "\n", "\n"+strings.Repeat(" ", n))
}
