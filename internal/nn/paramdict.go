package nn

import (
	"fmt"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/weft-ml/weft/internal/tensor"
)

// ParameterDict is an insertion-ordered collection of parameters under a
// common name prefix. Blocks own one dict each; CollectParams merges a
// block tree's dicts into a flat, fully qualified view for optimizers and
// checkpointing.
//
// A dict may be backed by a shared pool: lookups that miss locally consult
// the pool, so sibling layers constructed with the same pool reuse one
// Parameter object. The dict stores parameters under their short names;
// fully qualified names are formed on enumeration, which keeps re-scoping
// a registered subtree cheap.
type ParameterDict struct {
	prefix string
	params *orderedmap.OrderedMap[string, *Parameter]
	byPtr  map[*Parameter]string
	shared *ParameterDict
}

// NewParameterDict creates an empty dict. An optional shared dict becomes
// the lookup pool for parameter reuse.
func NewParameterDict(prefix string, shared ...*ParameterDict) *ParameterDict {
	d := &ParameterDict{
		prefix: prefix,
		params: orderedmap.New[string, *Parameter](),
		byPtr:  make(map[*Parameter]string),
	}
	if len(shared) > 0 {
		d.shared = shared[0]
	}
	return d
}

// Prefix returns the qualification prefix, "" for an unscoped dict.
func (d *ParameterDict) Prefix() string {
	return d.prefix
}

// setPrefix re-scopes the dict. Called when the owning block is
// registered under a parent.
func (d *ParameterDict) setPrefix(prefix string) {
	d.prefix = prefix
}

// Len returns the number of parameters recorded in this dict.
func (d *ParameterDict) Len() int {
	return d.params.Len()
}

// Lookup finds a parameter by short name, consulting the shared pool on a
// local miss. It never creates.
func (d *ParameterDict) Lookup(name string) (*Parameter, bool) {
	if p, ok := d.params.Get(name); ok {
		return p, true
	}
	if d.shared != nil {
		return d.shared.Lookup(name)
	}
	return nil, false
}

// Get retrieves or creates the parameter with the given short name.
//
// An existing parameter (local or shared) is shape-merged with the
// requested declaration and returned, so repeated Gets refine rather than
// replace; a contradictory shape fails with tensor.ErrShapeConflict, a
// different dtype with a plain error. A shared hit is recorded locally as
// well, keeping this dict a complete inventory of what its block uses.
func (d *ParameterDict) Get(name string, shape tensor.PartialShape, opts ...ParameterOpts) (*Parameter, error) {
	var o ParameterOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	if p, ok := d.Lookup(name); ok {
		if p.dtype != o.DType {
			return nil, fmt.Errorf("parameter %q exists with dtype %s, requested %s", name, p.dtype, o.DType)
		}
		if err := p.Resolve(shape); err != nil {
			return nil, err
		}
		d.record(name, p)
		return p, nil
	}
	p := NewParameter(name, shape, opts...)
	d.record(name, p)
	return p, nil
}

// MustGet is Get for constructors; it panics on conflict.
func (d *ParameterDict) MustGet(name string, shape tensor.PartialShape, opts ...ParameterOpts) *Parameter {
	p, err := d.Get(name, shape, opts...)
	if err != nil {
		panic(fmt.Sprintf("nn: %v", err))
	}
	return p
}

// record stores p under name if not already present.
func (d *ParameterDict) record(name string, p *Parameter) {
	if _, ok := d.params.Get(name); ok {
		return
	}
	d.params.Set(name, p)
	if _, ok := d.byPtr[p]; !ok {
		d.byPtr[p] = name
	}
}

// Merge adds another dict's parameters under their fully qualified names.
// Intended for collection into an unscoped dict.
//
// Two distinct parameters under one qualified name fail with
// ErrDuplicateName. The same Parameter object appearing again is skipped:
// a shared parameter is listed once, under the first name it was seen by.
func (d *ParameterDict) Merge(other *ParameterDict) error {
	for name, p := range other.All() {
		if existing, ok := d.params.Get(name); ok {
			if existing == p {
				continue
			}
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		if _, ok := d.byPtr[p]; ok {
			continue
		}
		d.record(name, p)
	}
	return nil
}

// All iterates parameters in insertion order under fully qualified names.
func (d *ParameterDict) All() iter.Seq2[string, *Parameter] {
	return func(yield func(string, *Parameter) bool) {
		for pair := d.params.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(d.prefix+pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Trainable iterates the subset of parameters an optimizer should update,
// in insertion order. Frozen parameters, such as batch-norm moving
// statistics, never appear.
func (d *ParameterDict) Trainable() iter.Seq2[string, *Parameter] {
	return func(yield func(string, *Parameter) bool) {
		for pair := d.params.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value.grad != Trainable {
				continue
			}
			if !yield(d.prefix+pair.Key, pair.Value) {
				return
			}
		}
	}
}

// String lists the contents, one parameter per line.
func (d *ParameterDict) String() string {
	s := "ParameterDict (\n"
	for name, p := range d.All() {
		s += fmt.Sprintf("  %s: shape=%s, dtype=%s, %s\n", name, p.shape, p.dtype, p.grad)
	}
	return s + ")"
}
