package nn

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/weft-ml/weft/internal/backend/eager"
	"github.com/weft-ml/weft/internal/backend/symbolic"
	"github.com/weft-ml/weft/internal/ops"
	"github.com/weft-ml/weft/internal/tensor"
)

// defaultBackend executes direct forwards and replays captured programs.
var defaultBackend ops.Backend = eager.New()

// HybridBlock is a block whose computation is written once against the
// abstract operator namespace and can therefore run eagerly or be
// captured into a replayable program.
type HybridBlock interface {
	Block

	// HybridForward expresses the block's computation against f. params
	// holds the block's own parameters bound into f's value domain under
	// their short names. Implementations must go through f for all
	// tensor work; reading concrete data would fail during capture with
	// ops.ErrTrace.
	HybridForward(f ops.Ops, x ops.Value, params map[string]ops.Value) (ops.Value, error)

	// Apply resolves and binds this block's parameters against f and
	// runs HybridForward. Containers compose children through Apply, so
	// capturing a parent inlines the whole subtree into one program.
	Apply(f ops.Ops, x ops.Value) (ops.Value, error)

	// TraceCount returns how many programs this block has captured.
	TraceCount() int64
}

// ShapeInferer is implemented by layers whose parameter shapes depend on
// the input. InferShapes observes an input shape and resolves deferred
// dimensions; an observation that contradicts an earlier resolution fails
// with tensor.ErrShapeConflict, and an input whose known rank or shape is
// insufficient fails with ErrShapeInference.
type ShapeInferer interface {
	InferShapes(in tensor.Shape) error
}

// HybridBase is the execution engine embedded by every hybrid block. It
// carries the capture switch and a one-slot program cache keyed by the
// input signature (shape plus dtype).
//
// Parameter values are never baked into a captured program, only
// parameter identities. Updating values through SetData is visible on the
// next replay; only a signature change causes a re-capture.
//
// Concurrency: first use materializes parameters and must be serialized
// by the caller. Afterwards concurrent Forwards are safe; the cache swap
// is guarded internally.
type HybridBase struct {
	BlockBase
	impl    HybridBlock
	backend ops.Backend

	mu         sync.Mutex
	hybridized bool
	cachedSig  string
	cached     *symbolic.Program
	traces     atomic.Int64
}

// InitHybrid prepares an embedded base in place and wires the outer
// block in. Custom block constructors call it once, first:
//
//	type MLP struct {
//		nn.HybridBase
//		hidden *nn.Dense
//	}
//
//	m := &MLP{}
//	m.InitHybrid(m, "", "mlp")
//	m.hidden = nn.NewDense(64)
//	m.RegisterChild(m.hidden)
func (h *HybridBase) InitHybrid(impl HybridBlock, name, alias string, shared ...*ParameterDict) {
	h.BlockBase.InitBlock(name, alias, shared...)
	h.impl = impl
	h.backend = defaultBackend
}

// Apply resolves shapes, materializes and binds this block's own
// parameters against f, then runs the block's HybridForward. It works
// identically for eager namespaces and tracers.
func (h *HybridBase) Apply(f ops.Ops, x ops.Value) (ops.Value, error) {
	if h.impl == nil {
		panic("nn: hybrid block used before InitHybrid")
	}
	if err := h.ensureParams(x); err != nil {
		return nil, err
	}
	bound, err := h.bindParams(f)
	if err != nil {
		return nil, err
	}
	return h.impl.HybridForward(f, x, bound)
}

// ensureParams runs deferred shape inference against the input's static
// shape and materializes the block's own parameters. It runs on every
// application: re-resolving with an unchanged shape is a no-op, while a
// changed one surfaces tensor.ErrShapeConflict.
func (h *HybridBase) ensureParams(x ops.Value) error {
	if si, ok := h.impl.(ShapeInferer); ok {
		if err := si.InferShapes(x.Shape()); err != nil {
			return err
		}
	}
	for pair := h.params.params.Oldest(); pair != nil; pair = pair.Next() {
		if err := pair.Value.Materialize(); err != nil {
			return err
		}
	}
	return nil
}

// bindParams lifts the block's own parameters into f's value domain,
// keyed by short name.
func (h *HybridBase) bindParams(f ops.Ops) (map[string]ops.Value, error) {
	if h.params.Len() == 0 {
		return nil, nil
	}
	bound := make(map[string]ops.Value, h.params.Len())
	for pair := h.params.params.Oldest(); pair != nil; pair = pair.Next() {
		v, err := f.Bind(pair.Value)
		if err != nil {
			return nil, err
		}
		bound[pair.Key] = v
	}
	return bound, nil
}

// Forward runs the block on a concrete array.
//
// While not hybridized this is a direct eager application. Once
// hybridized, the first call per input signature captures the subtree
// into a program; later calls with the same signature replay it against
// a namespace bound to env, so the execution mode is decided per call and
// is never baked into the program.
func (h *HybridBase) Forward(env *ops.Env, x *tensor.Array) (*tensor.Array, error) {
	f := h.backend.Namespace(env)
	if !h.isHybridized() {
		out, err := h.Apply(f, f.Constant(x))
		if err != nil {
			return nil, err
		}
		return f.Realize(out)
	}
	prog, err := h.program(x)
	if err != nil {
		return nil, err
	}
	out, err := prog.Run(f, f.Constant(x))
	if err != nil {
		return nil, err
	}
	return f.Realize(out)
}

func (h *HybridBase) isHybridized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hybridized
}

// program returns the cached program for x's signature, capturing a new
// one on miss. Capture and cache swap happen under the block's mutex so
// concurrent callers with the same signature trace once; replays run
// outside the lock.
func (h *HybridBase) program(x *tensor.Array) (*symbolic.Program, error) {
	sig := x.DType().String() + x.Shape().String()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cached != nil && h.cachedSig == sig {
		return h.cached, nil
	}
	tr := symbolic.NewTracer(nil)
	out, err := h.Apply(tr, tr.Placeholder(x.Shape(), x.DType()))
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", h.label(h.alias), err)
	}
	prog, err := tr.Compile(out)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", h.label(h.alias), err)
	}
	h.traces.Add(1)
	h.cached, h.cachedSig = prog, sig
	return prog, nil
}

// Hybridize switches program capture on or off for this block and every
// hybrid descendant. Switching either way drops the cached program.
func (h *HybridBase) Hybridize(on bool) {
	h.mu.Lock()
	h.hybridized = on
	h.cached, h.cachedSig = nil, ""
	h.mu.Unlock()
	h.BlockBase.Hybridize(on)
}

// TraceCount returns how many programs this block has captured. A steady
// count across calls means the cache is being reused.
func (h *HybridBase) TraceCount() int64 {
	return h.traces.Load()
}
