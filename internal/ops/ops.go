// Package ops defines the operator namespace that layers are written
// against. A namespace is bound per call, so the same layer computes
// immediately through the eager namespace or records a replayable program
// through the symbolic one.
package ops

import "github.com/weft-ml/weft/internal/tensor"

// ActFunc names an element-wise activation function.
type ActFunc string

// Supported activation functions.
const (
	ReLU     ActFunc = "relu"
	Sigmoid  ActFunc = "sigmoid"
	Tanh     ActFunc = "tanh"
	SoftReLU ActFunc = "softrelu"
	SoftSign ActFunc = "softsign"
)

// Valid reports whether the activation function is known.
func (f ActFunc) Valid() bool {
	switch f {
	case ReLU, Sigmoid, Tanh, SoftReLU, SoftSign:
		return true
	}
	return false
}

// Special dimension values accepted by Reshape.
const (
	// KeepDim copies the corresponding input dimension.
	KeepDim = 0

	// InferDim computes the dimension from the remaining element count.
	// At most one target dimension may be InferDim.
	InferDim = -1
)

// Ops is the operator namespace bound to one execution environment.
//
// Methods validate shapes and dtypes through the shared inference helpers
// in this package, so eager and symbolic results always agree on metadata.
// Violations are returned as errors wrapping ErrRank or ErrDType.
type Ops interface {
	// Constant lifts a concrete array into the namespace.
	Constant(a *tensor.Array) Value

	// Bind lifts a storage slot into the namespace. The eager namespace
	// reads the slot immediately; the symbolic namespace records the slot
	// identity and reads it again on every replay.
	Bind(s Slot) (Value, error)

	// Element-wise arithmetic with NumPy-style broadcasting.
	Add(x, y Value) (Value, error)
	Sub(x, y Value) (Value, error)
	Mul(x, y Value) (Value, error)
	Div(x, y Value) (Value, error)
	AddScalar(x Value, c float64) (Value, error)
	MulScalar(x Value, c float64) (Value, error)

	// MatMul multiplies two rank-2 values: (M, K) @ (K, N) -> (M, N).
	MatMul(x, y Value) (Value, error)

	// FullyConnected computes x @ weight^T (+ bias). x must be rank 2
	// with trailing dimension matching weight's; bias may be nil.
	FullyConnected(x, weight, bias Value) (Value, error)

	// Activation applies a named element-wise activation.
	Activation(x Value, fn ActFunc) (Value, error)

	// LeakyReLU computes x for x >= 0 and alpha*x otherwise.
	LeakyReLU(x Value, alpha float64) (Value, error)

	// Dropout zeroes a fraction rate of elements and rescales the rest by
	// 1/(1-rate) in training mode; it is the identity in inference mode.
	Dropout(x Value, rate float64) (Value, error)

	// BatchNorm normalizes x along all axes except axis. Training mode
	// uses batch statistics and folds them into the running statistics
	// with the given momentum; inference mode uses the running statistics.
	BatchNorm(x, gamma, beta, runningMean, runningVar Value, axis int, momentum, epsilon float64) (Value, error)

	// Embedding gathers rows of table by integer indices. Output shape is
	// the indices shape with the table's embedding dimension appended.
	Embedding(indices, table Value) (Value, error)

	// Reshape changes the shape metadata. dims may contain KeepDim and a
	// single InferDim.
	Reshape(x Value, dims []int) (Value, error)

	// Cast converts the value to another data type.
	Cast(x Value, dtype tensor.DataType) (Value, error)

	// Realize returns the concrete data behind a value. The symbolic
	// namespace fails with ErrTrace: user code that branches on values
	// surfaces the error instead of being recorded incorrectly.
	Realize(v Value) (*tensor.Array, error)

	// Env returns the execution environment the namespace is bound to.
	Env() *Env
}

// Backend creates namespaces. It is the call-time binding point: each
// forward call binds a fresh namespace carrying that call's environment.
type Backend interface {
	Name() string
	Namespace(env *Env) Ops
}
