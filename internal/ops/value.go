package ops

import "github.com/weft-ml/weft/internal/tensor"

// Value is a tensor-like handle flowing through layer computation.
//
// In the eager namespace a Value holds concrete data; in the symbolic
// namespace it is a node in a recorded program. Layers only ever rely on
// the static metadata below, which both namespaces can answer, so the same
// layer code runs unchanged in either mode.
type Value interface {
	Shape() tensor.Shape
	DType() tensor.DataType
}

// Slot is a named storage cell whose contents are looked up at execution
// time. Parameters implement Slot: a recorded program references the slot
// identity, never the value, so parameter updates between replays are
// visible without re-recording.
type Slot interface {
	// SlotName returns the short diagnostic name of the cell.
	SlotName() string

	// SlotValue returns the current contents.
	// Fails if the cell has not been populated yet.
	SlotValue() (*tensor.Array, error)
}
