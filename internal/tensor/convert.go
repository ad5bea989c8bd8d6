package tensor

import "fmt"

// Convert copies the array into a new array of the target dtype.
// Supported between all numeric dtypes; Bool is not convertible.
// Converting to the same dtype returns a deep copy.
func Convert(a *Array, to DataType) (*Array, error) {
	if a.dtype == to {
		return a.Clone(), nil
	}
	if a.dtype == Bool || to == Bool {
		return nil, fmt.Errorf("cannot convert %s to %s", a.dtype, to)
	}
	out := Zeros(a.shape, to)
	for i := 0; i < a.NumElements(); i++ {
		out.SetFloat(i, a.Float(i))
	}
	return out, nil
}
