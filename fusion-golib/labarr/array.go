package labarr

import (
	"math"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
)

// Variable is an n-dimensional array of float64 values in row-major order,
// with a name for each axis.
type Variable struct {
	Dims   []string
	Shape  []int
	Values []float64
	Attrs  map[string]interface{}
}

// NewVariable validates that the shape matches the dims and the number of
// values, and returns the variable. The dims, shape, and values are not
// copied.
func NewVariable(dims []string, shape []int, values []float64) (*Variable, error) {
	if len(dims) != len(shape) {
		return nil, errors.Errorf("got %d dims for %d axes", len(dims), len(shape))
	}
	n := 1
	for i, s := range shape {
		if s < 0 {
			return nil, errors.Errorf("axis %s has negative length %d", dims[i], s)
		}
		n *= s
	}
	if n != len(values) {
		return nil, errors.Errorf("shape %v wants %d values, got %d", shape, n, len(values))
	}
	return &Variable{Dims: dims, Shape: shape, Values: values}, nil
}

// Full builds a variable of the given shape with every value set to fill.
func Full(dims []string, shape []int, fill float64) *Variable {
	n := 1
	for _, s := range shape {
		n *= s
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = fill
	}
	return &Variable{
		Dims:   append([]string{}, dims...),
		Shape:  append([]int{}, shape...),
		Values: values,
	}
}

// Size returns the total number of values.
func (v *Variable) Size() int {
	n := 1
	for _, s := range v.Shape {
		n *= s
	}
	return n
}

// AxisIndex returns the position of the named axis, or -1 if the variable
// does not have it.
func (v *Variable) AxisIndex(dim string) int {
	for i, d := range v.Dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// strides returns the row-major stride of each axis.
func (v *Variable) strides() []int {
	strides := make([]int, len(v.Shape))
	stride := 1
	for i := len(v.Shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= v.Shape[i]
	}
	return strides
}

// At returns the value at the given coordinate. It panics if the coordinate
// does not match the variable's rank, in keeping with slice indexing.
func (v *Variable) At(idx ...int) float64 {
	if len(idx) != len(v.Shape) {
		panic(errors.Errorf("got %d indices for rank %d", len(idx), len(v.Shape)))
	}
	var off int
	for i, stride := range v.strides() {
		off += idx[i] * stride
	}
	return v.Values[off]
}

// Copy returns a deep copy of the variable.
func (v *Variable) Copy() *Variable {
	return &Variable{
		Dims:   append([]string{}, v.Dims...),
		Shape:  append([]int{}, v.Shape...),
		Values: append([]float64{}, v.Values...),
		Attrs:  copyAttrs(v.Attrs),
	}
}

// RenameDim renames an axis in place. It is a no-op if the variable does not
// have the axis.
func (v *Variable) RenameDim(from, to string) {
	for i, d := range v.Dims {
		if d == from {
			v.Dims[i] = to
		}
	}
}

// MoveToFront returns a copy of the variable with the named axis first and
// the other axes in their original order.
func (v *Variable) MoveToFront(dim string) (*Variable, error) {
	axis := v.AxisIndex(dim)
	if axis < 0 {
		return nil, errors.Errorf("variable has no axis %s", dim)
	}
	if axis == 0 {
		return v.Copy(), nil
	}
	perm := make([]int, 0, len(v.Dims))
	perm = append(perm, axis)
	for i := range v.Dims {
		if i != axis {
			perm = append(perm, i)
		}
	}
	return v.transpose(perm), nil
}

// transpose returns a copy of the variable with axes reordered so that output
// axis i is input axis perm[i].
func (v *Variable) transpose(perm []int) *Variable {
	rank := len(v.Dims)
	dims := make([]string, rank)
	shape := make([]int, rank)
	for i, p := range perm {
		dims[i] = v.Dims[p]
		shape[i] = v.Shape[p]
	}

	oldStrides := v.strides()
	values := make([]float64, len(v.Values))
	coord := make([]int, rank)
	for out := range values {
		var in int
		for i, c := range coord {
			in += c * oldStrides[perm[i]]
		}
		values[out] = v.Values[in]

		for i := rank - 1; i >= 0; i-- {
			coord[i]++
			if coord[i] < shape[i] {
				break
			}
			coord[i] = 0
		}
	}

	return &Variable{
		Dims:   dims,
		Shape:  shape,
		Values: values,
		Attrs:  copyAttrs(v.Attrs),
	}
}

func copyAttrs(attrs map[string]interface{}) map[string]interface{} {
	if attrs == nil {
		return nil
	}
	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// floatsEqual compares two slices of values, treating NaN as equal to NaN.
func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		return false
	}
	return true
}
