package labarr

import (
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
)

// InterpDim resamples the variable along the named axis using piecewise
// linear interpolation. src gives the sample positions along the axis and
// must be strictly increasing; target gives the positions to resample onto.
// Target positions outside the source range produce NaN.
func InterpDim(v *Variable, dim string, src, target []float64) (*Variable, error) {
	axis := v.AxisIndex(dim)
	if axis < 0 {
		return nil, errors.Errorf("variable has no axis %s", dim)
	}
	if len(src) != v.Shape[axis] {
		return nil, errors.Errorf("axis %s has length %d but got %d sample positions", dim, v.Shape[axis], len(src))
	}
	if err := validateAxis(dim, src); err != nil {
		return nil, err
	}

	front := v
	if axis != 0 {
		var err error
		front, err = v.MoveToFront(dim)
		if err != nil {
			return nil, err
		}
	}

	lines := front.Size() / len(src)
	values := make([]float64, len(target)*lines)
	line := make([]float64, len(src))
	var pl interp.PiecewiseLinear
	for j := 0; j < lines; j++ {
		for i := range src {
			line[i] = front.Values[i*lines+j]
		}
		if err := pl.Fit(src, line); err != nil {
			return nil, errors.Wrapf(err, "fitting axis %s", dim)
		}
		for ti, t := range target {
			if t < src[0] || t > src[len(src)-1] {
				values[ti*lines+j] = math.NaN()
			} else {
				values[ti*lines+j] = pl.Predict(t)
			}
		}
	}

	shape := append([]int{}, front.Shape...)
	shape[0] = len(target)
	out := &Variable{
		Dims:   append([]string{}, front.Dims...),
		Shape:  shape,
		Values: values,
		Attrs:  copyAttrs(v.Attrs),
	}
	if axis == 0 {
		return out, nil
	}

	// restore the original axis order
	perm := make([]int, len(v.Dims))
	for i := range perm {
		switch {
		case i == axis:
			perm[i] = 0
		case i < axis:
			perm[i] = i + 1
		default:
			perm[i] = i
		}
	}
	return out.transpose(perm), nil
}

// InterpCoord resamples every variable carrying the named axis onto the
// target positions, reading the source positions from the dataset's
// coordinate, and replaces the coordinate with the target. Variables without
// the axis are left unchanged.
func (d *Dataset) InterpCoord(dim string, target []float64) error {
	src := d.Coords[dim]
	if src == nil {
		return errors.Errorf("dataset has no coordinate %s", dim)
	}
	for name, v := range d.Vars {
		if v.AxisIndex(dim) < 0 {
			continue
		}
		nv, err := InterpDim(v, dim, src.Values, target)
		if err != nil {
			return errors.Wrapf(err, "resampling %s", name)
		}
		d.Vars[name] = nv
	}
	delete(d.Coords, dim)
	return d.SetCoord(dim, append([]float64{}, target...))
}

// validateAxis checks that the samples form a usable interpolation axis.
func validateAxis(dim string, src []float64) error {
	if len(src) < 2 {
		return errors.Errorf("axis %s needs at least two samples to interpolate, got %d", dim, len(src))
	}
	for i := 1; i < len(src); i++ {
		if !(src[i] > src[i-1]) {
			return errors.Errorf("axis %s is not strictly increasing at sample %d", dim, i)
		}
	}
	return nil
}
