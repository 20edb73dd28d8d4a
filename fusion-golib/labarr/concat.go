package labarr

import (
	"github.com/fusionbench/fusionbench/fusion-golib/errors"
)

// JoinPolicy selects how non-concatenated coordinates combine during Concat.
type JoinPolicy int

const (
	// JoinExact requires non-concatenated coordinates to carry equal values
	// across the inputs, and errors when they differ.
	JoinExact JoinPolicy = iota
	// JoinOverride takes the first input's values for non-concatenated
	// coordinates without checking the rest. When inputs genuinely differ the
	// result silently misaligns, so prefer JoinExact.
	JoinOverride
)

// Concat joins datasets end to end along the named axis. Every input must
// carry the same variables, each with the concatenated axis, matching axis
// order, and matching lengths on every other axis. Dataset attributes that
// disagree are dropped; variable attributes come from the first input.
func Concat(datasets []*Dataset, dim string, join JoinPolicy) (*Dataset, error) {
	if len(datasets) == 0 {
		return nil, errors.Errorf("nothing to concatenate")
	}

	first := datasets[0]
	names := first.VarNames()
	for i, ds := range datasets[1:] {
		if !stringsEqual(names, ds.VarNames()) {
			return nil, errors.Errorf("dataset %d has variables %v, want %v", i+1, ds.VarNames(), names)
		}
	}

	out := NewDataset()
	if err := concatCoords(out, datasets, dim, join); err != nil {
		return nil, err
	}
	for _, name := range names {
		v, err := concatVariable(datasets, name, dim)
		if err != nil {
			return nil, err
		}
		if err := out.SetVar(name, v); err != nil {
			return nil, err
		}
	}
	out.Attrs = combineAttrs(datasets, AttrsDropConflicts)
	return out, nil
}

func concatVariable(datasets []*Dataset, name, dim string) (*Variable, error) {
	v0 := datasets[0].Vars[name]
	axis := v0.AxisIndex(dim)
	if axis < 0 {
		return nil, errors.Errorf("variable %s has no axis %s", name, dim)
	}

	total := 0
	for i, ds := range datasets {
		v := ds.Vars[name]
		if !stringsEqual(v0.Dims, v.Dims) {
			return nil, errors.Errorf("variable %s has axes %v in dataset %d, want %v", name, v.Dims, i, v0.Dims)
		}
		for a := range v.Shape {
			if a != axis && v.Shape[a] != v0.Shape[a] {
				return nil, errors.Errorf("variable %s has length %d on axis %s in dataset %d, want %d",
					name, v.Shape[a], v.Dims[a], i, v0.Shape[a])
			}
		}
		total += v.Shape[axis]
	}

	outer := 1
	for a := 0; a < axis; a++ {
		outer *= v0.Shape[a]
	}
	inner := 1
	for a := axis + 1; a < len(v0.Shape); a++ {
		inner *= v0.Shape[a]
	}

	shape := append([]int{}, v0.Shape...)
	shape[axis] = total
	values := make([]float64, outer*total*inner)

	off := 0
	for _, ds := range datasets {
		v := ds.Vars[name]
		n := v.Shape[axis]
		for o := 0; o < outer; o++ {
			src := v.Values[o*n*inner : (o+1)*n*inner]
			dst := values[o*total*inner+off*inner:]
			copy(dst[:n*inner], src)
		}
		off += n
	}

	return &Variable{
		Dims:   append([]string{}, v0.Dims...),
		Shape:  shape,
		Values: values,
		Attrs:  copyAttrs(v0.Attrs),
	}, nil
}

func concatCoords(out *Dataset, datasets []*Dataset, dim string, join JoinPolicy) error {
	has := datasets[0].HasCoord(dim)
	for i, ds := range datasets {
		if ds.HasCoord(dim) != has {
			return errors.Errorf("coordinate %s present in some datasets but not dataset %d", dim, i)
		}
	}
	if has {
		var joined []float64
		for _, ds := range datasets {
			joined = append(joined, ds.Coords[dim].Values...)
		}
		out.Coords[dim] = &Variable{
			Dims:   []string{dim},
			Shape:  []int{len(joined)},
			Values: joined,
			Attrs:  copyAttrs(datasets[0].Coords[dim].Attrs),
		}
	}

	for _, ds := range datasets {
		for name, c := range ds.Coords {
			if name == dim {
				continue
			}
			have, ok := out.Coords[name]
			if !ok {
				out.Coords[name] = c.Copy()
				continue
			}
			if join == JoinExact && !floatsEqual(have.Values, c.Values) {
				return errors.Errorf("coordinate %s differs between concatenated datasets", name)
			}
		}
	}
	return nil
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
