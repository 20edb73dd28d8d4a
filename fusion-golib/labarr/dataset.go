package labarr

import (
	"sort"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
)

// Dataset is a collection of variables sharing named axes, plus 1-D
// coordinate variables giving the sample positions along those axes.
type Dataset struct {
	Coords map[string]*Variable
	Vars   map[string]*Variable
	Attrs  map[string]interface{}
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		Coords: make(map[string]*Variable),
		Vars:   make(map[string]*Variable),
		Attrs:  make(map[string]interface{}),
	}
}

// SetCoord registers the sample positions along a named axis. The axis length
// must agree with any variable already using the axis.
func (d *Dataset) SetCoord(name string, values []float64) error {
	if n, ok := d.DimLen(name); ok && n != len(values) {
		return errors.Errorf("coordinate %s has %d values but axis has length %d", name, len(values), n)
	}
	d.Coords[name] = &Variable{
		Dims:   []string{name},
		Shape:  []int{len(values)},
		Values: values,
	}
	return nil
}

// SetVar adds a variable under the given name. Every axis of the variable
// must be consistent with the axes already in the dataset.
func (d *Dataset) SetVar(name string, v *Variable) error {
	if _, ok := d.Coords[name]; ok {
		return errors.Errorf("variable %s conflicts with a coordinate of the same name", name)
	}
	for i, dim := range v.Dims {
		if n, ok := d.DimLen(dim); ok && n != v.Shape[i] {
			return errors.Errorf("variable %s has length %d on axis %s, want %d", name, v.Shape[i], dim, n)
		}
	}
	d.Vars[name] = v
	return nil
}

// Var returns the named variable, or nil if the dataset does not have it.
func (d *Dataset) Var(name string) *Variable {
	return d.Vars[name]
}

// Coord returns the named coordinate variable, or nil.
func (d *Dataset) Coord(name string) *Variable {
	return d.Coords[name]
}

// HasCoord reports whether the dataset has a coordinate for the named axis.
func (d *Dataset) HasCoord(name string) bool {
	_, ok := d.Coords[name]
	return ok
}

// VarNames returns the variable names in sorted order.
func (d *Dataset) VarNames() []string {
	names := make([]string, 0, len(d.Vars))
	for name := range d.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CoordNames returns the coordinate names in sorted order.
func (d *Dataset) CoordNames() []string {
	names := make([]string, 0, len(d.Coords))
	for name := range d.Coords {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DimLen returns the length of the named axis, determined by the first
// coordinate or variable using it.
func (d *Dataset) DimLen(dim string) (int, bool) {
	if c, ok := d.Coords[dim]; ok {
		return c.Shape[0], true
	}
	for _, v := range d.Vars {
		for i, vd := range v.Dims {
			if vd == dim {
				return v.Shape[i], true
			}
		}
	}
	return 0, false
}

// DropVars removes the named variables. Missing names are ignored.
func (d *Dataset) DropVars(names ...string) {
	for _, name := range names {
		delete(d.Vars, name)
	}
}

// DropCoords removes the named coordinates. Missing names are ignored.
func (d *Dataset) DropCoords(names ...string) {
	for _, name := range names {
		delete(d.Coords, name)
	}
}

// Copy returns a deep copy of the dataset.
func (d *Dataset) Copy() *Dataset {
	out := NewDataset()
	for name, c := range d.Coords {
		out.Coords[name] = c.Copy()
	}
	for name, v := range d.Vars {
		out.Vars[name] = v.Copy()
	}
	out.Attrs = copyAttrs(d.Attrs)
	if out.Attrs == nil {
		out.Attrs = make(map[string]interface{})
	}
	return out
}
