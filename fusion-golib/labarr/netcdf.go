package labarr

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
)

// WriteNetCDF writes the dataset to a NetCDF file at the given local path,
// creating parent directories as needed. Coordinates are written as variables
// named after their axis, the usual NetCDF convention.
func WriteNetCDF(ds *Dataset, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}

	// coordinates first, so shared axes are defined in a stable order
	for _, name := range ds.CoordNames() {
		if err := addVar(cw, name, ds.Coords[name]); err != nil {
			cw.Close()
			return errors.Wrapf(err, "writing coordinate %s to %s", name, path)
		}
	}
	for _, name := range ds.VarNames() {
		if err := addVar(cw, name, ds.Vars[name]); err != nil {
			cw.Close()
			return errors.Wrapf(err, "writing variable %s to %s", name, path)
		}
	}
	if len(ds.Attrs) > 0 {
		am, err := attributeMap(ds.Attrs)
		if err != nil {
			cw.Close()
			return err
		}
		if err := cw.AddAttributes(am); err != nil {
			cw.Close()
			return errors.Wrapf(err, "writing attributes to %s", path)
		}
	}
	return cw.Close()
}

// ReadNetCDF reads a dataset written by WriteNetCDF. A variable whose only
// axis shares its name is loaded as a coordinate.
func ReadNetCDF(path string) (*Dataset, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer nc.Close()

	ds := NewDataset()
	for _, name := range nc.ListVariables() {
		vr, err := nc.GetVariable(name)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s from %s", name, path)
		}
		flat, shape, err := flatten(vr.Values)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s from %s", name, path)
		}
		dims := append([]string{}, vr.Dimensions...)
		if len(dims) != len(shape) {
			return nil, errors.Errorf("variable %s has %d axes for shape %v in %s", name, len(dims), shape, path)
		}
		v, err := NewVariable(dims, shape, flat)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s from %s", name, path)
		}
		v.Attrs = attrsFromMap(vr.Attributes)
		if len(dims) == 1 && dims[0] == name {
			ds.Coords[name] = v
		} else if err := ds.SetVar(name, v); err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
	}
	if attrs := attrsFromMap(nc.Attributes()); attrs != nil {
		ds.Attrs = attrs
	}
	return ds, nil
}

func addVar(cw api.Writer, name string, v *Variable) error {
	var am api.AttributeMap
	if len(v.Attrs) > 0 {
		m, err := attributeMap(v.Attrs)
		if err != nil {
			return err
		}
		am = m
	}
	values, err := nest(v.Values, v.Shape)
	if err != nil {
		return err
	}
	return cw.AddVar(name, api.Variable{
		Values:     values,
		Dimensions: append([]string{}, v.Dims...),
		Attributes: am,
	})
}

// nest reshapes flat row-major values into the nested slices the NetCDF
// writer expects, e.g. [][]float64 for a 2-D variable.
func nest(values []float64, shape []int) (interface{}, error) {
	if len(shape) == 0 {
		if len(values) != 1 {
			return nil, errors.Errorf("scalar wants 1 value, got %d", len(values))
		}
		return values[0], nil
	}
	if len(shape) == 1 {
		return append([]float64{}, values...), nil
	}

	inner := 1
	for _, s := range shape[1:] {
		inner *= s
	}
	typ := reflect.TypeOf(float64(0))
	for range shape {
		typ = reflect.SliceOf(typ)
	}
	out := reflect.MakeSlice(typ, shape[0], shape[0])
	for i := 0; i < shape[0]; i++ {
		sub, err := nest(values[i*inner:(i+1)*inner], shape[1:])
		if err != nil {
			return nil, err
		}
		out.Index(i).Set(reflect.ValueOf(sub))
	}
	return out.Interface(), nil
}

// flatten walks nested slices depth-first, returning flat row-major values
// and the shape.
func flatten(values interface{}) ([]float64, []int, error) {
	if flat, ok := values.([]float64); ok {
		return append([]float64{}, flat...), []int{len(flat)}, nil
	}
	return flattenValue(reflect.ValueOf(values))
}

func flattenValue(rv reflect.Value) ([]float64, []int, error) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return []float64{rv.Float()}, nil, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return []float64{float64(rv.Int())}, nil, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return []float64{float64(rv.Uint())}, nil, nil
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		if n == 0 {
			return nil, []int{0}, nil
		}
		var flat []float64
		var inner []int
		for i := 0; i < n; i++ {
			sub, shape, err := flattenValue(rv.Index(i))
			if err != nil {
				return nil, nil, err
			}
			if i == 0 {
				inner = shape
				flat = make([]float64, 0, n*len(sub))
			} else if !intsEqual(shape, inner) {
				return nil, nil, errors.Errorf("ragged array: row %d has shape %v, want %v", i, shape, inner)
			}
			flat = append(flat, sub...)
		}
		return flat, append([]int{n}, inner...), nil
	default:
		return nil, nil, errors.Errorf("unsupported value type %s", rv.Kind())
	}
}

func intsEqual(a, b []int) bool {
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

// attributeMap converts attributes to the writer's ordered map, normalizing
// value types the file format cannot hold and dropping the rest.
func attributeMap(attrs map[string]interface{}) (api.AttributeMap, error) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kept := make([]string, 0, len(keys))
	vals := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		v, ok := normalizeAttr(attrs[k])
		if !ok {
			continue
		}
		kept = append(kept, k)
		vals[k] = v
	}
	om, err := util.NewOrderedMap(kept, vals)
	if err != nil {
		return nil, errors.Wrapf(err, "building attribute map")
	}
	return om, nil
}

func normalizeAttr(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return float64(1), true
		}
		return float64(0), true
	case []float64:
		return x, true
	case []interface{}:
		out := make([]float64, 0, len(x))
		for _, e := range x {
			n, ok := normalizeAttr(e)
			if !ok {
				return nil, false
			}
			f, ok := n.(float64)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	default:
		return nil, false
	}
}

func attrsFromMap(am api.AttributeMap) map[string]interface{} {
	if am == nil {
		return nil
	}
	keys := am.Keys()
	if len(keys) == 0 {
		return nil
	}
	attrs := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		v, ok := am.Get(k)
		if !ok {
			continue
		}
		attrs[k] = readAttr(v)
	}
	return attrs
}

// readAttr maps stored attribute values back onto the types normalizeAttr
// accepts, so attributes survive a write/read round trip unchanged.
func readAttr(v interface{}) interface{} {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return x
	case float32:
		return float64(x)
	case []float64:
		if len(x) == 1 {
			return x[0]
		}
		return x
	case []float32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		if len(out) == 1 {
			return out[0]
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if flat, shape, err := flattenValue(rv); err == nil && len(shape) <= 1 {
		if len(shape) == 0 || (len(shape) == 1 && shape[0] == 1 && len(flat) == 1) {
			return flat[0]
		}
		return flat
	}
	return v
}
