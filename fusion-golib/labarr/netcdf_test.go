package labarr

import (
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetCDFRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "labarr-netcdf")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	ds := NewDataset()
	require.NoError(t, ds.SetCoord("time", []float64{0, 0.1, 0.2}))
	require.NoError(t, ds.SetCoord("major_radius", []float64{0.9, 1.4}))

	psi, err := NewVariable([]string{"time", "major_radius"}, []int{3, 2},
		[]float64{0, 1, 2, math.NaN(), 4, 5})
	require.NoError(t, err)
	psi.Attrs = map[string]interface{}{"units": "Wb", "source_group": "equilibrium"}
	require.NoError(t, ds.SetVar("psi", psi))

	idx, err := NewVariable([]string{"time"}, []int{3}, []float64{0, 0, 0})
	require.NoError(t, err)
	require.NoError(t, ds.SetVar("shot_index", idx))

	ds.Attrs = map[string]interface{}{"facility": "MAST", "level": 2.0}

	path := filepath.Join(dir, "shot.nc")
	require.NoError(t, WriteNetCDF(ds, path))

	back, err := ReadNetCDF(path)
	require.NoError(t, err)

	assert.Equal(t, ds.VarNames(), back.VarNames())
	assert.Equal(t, ds.CoordNames(), back.CoordNames())
	assert.Equal(t, []float64{0, 0.1, 0.2}, back.Coord("time").Values)

	got := back.Var("psi")
	require.NotNil(t, got)
	assert.Equal(t, []string{"time", "major_radius"}, got.Dims)
	assert.Equal(t, []int{3, 2}, got.Shape)
	assert.True(t, floatsEqual(psi.Values, got.Values))
	assert.Equal(t, "equilibrium", got.Attrs["source_group"])
	assert.Equal(t, "Wb", got.Attrs["units"])

	assert.Equal(t, "MAST", back.Attrs["facility"])
	assert.Equal(t, 2.0, back.Attrs["level"])
}

func TestWriteNetCDFCreatesDirs(t *testing.T) {
	dir, err := ioutil.TempDir("", "labarr-netcdf")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	ds := NewDataset()
	require.NoError(t, ds.SetCoord("time", []float64{0, 1}))

	path := filepath.Join(dir, "deep", "nested", "out.nc")
	require.NoError(t, WriteNetCDF(ds, path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestReadNetCDFMissing(t *testing.T) {
	_, err := ReadNetCDF("/nonexistent/path/file.nc")
	assert.Error(t, err)
}

func TestNestAndFlatten(t *testing.T) {
	nested, err := nest(seq(6), []int{2, 3})
	require.NoError(t, err)
	rows, ok := nested.([][]float64)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 2}, rows[0])
	assert.Equal(t, []float64{3, 4, 5}, rows[1])

	flat, shape, err := flatten(nested)
	require.NoError(t, err)
	assert.Equal(t, seq(6), flat)
	assert.Equal(t, []int{2, 3}, shape)
}

func TestNormalizeAttr(t *testing.T) {
	v, ok := normalizeAttr(int64(7))
	require.True(t, ok)
	assert.Equal(t, 7.0, v)

	v, ok = normalizeAttr(true)
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = normalizeAttr([]interface{}{1.0, 2.0})
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, v)

	_, ok = normalizeAttr(map[string]interface{}{})
	assert.False(t, ok)
}
