package labarr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpDimLinear(t *testing.T) {
	v, err := NewVariable([]string{"time"}, []int{3}, []float64{0, 10, 20})
	require.NoError(t, err)

	out, err := InterpDim(v, "time", []float64{0, 1, 2}, []float64{0.5, 1.5})
	require.NoError(t, err)
	assert.Equal(t, []string{"time"}, out.Dims)
	assert.Equal(t, []int{2}, out.Shape)
	assert.InDelta(t, 5, out.Values[0], 1e-12)
	assert.InDelta(t, 15, out.Values[1], 1e-12)
}

func TestInterpDimOutOfRange(t *testing.T) {
	v, err := NewVariable([]string{"time"}, []int{3}, []float64{0, 10, 20})
	require.NoError(t, err)

	out, err := InterpDim(v, "time", []float64{0, 1, 2}, []float64{-1, 0, 2, 3})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(out.Values[0]))
	assert.Equal(t, 0.0, out.Values[1])
	assert.Equal(t, 20.0, out.Values[2])
	assert.True(t, math.IsNaN(out.Values[3]))
}

func TestInterpDim2D(t *testing.T) {
	// two channels with different slopes
	v, err := NewVariable([]string{"time", "chan"}, []int{3, 2}, []float64{
		0, 0,
		10, 100,
		20, 200,
	})
	require.NoError(t, err)

	out, err := InterpDim(v, "time", []float64{0, 1, 2}, []float64{0.5, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, out.Shape)
	assert.InDelta(t, 5, out.At(0, 0), 1e-12)
	assert.InDelta(t, 50, out.At(0, 1), 1e-12)
	assert.InDelta(t, 20, out.At(1, 0), 1e-12)
	assert.InDelta(t, 200, out.At(1, 1), 1e-12)
}

func TestInterpDimAxisNotFirst(t *testing.T) {
	v, err := NewVariable([]string{"chan", "time"}, []int{2, 3}, []float64{
		0, 10, 20,
		0, 100, 200,
	})
	require.NoError(t, err)

	out, err := InterpDim(v, "time", []float64{0, 1, 2}, []float64{0.5, 1.5})
	require.NoError(t, err)
	assert.Equal(t, []string{"chan", "time"}, out.Dims)
	assert.Equal(t, []int{2, 2}, out.Shape)
	assert.InDelta(t, 5, out.At(0, 0), 1e-12)
	assert.InDelta(t, 15, out.At(0, 1), 1e-12)
	assert.InDelta(t, 50, out.At(1, 0), 1e-12)
	assert.InDelta(t, 150, out.At(1, 1), 1e-12)
}

func TestInterpDimErrors(t *testing.T) {
	v, err := NewVariable([]string{"time"}, []int{3}, seq(3))
	require.NoError(t, err)

	_, err = InterpDim(v, "radius", []float64{0, 1, 2}, []float64{1})
	assert.Error(t, err)

	_, err = InterpDim(v, "time", []float64{0, 1}, []float64{1})
	assert.Error(t, err)

	_, err = InterpDim(v, "time", []float64{0, 2, 1}, []float64{1})
	assert.Error(t, err)

	one, err := NewVariable([]string{"time"}, []int{1}, seq(1))
	require.NoError(t, err)
	_, err = InterpDim(one, "time", []float64{0}, []float64{0})
	assert.Error(t, err)
}

func TestInterpCoord(t *testing.T) {
	ds := NewDataset()
	require.NoError(t, ds.SetCoord("radius", []float64{1, 2, 3}))

	withRadius, err := NewVariable([]string{"radius"}, []int{3}, []float64{10, 20, 30})
	require.NoError(t, err)
	require.NoError(t, ds.SetVar("profile", withRadius))

	without, err := NewVariable([]string{"other"}, []int{2}, seq(2))
	require.NoError(t, err)
	require.NoError(t, ds.SetVar("scalarish", without))

	require.NoError(t, ds.InterpCoord("radius", []float64{1.5, 2.5}))

	assert.Equal(t, []float64{1.5, 2.5}, ds.Coord("radius").Values)
	assert.InDelta(t, 15, ds.Var("profile").Values[0], 1e-12)
	assert.InDelta(t, 25, ds.Var("profile").Values[1], 1e-12)
	assert.Equal(t, seq(2), ds.Var("scalarish").Values)
}

func TestInterpCoordMissing(t *testing.T) {
	ds := NewDataset()
	assert.Error(t, ds.InterpCoord("radius", []float64{1}))
}
