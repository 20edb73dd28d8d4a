package challenge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
	"github.com/fusionbench/fusionbench/fusion-golib/labarr"
)

// fakeFetcher serves canned per-shot groups. It returns a fresh copy per
// call because alignment mutates what it fetches.
type fakeFetcher struct {
	shots map[int64]map[string]*labarr.Dataset
}

func (f *fakeFetcher) FetchGroup(shot int64, group string) (*labarr.Dataset, error) {
	groups, ok := f.shots[shot]
	if !ok {
		return nil, errors.Errorf("shot %d not in archive", shot)
	}
	ds, ok := groups[group]
	if !ok {
		return nil, errors.Errorf("shot %d has no group %s", shot, group)
	}
	return ds.Copy(), nil
}

// testConfig is a three-shot challenge over two diagnostic groups.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ShotIDs = []int64{101, 202, 303}
	cfg.TrainSize = 2
	cfg.TestSize = 1
	cfg.Groups = []GroupSchema{{Name: "magnetics"}, {Name: "thomson_scattering"}}
	return cfg
}

// equilibriumGroup builds a target group. psi is stored radius-major so
// alignment has to transpose it; its value at time i, radius j is
// base + 10*i + j.
func equilibriumGroup(t *testing.T, base float64, times, radius []float64) *labarr.Dataset {
	ds := labarr.NewDataset()
	require.NoError(t, ds.SetCoord("time", times))
	require.NoError(t, ds.SetCoord("major_radius", radius))

	vals := make([]float64, len(radius)*len(times))
	for j := range radius {
		for i := range times {
			vals[j*len(times)+i] = base + 10*float64(i) + float64(j)
		}
	}
	psi, err := labarr.NewVariable([]string{"major_radius", "time"}, []int{len(radius), len(times)}, vals)
	require.NoError(t, err)
	psi.Attrs = map[string]interface{}{"units": "Wb"}
	require.NoError(t, ds.SetVar("psi", psi))

	ds.Attrs["facility"] = "MAST"
	ds.Attrs["convention"] = "psi-sign-v2"
	return ds
}

// magneticsGroup samples ip at the ends of the shot, plus a saddle-coil
// array on its own clock.
func magneticsGroup(t *testing.T, base, t0, t1 float64) *labarr.Dataset {
	ds := labarr.NewDataset()
	require.NoError(t, ds.SetCoord("time", []float64{t0, t1}))
	require.NoError(t, ds.SetCoord("time_saddle", []float64{t0, t1}))
	require.NoError(t, ds.SetCoord("coil", []float64{0, 1, 2}))

	ip, err := labarr.NewVariable([]string{"time"}, []int{2}, []float64{base + 1, base + 2})
	require.NoError(t, err)
	ip.Attrs = map[string]interface{}{"units": "A"}
	require.NoError(t, ds.SetVar("ip", ip))

	saddle, err := labarr.NewVariable([]string{"time_saddle", "coil"}, []int{2, 3},
		[]float64{0, 1, 2, 10, 11, 12})
	require.NoError(t, err)
	require.NoError(t, ds.SetVar("saddle", saddle))

	ds.Attrs["facility"] = "magnetics suite"
	ds.Attrs["convention"] = "psi-sign-v1"
	ds.Attrs["campaign"] = "M9"
	return ds
}

// thomsonGroup measures te on its own time and radius grids. te at time i,
// radius r is 100*(i+1) + r, so both resamples are exact.
func thomsonGroup(t *testing.T, t0, t1 float64) *labarr.Dataset {
	ds := labarr.NewDataset()
	times := []float64{t0, (t0 + t1) / 2, t1}
	radius := []float64{0.8, 1.2, 1.6}
	require.NoError(t, ds.SetCoord("time", times))
	require.NoError(t, ds.SetCoord("major_radius", radius))

	vals := make([]float64, 0, len(times)*len(radius))
	for i := range times {
		for _, r := range radius {
			vals = append(vals, 100*float64(i+1)+r)
		}
	}
	te, err := labarr.NewVariable([]string{"time", "major_radius"}, []int{len(times), len(radius)}, vals)
	require.NoError(t, err)
	require.NoError(t, ds.SetVar("te", te))

	ds.Attrs["facility"] = "thomson suite"
	ds.Attrs["campaign"] = "M9"
	return ds
}

func shotTimes(shot int64) []float64 {
	switch shot {
	case 101:
		return []float64{0, 0.1, 0.2, 0.3}
	case 202:
		return []float64{0, 0.1}
	default:
		return []float64{0, 0.1, 0.2}
	}
}

func fakeShot(t *testing.T, shot int64) map[string]*labarr.Dataset {
	times := shotTimes(shot)
	t0, t1 := times[0], times[len(times)-1]
	return map[string]*labarr.Dataset{
		"equilibrium":        equilibriumGroup(t, float64(shot), times, []float64{1.0, 1.5}),
		"magnetics":          magneticsGroup(t, float64(shot), t0, t1),
		"thomson_scattering": thomsonGroup(t, t0, t1),
	}
}

func newFakeFetcher(t *testing.T) *fakeFetcher {
	return &fakeFetcher{shots: map[int64]map[string]*labarr.Dataset{
		101: fakeShot(t, 101),
		202: fakeShot(t, 202),
		303: fakeShot(t, 303),
	}}
}
