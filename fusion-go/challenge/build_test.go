package challenge

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusionbench/fusionbench/fusion-golib/labarr"
	"github.com/fusionbench/fusionbench/fusion-golib/serialization"
)

func TestBuildEndToEnd(t *testing.T) {
	f := newFakeFetcher(t)
	cfg := testConfig()

	dir, err := ioutil.TempDir("", "challenge-build")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	arts, report, err := Build(f, cfg, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "train.nc"), arts.TrainPath)

	train, err := labarr.ReadNetCDF(arts.TrainPath)
	require.NoError(t, err)
	assert.NotNil(t, train.Var("psi"))
	assert.NotNil(t, train.Var(ShotIndexVar))
	trainSteps, ok := train.DimLen(cfg.TimeAxis)
	require.True(t, ok)
	assert.Equal(t, report.TrainSteps, trainSteps)

	test, err := labarr.ReadNetCDF(arts.TestPath)
	require.NoError(t, err)
	assert.Nil(t, test.Var("psi"))
	require.NotNil(t, test.Var(ShotIndexVar))
	testSteps, ok := test.DimLen(cfg.TimeAxis)
	require.True(t, ok)
	assert.Equal(t, report.TestSteps, testSteps)

	// whichever way the seed split them, the three shots contribute all
	// of their 4+2+3 time steps
	assert.Len(t, report.TrainShots, 2)
	assert.Len(t, report.TestShots, 1)
	assert.Equal(t, 9, trainSteps+testSteps)

	// one solution row per test time step
	data, err := ioutil.ReadFile(arts.SolutionPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, testSteps+1)
	assert.Equal(t, "psi_0,psi_1,Usage", lines[0])
	for _, line := range lines[1:] {
		ok := strings.HasSuffix(line, UsagePublic) || strings.HasSuffix(line, UsagePrivate)
		assert.True(t, ok, line)
	}

	var rpt Report
	require.NoError(t, serialization.Decode(arts.ReportPath, &rpt))
	assert.Equal(t, report.TrainShots, rpt.TrainShots)
	assert.Equal(t, report.TestShots, rpt.TestShots)
	assert.Equal(t, 2, rpt.Columns)
	assert.Equal(t, cfg.Seed, rpt.Config.Seed)

	manifest, err := ioutil.ReadFile(arts.ManifestPath)
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSpace(string(manifest)), "\n"), 4)

	summary, err := ioutil.ReadFile(arts.SummaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "psi")
}

func TestBuildRejectsBadConfig(t *testing.T) {
	f := newFakeFetcher(t)
	cfg := testConfig()
	cfg.TrainSize = 0

	_, _, err := Build(f, cfg, "ignored")
	require.Error(t, err)
}
