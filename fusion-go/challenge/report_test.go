package challenge

import (
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusionbench/fusionbench/fusion-golib/labarr"
)

func TestSummarize(t *testing.T) {
	ds := labarr.NewDataset()
	require.NoError(t, ds.SetCoord("time", []float64{0, 1, 2, 3}))
	v, err := labarr.NewVariable([]string{"time"}, []int{4}, []float64{1, 3, math.NaN(), 5})
	require.NoError(t, err)
	v.Attrs = map[string]interface{}{SourceGroupAttr: "magnetics"}
	require.NoError(t, ds.SetVar("ip", v))

	rows := summarize(ds)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "ip", row.Name)
	assert.Equal(t, "magnetics", row.SourceGroup)
	assert.Equal(t, "time", row.Dims)
	assert.Equal(t, 4, row.Values)
	assert.Equal(t, 3, row.Finite)
	assert.InDelta(t, 3.0, row.Mean, 1e-9)
	assert.InDelta(t, 1.6329931, row.Stddev, 1e-6)
	assert.InDelta(t, 1.0, row.Min, 1e-9)
	assert.InDelta(t, 5.0, row.Max, 1e-9)
}

func TestSummarizeAllNaN(t *testing.T) {
	ds := labarr.NewDataset()
	nan := math.NaN()
	v, err := labarr.NewVariable([]string{"time"}, []int{2}, []float64{nan, nan})
	require.NoError(t, err)
	require.NoError(t, ds.SetVar("dead_channel", v))

	rows := summarize(ds)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].Finite)
	assert.True(t, math.IsNaN(rows[0].Mean))
	assert.True(t, math.IsNaN(rows[0].Min))
}

func TestTimeStepsByIndex(t *testing.T) {
	ds := combinedTestSet(t)
	counts := timeStepsByIndex(ds)
	assert.Equal(t, map[int]int{2: 2, 3: 1}, counts)
}

func TestWriteManifest(t *testing.T) {
	dir, err := ioutil.TempDir("", "manifest-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	rows := []ShotManifest{
		{ShotID: 15585, Split: "train", Index: 0, TimeSteps: 120},
		{ShotID: 30420, Split: "test", Index: 5, TimeSteps: 80},
	}
	path := filepath.Join(dir, "manifest.csv")
	require.NoError(t, WriteManifest(path, rows))

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "shot_id,split,index,time_steps", lines[0])
	assert.Equal(t, "15585,train,0,120", lines[1])
	assert.Equal(t, "30420,test,5,80", lines[2])
}
