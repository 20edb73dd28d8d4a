package challenge

import (
	"math"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
	"github.com/fusionbench/fusionbench/fusion-golib/fileutil"
	"github.com/fusionbench/fusionbench/fusion-golib/labarr"
)

// ShotManifest is one row of manifest.csv: where each shot landed and how
// many rows it contributed.
type ShotManifest struct {
	ShotID    int64  `csv:"shot_id"`
	Split     string `csv:"split"`
	Index     int    `csv:"index"`
	TimeSteps int    `csv:"time_steps"`
}

// VariableSummary is one row of summary.csv: basic statistics of one
// training variable, computed over its finite values.
type VariableSummary struct {
	Name        string  `csv:"name"`
	SourceGroup string  `csv:"source_group"`
	Dims        string  `csv:"dims"`
	Values      int     `csv:"values"`
	Finite      int     `csv:"finite"`
	Mean        float64 `csv:"mean"`
	Stddev      float64 `csv:"stddev"`
	Min         float64 `csv:"min"`
	Max         float64 `csv:"max"`
}

// Report is the machine-readable record of one build, written as report.json.
type Report struct {
	BuiltAt    time.Time `json:"built_at"`
	DurationMS int64     `json:"duration_ms"`
	Config     Config    `json:"config"`
	TrainShots []int64   `json:"train_shots"`
	TestShots  []int64   `json:"test_shots"`
	TrainSteps int       `json:"train_steps"`
	TestSteps  int       `json:"test_steps"`
	Columns    int       `json:"solution_columns"`
}

// summarize computes per-variable statistics for a combined dataset.
func summarize(ds *labarr.Dataset) []VariableSummary {
	out := make([]VariableSummary, 0, len(ds.Vars))
	for _, name := range ds.VarNames() {
		v := ds.Vars[name]
		finite := make([]float64, 0, len(v.Values))
		for _, x := range v.Values {
			if !math.IsNaN(x) && !math.IsInf(x, 0) {
				finite = append(finite, x)
			}
		}

		row := VariableSummary{
			Name:   name,
			Dims:   strings.Join(v.Dims, " "),
			Values: len(v.Values),
			Finite: len(finite),
		}
		if sg, ok := v.Attrs[SourceGroupAttr].(string); ok {
			row.SourceGroup = sg
		}
		if len(finite) > 0 {
			row.Mean, _ = stats.Mean(finite)
			row.Stddev, _ = stats.StandardDeviation(finite)
			row.Min, _ = stats.Min(finite)
			row.Max, _ = stats.Max(finite)
		} else {
			nan := math.NaN()
			row.Mean, row.Stddev, row.Min, row.Max = nan, nan, nan, nan
		}
		out = append(out, row)
	}
	return out
}

// timeStepsByIndex counts the rows each shot contributed to a combined
// dataset, keyed by shot index.
func timeStepsByIndex(ds *labarr.Dataset) map[int]int {
	counts := make(map[int]int)
	idx := ds.Var(ShotIndexVar)
	if idx == nil {
		return counts
	}
	for _, v := range idx.Values {
		counts[int(v)]++
	}
	return counts
}

// WriteManifest writes manifest rows as CSV to a local or remote path.
func WriteManifest(path string, rows []ShotManifest) error {
	return writeCSV(path, &rows)
}

// WriteSummary writes summary rows as CSV to a local or remote path.
func WriteSummary(path string, rows []VariableSummary) error {
	return writeCSV(path, &rows)
}

func writeCSV(path string, rows interface{}) error {
	f, err := fileutil.NewBufferedWriter(path)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(rows, f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}
