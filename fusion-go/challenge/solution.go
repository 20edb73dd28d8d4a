package challenge

import (
	"encoding/csv"
	"strconv"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
	"github.com/fusionbench/fusionbench/fusion-golib/fileutil"
	"github.com/fusionbench/fusionbench/fusion-golib/labarr"
)

// Usage labels marking which leaderboard partition a solution row scores on.
const (
	UsagePublic  = "Public"
	UsagePrivate = "Private"
)

// Solution is the held-out target table: one row per test time step, one
// column per flattened spatial sample of the target, plus a usage label.
type Solution struct {
	Columns []string
	Values  [][]float64
	Usage   []string
}

// BuildSolution extracts the solution table from the test dataset and then
// removes the target variable from it. Rows from the first test shot are the
// public partition; rows from every later test shot are private.
func BuildSolution(test *labarr.Dataset, cfg Config) (*Solution, error) {
	target := test.Var(cfg.TargetVar)
	if target == nil {
		return nil, errors.Errorf("test dataset has no variable %s", cfg.TargetVar)
	}
	if len(target.Dims) == 0 || target.Dims[0] != cfg.TimeAxis {
		return nil, errors.Errorf("variable %s must lead with axis %s, got %v", cfg.TargetVar, cfg.TimeAxis, target.Dims)
	}
	idx := test.Var(ShotIndexVar)
	if idx == nil {
		return nil, errors.Errorf("test dataset has no variable %s", ShotIndexVar)
	}

	rows := target.Shape[0]
	if rows == 0 {
		return nil, errors.Errorf("test dataset has no time steps")
	}
	samples := target.Size() / rows

	sol := &Solution{
		Columns: make([]string, 0, samples+1),
		Values:  make([][]float64, rows),
		Usage:   make([]string, rows),
	}
	for s := 0; s < samples; s++ {
		sol.Columns = append(sol.Columns, cfg.TargetVar+"_"+strconv.Itoa(s))
	}
	sol.Columns = append(sol.Columns, "Usage")

	for r := 0; r < rows; r++ {
		sol.Values[r] = append([]float64{}, target.Values[r*samples:(r+1)*samples]...)
		if int(idx.Values[r]) == cfg.TrainSize {
			sol.Usage[r] = UsagePublic
		} else {
			sol.Usage[r] = UsagePrivate
		}
	}

	test.DropVars(cfg.TargetVar)
	return sol, nil
}

func (s *Solution) row(r int) []string {
	out := make([]string, 0, len(s.Columns))
	for _, v := range s.Values[r] {
		out = append(out, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return append(out, s.Usage[r])
}

// WriteCSV writes the solution table to a local or remote path.
func (s *Solution) WriteCSV(path string) error {
	f, err := fileutil.NewBufferedWriter(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(s.Columns); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	for r := range s.Values {
		if err := w.Write(s.row(r)); err != nil {
			f.Close()
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}
