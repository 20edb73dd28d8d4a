package challenge

import (
	"github.com/sbwhitecap/tqdm"
	"github.com/sbwhitecap/tqdm/iterators"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
	"github.com/fusionbench/fusionbench/fusion-golib/labarr"
)

// Assemble aligns every shot in order and concatenates the per-shot tables
// along the time axis. Row order in the result is shot order, then time
// order within each shot.
func Assemble(f Fetcher, cfg Config, refs []ShotRef) (*labarr.Dataset, error) {
	if len(refs) == 0 {
		return nil, errors.Errorf("no shots to assemble")
	}

	tables := make([]*labarr.Dataset, 0, len(refs))
	var alignErr error
	err := tqdm.With(iterators.Interval(0, len(refs)), "Aligning shots", func(c interface{}) (brk bool) {
		ref := refs[c.(int)]
		table, err := AlignShot(f, cfg, ref)
		if err != nil {
			alignErr = errors.Wrapf(err, "aligning shot %d", ref.ID)
			return true
		}
		tables = append(tables, table)
		return
	})
	if alignErr != nil {
		return nil, alignErr
	}
	if err != nil {
		return nil, errors.Wrapf(err, "iterating shots")
	}

	join := labarr.JoinExact
	if cfg.OverrideJoin {
		join = labarr.JoinOverride
	}
	out, err := labarr.Concat(tables, cfg.TimeAxis, join)
	if err != nil {
		return nil, errors.Wrapf(err, "concatenating %d shots", len(tables))
	}
	return out, nil
}
