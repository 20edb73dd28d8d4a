package challenge

import (
	"strings"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
	"github.com/fusionbench/fusionbench/fusion-golib/labarr"
)

const (
	// SourceGroupAttr tags each variable with the diagnostic group it came
	// from.
	SourceGroupAttr = "source_group"
	// ShotIndexVar is the per-time-step column recording the shot's position
	// in the overall shot ordering.
	ShotIndexVar = "shot_index"
)

// Fetcher retrieves one measurement group for one shot. *mast.Client is the
// production implementation.
type Fetcher interface {
	FetchGroup(shot int64, group string) (*labarr.Dataset, error)
}

// ShotRef pairs a shot id with its position in the overall shot ordering.
// The position, not the raw id, becomes the shot_index value.
type ShotRef struct {
	ID    int64
	Index int
}

// AlignShot builds one per-shot table: every variable of every configured
// group resampled onto the target field's time axis (and major-radius axis
// where the group carries one), tagged with its source group, plus the
// shot-index column and the target field itself.
func AlignShot(f Fetcher, cfg Config, ref ShotRef) (*labarr.Dataset, error) {
	fetched, err := f.FetchGroup(ref.ID, cfg.TargetGroup)
	if err != nil {
		return nil, errors.Wrapf(err, "shot %d", ref.ID)
	}
	target, err := targetDataset(fetched, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "shot %d", ref.ID)
	}
	times := target.Coord(cfg.TimeAxis).Values
	radius := target.Coord(cfg.RadiusAxis)

	tables := make([]*labarr.Dataset, 0, len(cfg.Groups))
	for _, schema := range cfg.Groups {
		group, err := f.FetchGroup(ref.ID, schema.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "shot %d", ref.ID)
		}
		aligned, err := alignGroup(group, schema, cfg, times, radius)
		if err != nil {
			return nil, errors.Wrapf(err, "shot %d group %s", ref.ID, schema.Name)
		}
		tables = append(tables, aligned)
	}

	merged, err := labarr.Merge(tables, labarr.AttrsDropConflicts)
	if err != nil {
		return nil, errors.Wrapf(err, "shot %d", ref.ID)
	}

	idx := labarr.Full([]string{cfg.TimeAxis}, []int{len(times)}, float64(ref.Index))
	if err := merged.SetVar(ShotIndexVar, idx); err != nil {
		return nil, errors.Wrapf(err, "shot %d", ref.ID)
	}

	// target first, so its attributes win on conflict
	table, err := labarr.Merge([]*labarr.Dataset{target, merged}, labarr.AttrsOverride)
	if err != nil {
		return nil, errors.Wrapf(err, "shot %d", ref.ID)
	}
	return table, nil
}

// targetDataset extracts the target field and its axes from the fetched
// target group, with the time axis first.
func targetDataset(group *labarr.Dataset, cfg Config) (*labarr.Dataset, error) {
	v := group.Var(cfg.TargetVar)
	if v == nil {
		return nil, errors.Errorf("group %s has no variable %s", cfg.TargetGroup, cfg.TargetVar)
	}
	if group.Coord(cfg.TimeAxis) == nil {
		return nil, errors.Errorf("group %s has no %s coordinate", cfg.TargetGroup, cfg.TimeAxis)
	}

	psi, err := v.MoveToFront(cfg.TimeAxis)
	if err != nil {
		return nil, errors.Wrapf(err, "variable %s", cfg.TargetVar)
	}

	out := labarr.NewDataset()
	for _, dim := range psi.Dims {
		if c := group.Coord(dim); c != nil {
			out.Coords[dim] = c.Copy()
		}
	}
	if err := out.SetVar(cfg.TargetVar, psi); err != nil {
		return nil, err
	}
	for k, val := range group.Attrs {
		out.Attrs[k] = val
	}
	return out, nil
}

// alignGroup resamples one fetched group onto the reference axes and tags
// each variable with its source. Alternate time axes do not survive: every
// variable is re-dimensioned onto the single reference time coordinate.
func alignGroup(group *labarr.Dataset, schema GroupSchema, cfg Config, times []float64, radius *labarr.Variable) (*labarr.Dataset, error) {
	if radius != nil && group.HasCoord(cfg.RadiusAxis) {
		if err := group.InterpCoord(cfg.RadiusAxis, radius.Values); err != nil {
			return nil, errors.Wrapf(err, "resampling %s", cfg.RadiusAxis)
		}
	}

	out := labarr.NewDataset()
	if err := out.SetCoord(cfg.TimeAxis, append([]float64{}, times...)); err != nil {
		return nil, err
	}
	for name, c := range group.Coords {
		if name == cfg.TimeAxis || strings.HasPrefix(name, "time") {
			continue
		}
		out.Coords[name] = c.Copy()
	}

	for name, v := range group.Vars {
		dim := timeDim(v, schema)
		src := group.Coord(dim)
		if src == nil {
			return nil, errors.Errorf("variable %s has no %s coordinate to resample by", name, dim)
		}
		nv, err := labarr.InterpDim(v, dim, src.Values, times)
		if err != nil {
			return nil, errors.Wrapf(err, "resampling %s along %s", name, dim)
		}
		nv.RenameDim(dim, cfg.TimeAxis)
		nv, err = nv.MoveToFront(cfg.TimeAxis)
		if err != nil {
			return nil, err
		}
		if nv.Attrs == nil {
			nv.Attrs = make(map[string]interface{})
		}
		nv.Attrs[SourceGroupAttr] = schema.Name
		if err := out.SetVar(name, nv); err != nil {
			return nil, errors.Wrapf(err, "variable %s", name)
		}
	}

	for k, val := range group.Attrs {
		out.Attrs[k] = val
	}
	return out, nil
}

// timeDim resolves the axis a variable is resampled along: the group's
// declared time axis when the schema names one, else the first axis whose
// name begins with "time", else literally "time".
func timeDim(v *labarr.Variable, schema GroupSchema) string {
	if schema.TimeDim != "" {
		return schema.TimeDim
	}
	for _, d := range v.Dims {
		if strings.HasPrefix(d, "time") {
			return d
		}
	}
	return "time"
}
