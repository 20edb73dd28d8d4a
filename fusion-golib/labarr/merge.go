package labarr

import (
	"reflect"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
)

// AttrsPolicy selects how dataset attributes combine during a merge.
type AttrsPolicy int

const (
	// AttrsDropConflicts keeps attributes that agree across the inputs and
	// silently drops any key whose values disagree.
	AttrsDropConflicts AttrsPolicy = iota
	// AttrsOverride keeps the earliest input's value for conflicting keys.
	AttrsOverride
)

// Merge combines datasets into one. Variable names must be unique across the
// inputs and shared coordinates must carry equal values.
func Merge(datasets []*Dataset, policy AttrsPolicy) (*Dataset, error) {
	out := NewDataset()
	for _, ds := range datasets {
		for name, c := range ds.Coords {
			if have, ok := out.Coords[name]; ok {
				if !floatsEqual(have.Values, c.Values) {
					return nil, errors.Errorf("coordinate %s differs between merged datasets", name)
				}
				continue
			}
			out.Coords[name] = c.Copy()
		}
		for name, v := range ds.Vars {
			if _, ok := out.Vars[name]; ok {
				return nil, errors.Errorf("duplicate variable %s", name)
			}
			if err := out.SetVar(name, v.Copy()); err != nil {
				return nil, err
			}
		}
	}
	out.Attrs = combineAttrs(datasets, policy)
	return out, nil
}

func combineAttrs(datasets []*Dataset, policy AttrsPolicy) map[string]interface{} {
	out := make(map[string]interface{})
	if policy == AttrsOverride {
		// later datasets only contribute keys the earlier ones did not set
		for _, ds := range datasets {
			for k, v := range ds.Attrs {
				if _, ok := out[k]; !ok {
					out[k] = v
				}
			}
		}
		return out
	}

	// a key dropped for a conflict stays dropped, even if a later dataset
	// repeats a value seen before the conflict
	dropped := make(map[string]bool)
	for _, ds := range datasets {
		for k, v := range ds.Attrs {
			if dropped[k] {
				continue
			}
			if have, ok := out[k]; ok {
				if !reflect.DeepEqual(have, v) {
					delete(out, k)
					dropped[k] = true
				}
				continue
			}
			out[k] = v
		}
	}
	return out
}
