package zarr

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
)

// Group is one level of a zarr hierarchy together with its arrays.
type Group struct {
	path   string
	attrs  map[string]interface{}
	arrays map[string]*Array
}

// OpenGroup opens the group at the given path under the store root, using
// the store's consolidated metadata. Pass an empty path for the root group.
func OpenGroup(store Store, path string) (*Group, error) {
	raw, err := store.Get(consolidatedKey)
	if IsNotExist(err) {
		return nil, errors.Errorf("store has no consolidated metadata at %s", consolidatedKey)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading consolidated metadata")
	}

	var meta consolidated
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, errors.Wrapf(err, "parsing consolidated metadata")
	}
	if meta.Format != 1 {
		return nil, errors.Errorf("unsupported consolidated metadata format %d", meta.Format)
	}

	prefix := ""
	if path != "" {
		prefix = path + "/"
	}

	g := &Group{path: path, arrays: make(map[string]*Array)}
	found := path == ""
	for key := range meta.Metadata {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		switch {
		case rest == ".zgroup", rest == ".zattrs":
			found = true
		case strings.HasSuffix(rest, "/.zarray") && strings.Count(rest, "/") == 1:
			found = true
			name := strings.TrimSuffix(rest, "/.zarray")
			arr, err := newArray(store, prefix+name,
				meta.Metadata[key], meta.Metadata[prefix+name+"/.zattrs"])
			if err != nil {
				return nil, err
			}
			g.arrays[name] = arr
		}
	}
	if !found {
		return nil, errors.Errorf("group %s not found in store", path)
	}

	attrs, err := parseAttrs(meta.Metadata[prefix+".zattrs"])
	if err != nil {
		return nil, errors.Wrapf(err, "group %s", path)
	}
	g.attrs = attrs
	return g, nil
}

// ArrayNames returns the group's array names in sorted order.
func (g *Group) ArrayNames() []string {
	names := make([]string, 0, len(g.arrays))
	for name := range g.arrays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Array returns the named array, or nil if the group does not have it.
func (g *Group) Array(name string) *Array {
	return g.arrays[name]
}

// Attrs returns the group's attributes.
func (g *Group) Attrs() map[string]interface{} {
	return g.attrs
}
