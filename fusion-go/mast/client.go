// Package mast fetches plasma-shot diagnostic groups from the MAST archive's
// public zarr store.
package mast

import (
	"fmt"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
	"github.com/fusionbench/fusionbench/fusion-golib/labarr"
	"github.com/fusionbench/fusionbench/fusion-golib/zarr"
)

const (
	// DefaultBaseURL is the public MAST archive endpoint.
	DefaultBaseURL = "https://s3.echo.stfc.ac.uk/mast"
	// DefaultLevel is the calibrated data tier.
	DefaultLevel = 2
)

// Client fetches measurement groups for shots. Shots are addressed as
// {BaseURL}/level{Level}/shots/{shot}.zarr and sub-grouped by diagnostic
// name. Fetches are not retried and nothing is cached.
type Client struct {
	BaseURL string
	Level   int
}

// NewClient returns a client for the given archive base, or for the public
// archive when base is empty. The base may be an http(s):// or s3:// prefix
// or a local directory.
func NewClient(base string, level int) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	if level == 0 {
		level = DefaultLevel
	}
	return &Client{BaseURL: base, Level: level}
}

// ShotURL returns the address of one shot's zarr hierarchy.
func (c *Client) ShotURL(shot int64) string {
	return fmt.Sprintf("%s/level%d/shots/%d.zarr", c.BaseURL, c.Level, shot)
}

// FetchGroup reads one measurement group of a shot into a dataset.
func (c *Client) FetchGroup(shot int64, group string) (*labarr.Dataset, error) {
	store := zarr.OpenStore(c.ShotURL(shot))
	g, err := zarr.OpenGroup(store, group)
	if err != nil {
		return nil, errors.Wrapf(err, "opening group %s of shot %d", group, shot)
	}
	ds, err := GroupDataset(g)
	if err != nil {
		return nil, errors.Wrapf(err, "reading group %s of shot %d", group, shot)
	}
	return ds, nil
}

// GroupDataset converts an open zarr group to a dataset. A 1-D array
// dimensioned by its own name becomes a coordinate, the xarray convention;
// everything else becomes a data variable.
func GroupDataset(g *zarr.Group) (*labarr.Dataset, error) {
	ds := labarr.NewDataset()

	// coordinates first, so axis lengths are established before variables
	for _, name := range g.ArrayNames() {
		arr := g.Array(name)
		dims := arr.Dims()
		if dims == nil {
			return nil, errors.Errorf("array %s carries no axis names", name)
		}
		if !isCoord(name, dims) {
			continue
		}
		values, err := arr.Read()
		if err != nil {
			return nil, err
		}
		if err := ds.SetCoord(name, values); err != nil {
			return nil, err
		}
		ds.Coords[name].Attrs = dataAttrs(arr)
	}

	for _, name := range g.ArrayNames() {
		arr := g.Array(name)
		dims := arr.Dims()
		if isCoord(name, dims) {
			continue
		}
		values, err := arr.Read()
		if err != nil {
			return nil, err
		}
		v, err := labarr.NewVariable(dims, arr.Shape(), values)
		if err != nil {
			return nil, errors.Wrapf(err, "array %s", name)
		}
		v.Attrs = dataAttrs(arr)
		if err := ds.SetVar(name, v); err != nil {
			return nil, err
		}
	}

	for k, v := range g.Attrs() {
		ds.Attrs[k] = v
	}
	return ds, nil
}

func isCoord(name string, dims []string) bool {
	return len(dims) == 1 && dims[0] == name
}

// dataAttrs copies an array's attributes without the axis-names attribute,
// which is structural rather than descriptive.
func dataAttrs(arr *zarr.Array) map[string]interface{} {
	src := arr.Attrs()
	if src == nil {
		return nil
	}
	out := make(map[string]interface{}, len(src))
	for k, v := range src {
		if k == zarr.DimensionsAttr {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
