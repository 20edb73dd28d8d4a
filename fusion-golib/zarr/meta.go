package zarr

import (
	"encoding/json"
	"math"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
)

// DimensionsAttr is the attribute xarray stores axis names under.
const DimensionsAttr = "_ARRAY_DIMENSIONS"

// consolidatedKey is where zarr keeps the consolidated metadata document.
const consolidatedKey = ".zmetadata"

type consolidated struct {
	Metadata map[string]json.RawMessage `json:"metadata"`
	Format   int                        `json:"zarr_consolidated_format"`
}

// arrayMeta is one array's .zarray document.
type arrayMeta struct {
	Shape      []int             `json:"shape"`
	Chunks     []int             `json:"chunks"`
	DType      string            `json:"dtype"`
	Compressor *compressorMeta   `json:"compressor"`
	FillValue  json.RawMessage   `json:"fill_value"`
	Order      string            `json:"order"`
	Filters    []json.RawMessage `json:"filters"`
	Format     int               `json:"zarr_format"`
	Separator  string            `json:"dimension_separator"`
}

type compressorMeta struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

func (m *arrayMeta) validate(path string) error {
	if m.Format != 2 {
		return errors.Errorf("array %s has zarr format %d, only 2 is supported", path, m.Format)
	}
	if m.Order != "" && m.Order != "C" {
		return errors.Errorf("array %s has order %q, only row-major order is supported", path, m.Order)
	}
	if len(m.Filters) > 0 {
		return errors.Errorf("array %s uses filters, which are not supported", path)
	}
	if len(m.Chunks) != len(m.Shape) {
		return errors.Errorf("array %s has %d chunk lengths for rank %d", path, len(m.Chunks), len(m.Shape))
	}
	for i, c := range m.Chunks {
		if c <= 0 {
			return errors.Errorf("array %s has chunk length %d on axis %d", path, c, i)
		}
	}
	return nil
}

func (m *arrayMeta) separator() string {
	if m.Separator == "" {
		return "."
	}
	return m.Separator
}

// parseFill interprets a .zarray fill_value. A null fill is treated as NaN,
// matching how xarray reads unwritten float regions.
func parseFill(raw json.RawMessage) (float64, error) {
	switch string(raw) {
	case "", "null":
		return math.NaN(), nil
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		return 0, errors.Errorf("unsupported fill value %q", s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, errors.Errorf("unsupported fill value %s", string(raw))
	}
	return f, nil
}

func parseAttrs(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var attrs map[string]interface{}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, errors.Wrapf(err, "parsing attributes")
	}
	return attrs, nil
}
