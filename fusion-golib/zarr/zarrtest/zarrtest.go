// Package zarrtest builds small consolidated zarr v2 hierarchies for tests.
package zarrtest

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io/ioutil"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
)

// Array describes one array to write. Values are encoded as little-endian
// float64.
type Array struct {
	Name       string
	Dims       []string
	Shape      []int
	Chunks     []int // defaults to Shape
	Values     []float64
	Attrs      map[string]interface{}
	Compressor string // "" for raw chunks, or "zlib"
}

// Group describes one group to write.
type Group struct {
	Name   string
	Attrs  map[string]interface{}
	Arrays []Array
}

// Files builds the keys of a hierarchy containing the given groups,
// including consolidated metadata at .zmetadata.
func Files(groups ...Group) (map[string][]byte, error) {
	files := make(map[string][]byte)
	metadata := map[string]interface{}{
		".zgroup": map[string]interface{}{"zarr_format": 2},
	}

	for _, g := range groups {
		metadata[g.Name+"/.zgroup"] = map[string]interface{}{"zarr_format": 2}
		if g.Attrs != nil {
			metadata[g.Name+"/.zattrs"] = g.Attrs
		}
		for _, a := range g.Arrays {
			if err := addArray(files, metadata, g.Name, a); err != nil {
				return nil, err
			}
		}
	}

	for key, value := range metadata {
		data, err := json.Marshal(value)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s", key)
		}
		files[key] = data
	}
	doc, err := json.Marshal(map[string]interface{}{
		"metadata":                 metadata,
		"zarr_consolidated_format": 1,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "encoding consolidated metadata")
	}
	files[".zmetadata"] = doc
	return files, nil
}

func addArray(files map[string][]byte, metadata map[string]interface{}, group string, a Array) error {
	path := group + "/" + a.Name
	if len(a.Dims) != len(a.Shape) {
		return errors.Errorf("array %s has %d dims for %d axes", path, len(a.Dims), len(a.Shape))
	}
	total := 1
	for _, s := range a.Shape {
		total *= s
	}
	if total != len(a.Values) {
		return errors.Errorf("array %s has %d values for shape %v", path, len(a.Values), a.Shape)
	}

	chunks := a.Chunks
	if chunks == nil {
		chunks = a.Shape
	}

	var compressor interface{}
	if a.Compressor != "" {
		compressor = map[string]interface{}{"id": a.Compressor, "level": 1}
	}
	metadata[path+"/.zarray"] = map[string]interface{}{
		"shape":       a.Shape,
		"chunks":      chunks,
		"dtype":       "<f8",
		"compressor":  compressor,
		"fill_value":  nil,
		"order":       "C",
		"filters":     nil,
		"zarr_format": 2,
	}

	attrs := make(map[string]interface{}, len(a.Attrs)+1)
	for k, v := range a.Attrs {
		attrs[k] = v
	}
	attrs["_ARRAY_DIMENSIONS"] = a.Dims
	metadata[path+"/.zattrs"] = attrs

	return writeChunks(files, path, a, chunks)
}

func writeChunks(files map[string][]byte, path string, a Array, chunks []int) error {
	rank := len(a.Shape)
	if rank == 0 {
		return errors.Errorf("array %s: scalar arrays are not supported", path)
	}

	chunkSize := 1
	for _, c := range chunks {
		if c <= 0 {
			return errors.Errorf("array %s has chunk length %d", path, c)
		}
		chunkSize *= c
	}
	grid := make([]int, rank)
	for i := range grid {
		grid[i] = (a.Shape[i] + chunks[i] - 1) / chunks[i]
	}
	outStrides := strides(a.Shape)
	chunkStrides := strides(chunks)

	coord := make([]int, rank)
	for {
		buf := gather(a.Values, a.Shape, chunks, coord, chunkSize, outStrides, chunkStrides)
		data, err := encodeChunk(buf, a.Compressor)
		if err != nil {
			return errors.Wrapf(err, "array %s", path)
		}
		parts := make([]string, rank)
		for i, c := range coord {
			parts[i] = strconv.Itoa(c)
		}
		files[path+"/"+strings.Join(parts, ".")] = data

		i := rank - 1
		for ; i >= 0; i-- {
			coord[i]++
			if coord[i] < grid[i] {
				break
			}
			coord[i] = 0
		}
		if i < 0 {
			return nil
		}
	}
}

// gather copies the in-bounds region of one chunk out of the flat values,
// padding edge chunks with NaN.
func gather(values []float64, shape, chunks, coord []int, chunkSize int, outStrides, chunkStrides []int) []float64 {
	rank := len(shape)
	buf := make([]float64, chunkSize)
	for i := range buf {
		buf[i] = math.NaN()
	}

	start := make([]int, rank)
	ext := make([]int, rank)
	for i := range start {
		start[i] = coord[i] * chunks[i]
		ext[i] = chunks[i]
		if rem := shape[i] - start[i]; rem < ext[i] {
			ext[i] = rem
		}
	}

	pos := make([]int, rank)
	for {
		var cOff, oOff int
		for i := 0; i < rank; i++ {
			cOff += pos[i] * chunkStrides[i]
			oOff += (start[i] + pos[i]) * outStrides[i]
		}
		copy(buf[cOff:cOff+ext[rank-1]], values[oOff:oOff+ext[rank-1]])

		i := rank - 2
		for ; i >= 0; i-- {
			pos[i]++
			if pos[i] < ext[i] {
				break
			}
			pos[i] = 0
		}
		if i < 0 {
			return buf
		}
	}
}

func encodeChunk(values []float64, compressor string) ([]byte, error) {
	var raw bytes.Buffer
	if err := binary.Write(&raw, binary.LittleEndian, values); err != nil {
		return nil, err
	}
	switch compressor {
	case "":
		return raw.Bytes(), nil
	case "zlib":
		var b bytes.Buffer
		w := zlib.NewWriter(&b)
		if _, err := w.Write(raw.Bytes()); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	default:
		return nil, errors.Errorf("unsupported compressor %s", compressor)
	}
}

func strides(shape []int) []int {
	out := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		out[i] = stride
		stride *= shape[i]
	}
	return out
}

// WriteDir writes the keys under a directory so the hierarchy can be read
// from disk.
func WriteDir(dir string, files map[string][]byte) error {
	for key, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := ioutil.WriteFile(path, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the keys over HTTP, answering 404 for anything absent.
func Handler(files map[string][]byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	})
}
