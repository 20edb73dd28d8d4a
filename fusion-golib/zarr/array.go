package zarr

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
)

// Array is one zarr array and its metadata. Values are decoded to float64
// regardless of the stored dtype.
type Array struct {
	store Store
	path  string
	meta  arrayMeta
	attrs map[string]interface{}
	fill  float64
}

func newArray(store Store, path string, rawMeta, rawAttrs []byte) (*Array, error) {
	a := &Array{store: store, path: path}
	if err := json.Unmarshal(rawMeta, &a.meta); err != nil {
		return nil, errors.Wrapf(err, "parsing metadata for array %s", path)
	}
	if err := a.meta.validate(path); err != nil {
		return nil, err
	}
	fill, err := parseFill(a.meta.FillValue)
	if err != nil {
		return nil, errors.Wrapf(err, "array %s", path)
	}
	a.fill = fill
	attrs, err := parseAttrs(rawAttrs)
	if err != nil {
		return nil, errors.Wrapf(err, "array %s", path)
	}
	a.attrs = attrs
	return a, nil
}

// Shape returns the array's axis lengths.
func (a *Array) Shape() []int {
	return append([]int{}, a.meta.Shape...)
}

// Dims returns the axis names recorded by xarray, or nil if the array does
// not carry them.
func (a *Array) Dims() []string {
	raw, ok := a.attrs[DimensionsAttr]
	if !ok {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	dims := make([]string, 0, len(list))
	for _, e := range list {
		s, ok := e.(string)
		if !ok {
			return nil
		}
		dims = append(dims, s)
	}
	return dims
}

// Attrs returns the array's attributes, including the axis names attribute.
func (a *Array) Attrs() map[string]interface{} {
	return a.attrs
}

// Read fetches every chunk and assembles the full array in row-major order.
// Chunks absent from the store take the fill value.
func (a *Array) Read() ([]float64, error) {
	shape := a.meta.Shape
	total := 1
	for _, s := range shape {
		total *= s
	}
	out := make([]float64, total)
	for i := range out {
		out[i] = a.fill
	}
	if total == 0 {
		return out, nil
	}

	elemSize, decode, err := dtypeDecoder(a.meta.DType)
	if err != nil {
		return nil, errors.Wrapf(err, "array %s", a.path)
	}

	rank := len(shape)
	if rank == 0 {
		raw, found, err := a.chunkBytes("0")
		if err != nil || !found {
			return out, err
		}
		if len(raw) < elemSize {
			return nil, errors.Errorf("scalar chunk of %s has %d bytes, want %d", a.path, len(raw), elemSize)
		}
		out[0] = decode(raw[:elemSize])
		return out, nil
	}

	chunks := a.meta.Chunks
	chunkSize := 1
	for _, c := range chunks {
		chunkSize *= c
	}
	outStrides := rowMajorStrides(shape)
	chunkStrides := rowMajorStrides(chunks)

	grid := make([]int, rank)
	for i := range grid {
		grid[i] = (shape[i] + chunks[i] - 1) / chunks[i]
	}

	coord := make([]int, rank)
	for {
		key := a.chunkKey(coord)
		raw, found, err := a.chunkBytes(key)
		if err != nil {
			return nil, err
		}
		if found {
			if len(raw) != chunkSize*elemSize {
				return nil, errors.Errorf("chunk %s has %d bytes, want %d", key, len(raw), chunkSize*elemSize)
			}
			a.scatter(out, raw, coord, elemSize, decode, outStrides, chunkStrides)
		}

		i := rank - 1
		for ; i >= 0; i-- {
			coord[i]++
			if coord[i] < grid[i] {
				break
			}
			coord[i] = 0
		}
		if i < 0 {
			break
		}
	}
	return out, nil
}

// chunkBytes fetches and decompresses one chunk, reporting found=false for
// chunks never written to the store.
func (a *Array) chunkBytes(key string) ([]byte, bool, error) {
	data, err := a.store.Get(a.path + "/" + key)
	if IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "reading chunk %s of %s", key, a.path)
	}
	raw, err := decompress(a.meta.Compressor, data)
	if err != nil {
		return nil, false, errors.Wrapf(err, "chunk %s of %s", key, a.path)
	}
	return raw, true, nil
}

func (a *Array) chunkKey(coord []int) string {
	parts := make([]string, len(coord))
	for i, c := range coord {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, a.meta.separator())
}

// scatter copies the region of one chunk that falls inside the array bounds
// into the output buffer. Chunks are stored at full chunk shape, so edge
// chunks carry padding that must be clipped.
func (a *Array) scatter(out []float64, raw []byte, coord []int, elemSize int, decode func([]byte) float64, outStrides, chunkStrides []int) {
	shape := a.meta.Shape
	chunks := a.meta.Chunks
	rank := len(shape)

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
		for k := 0; k < ext[rank-1]; k++ {
			e := cOff + k
			out[oOff+k] = decode(raw[e*elemSize : (e+1)*elemSize])
		}

		i := rank - 2
		for ; i >= 0; i-- {
			pos[i]++
			if pos[i] < ext[i] {
				break
			}
			pos[i] = 0
		}
		if i < 0 {
			break
		}
	}
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}
