package zarr

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"math"
	"strconv"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
)

// decompress reverses the numcodecs compressor named in the array metadata.
// A nil compressor means the chunk is stored raw.
func decompress(meta *compressorMeta, data []byte) ([]byte, error) {
	if meta == nil {
		return data, nil
	}
	switch meta.ID {
	case "zlib":
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrapf(err, "zlib")
		}
		defer r.Close()
		out, err := ioutil.ReadAll(r)
		if err != nil {
			return nil, errors.Wrapf(err, "zlib")
		}
		return out, nil
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrapf(err, "gzip")
		}
		defer r.Close()
		out, err := ioutil.ReadAll(r)
		if err != nil {
			return nil, errors.Wrapf(err, "gzip")
		}
		return out, nil
	case "zstd":
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Wrapf(err, "zstd")
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "zstd")
		}
		return out, nil
	case "lz4":
		// numcodecs prefixes the block with the decoded size, little endian
		if len(data) < 4 {
			return nil, errors.Errorf("lz4 chunk too short: %d bytes", len(data))
		}
		size := binary.LittleEndian.Uint32(data[:4])
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data[4:], out)
		if err != nil {
			return nil, errors.Wrapf(err, "lz4")
		}
		return out[:n], nil
	case "blosc":
		return nil, errors.Errorf("blosc compression is not supported")
	default:
		return nil, errors.Errorf("unsupported compressor %s", meta.ID)
	}
}

// dtypeDecoder returns the element size in bytes and a function decoding one
// element to a float64, for a numpy dtype string such as "<f8".
func dtypeDecoder(dtype string) (int, func([]byte) float64, error) {
	if len(dtype) < 3 {
		return 0, nil, errors.Errorf("unsupported dtype %q", dtype)
	}
	var order binary.ByteOrder = binary.LittleEndian
	switch dtype[0] {
	case '<', '|', '=':
	case '>':
		order = binary.BigEndian
	default:
		return 0, nil, errors.Errorf("unsupported byte order in dtype %q", dtype)
	}
	size, err := strconv.Atoi(dtype[2:])
	if err != nil {
		return 0, nil, errors.Errorf("unsupported dtype %q", dtype)
	}

	kind := dtype[1]
	switch {
	case kind == 'f' && size == 8:
		return 8, func(b []byte) float64 {
			return math.Float64frombits(order.Uint64(b))
		}, nil
	case kind == 'f' && size == 4:
		return 4, func(b []byte) float64 {
			return float64(math.Float32frombits(order.Uint32(b)))
		}, nil
	case kind == 'i':
		switch size {
		case 1:
			return 1, func(b []byte) float64 { return float64(int8(b[0])) }, nil
		case 2:
			return 2, func(b []byte) float64 { return float64(int16(order.Uint16(b))) }, nil
		case 4:
			return 4, func(b []byte) float64 { return float64(int32(order.Uint32(b))) }, nil
		case 8:
			return 8, func(b []byte) float64 { return float64(int64(order.Uint64(b))) }, nil
		}
	case kind == 'u':
		switch size {
		case 1:
			return 1, func(b []byte) float64 { return float64(b[0]) }, nil
		case 2:
			return 2, func(b []byte) float64 { return float64(order.Uint16(b)) }, nil
		case 4:
			return 4, func(b []byte) float64 { return float64(order.Uint32(b)) }, nil
		case 8:
			return 8, func(b []byte) float64 { return float64(order.Uint64(b)) }, nil
		}
	case kind == 'b' && size == 1:
		return 1, func(b []byte) float64 {
			if b[0] != 0 {
				return 1
			}
			return 0
		}, nil
	}
	return 0, nil, errors.Errorf("unsupported dtype %q", dtype)
}
