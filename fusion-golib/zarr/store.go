// Package zarr reads zarr v2 hierarchies with consolidated metadata from
// local directories, HTTP(S) prefixes, or S3, the layout the MAST archive
// publishes its shot files in.
package zarr

import (
	"github.com/fusionbench/fusionbench/fusion-golib/errors"
	"github.com/fusionbench/fusionbench/fusion-golib/fileutil"
)

// Store provides read access to the keys of a zarr hierarchy.
type Store interface {
	// Get returns the raw bytes stored under key, or an error satisfying
	// IsNotExist when the key is absent.
	Get(key string) ([]byte, error)
}

// ErrNotExist is the cause of errors returned by stores for absent keys.
var ErrNotExist = errors.New("key does not exist")

// IsNotExist reports whether err indicates a key absent from a store.
func IsNotExist(err error) bool {
	if err == nil {
		return false
	}
	if errors.Cause(err) == ErrNotExist {
		return true
	}
	return fileutil.IsNotExist(err)
}

// OpenStore returns a store reading keys relative to base, which may be a
// local directory, an http(s):// prefix, or an s3:// prefix.
func OpenStore(base string) Store {
	return &pathStore{base: base}
}

type pathStore struct {
	base string
}

func (s *pathStore) Get(key string) ([]byte, error) {
	return fileutil.ReadFile(fileutil.Join(s.base, key))
}

// MemStore is an in-memory store keyed by relative path.
type MemStore map[string][]byte

// Get implements Store.
func (s MemStore) Get(key string) ([]byte, error) {
	data, ok := s[key]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "key %s", key)
	}
	return data, nil
}
