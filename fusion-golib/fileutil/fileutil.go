package fileutil

import (
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fusionbench/fusionbench/fusion-golib/awsutil"
	"github.com/fusionbench/fusionbench/fusion-golib/errors"
)

// ErrNotExist is the cause of errors returned for paths or objects that do
// not exist, regardless of the underlying scheme.
var ErrNotExist = errors.New("file or object does not exist")

// IsNotExist reports whether err, at its cause, indicates a missing file or
// remote object.
func IsNotExist(err error) bool {
	if err == nil {
		return false
	}
	cause := errors.Cause(err)
	if cause == ErrNotExist {
		return true
	}
	if os.IsNotExist(cause) {
		return true
	}
	return awsutil.IsNotExist(cause)
}

// NewReader opens a local or remote path for reading. If the path looks like
// "s3://bucket/path/to/object" then this will read an object from S3; http://
// and https:// paths are fetched with a GET. Otherwise, this will read a path
// from the local filesystem.
func NewReader(path string) (io.ReadCloser, error) {
	if awsutil.IsS3URI(path) {
		return awsutil.NewS3Reader(path)
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		resp, err := http.Get(path)
		if err != nil {
			return nil, errors.Wrapf(err, "error getting %s", path)
		}
		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			io.Copy(ioutil.Discard, resp.Body)
			if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
				// object stores answer 403 for anonymous reads of missing keys
				return nil, errors.Wrapf(ErrNotExist, "status code %d getting %s", resp.StatusCode, path)
			}
			return nil, errors.Errorf("status code %d getting %s", resp.StatusCode, path)
		}
		return resp.Body, nil
	}

	return os.Open(path)
}

// ReadFile reads the contents of a local or remote path.
func ReadFile(path string) ([]byte, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", path)
	}
	return data, nil
}

// NamedWriteCloser is a file-like object extending io.WriteCloser with a string Name() similar to os.File.Name()
type NamedWriteCloser interface {
	io.WriteCloser
	Name() string
}

// NewBufferedWriter opens a local or remote path for writing. If the path
// starts with "s3://", then this will write to a local buffer, copying to s3
// on close. Otherwise, this will write to the local FS, creating parent
// directories as needed.
func NewBufferedWriter(path string) (NamedWriteCloser, error) {
	if awsutil.IsS3URI(path) {
		return awsutil.NewBufferedS3Writer(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.Create(path)
}
