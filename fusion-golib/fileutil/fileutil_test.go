package fileutil

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	assert.Equal(t, "s3://bucket/a/b/c", Join("s3://bucket/a", "b", "c"))
	assert.Equal(t, "https://host/x/y.zarr/.zmetadata", Join("https://host/x", "y.zarr", ".zmetadata"))
	assert.Equal(t, "/tmp/out/train.nc", Join("/tmp/out", "train.nc"))
	assert.Equal(t, "rel/dir/file", Join("rel/dir", "file"))
}

func TestDir(t *testing.T) {
	assert.Equal(t, "s3://bucket/a/b", Dir("s3://bucket/a/b/c"))
	assert.Equal(t, "/tmp/out", Dir("/tmp/out/train.nc"))
}

func TestReadFileLocal(t *testing.T) {
	dir, err := ioutil.TempDir("", "fileutil-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, ioutil.WriteFile(path, []byte("hello"), 0644))

	data, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = ReadFile(filepath.Join(dir, "nope.txt"))
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
}

func TestReadFileHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data/blob" {
			w.Write([]byte("remote bytes"))
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	data, err := ReadFile(ts.URL + "/data/blob")
	require.NoError(t, err)
	assert.Equal(t, "remote bytes", string(data))

	_, err = ReadFile(ts.URL + "/data/missing")
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
}

func TestNewBufferedWriterCreatesDirs(t *testing.T) {
	dir, err := ioutil.TempDir("", "fileutil-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "deep", "nested", "out.csv")
	w, err := NewBufferedWriter(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("a,b\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestIsNotExistNil(t *testing.T) {
	assert.False(t, IsNotExist(nil))
	assert.False(t, IsNotExist(assert.AnError))
}
