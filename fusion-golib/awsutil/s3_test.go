package awsutil

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURI(t *testing.T) {
	u, err := ValidateURI("s3://mast/level2/shots/30420.zarr/.zmetadata")
	require.NoError(t, err)
	assert.Equal(t, "mast", u.Host)
	assert.Equal(t, "/level2/shots/30420.zarr/.zmetadata", u.Path)

	_, err = ValidateURI("https://example.com/object")
	assert.Error(t, err)

	_, err = ValidateURI("/local/path")
	assert.Error(t, err)
}

func TestIsS3URI(t *testing.T) {
	assert.True(t, IsS3URI("s3://bucket/key"))
	assert.False(t, IsS3URI("http://bucket/key"))
	assert.False(t, IsS3URI("bucket/key"))
}

func TestIsNotExist(t *testing.T) {
	assert.False(t, IsNotExist(nil))
	assert.False(t, IsNotExist(errors.New("plain failure")))
}
