package challenge

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrainSize = 6
	cfg.Groups = append(cfg.Groups, GroupSchema{Name: "magnetics"})

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "train size")
	assert.Contains(t, err.Error(), "magnetics")
}

func TestValidateRejectsTargetInGroups(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Groups = append(cfg.Groups, GroupSchema{Name: cfg.TargetGroup})

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target group")
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	f, err := ioutil.TempFile("", "challenge-*.yaml")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	_, err = f.WriteString("seed: 9\ngroups:\n  - name: magnetics\n    time_dim: time_b\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg, err := LoadConfig(f.Name())
	require.NoError(t, err)
	assert.Equal(t, int64(9), cfg.Seed)
	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, "magnetics", cfg.Groups[0].Name)
	assert.Equal(t, "time_b", cfg.Groups[0].TimeDim)

	// untouched fields keep their defaults
	assert.Equal(t, DefaultConfig().ShotIDs, cfg.ShotIDs)
	assert.Equal(t, "psi", cfg.TargetVar)
}

func TestLoadConfigValidates(t *testing.T) {
	f, err := ioutil.TempFile("", "challenge-*.yaml")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	_, err = f.WriteString("train_size: 9\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = LoadConfig(f.Name())
	require.Error(t, err)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig("/no/such/config.yaml")
	require.Error(t, err)
}
