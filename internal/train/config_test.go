package train

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epochs: 25\npatience: 5\nseed: 7\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Epochs)
	assert.Equal(t, 5, cfg.Patience)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, DefaultConfig().NumChunks, cfg.NumChunks, "unset fields keep defaults")
	assert.Equal(t, DefaultConfig().BatchSize, cfg.BatchSize)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epoches: 25\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Epochs = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.NumChunks = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.LearningRate = -1
	assert.Error(t, bad.Validate())
}

func TestConfigRule(t *testing.T) {
	cfg := DefaultConfig()
	rule := cfg.Rule()
	assert.Equal(t, cfg.NumChunks, rule.NumChunks)
	assert.Equal(t, cfg.SamplesPerPatch, rule.SamplesPerPatch)
}
