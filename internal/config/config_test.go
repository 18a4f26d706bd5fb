package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "text", cfg.Format)
	assert.Empty(t, cfg.SpecsPath)
	assert.False(t, cfg.Verbose)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	specs := filepath.Join(dir, "specs.yaml")
	require.NoError(t, os.WriteFile(specs, []byte("functions: []\n"), 0644))

	in := &Config{
		SpecsPath: specs,
		Format:    "json",
		CachePath: filepath.Join(dir, "cache.msgpack"),
		Verbose:   true,
	}
	require.NoError(t, in.Save(path))

	out, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, in.SpecsPath, out.SpecsPath)
	assert.Equal(t, "json", out.Format)
	assert.Equal(t, in.CachePath, out.CachePath)
	assert.True(t, out.Verbose)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, (&Config{Format: "text"}).Save(path))

	t.Setenv("PDQ_FORMAT", "json")
	t.Setenv("PDQ_VERBOSE", "true")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Verbose)
}

func TestValidate(t *testing.T) {
	t.Run("bad format", func(t *testing.T) {
		cfg := &Config{Format: "xml"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing specs file", func(t *testing.T) {
		cfg := &Config{Format: "text", SpecsPath: "/no/such/specs.yaml"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("ok", func(t *testing.T) {
		cfg := &Config{Format: "json"}
		assert.NoError(t, cfg.Validate())
	})
}
