package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	want := Config{
		MemoryMode:       MemoryModeHybrid,
		HybridLimit:      500,
		EmbeddingModel:   "all-minilm",
		EmbeddingBackend: "openai",
	}
	require.NoError(t, Save(dir, want))

	got, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadAppliesPartialOverrideOverDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"memory_mode":"disk"}`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, MemoryModeDisk, cfg.MemoryMode)
	require.Equal(t, Default().HybridLimit, cfg.HybridLimit)
}

func TestOpenAIEnvOverridesFileKey(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, Config{OpenAIKey: "from-file"}))

	t.Setenv("OPENAI_API_KEY", "from-env")
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.OpenAIKey)
}

func TestDefaultConfigDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	require.Equal(t, "/tmp/xdg-config/kestr", DefaultConfigDir())
}

func TestDefaultDataDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	require.Equal(t, "/tmp/xdg-data/kestr", DefaultDataDir())
}
