// Package config loads and defaults kestr's JSON configuration
// (spec.md §6). Grounded on internal/config/config.go's load-order and
// directory-discovery idiom, with the schema itself replaced: spec.md §6
// calls for plain JSON, not the teacher's YAML, and a much smaller key
// set taken from original_source/src/engine/config.hpp's Config struct.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MemoryMode mirrors memorymode.Mode's string values; kept as a plain
// string here so config loading has no dependency on the ANN package.
type MemoryMode string

const (
	MemoryModeRAM    MemoryMode = "ram"
	MemoryModeHybrid MemoryMode = "hybrid"
	MemoryModeDisk   MemoryMode = "disk"
)

// Config is the value object described in spec.md §3/§6. Immutable
// after startup.
type Config struct {
	MemoryMode        MemoryMode `json:"memory_mode"`
	HybridLimit       int        `json:"hybrid_limit"`
	EmbeddingModel    string     `json:"embedding_model"`
	EmbeddingBackend  string     `json:"embedding_backend"`
	EmbeddingEndpoint string     `json:"embedding_endpoint,omitempty"`
	OpenAIKey         string     `json:"openai_key,omitempty"`
}

// Default returns the hardcoded defaults, mirroring
// original_source/src/engine/config.hpp's Config defaults.
func Default() Config {
	return Config{
		MemoryMode:       MemoryModeRAM,
		HybridLimit:      1000,
		EmbeddingModel:   "all-minilm",
		EmbeddingBackend: "ollama",
	}
}

// Load reads configDir/config.json, merging it over the defaults. A
// missing file is not an error — Load returns the defaults. The
// OPENAI_API_KEY environment variable, when set, always overrides
// whatever openai_key the file specifies (spec.md §6).
func Load(configDir string) (Config, error) {
	cfg := Default()

	path := filepath.Join(configDir, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverride()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyEnvOverride()
	return cfg, nil
}

func (c *Config) applyEnvOverride() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.OpenAIKey = key
	}
}

// Save writes cfg to configDir/config.json, creating the directory if
// needed.
func Save(configDir string, cfg Config) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("config: create dir %s: %w", configDir, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	path := filepath.Join(configDir, "config.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/kestr, falling back to
// $HOME/.config/kestr.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kestr")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "kestr")
	}
	return filepath.Join(home, ".config", "kestr")
}

// DefaultDataDir returns $XDG_DATA_HOME/kestr, falling back to
// $HOME/.local/share/kestr. This is where kestr.db and the ANN
// persistence files live (spec.md §6).
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "kestr")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".local", "share", "kestr")
	}
	return filepath.Join(home, ".local", "share", "kestr")
}
