package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return &cfg
}

func TestDefaultsProduceValidConfig(t *testing.T) {
	cfg := defaultConfig(t)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 3000, cfg.Editor.AutosaveDebounceMS)
	assert.Equal(t, 450, cfg.Editor.PollIntervalMS)
	assert.Equal(t, "http://127.0.0.1:11434", cfg.Studio.Ollama.BaseURL)
	assert.NotEmpty(t, cfg.Database.Path)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"zero debounce", func(c *Config) { c.Editor.AutosaveDebounceMS = 0 }},
		{"negative poll interval", func(c *Config) { c.Editor.PollIntervalMS = -1 }},
		{"zero renderer attempts", func(c *Config) { c.Studio.Renderer.MaxAttempts = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tc.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := defaultConfig(t)
	cfg.Studio.Ollama.Model = "llama3.2:3b"
	cfg.Editor.AutosaveDebounceMS = 1500

	require.NoError(t, Save(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "llama3.2:3b", loaded.Studio.Ollama.Model)
	assert.Equal(t, 1500, loaded.Editor.AutosaveDebounceMS)
}

func TestSaveRotatesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg := defaultConfig(t)

	require.NoError(t, Save(cfg, path))
	// Second save must produce a .back1 of the first file.
	cfg.Server.Port = 7412
	require.NoError(t, Save(cfg, path))

	_, err := os.Stat(path + ".back1")
	assert.NoError(t, err, "expected .back1 after second save")
}

func TestEditorDurations(t *testing.T) {
	e := EditorConfig{AutosaveDebounceMS: 3000, PollIntervalMS: 450}
	assert.Equal(t, "3s", e.AutosaveDebounce().String())
	assert.Equal(t, "450ms", e.PollInterval().String())
}
