// Package config manages toonana's configuration: the data directory, the
// SQLite database, the local HTTP surface, the studio generation providers,
// and the editor tuning knobs (autosave debounce, job poll cadence).
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration for toonana.
type Config struct {
	DataDir  string         `mapstructure:"data_dir" toml:"data_dir"`
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Server   ServerConfig   `mapstructure:"server" toml:"server"`
	Studio   StudioConfig   `mapstructure:"studio" toml:"studio"`
	Editor   EditorConfig   `mapstructure:"editor" toml:"editor"`
}

// DatabaseConfig configures the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// ServerConfig configures the local HTTP/WebSocket surface.
type ServerConfig struct {
	Port           int      `mapstructure:"port" toml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`
}

// StudioConfig configures the generation backend.
type StudioConfig struct {
	Style    string         `mapstructure:"style" toml:"style"`
	Ollama   OllamaConfig   `mapstructure:"ollama" toml:"ollama"`
	Renderer RendererConfig `mapstructure:"renderer" toml:"renderer"`
}

// OllamaConfig configures the local text-generation server used for
// storyboard drafting. Any OpenAI-compatible endpoint works.
type OllamaConfig struct {
	BaseURL        string  `mapstructure:"base_url" toml:"base_url"`
	Model          string  `mapstructure:"model" toml:"model"`
	Temperature    float64 `mapstructure:"temperature" toml:"temperature"`
	TopP           float64 `mapstructure:"top_p" toml:"top_p"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
}

// RendererConfig configures the HTTP image-rendering service used for the
// panel composite.
type RendererConfig struct {
	BaseURL           string `mapstructure:"base_url" toml:"base_url"`
	APIKey            string `mapstructure:"api_key" toml:"api_key"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
	MaxAttempts       int    `mapstructure:"max_attempts" toml:"max_attempts"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" toml:"requests_per_minute"`
}

// EditorConfig holds the editor-side tuning parameters. Both values are
// cadence choices, not correctness constraints.
type EditorConfig struct {
	AutosaveDebounceMS int `mapstructure:"autosave_debounce_ms" toml:"autosave_debounce_ms"`
	PollIntervalMS     int `mapstructure:"poll_interval_ms" toml:"poll_interval_ms"`
}

// AutosaveDebounce returns the quiet period before an autosave fires.
func (e EditorConfig) AutosaveDebounce() time.Duration {
	return time.Duration(e.AutosaveDebounceMS) * time.Millisecond
}

// PollInterval returns the delay between job status queries.
func (e EditorConfig) PollInterval() time.Duration {
	return time.Duration(e.PollIntervalMS) * time.Millisecond
}

// ImagesDir returns the directory where rendered comic images are written,
// grouped per entry.
func (c *Config) ImagesDir() string {
	return filepath.Join(c.DataDir, "images")
}

// DefaultDataDir resolves ~/.toonana, falling back to the working directory
// when the home directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".toonana"
	}
	return filepath.Join(home, ".toonana")
}

// DefaultConfigPath returns the path of the persisted settings file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.toml")
}
