package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	dataDir := DefaultDataDir()

	v.SetDefault("data_dir", dataDir)

	// Database defaults
	v.SetDefault("database.path", filepath.Join(dataDir, "toonana.db"))

	// Server defaults
	v.SetDefault("server.port", 7411)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:1420"})

	// Studio defaults
	v.SetDefault("studio.style", "ligne-claire")
	v.SetDefault("studio.ollama.base_url", "http://127.0.0.1:11434")
	v.SetDefault("studio.ollama.model", "gemma3:1b")
	v.SetDefault("studio.ollama.temperature", 0.7)
	v.SetDefault("studio.ollama.top_p", 0.9)
	v.SetDefault("studio.ollama.timeout_seconds", 600)
	v.SetDefault("studio.renderer.timeout_seconds", 300)
	v.SetDefault("studio.renderer.max_attempts", 3)
	v.SetDefault("studio.renderer.requests_per_minute", 6)

	// Editor defaults. The debounce mirrors the UI's 3s quiet period; the
	// poll interval stays well under a second so stage changes feel live.
	v.SetDefault("editor.autosave_debounce_ms", 3000)
	v.SetDefault("editor.poll_interval_ms", 450)
}
