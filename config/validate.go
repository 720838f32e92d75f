package config

import (
	"github.com/toonana/toonana/errors"
)

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func Validate(cfg *Config) error {
	if cfg.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if cfg.Database.Path == "" {
		return errors.New("database.path must not be empty")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.Newf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Editor.AutosaveDebounceMS <= 0 {
		return errors.Newf("editor.autosave_debounce_ms must be positive, got %d", cfg.Editor.AutosaveDebounceMS)
	}
	if cfg.Editor.PollIntervalMS <= 0 {
		return errors.Newf("editor.poll_interval_ms must be positive, got %d", cfg.Editor.PollIntervalMS)
	}
	if cfg.Studio.Renderer.MaxAttempts < 1 {
		return errors.Newf("studio.renderer.max_attempts must be at least 1, got %d", cfg.Studio.Renderer.MaxAttempts)
	}
	return nil
}
