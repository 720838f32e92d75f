package server

import (
	"net/http"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/toonana/toonana/config"
	"github.com/toonana/toonana/internal/version"
	"github.com/toonana/toonana/logger"
)

// HandleHealth serves GET /health.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()

	s.mu.RLock()
	clientCount := len(s.clients)
	s.mu.RUnlock()

	entryCount, err := s.store.Count(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	health := map[string]interface{}{
		"status":      "ok",
		"version":     versionInfo.Version,
		"commit":      versionInfo.Short(),
		"build_time":  versionInfo.BuildTime,
		"clients":     clientCount,
		"entries":     entryCount,
		"active_jobs": s.studio.Registry().ActiveCount(),
	}

	// Memory pressure matters when a local model is rendering next door.
	if vm, err := mem.VirtualMemory(); err == nil {
		health["memory"] = map[string]uint64{
			"total_bytes":     vm.Total,
			"available_bytes": vm.Available,
		}
	}

	writeJSON(w, http.StatusOK, health)
}

// settingsPayload is the editable subset of the configuration. The data
// directory and database location are fixed at startup.
type settingsPayload struct {
	Style    string                `json:"style"`
	Ollama   config.OllamaConfig   `json:"ollama"`
	Renderer config.RendererConfig `json:"renderer"`
	Editor   config.EditorConfig   `json:"editor"`
}

// HandleSettings serves GET and PUT /api/settings.
func (s *Server) HandleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, settingsPayload{
			Style:    s.cfg.Studio.Style,
			Ollama:   s.cfg.Studio.Ollama,
			Renderer: s.cfg.Studio.Renderer,
			Editor:   s.cfg.Editor,
		})
	case http.MethodPut:
		var payload settingsPayload
		if err := readJSON(w, r, &payload); err != nil {
			return
		}

		s.cfg.Studio.Style = payload.Style
		s.cfg.Studio.Ollama = payload.Ollama
		s.cfg.Studio.Renderer = payload.Renderer
		s.cfg.Editor = payload.Editor

		if err := config.Save(s.cfg, s.configPath); err != nil {
			writeDomainError(w, err)
			return
		}

		logger.Infow("settings updated", logger.FieldStyle, payload.Style)
		writeJSON(w, http.StatusOK, payload)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleProviders serves GET /api/providers/health: can the text model
// actually be reached before the user hits Generate.
func (s *Server) HandleProviders(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	status := map[string]interface{}{
		"text_model": s.text.ModelName(),
	}
	if err := s.text.Health(r.Context()); err != nil {
		status["text_status"] = "unreachable"
		status["text_error"] = err.Error()
	} else {
		status["text_status"] = "ok"
	}

	writeJSON(w, http.StatusOK, status)
}
