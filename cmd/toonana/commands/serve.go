package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/toonana/toonana/config"
	"github.com/toonana/toonana/internal/version"
	"github.com/toonana/toonana/logger"
	"github.com/toonana/toonana/server"
	"github.com/toonana/toonana/studio/provider"
)

// ServeCmd starts the local API server the desktop UI talks to.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local API and WebSocket server",
	Long: `Start the HTTP API and WebSocket server for the desktop UI.

The server exposes entry CRUD, generation job control, settings, and a
WebSocket feed of job status updates on the configured port.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	studioSvc := a.newStudio(ctx)
	text := provider.NewOllamaClient(a.cfg.Studio.Ollama)
	srv := server.NewServer(a.cfg, a.db, a.store, studioSvc, text)

	// Reload the style and provider settings when the config file is
	// edited, without a restart.
	if watcher, err := config.NewWatcher(config.DefaultConfigPath()); err == nil {
		watcher.OnReload(func(cfg *config.Config) error {
			a.cfg.Studio = cfg.Studio
			a.cfg.Editor = cfg.Editor
			return nil
		})
		watcher.Start()
		defer watcher.Close()
	} else {
		logger.Debugw("config watcher not started", logger.FieldError, err)
	}

	pterm.DefaultHeader.WithFullWidth().Printf("toonana %s", version.Get().Version)
	pterm.Println()
	pterm.Info.Printf("Listening on port %d", a.cfg.Server.Port)
	pterm.Info.Printf("Database: %s", a.cfg.Database.Path)
	pterm.Info.Printf("Text model: %s", a.cfg.Studio.Ollama.Model)
	pterm.Println()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Infow("shutting down", "signal", sig.String())
	}

	cancel() // stop running generation jobs

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := studioSvc.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("studio shutdown incomplete", logger.FieldError, err)
	}
	return srv.Shutdown(shutdownCtx)
}
