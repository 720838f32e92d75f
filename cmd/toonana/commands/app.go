// Package commands holds the toonana CLI subcommands.
package commands

import (
	"context"
	"database/sql"

	"github.com/toonana/toonana/config"
	"github.com/toonana/toonana/db"
	"github.com/toonana/toonana/errors"
	"github.com/toonana/toonana/journal"
	"github.com/toonana/toonana/logger"
	"github.com/toonana/toonana/studio"
	"github.com/toonana/toonana/studio/provider"
	"github.com/toonana/toonana/vault"
)

// app bundles the wired subsystems a command needs.
type app struct {
	cfg   *config.Config
	db    *sql.DB
	store *journal.Store
}

// openApp loads config, opens and migrates the database, and wires the
// entry store. Callers must Close.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}

	database, err := db.Open(cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "migrate database")
	}

	codec, err := vault.Open(cfg.DataDir)
	if err != nil {
		database.Close()
		return nil, errors.Wrap(err, "open vault")
	}

	return &app{
		cfg:   cfg,
		db:    database,
		store: journal.NewStore(database, codec, cfg.ImagesDir()),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}

// newStudio wires the generation service over the app's store.
func (a *app) newStudio(ctx context.Context) *studio.Service {
	text := provider.NewOllamaClient(a.cfg.Studio.Ollama)
	renderer := provider.NewHTTPRenderer(a.cfg.Studio.Renderer)
	return studio.NewService(ctx, a.store, text, renderer, a.cfg.ImagesDir(), a.cfg.Studio.Style)
}
