package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/backend"
	"github.com/desertthunder/jukebox/internal/engine"
	"github.com/desertthunder/jukebox/internal/facade"
	"github.com/desertthunder/jukebox/internal/hub"
	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/repositories"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
)

// player is the assembled playback stack shared by `serve` and `tui`.
type player struct {
	db        *sql.DB
	backend   backend.Backend
	persister *tasks.Persister
	facade    *facade.Facade
	logger    *log.Logger
}

// openDatabase opens the configured database and brings its schema up to date.
func openDatabase(cfg shared.DatabaseConfig) (*sql.DB, error) {
	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// trackLength resolves a URI's duration from the library, for the simulated backend's clock.
func trackLength(tracks *repositories.TrackRepository) backend.LengthFunc {
	return func(uri string) time.Duration {
		path, err := playlist.PathFromURI(uri)
		if err != nil {
			return 0
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		track, err := tracks.GetByPath(ctx, path)
		if err != nil {
			return 0
		}
		return time.Duration(track.Duration) * time.Second
	}
}

// bootPlayer restores persisted tabs and wires the backend, engine, hub, workers and façade.
// The caller must Start the façade and finally call close.
func bootPlayer(ctx context.Context, cfg *shared.Config, logger *log.Logger) (*player, error) {
	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	trackRepo := repositories.NewTrackRepository(db)
	store := repositories.NewTabStore(db)
	updates := make(chan tasks.Update, 64)

	persister := tasks.NewPersister(trackRepo, store, logger, updates, tasks.PersisterOpts{
		Workers: cfg.Engine.PersistWorkers,
	})

	registry, err := playlist.Restore(ctx, store, persister)
	if err != nil {
		persister.Close()
		db.Close()
		return nil, fmt.Errorf("failed to restore tabs: %w", err)
	}

	b, err := backend.New(cfg.Backend, logger, trackLength(trackRepo))
	if err != nil {
		persister.Close()
		db.Close()
		return nil, err
	}

	events := hub.New(logger, cfg.Engine.SubscriberBuffer)
	e := engine.New(b, registry, events, persister, logger, engine.OptionsFromConfig(cfg.Engine))
	saver := tasks.NewAutosaver(e, store, cfg.Engine.AutosaveInterval(), logger, updates)

	f := facade.New(facade.Options{
		Engine:    e,
		Hub:       events,
		Autosaver: saver,
		Library:   trackRepo,
		Updates:   updates,
		Logger:    logger,
	})

	logger.Info("player ready", "tabs", registry.Len(), "backend", cfg.Backend.Kind)
	return &player{db: db, backend: b, persister: persister, facade: f, logger: logger}, nil
}

// close saves the tabs and releases everything bootPlayer opened.
func (p *player) close(ctx context.Context) error {
	err := p.facade.Shutdown(ctx)
	p.persister.Close()
	err = errors.Join(err, p.backend.Close(), p.db.Close())
	if err != nil {
		p.logger.Error("shutdown", "error", err)
	}
	return err
}
