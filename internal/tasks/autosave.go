package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Snapshotter hands out registry snapshots and accepts the store ids assigned on save.
type Snapshotter interface {
	Snapshot(ctx context.Context) (playlist.TabsSnapshot, error)
	AssignIDs(ctx context.Context, ids map[string]int64) error
}

// Autosaver periodically persists the tab registry.
type Autosaver struct {
	source   Snapshotter
	store    playlist.Store
	interval time.Duration
	updates  chan<- Update
	logger   *log.Logger

	mu sync.Mutex // serializes saves
}

// NewAutosaver creates an autosaver. updates may be nil.
func NewAutosaver(source Snapshotter, store playlist.Store, interval time.Duration, logger *log.Logger, updates chan<- Update) *Autosaver {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Autosaver{
		source:   source,
		store:    store,
		interval: interval,
		updates:  updates,
		logger:   shared.WithLogger(logger, "component", "autosave"),
	}
}

// Run saves on every tick until ctx is done. Failures never stop the timer.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("autosave started", "interval", a.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = a.SaveNow(ctx)
		}
	}
}

// SaveNow snapshots the registry and writes it immediately.
func (a *Autosaver) SaveNow(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap, err := a.source.Snapshot(ctx)
	if err != nil {
		a.logger.Error("snapshot failed", "err", err)
		sendUpdate(a.updates, autosaveUpdate(0, err))
		return err
	}

	ids, err := a.store.SaveTabs(ctx, snap)
	if err != nil {
		a.logger.Error("save failed", "tabs", len(snap.Tabs), "err", err)
		sendUpdate(a.updates, autosaveUpdate(len(snap.Tabs), err))
		return err
	}

	if err := a.source.AssignIDs(ctx, ids); err != nil {
		a.logger.Warn("could not assign tab ids", "err", err)
	}

	a.logger.Debug("saved", "tabs", len(snap.Tabs))
	sendUpdate(a.updates, autosaveUpdate(len(snap.Tabs), nil))
	return nil
}
