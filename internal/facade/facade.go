package facade

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/jukebox/internal/engine"
	"github.com/desertthunder/jukebox/internal/hub"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
)

// Library looks up tracks for query tabs.
type Library interface {
	List(ctx context.Context, filter models.Filter) ([]models.Track, error)
}

// Options holds the collaborators of a [Facade].
type Options struct {
	Engine    *engine.Engine
	Hub       *hub.Hub
	Autosaver *tasks.Autosaver
	Library   Library            // optional; without it query tabs are unavailable
	Updates   <-chan tasks.Update // optional; failed jobs are republished as notices
	Logger    *log.Logger
}

// Facade exposes queries and commands to presentation surfaces.
type Facade struct {
	engine    *engine.Engine
	hub       *hub.Hub
	autosaver *tasks.Autosaver
	library   Library
	updates   <-chan tasks.Update
	logger    *log.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a facade. Call [Facade.Start] before issuing commands.
func New(opts Options) *Facade {
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &Facade{
		engine:    opts.Engine,
		hub:       opts.Hub,
		autosaver: opts.Autosaver,
		library:   opts.Library,
		updates:   opts.Updates,
		logger:    shared.WithLogger(opts.Logger, "component", "facade"),
	}
}

// Start runs the engine and the background loops until [Facade.Shutdown].
//
// Cancelling ctx does not stop them, so the final save in Shutdown still reaches the engine.
func (f *Facade) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(context.WithoutCancel(ctx))
	f.engine.Start(ctx)

	if f.autosaver != nil {
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			f.autosaver.Run(ctx)
		}()
	}
	if f.updates != nil {
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			f.relay(ctx)
		}()
	}
}

// Shutdown saves the tabs one last time and stops the engine and background loops.
func (f *Facade) Shutdown(ctx context.Context) error {
	var err error
	if f.autosaver != nil {
		if err = f.autosaver.SaveNow(ctx); err != nil {
			f.logger.Error("final save failed", "err", err)
		}
	}

	if f.cancel != nil {
		f.cancel()
		f.engine.Close()
	}
	f.wg.Wait()
	f.hub.Close()
	return err
}

func (f *Facade) relay(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-f.updates:
			if !ok {
				return
			}
			if !u.Failed() {
				f.logger.Debug("background job", "phase", u.Phase, "msg", u.Message)
				continue
			}
			f.logger.Warn("background job failed", "phase", u.Phase, "err", u.Err)
			f.hub.Publish(hub.Message(u.Message))
		}
	}
}

// Subscribe attaches an observer to the event stream.
func (f *Facade) Subscribe() *hub.Subscription {
	return f.hub.Subscribe()
}

// State returns the engine's last published state.
func (f *Facade) State() engine.State {
	return f.engine.State()
}

// Status returns the playback status.
func (f *Facade) Status() models.PlaybackStatus {
	return f.engine.State().Status
}

// CurrentIndex returns the playing tab's cursor, or false when that tab is empty.
func (f *Facade) CurrentIndex() (int, bool) {
	return f.engine.State().CurrentIndex()
}

// CurrentTrack returns the track under the playing tab's cursor.
func (f *Facade) CurrentTrack() (models.Track, bool) {
	return f.engine.State().CurrentTrack()
}

// TabsView lists open tabs with the viewing and playing indices.
type TabsView struct {
	Tabs    []engine.Tab `json:"tabs"`
	Viewing int          `json:"viewing"`
	Playing int          `json:"playing"`
}

// Tabs returns the open tabs.
func (f *Facade) Tabs() TabsView {
	s := f.engine.State()
	return TabsView{Tabs: s.Tabs, Viewing: s.Viewing, Playing: s.Playing}
}

// TabContents returns the tracks of tab index.
func (f *Facade) TabContents(index int) ([]models.Track, error) {
	return f.engine.TabContents(index)
}

// SetViewingTab selects the displayed tab.
func (f *Facade) SetViewingTab(ctx context.Context, index int) error {
	return f.engine.SetViewing(ctx, index)
}

// SetPlayingTab selects the tab that drives playback.
func (f *Facade) SetPlayingTab(ctx context.Context, index int) error {
	return f.engine.SetPlaying(ctx, index)
}

// RenameTab renames tab index.
func (f *Facade) RenameTab(ctx context.Context, index int, name string) error {
	if name == "" {
		return fmt.Errorf("%w: tab name is empty", shared.ErrInvalidInput)
	}
	return f.engine.RenameTab(ctx, index, name)
}

// RemoveTab closes tab index.
func (f *Facade) RemoveTab(ctx context.Context, index int) error {
	return f.engine.RemoveTab(ctx, index)
}

// MoveTab reorders tabs.
func (f *Facade) MoveTab(ctx context.Context, from, to int) error {
	return f.engine.MoveTab(ctx, from, to)
}

// RemoveTracks deletes tracks [start, end) from the playing tab.
func (f *Facade) RemoveTracks(ctx context.Context, start, end int) error {
	return f.engine.RemovePlayingTracks(ctx, start, end)
}

// RemoveTabTracks deletes tracks [start, end) from any tab.
func (f *Facade) RemoveTabTracks(ctx context.Context, tab, start, end int) error {
	return f.engine.RemoveTracks(ctx, tab, start, end)
}

// MoveTrack reorders a track within tab.
func (f *Facade) MoveTrack(ctx context.Context, tab, from, to int) error {
	return f.engine.MoveTrack(ctx, tab, from, to)
}

// AddTab opens a tab holding tracks and returns its index.
func (f *Facade) AddTab(ctx context.Context, name string, tracks []models.Track) (int, error) {
	if name == "" {
		name = "New Playlist"
	}
	return f.engine.AddTab(ctx, name, tracks)
}

// OpenQuery opens a tab filled from a library query. An empty name is derived from the filter.
func (f *Facade) OpenQuery(ctx context.Context, name string, filter models.Filter) (int, error) {
	if f.library == nil {
		return 0, fmt.Errorf("%w: no library configured", shared.ErrNotImplemented)
	}

	tracks, err := f.library.List(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%w: library query failed: %v", shared.ErrPersistenceFailure, err)
	}
	if name == "" {
		name = filter.Name()
	}

	f.logger.Info("opening query tab", "name", name, "tracks", len(tracks))
	return f.engine.AddTab(ctx, name, tracks)
}

// SaveNow persists the tabs immediately.
func (f *Facade) SaveNow(ctx context.Context) error {
	if f.autosaver == nil {
		return fmt.Errorf("%w: no store configured", shared.ErrPersistenceFailure)
	}
	if err := f.autosaver.SaveNow(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPersistenceFailure, err)
	}
	return nil
}
