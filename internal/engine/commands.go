package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Play jumps to index in the playing tab and starts it.
func (e *Engine) Play(ctx context.Context, index int) error {
	_, err := call(ctx, e, "play", true, func() (struct{}, error) {
		return struct{}{}, e.play(index)
	})
	return err
}

// Next stops the current track if playing, advances with wrap-around and plays.
func (e *Engine) Next(ctx context.Context) error {
	return e.Step(ctx, models.Next)
}

// Previous is [Engine.Next] in the other direction.
func (e *Engine) Previous(ctx context.Context) error {
	return e.Step(ctx, models.Previous)
}

// Step moves the playing tab's cursor one track in dir and plays it.
func (e *Engine) Step(ctx context.Context, dir models.Direction) error {
	_, err := call(ctx, e, dir.String(), true, func() (struct{}, error) {
		return struct{}{}, e.step(dir)
	})
	return err
}

// PauseOrResume toggles playback and returns the resulting status.
func (e *Engine) PauseOrResume(ctx context.Context) (models.PlaybackStatus, error) {
	return call(ctx, e, "pause-or-resume", true, e.toggle)
}

// RepeatOnce replays the current track once when it ends. Repeated calls have no further effect.
func (e *Engine) RepeatOnce(ctx context.Context) error {
	_, err := call(ctx, e, "repeat-once", false, func() (struct{}, error) {
		e.setRepeatOnce()
		return struct{}{}, nil
	})
	return err
}

// Seek asks the backend to move to offset in the current track.
//
// Backends that cannot seek return an error; playback continues either way.
func (e *Engine) Seek(ctx context.Context, offset time.Duration) error {
	if offset < 0 {
		return fmt.Errorf("%w: negative seek offset %s", shared.ErrInvalidArgument, offset)
	}
	_, err := call(ctx, e, "seek", false, func() (struct{}, error) {
		return struct{}{}, e.seek(offset)
	})
	return err
}

// SetViewing selects the displayed tab.
func (e *Engine) SetViewing(ctx context.Context, index int) error {
	_, err := call(ctx, e, "set-viewing", false, func() (struct{}, error) {
		if err := e.registry.SetViewing(index); err != nil {
			return struct{}{}, err
		}
		e.publishTabs()
		return struct{}{}, nil
	})
	return err
}

// SetPlaying selects the tab driven by playback. Audio already playing is not interrupted.
func (e *Engine) SetPlaying(ctx context.Context, index int) error {
	_, err := call(ctx, e, "set-playing", false, func() (struct{}, error) {
		if err := e.registry.SetPlaying(index); err != nil {
			return struct{}{}, err
		}
		e.publishTabs()
		e.publishPlayback("")
		return struct{}{}, nil
	})
	return err
}

// AddTab opens a new tab and returns its index.
func (e *Engine) AddTab(ctx context.Context, name string, tracks []models.Track) (int, error) {
	return call(ctx, e, "add-tab", false, func() (int, error) {
		idx := e.registry.Add(playlist.NewLoaded(name, tracks))
		e.publishTabs()
		return idx, nil
	})
}

// RemoveTab closes a tab. Closing the playing tab while audio is loaded stops playback.
func (e *Engine) RemoveTab(ctx context.Context, index int) error {
	_, err := call(ctx, e, "remove-tab", true, func() (struct{}, error) {
		notice, err := e.registry.Remove(index)
		if err != nil {
			return struct{}{}, err
		}

		if notice.Removed.ID != 0 && e.deleter != nil {
			e.deleter.DeleteTab(notice.Removed.Key)
		}
		e.publishTabs()

		if notice.WasPlaying && e.status.IsActive() {
			e.logger.Info("playing tab closed, stopping", "tab", notice.Removed.Name)
			e.endPlayback("playing tab closed")
		}
		return struct{}{}, nil
	})
	return err
}

// RenameTab changes a tab's display name.
func (e *Engine) RenameTab(ctx context.Context, index int, name string) error {
	_, err := call(ctx, e, "rename-tab", false, func() (struct{}, error) {
		if err := e.registry.Rename(index, name); err != nil {
			return struct{}{}, err
		}
		e.publishTabs()
		return struct{}{}, nil
	})
	return err
}

// MoveTab reorders tabs.
func (e *Engine) MoveTab(ctx context.Context, from, to int) error {
	_, err := call(ctx, e, "move-tab", false, func() (struct{}, error) {
		if err := e.registry.Move(from, to); err != nil {
			return struct{}{}, err
		}
		e.publishTabs()
		return struct{}{}, nil
	})
	return err
}

// AppendTracks adds tracks to the end of a tab.
func (e *Engine) AppendTracks(ctx context.Context, tab int, tracks []models.Track) error {
	_, err := call(ctx, e, "append-tracks", false, func() (struct{}, error) {
		t, err := e.registry.Tab(tab)
		if err != nil {
			return struct{}{}, err
		}
		t.Append(tracks...)
		e.publishContent(tab)
		return struct{}{}, nil
	})
	return err
}

// RemoveTracks deletes tracks [start, end) from a tab.
//
// When the playing track is removed while playing, the track now under the cursor starts;
// if the removal reached the end of the tab (or emptied it, or playback was paused) playback stops.
func (e *Engine) RemoveTracks(ctx context.Context, tab, start, end int) error {
	_, err := call(ctx, e, "remove-tracks", true, func() (struct{}, error) {
		return struct{}{}, e.removeTracks(tab, start, end)
	})
	return err
}

// RemovePlayingTracks is [Engine.RemoveTracks] on whichever tab is playing when the command runs.
func (e *Engine) RemovePlayingTracks(ctx context.Context, start, end int) error {
	_, err := call(ctx, e, "remove-tracks", true, func() (struct{}, error) {
		return struct{}{}, e.removeTracks(e.registry.Playing(), start, end)
	})
	return err
}

func (e *Engine) removeTracks(tab, start, end int) error {
	t, err := e.registry.Tab(tab)
	if err != nil {
		return err
	}

	oldLen := t.Len()
	removedCurrent, err := t.RemoveRange(start, end)
	if err != nil {
		return err
	}
	e.publishContent(tab)

	if tab != e.registry.Playing() || !removedCurrent || !e.status.IsActive() {
		return nil
	}
	if t.Len() == 0 || end >= oldLen || e.status != models.Playing {
		e.endPlayback("")
		return nil
	}

	uri, err := t.CurrentURI()
	if err != nil {
		e.endPlayback(err.Error())
		return err
	}
	return e.halt(func() {
		if err := e.start(uri); err != nil {
			e.logger.Error("could not start track after removal", "err", err)
		}
	})
}

// MoveTrack reorders tracks within a tab; the cursor stays on its track.
func (e *Engine) MoveTrack(ctx context.Context, tab, from, to int) error {
	_, err := call(ctx, e, "move-track", false, func() (struct{}, error) {
		t, err := e.registry.Tab(tab)
		if err != nil {
			return struct{}{}, err
		}
		if err := t.Move(from, to); err != nil {
			return struct{}{}, err
		}
		e.publishContent(tab)
		return struct{}{}, nil
	})
	return err
}

// Snapshot deep-copies the registry for persistence.
func (e *Engine) Snapshot(ctx context.Context) (playlist.TabsSnapshot, error) {
	return call(ctx, e, "snapshot", false, func() (playlist.TabsSnapshot, error) {
		return e.registry.Snapshot(), nil
	})
}

// AssignIDs adopts the store ids returned by a save.
func (e *Engine) AssignIDs(ctx context.Context, ids map[string]int64) error {
	_, err := call(ctx, e, "assign-ids", false, func() (struct{}, error) {
		e.registry.AssignIDs(ids)
		e.dirty = true
		return struct{}{}, nil
	})
	return err
}

// TabContents returns the tracks of tab index from the published state.
func (e *Engine) TabContents(index int) ([]models.Track, error) {
	s := e.State()
	if index < 0 || index >= len(s.Tabs) {
		return nil, fmt.Errorf("%w: tab %d of %d", shared.ErrIndexOutOfRange, index, len(s.Tabs))
	}
	return append([]models.Track(nil), s.Tabs[index].Tracks...), nil
}
