package playlist

import (
	"context"
	"fmt"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// DefaultTabName names tabs created to keep the registry non-empty.
const DefaultTabName = "New Playlist"

// RemoveNotice describes a closed tab so the playback engine can react.
//
// The registry never stops playback itself.
type RemoveNotice struct {
	Index      int
	Removed    TabRecord
	WasPlaying bool
	WasViewing bool
}

// Registry owns the open tabs and the viewing/playing indices.
type Registry struct {
	tabs     []*Loaded
	viewing  int
	playing  int
	recorder PlayRecorder
}

// NewRegistry creates a registry holding a single empty tab.
func NewRegistry(recorder PlayRecorder) *Registry {
	r := &Registry{recorder: recorder}
	r.Add(NewLoaded(DefaultTabName, nil))
	return r
}

// Restore rebuilds a registry from the store. An empty store yields [NewRegistry].
func Restore(ctx context.Context, store Store, recorder PlayRecorder) (*Registry, error) {
	snap, err := store.LoadTabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load tabs: %v", shared.ErrPersistenceFailure, err)
	}
	return FromSnapshot(snap, recorder), nil
}

// FromSnapshot rebuilds a registry from a snapshot, clamping invalid indices.
func FromSnapshot(snap TabsSnapshot, recorder PlayRecorder) *Registry {
	if len(snap.Tabs) == 0 {
		return NewRegistry(recorder)
	}

	r := &Registry{recorder: recorder}
	for _, rec := range snap.Tabs {
		r.Add(FromRecord(rec))
	}
	r.viewing = clamp(snap.Viewing, len(r.tabs))
	r.playing = clamp(snap.Playing, len(r.tabs))
	return r
}

// Len returns the number of tabs.
func (r *Registry) Len() int { return len(r.tabs) }

// Viewing returns the index of the displayed tab.
func (r *Registry) Viewing() int { return r.viewing }

// Playing returns the index of the tab driven by the playback engine.
func (r *Registry) Playing() int { return r.playing }

// Tab returns the tab at index.
func (r *Registry) Tab(index int) (*Loaded, error) {
	if err := r.check(index); err != nil {
		return nil, err
	}
	return r.tabs[index], nil
}

// PlayingTab returns the tab whose cursor drives playback.
func (r *Registry) PlayingTab() *Loaded {
	return r.tabs[r.playing]
}

// ViewingTab returns the displayed tab.
func (r *Registry) ViewingTab() *Loaded {
	return r.tabs[r.viewing]
}

// Add appends a tab and returns its index. Viewing and playing indices are unchanged.
func (r *Registry) Add(p *Loaded) int {
	p.SetRecorder(r.recorder)
	r.tabs = append(r.tabs, p)
	return len(r.tabs) - 1
}

// Remove closes the tab at index.
//
// Indices pointing past the removed tab shift down; an index pointing at it moves to the tab
// now occupying that slot (or the new last tab).
func (r *Registry) Remove(index int) (RemoveNotice, error) {
	if err := r.check(index); err != nil {
		return RemoveNotice{}, err
	}

	notice := RemoveNotice{
		Index:      index,
		Removed:    r.tabs[index].Record(),
		WasPlaying: index == r.playing,
		WasViewing: index == r.viewing,
	}

	r.tabs = append(r.tabs[:index], r.tabs[index+1:]...)
	if len(r.tabs) == 0 {
		r.Add(NewLoaded(DefaultTabName, nil))
		r.viewing, r.playing = 0, 0
		return notice, nil
	}

	r.viewing = shiftAfterRemove(r.viewing, index, len(r.tabs))
	r.playing = shiftAfterRemove(r.playing, index, len(r.tabs))
	return notice, nil
}

// SetViewing selects the displayed tab.
func (r *Registry) SetViewing(index int) error {
	if err := r.check(index); err != nil {
		return err
	}
	r.viewing = index
	return nil
}

// SetPlaying selects the tab driven by playback.
func (r *Registry) SetPlaying(index int) error {
	if err := r.check(index); err != nil {
		return err
	}
	r.playing = index
	return nil
}

// Rename renames the tab at index.
func (r *Registry) Rename(index int, name string) error {
	if err := r.check(index); err != nil {
		return err
	}
	r.tabs[index].Rename(name)
	return nil
}

// Move reorders tabs; the viewing and playing indices follow their tabs.
func (r *Registry) Move(from, to int) error {
	if err := r.check(from); err != nil {
		return err
	}
	if err := r.check(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	viewing, playing := r.tabs[r.viewing], r.tabs[r.playing]

	tab := r.tabs[from]
	r.tabs = append(r.tabs[:from], r.tabs[from+1:]...)
	r.tabs = append(r.tabs[:to], append([]*Loaded{tab}, r.tabs[to:]...)...)

	for i, t := range r.tabs {
		if t == viewing {
			r.viewing = i
		}
		if t == playing {
			r.playing = i
		}
	}
	return nil
}

// CurrentTrack resolves the current track through the playing tab.
func (r *Registry) CurrentTrack() (models.Track, error) {
	return r.PlayingTab().Current()
}

// Snapshot deep-copies the registry.
func (r *Registry) Snapshot() TabsSnapshot {
	snap := TabsSnapshot{
		Tabs:    make([]TabRecord, len(r.tabs)),
		Viewing: r.viewing,
		Playing: r.playing,
	}
	for i, t := range r.tabs {
		snap.Tabs[i] = t.Record()
	}
	return snap
}

// AssignIDs records store identities returned by [Store.SaveTabs].
func (r *Registry) AssignIDs(ids map[string]int64) {
	for _, t := range r.tabs {
		if id, ok := ids[t.key]; ok {
			t.id = id
		}
	}
}

// Save persists the registry and adopts the assigned identities.
func (r *Registry) Save(ctx context.Context, store Store) error {
	ids, err := store.SaveTabs(ctx, r.Snapshot())
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPersistenceFailure, err)
	}
	r.AssignIDs(ids)
	return nil
}

func (r *Registry) check(index int) error {
	if index < 0 || index >= len(r.tabs) {
		return fmt.Errorf("%w: tab %d of %d", shared.ErrIndexOutOfRange, index, len(r.tabs))
	}
	return nil
}

func shiftAfterRemove(idx, removed, n int) int {
	if idx > removed {
		return idx - 1
	}
	return clamp(idx, n)
}
