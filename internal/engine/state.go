package engine

import (
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
)

// Tab is the published view of one tab.
type Tab struct {
	Key    string         `json:"key"`
	ID     int64          `json:"id,omitempty"`
	Name   string         `json:"name"`
	Cursor *int           `json:"cursor"`
	Tracks []models.Track `json:"-"`
	Len    int            `json:"len"`
}

// State is an immutable copy of the engine's observable state.
type State struct {
	Status     models.PlaybackStatus `json:"status"`
	RepeatOnce bool                  `json:"repeat_once"`
	Viewing    int                   `json:"viewing"`
	Playing    int                   `json:"playing"`
	Tabs       []Tab                 `json:"tabs"`
	Elapsed    time.Duration         `json:"elapsed"`
	Duration   time.Duration         `json:"duration"`
	Reason     string                `json:"reason,omitempty"`
}

// CurrentIndex returns the cursor of the playing tab.
func (s State) CurrentIndex() (int, bool) {
	if s.Playing < 0 || s.Playing >= len(s.Tabs) {
		return 0, false
	}
	c := s.Tabs[s.Playing].Cursor
	if c == nil {
		return 0, false
	}
	return *c, true
}

// CurrentTrack returns the track under the playing tab's cursor.
func (s State) CurrentTrack() (models.Track, bool) {
	idx, ok := s.CurrentIndex()
	if !ok {
		return models.Track{}, false
	}
	return s.Tabs[s.Playing].Tracks[idx], true
}

func tabsFrom(snap playlist.TabsSnapshot) []Tab {
	tabs := make([]Tab, len(snap.Tabs))
	for i, rec := range snap.Tabs {
		tabs[i] = Tab{
			Key:    rec.Key,
			ID:     rec.ID,
			Name:   rec.Name,
			Tracks: rec.Tracks,
			Len:    len(rec.Tracks),
		}
		if len(rec.Tracks) > 0 {
			c := rec.Cursor
			tabs[i].Cursor = &c
		}
	}
	return tabs
}
