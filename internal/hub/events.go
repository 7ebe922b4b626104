package hub

import (
	"time"

	"github.com/desertthunder/jukebox/internal/models"
)

// Kind identifies an event type.
type Kind string

const (
	PlaybackChanged        Kind = "playback"
	PositionChanged        Kind = "position"
	TabsChanged            Kind = "tabs"
	PlaylistContentChanged Kind = "playlist"
	Notice                 Kind = "notice"
)

// Event is one published state change. Seq is assigned by the hub.
type Event struct {
	Seq  uint64    `json:"seq"`
	Kind Kind      `json:"kind"`
	At   time.Time `json:"at"`

	Status  models.PlaybackStatus `json:"status"`
	Tab     int                   `json:"tab"`
	Cursor  *int                  `json:"cursor,omitempty"`
	Track   *models.Track         `json:"track,omitempty"`
	Elapsed float64               `json:"elapsed,omitempty"`  // seconds
	Length  float64               `json:"duration,omitempty"` // seconds
	Viewing int                   `json:"viewing"`
	Playing int                   `json:"playing"`
	Reason  string                `json:"reason,omitempty"`
}

// Playback builds a [PlaybackChanged] event.
func Playback(status models.PlaybackStatus, tab int, cursor *int, track *models.Track, reason string) Event {
	return Event{Kind: PlaybackChanged, Status: status, Tab: tab, Cursor: cursor, Track: track, Reason: reason}
}

// Position builds a [PositionChanged] event.
func Position(status models.PlaybackStatus, elapsed, length time.Duration) Event {
	return Event{Kind: PositionChanged, Status: status, Elapsed: elapsed.Seconds(), Length: length.Seconds()}
}

// Tabs builds a [TabsChanged] event.
func Tabs(viewing, playing int) Event {
	return Event{Kind: TabsChanged, Viewing: viewing, Playing: playing}
}

// Content builds a [PlaylistContentChanged] event for tab.
func Content(tab int, cursor *int) Event {
	return Event{Kind: PlaylistContentChanged, Tab: tab, Cursor: cursor}
}

// Message builds a [Notice] carrying an asynchronous failure reason.
func Message(reason string) Event {
	return Event{Kind: Notice, Reason: reason}
}
