package playlist

import (
	"fmt"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// PlayRecorder receives play-count increment requests for finished tracks.
//
// Implementations must not block; the request is fire-and-forget.
type PlayRecorder interface {
	RecordPlay(track models.Track)
}

// Loaded is one ordered, mutable sequence of tracks with a cursor.
//
// The zero cursor is meaningless while the playlist is empty.
type Loaded struct {
	key      string
	id       int64
	name     string
	items    []models.Track
	cursor   int
	recorder PlayRecorder
}

// NewLoaded creates an unsaved playlist positioned at its first track.
func NewLoaded(name string, tracks []models.Track) *Loaded {
	items := make([]models.Track, len(tracks))
	copy(items, tracks)
	return &Loaded{key: shared.GenerateID(), name: name, items: items}
}

// FromRecord rebuilds a playlist from persisted state, clamping an out-of-range cursor.
func FromRecord(rec TabRecord) *Loaded {
	p := NewLoaded(rec.Name, rec.Tracks)
	if rec.Key != "" {
		p.key = rec.Key
	}
	p.id = rec.ID
	p.cursor = clamp(rec.Cursor, len(p.items))
	return p
}

func (p *Loaded) Key() string  { return p.key }
func (p *Loaded) ID() int64    { return p.id }
func (p *Loaded) Name() string { return p.name }
func (p *Loaded) Len() int     { return len(p.items) }

// SetRecorder attaches the play-count recorder used by [Loaded.AdvanceOrEndOfList].
func (p *Loaded) SetRecorder(r PlayRecorder) {
	p.recorder = r
}

// Rename changes the display name.
func (p *Loaded) Rename(name string) {
	p.name = name
}

// Cursor returns the current position, or false when the playlist is empty.
func (p *Loaded) Cursor() (int, bool) {
	if len(p.items) == 0 {
		return 0, false
	}
	return p.cursor, true
}

// Current returns the track under the cursor.
func (p *Loaded) Current() (models.Track, error) {
	if len(p.items) == 0 {
		return models.Track{}, shared.ErrEmptyPlaylist
	}
	return p.items[p.cursor], nil
}

// Tracks returns a copy of the track sequence.
func (p *Loaded) Tracks() []models.Track {
	out := make([]models.Track, len(p.items))
	copy(out, p.items)
	return out
}

// Append adds tracks to the end without moving the cursor.
func (p *Loaded) Append(tracks ...models.Track) {
	p.items = append(p.items, tracks...)
}

// CurrentURI derives the playable locator of the current track.
func (p *Loaded) CurrentURI() (string, error) {
	track, err := p.Current()
	if err != nil {
		return "", err
	}
	return TrackURI(track.Path)
}

// Advance moves the cursor one step in dir, wrapping at both ends.
func (p *Loaded) Advance(dir models.Direction) (string, error) {
	n := len(p.items)
	if n == 0 {
		return "", shared.ErrEmptyPlaylist
	}

	switch dir {
	case models.Previous:
		p.cursor = (p.cursor - 1 + n) % n
	default:
		p.cursor = (p.cursor + 1) % n
	}

	return p.CurrentURI()
}

// JumpTo moves the cursor to index.
func (p *Loaded) JumpTo(index int) (string, error) {
	if index < 0 || index >= len(p.items) {
		return "", fmt.Errorf("%w: track %d of %d", shared.ErrIndexOutOfRange, index, len(p.items))
	}
	p.cursor = index
	return p.CurrentURI()
}

// AdvanceOrEndOfList applies the end-of-stream policy.
//
// The finished track's play count is recorded, then the cursor moves forward by exactly one.
// When no next track exists the cursor rewinds to 0 and ok is false. err is only set when the
// next track's path cannot be turned into a locator.
func (p *Loaded) AdvanceOrEndOfList() (uri string, ok bool, err error) {
	if len(p.items) == 0 {
		return "", false, nil
	}

	if p.recorder != nil {
		p.recorder.RecordPlay(p.items[p.cursor])
	}

	if p.cursor+1 >= len(p.items) {
		p.cursor = 0
		return "", false, nil
	}

	p.cursor++
	uri, err = p.CurrentURI()
	if err != nil {
		return "", false, err
	}
	return uri, true, nil
}

// RemoveRange deletes tracks in [start, end).
//
// A cursor inside the range lands on start, the track that now follows the removed ones.
// removedCurrent reports whether the track under the cursor was deleted.
func (p *Loaded) RemoveRange(start, end int) (removedCurrent bool, err error) {
	if start < 0 || end > len(p.items) || start > end {
		return false, fmt.Errorf("%w: range [%d, %d) of %d", shared.ErrIndexOutOfRange, start, end, len(p.items))
	}
	if start == end {
		return false, nil
	}

	removedCurrent = p.cursor >= start && p.cursor < end
	switch {
	case p.cursor >= end:
		p.cursor -= end - start
	case removedCurrent:
		p.cursor = start
	}

	p.items = append(p.items[:start], p.items[end:]...)
	p.cursor = clamp(p.cursor, len(p.items))
	return removedCurrent, nil
}

// Move relocates the track at from to index to, keeping the cursor on the same track.
func (p *Loaded) Move(from, to int) error {
	n := len(p.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d -> %d of %d", shared.ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}

	track := p.items[from]
	p.items = append(p.items[:from], p.items[from+1:]...)
	p.items = append(p.items[:to], append([]models.Track{track}, p.items[to:]...)...)

	switch {
	case p.cursor == from:
		p.cursor = to
	case from < p.cursor && to >= p.cursor:
		p.cursor--
	case from > p.cursor && to <= p.cursor:
		p.cursor++
	}
	return nil
}

// Record returns a deep copy suitable for persistence.
func (p *Loaded) Record() TabRecord {
	cursor, _ := p.Cursor()
	return TabRecord{
		Key:    p.key,
		ID:     p.id,
		Name:   p.name,
		Cursor: cursor,
		Tracks: p.Tracks(),
	}
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
