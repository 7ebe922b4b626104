package playlist

import (
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

type recorder struct {
	played []string
}

func (r *recorder) RecordPlay(track models.Track) {
	r.played = append(r.played, track.Path)
}

func tracks(n int) []models.Track {
	out := make([]models.Track, n)
	for i := range out {
		out[i] = models.Track{
			ID:    int64(i + 1),
			Title: fmt.Sprintf("Track %d", i),
			Path:  fmt.Sprintf("/music/track-%d.flac", i),
		}
	}
	return out
}

func cursorOf(t *testing.T, p *Loaded) int {
	t.Helper()
	c, ok := p.Cursor()
	if !ok {
		t.Fatal("expected a cursor")
	}
	return c
}

func TestTrackURI(t *testing.T) {
	t.Run("encodes reserved characters", func(t *testing.T) {
		uri, err := TrackURI("/music/AC DC/Back in Black #1.mp3")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if uri != "file:///music/AC%20DC/Back%20in%20Black%20%231.mp3" {
			t.Errorf("unexpected uri %q", uri)
		}

		path, err := PathFromURI(uri)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != "/music/AC DC/Back in Black #1.mp3" {
			t.Errorf("round trip produced %q", path)
		}
	})

	t.Run("rejects malformed paths", func(t *testing.T) {
		for _, path := range []string{"", "relative/song.mp3", "/music/\x00.mp3", "/music/\xff.mp3"} {
			if _, err := TrackURI(path); !errors.Is(err, shared.ErrMalformedURI) {
				t.Errorf("TrackURI(%q) error = %v, want ErrMalformedURI", path, err)
			}
		}
	})

	t.Run("rejects other schemes", func(t *testing.T) {
		if _, err := PathFromURI("http://example.com/a.mp3"); !errors.Is(err, shared.ErrMalformedURI) {
			t.Errorf("expected ErrMalformedURI, got %v", err)
		}
	})
}

func TestLoaded(t *testing.T) {
	t.Run("empty playlist has no current track", func(t *testing.T) {
		p := NewLoaded("Empty", nil)

		if _, ok := p.Cursor(); ok {
			t.Error("expected no cursor")
		}
		if _, err := p.Current(); !errors.Is(err, shared.ErrEmptyPlaylist) {
			t.Errorf("expected ErrEmptyPlaylist, got %v", err)
		}
		if _, err := p.Advance(models.Next); !errors.Is(err, shared.ErrEmptyPlaylist) {
			t.Errorf("expected ErrEmptyPlaylist, got %v", err)
		}
		if _, ok, err := p.AdvanceOrEndOfList(); ok || err != nil {
			t.Errorf("expected end of list, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("Advance wraps both ways", func(t *testing.T) {
		p := NewLoaded("Wrap", tracks(3))

		uri, err := p.Advance(models.Previous)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := cursorOf(t, p); got != 2 {
			t.Errorf("Previous from 0 = %d, want 2", got)
		}
		if uri != "file:///music/track-2.flac" {
			t.Errorf("unexpected uri %q", uri)
		}

		if _, err := p.Advance(models.Next); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := cursorOf(t, p); got != 0 {
			t.Errorf("Next from 2 = %d, want 0", got)
		}
	})

	t.Run("Next then Previous is identity", func(t *testing.T) {
		for n := 1; n <= 5; n++ {
			for start := 0; start < n; start++ {
				p := NewLoaded("Round trip", tracks(n))
				if _, err := p.JumpTo(start); err != nil {
					t.Fatalf("JumpTo(%d): %v", start, err)
				}
				_, _ = p.Advance(models.Next)
				_, _ = p.Advance(models.Previous)
				if got := cursorOf(t, p); got != start {
					t.Errorf("n=%d start=%d: cursor = %d", n, start, got)
				}
			}
		}
	})

	t.Run("JumpTo validates index", func(t *testing.T) {
		p := NewLoaded("Jump", tracks(3))

		for _, idx := range []int{-1, 3} {
			if _, err := p.JumpTo(idx); !errors.Is(err, shared.ErrIndexOutOfRange) {
				t.Errorf("JumpTo(%d) error = %v, want ErrIndexOutOfRange", idx, err)
			}
		}
		if got := cursorOf(t, p); got != 0 {
			t.Errorf("failed jump moved cursor to %d", got)
		}
	})

	t.Run("AdvanceOrEndOfList records plays and stops at the end", func(t *testing.T) {
		rec := &recorder{}
		p := NewLoaded("Album", tracks(2))
		p.SetRecorder(rec)

		uri, ok, err := p.AdvanceOrEndOfList()
		if err != nil || !ok {
			t.Fatalf("expected next track, got ok=%v err=%v", ok, err)
		}
		if uri != "file:///music/track-1.flac" {
			t.Errorf("unexpected uri %q", uri)
		}

		_, ok, err = p.AdvanceOrEndOfList()
		if err != nil || ok {
			t.Fatalf("expected end of list, got ok=%v err=%v", ok, err)
		}
		if got := cursorOf(t, p); got != 0 {
			t.Errorf("cursor after end of list = %d, want 0", got)
		}
		if len(rec.played) != 2 || rec.played[0] != "/music/track-0.flac" || rec.played[1] != "/music/track-1.flac" {
			t.Errorf("unexpected plays %v", rec.played)
		}
	})

	t.Run("AdvanceOrEndOfList reports malformed next track", func(t *testing.T) {
		items := tracks(2)
		items[1].Path = "not/absolute.mp3"
		p := NewLoaded("Broken", items)

		if _, ok, err := p.AdvanceOrEndOfList(); ok || !errors.Is(err, shared.ErrMalformedURI) {
			t.Errorf("expected ErrMalformedURI, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("RemoveRange", func(t *testing.T) {
		tt := []struct {
			name        string
			n           int
			cursor      int
			start, end  int
			wantCursor  int
			wantLen     int
			wantRemoved bool
		}{
			{name: "cursor inside range", n: 5, cursor: 2, start: 1, end: 3, wantCursor: 1, wantLen: 3, wantRemoved: true},
			{name: "cursor after range", n: 5, cursor: 4, start: 0, end: 2, wantCursor: 2, wantLen: 3},
			{name: "cursor before range", n: 5, cursor: 0, start: 2, end: 5, wantCursor: 0, wantLen: 2},
			{name: "tail containing cursor", n: 5, cursor: 4, start: 3, end: 5, wantCursor: 2, wantLen: 3, wantRemoved: true},
			{name: "everything", n: 3, cursor: 1, start: 0, end: 3, wantCursor: 0, wantLen: 0, wantRemoved: true},
			{name: "empty range", n: 3, cursor: 1, start: 1, end: 1, wantCursor: 1, wantLen: 3},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				p := NewLoaded("Remove", tracks(tc.n))
				if _, err := p.JumpTo(tc.cursor); err != nil {
					t.Fatalf("JumpTo: %v", err)
				}

				removed, err := p.RemoveRange(tc.start, tc.end)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if removed != tc.wantRemoved {
					t.Errorf("removedCurrent = %v, want %v", removed, tc.wantRemoved)
				}
				if p.Len() != tc.wantLen {
					t.Errorf("Len() = %d, want %d", p.Len(), tc.wantLen)
				}
				if got, _ := p.Cursor(); got != tc.wantCursor {
					t.Errorf("cursor = %d, want %d", got, tc.wantCursor)
				}
			})
		}
	})

	t.Run("RemoveRange validates bounds", func(t *testing.T) {
		p := NewLoaded("Remove", tracks(3))
		for _, r := range [][2]int{{-1, 1}, {0, 4}, {2, 1}} {
			if _, err := p.RemoveRange(r[0], r[1]); !errors.Is(err, shared.ErrIndexOutOfRange) {
				t.Errorf("RemoveRange(%d, %d) error = %v", r[0], r[1], err)
			}
		}
	})

	t.Run("Move keeps cursor on its track", func(t *testing.T) {
		tt := []struct {
			name       string
			cursor     int
			from, to   int
			wantCursor int
		}{
			{name: "move cursor track", cursor: 1, from: 1, to: 3, wantCursor: 3},
			{name: "move earlier track past cursor", cursor: 1, from: 0, to: 2, wantCursor: 0},
			{name: "move later track before cursor", cursor: 1, from: 3, to: 1, wantCursor: 2},
			{name: "unrelated move", cursor: 0, from: 2, to: 3, wantCursor: 0},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				p := NewLoaded("Move", tracks(4))
				_, _ = p.JumpTo(tc.cursor)
				want, _ := p.Current()

				if err := p.Move(tc.from, tc.to); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got := cursorOf(t, p); got != tc.wantCursor {
					t.Errorf("cursor = %d, want %d", got, tc.wantCursor)
				}
				if got, _ := p.Current(); !got.Equal(want) {
					t.Errorf("current = %s, want %s", got.Path, want.Path)
				}
			})
		}
	})

	t.Run("Tracks returns a copy", func(t *testing.T) {
		p := NewLoaded("Copy", tracks(2))
		items := p.Tracks()
		items[0].Title = "Mutated"

		if got, _ := p.Current(); got.Title == "Mutated" {
			t.Error("expected Tracks to return a copy")
		}
	})

	t.Run("FromRecord clamps cursor", func(t *testing.T) {
		p := FromRecord(TabRecord{Key: "abc", ID: 4, Name: "Restored", Cursor: 9, Tracks: tracks(3)})

		if p.Key() != "abc" || p.ID() != 4 || p.Name() != "Restored" {
			t.Errorf("unexpected identity %s/%d/%s", p.Key(), p.ID(), p.Name())
		}
		if got := cursorOf(t, p); got != 2 {
			t.Errorf("cursor = %d, want 2", got)
		}
	})
}
