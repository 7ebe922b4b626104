// package models defines the data model for the playback orchestrator
package models

import (
	"fmt"
	"strings"
)

// Track is a single audio file known to the library.
//
// Two Track values are the same track when their storage paths match, regardless of ID or metadata.
type Track struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Genre       string `json:"genre"`
	TrackNumber *int   `json:"track_number,omitempty"`
	Year        *int   `json:"year,omitempty"`
	Path        string `json:"path"`
	Duration    int    `json:"duration"` // seconds
	ArtworkPath string `json:"artwork_path,omitempty"`
	PlayCount   *int   `json:"play_count,omitempty"`
}

// Equal reports whether t and other refer to the same file.
func (t Track) Equal(other Track) bool {
	return t.Path == other.Path
}

// Persisted reports whether the track has a store identity.
func (t Track) Persisted() bool {
	return t.ID > 0
}

// DisplayName renders "Artist - Title", falling back to the path when tags are missing.
func (t Track) DisplayName() string {
	switch {
	case t.Artist != "" && t.Title != "":
		return fmt.Sprintf("%s - %s", t.Artist, t.Title)
	case t.Title != "":
		return t.Title
	default:
		return t.Path
	}
}

// Direction selects manual cursor movement.
type Direction int

const (
	Next Direction = iota
	Previous
)

func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case Previous:
		return "previous"
	default:
		return ""
	}
}

// Filter describes a library query. Empty fields match everything.
type Filter struct {
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Title  string `json:"title,omitempty"`
}

// Empty reports whether the filter has no criteria.
func (f Filter) Empty() bool {
	return f.Artist == "" && f.Album == "" && f.Genre == "" && f.Title == ""
}

// Name derives a tab name from the filter criteria.
func (f Filter) Name() string {
	var parts []string
	for _, p := range []string{f.Artist, f.Album, f.Genre, f.Title} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Library"
	}
	return strings.Join(parts, " / ")
}
