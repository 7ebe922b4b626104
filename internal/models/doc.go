// Package models defines the value types shared by the playback core and its surfaces.
//
// The package contains plain data with no behavior beyond accessors:
//
//   - [Track] : a library track; equality is defined by storage path only
//   - [PlaybackStatus] : the closed set of playback states reported by the media backend
//   - [Direction] : manual skip direction for cursor movement
//   - [Filter] : library query used to build a tab ("smart playlist")
//
// Tracks are created by the library (outside this module's scope) and only mutated to increment their play count.
package models
