// Package playlist implements the in-memory playlist tabs driven by the playback engine.
//
// # Loaded Playlists
//
// A [Loaded] playlist is an ordered, mutable sequence of tracks with a cursor. It owns the
// "what plays next" policy:
//   - [Loaded.Advance] wraps around in both directions (manual skip)
//   - [Loaded.AdvanceOrEndOfList] never wraps; at the end it rewinds the cursor and reports exhaustion
//   - [Loaded.RemoveRange] clamps a removed cursor to the start of the range, i.e. the track that is now next
//
// # Tab Registry
//
// A [Registry] holds the open tabs with two independent indices: the tab being viewed and the
// tab being played. Track resolution for playback always goes through the playing tab.
// The registry is never empty; closing the last tab substitutes a fresh empty one.
//
// # Persistence
//
// The registry is saved through the [Store] interface using deep-copied [TabsSnapshot] values so
// callers can take a snapshot under their own lock and persist it elsewhere.
package playlist
