// Package tasks runs store work off the playback engine's goroutine.
//
// # Persister
//
// [Persister] is a small worker pool that applies fire-and-forget writes:
//
//  1. [Persister.RecordPlay] : play-count increments for finished tracks
//  2. [Persister.DeleteTab] : removal of a closed tab's backing rows
//
// Enqueueing never blocks. When the queue is full the job is dropped and logged,
// because a lost play count must never stall playback.
//
// # Autosave
//
// [Autosaver] snapshots the tab registry through the engine on a fixed interval and
// writes it with a [playlist.Store]. A failed save is logged and reported; the timer
// keeps running.
//
// # Updates
//
// Both report outcomes as [Update] values on an optional channel. Updates use select
// with default to prevent blocking.
package tasks
