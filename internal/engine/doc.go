// package engine is the playback state machine.
//
// A single goroutine owns the tab registry, the playback status and the repeat-once
// flag. Commands from surfaces and signals from the media backend both pass through it,
// so there is exactly one writer. Readers use [Engine.State], an immutable copy that is
// republished after every change.
//
// # Transport gating
//
// Play, pause and stop wait for the backend to confirm the new state. Until it does,
// further transport commands are queued in arrival order and applied after the
// confirmation, or after the acknowledgement timeout passes. Playback status follows
// what the backend reports; the pause toggle is the one exception and updates the status
// as soon as it issues its command.
package engine
