// package backend defines the media backend contract used by the playback engine
// and provides two implementations:
//
//   - [MPD] drives a Music Player Daemon over its text protocol (github.com/fhs/gompd)
//   - [Simulated] keeps time in memory; useful without an audio daemon and in tests
//
// Backends accept transport commands synchronously and report what actually
// happened asynchronously through [Backend.Signals].
package backend
