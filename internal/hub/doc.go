// package hub fans engine and registry events out to subscribers.
//
// Publishing never blocks. Each subscriber owns a buffered channel; when it fills up
// the subscriber is disconnected and its channel closed, so a stalled client cannot
// hold back playback. Events reach every subscriber in publish order and position
// samples are never coalesced.
package hub
