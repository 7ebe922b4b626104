// Package services talks to a running jukebox server over its HTTP API.
//
// [APIService] wraps the raw GET/POST/DELETE calls used by the `remote` CLI commands and decodes the typed
// responses (status, current track, tabs). [APIService.Watch] consumes the Server-Sent Events stream, which is
// how a remote mirror follows playback on another machine.
//
// # Error Handling
//
// Transport failures and non-2xx responses are wrapped in [shared.ErrAPIRequest]; the server's JSON error message
// is included in the wrapped error.
package services
