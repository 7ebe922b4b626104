// Package server exposes the facade over HTTP for web clients and remote mirrors.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method-qualified patterns, so handlers read path
// parameters with [http.Request.PathValue].
//
// # API
//
// [APIHandler] serves the JSON API under /api:
//
//	GET    /api/status                 playback status
//	GET    /api/current                current track index (null when the playing tab is empty)
//	GET    /api/tabs                   open tabs with viewing and playing indices
//	POST   /api/tabs                   open a tab from a library query
//	GET    /api/tabs/{index}/tracks    tracks of one tab
//	POST   /api/tabs/{index}/view      select the displayed tab
//	POST   /api/tabs/{index}/play      select the playing tab
//	POST   /api/tabs/{index}/rename    rename a tab
//	DELETE /api/tabs/{index}           close a tab
//	DELETE /api/tracks?start=&end=     remove tracks from the playing tab
//	POST   /api/command                transport command
//	POST   /api/save                   persist tabs now
//	GET    /api/artwork                cover of the current track
//	GET    /api/events                 Server-Sent Events stream
//
// Rejected commands map to status codes with [StatusFor].
//
// # Middleware
//
// [RequestID], [Logging], [Recover] and [RateLimit] cover the usual cross-cutting concerns. The rate limiter only
// applies to mutating requests so event streams and status polling are never throttled.
package server
