// Package repositories implements SQLite persistence for tracks and playlist tabs.
//
// Key Implementations:
//   - [TrackRepository] : library tracks, looked up by id or storage path, with play counts
//   - [PlaylistRepository] : persisted tabs keyed by their in-memory tab key
//   - [PlaylistTrackRepository] : ordered playlist membership with an explicit position column
//   - [TabStore] : the [playlist.Store] used by autosave and restore
//
// Repositories accept a [Querier] so the same code runs against a [sql.DB] or inside a
// transaction opened with [WithTx].
package repositories
