package repositories

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/jukebox/internal/models"
)

// PlaylistTrackRepository manages ordered playlist membership.
//
// Order lives in the position column and is always read back sorted by it.
type PlaylistTrackRepository struct {
	db Querier
}

// NewPlaylistTrackRepository creates a new PlaylistTrackRepository over db, which may be a transaction.
func NewPlaylistTrackRepository(db Querier) *PlaylistTrackRepository {
	return &PlaylistTrackRepository{db: db}
}

// TrackIDs returns the member track ids of a playlist in order.
func (r *PlaylistTrackRepository) TrackIDs(ctx context.Context, playlistID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY position ASC`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

// Tracks returns the member tracks of a playlist in order.
func (r *PlaylistTrackRepository) Tracks(ctx context.Context, playlistID int64) ([]models.Track, error) {
	query := `
		SELECT t.id, t.path, t.title, t.artist, t.album, t.genre, t.track_number, t.year, t.duration, t.artwork_path, t.play_count
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// Replace rewrites the membership of a playlist with trackIDs, positions 0..n-1.
//
// It reports whether anything changed; identical membership is left untouched.
func (r *PlaylistTrackRepository) Replace(ctx context.Context, playlistID int64, trackIDs []int64) (bool, error) {
	current, err := r.TrackIDs(ctx, playlistID)
	if err != nil {
		return false, err
	}
	if slices.Equal(current, trackIDs) {
		return false, nil
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ?`, playlistID); err != nil {
		return false, fmt.Errorf("failed to clear playlist tracks: %w", err)
	}

	for pos, id := range trackIDs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO playlist_tracks (playlist_id, track_id, position) VALUES (?, ?, ?)`,
			playlistID, id, pos)
		if err != nil {
			return false, fmt.Errorf("failed to insert playlist track at %d: %w", pos, err)
		}
	}

	return true, nil
}
