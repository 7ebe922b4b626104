package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

const trackColumns = `id, path, title, artist, album, genre, track_number, year, duration, artwork_path, play_count`

// TrackRepository persists library tracks.
type TrackRepository struct {
	db Querier
}

// NewTrackRepository creates a new TrackRepository over db, which may be a transaction.
func NewTrackRepository(db Querier) *TrackRepository {
	return &TrackRepository{db: db}
}

// Upsert inserts track or refreshes the metadata of the row with the same path.
// The store identity is written back to track.ID.
func (r *TrackRepository) Upsert(ctx context.Context, track *models.Track) error {
	if track.Path == "" {
		return fmt.Errorf("%w: track path is required", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO tracks (path, title, artist, album, genre, track_number, year, duration, artwork_path, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			genre = excluded.genre,
			track_number = excluded.track_number,
			year = excluded.year,
			duration = excluded.duration,
			artwork_path = excluded.artwork_path,
			updated_at = excluded.updated_at
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		track.Path,
		track.Title,
		track.Artist,
		track.Album,
		track.Genre,
		nullInt(track.TrackNumber),
		nullInt(track.Year),
		track.Duration,
		nullString(track.ArtworkPath),
		time.Now(),
	).Scan(&track.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert track: %w", err)
	}

	return nil
}

// Get retrieves a track by id.
func (r *TrackRepository) Get(ctx context.Context, id int64) (models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), id)
}

// GetByPath retrieves a track by its storage path.
func (r *TrackRepository) GetByPath(ctx context.Context, path string) (models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE path = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, path), path)
}

// List retrieves tracks matching filter in album order.
//
// Artist, album and genre match case-insensitively; title matches as a substring.
func (r *TrackRepository) List(ctx context.Context, filter models.Filter) ([]models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE 1 = 1`
	args := []any{}

	if filter.Artist != "" {
		query += " AND artist = ? COLLATE NOCASE"
		args = append(args, filter.Artist)
	}
	if filter.Album != "" {
		query += " AND album = ? COLLATE NOCASE"
		args = append(args, filter.Album)
	}
	if filter.Genre != "" {
		query += " AND genre = ? COLLATE NOCASE"
		args = append(args, filter.Genre)
	}
	if filter.Title != "" {
		query += " AND title LIKE ?"
		args = append(args, "%"+filter.Title+"%")
	}

	query += " ORDER BY artist, album, COALESCE(track_number, 0), title, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// IncrementPlayCount adds one play to track, identified by id or, when unsaved, by path.
func (r *TrackRepository) IncrementPlayCount(ctx context.Context, track models.Track) error {
	var (
		result sql.Result
		err    error
	)

	if track.Persisted() {
		result, err = r.db.ExecContext(ctx,
			`UPDATE tracks SET play_count = COALESCE(play_count, 0) + 1, updated_at = ? WHERE id = ?`,
			time.Now(), track.ID)
	} else {
		result, err = r.db.ExecContext(ctx,
			`UPDATE tracks SET play_count = COALESCE(play_count, 0) + 1, updated_at = ? WHERE path = ?`,
			time.Now(), track.Path)
	}
	if err != nil {
		return fmt.Errorf("failed to increment play count: %w", err)
	}

	return expectRows(result, "track", track.Path)
}

// Delete removes a track and, by cascade, its playlist entries.
func (r *TrackRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return expectRows(result, "track", id)
}

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func (r *TrackRepository) scanOne(row *sql.Row, key any) (models.Track, error) {
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Track{}, fmt.Errorf("%w: track %v", shared.ErrNotFound, key)
	}
	return track, err
}

func scanTracks(rows *sql.Rows) ([]models.Track, error) {
	var tracks []models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

// scanTrack reads the columns listed in trackColumns, in order.
func scanTrack(s scanner) (models.Track, error) {
	var (
		track       models.Track
		trackNumber sql.NullInt64
		year        sql.NullInt64
		artworkPath sql.NullString
		playCount   sql.NullInt64
	)

	err := s.Scan(
		&track.ID,
		&track.Path,
		&track.Title,
		&track.Artist,
		&track.Album,
		&track.Genre,
		&trackNumber,
		&year,
		&track.Duration,
		&artworkPath,
		&playCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Track{}, err
	}
	if err != nil {
		return models.Track{}, fmt.Errorf("failed to scan track: %w", err)
	}

	track.TrackNumber = intPtr(trackNumber)
	track.Year = intPtr(year)
	track.PlayCount = intPtr(playCount)
	track.ArtworkPath = artworkPath.String
	return track, nil
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
