package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PlaylistRow is one persisted tab.
type PlaylistRow struct {
	ID       int64
	Key      string
	Name     string
	Cursor   int
	Position int
}

// PlaylistRepository persists tabs keyed by their tab key.
type PlaylistRepository struct {
	db Querier
}

// NewPlaylistRepository creates a new PlaylistRepository over db, which may be a transaction.
func NewPlaylistRepository(db Querier) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Upsert inserts row or updates the playlist with the same key, writing the id back.
//
// Unchanged rows are left untouched, including their updated_at timestamp.
func (r *PlaylistRepository) Upsert(ctx context.Context, row *PlaylistRow) error {
	query := `
		INSERT INTO playlists (tab_key, name, cursor_position, tab_position, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tab_key) DO UPDATE SET
			name = excluded.name,
			cursor_position = excluded.cursor_position,
			tab_position = excluded.tab_position,
			updated_at = excluded.updated_at
		WHERE playlists.name != excluded.name
			OR playlists.cursor_position != excluded.cursor_position
			OR playlists.tab_position != excluded.tab_position
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query, row.Key, row.Name, row.Cursor, row.Position, time.Now()).Scan(&row.ID)
	if errors.Is(err, sql.ErrNoRows) {
		err = r.db.QueryRowContext(ctx, `SELECT id FROM playlists WHERE tab_key = ?`, row.Key).Scan(&row.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert playlist %s: %w", row.Key, err)
	}

	return nil
}

// List retrieves every playlist in tab order.
func (r *PlaylistRepository) List(ctx context.Context) ([]PlaylistRow, error) {
	query := `
		SELECT id, tab_key, name, cursor_position, tab_position
		FROM playlists
		ORDER BY tab_position ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []PlaylistRow
	for rows.Next() {
		var p PlaylistRow
		if err := rows.Scan(&p.ID, &p.Key, &p.Name, &p.Cursor, &p.Position); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

// DeleteByKey removes a playlist and its entries.
func (r *PlaylistRepository) DeleteByKey(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM playlists WHERE tab_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return expectRows(result, "playlist", key)
}

// DeleteMissing removes every playlist whose key is not in keep.
func (r *PlaylistRepository) DeleteMissing(ctx context.Context, keep []string) (int64, error) {
	query := `DELETE FROM playlists`
	args := make([]any, len(keep))
	for i, k := range keep {
		args[i] = k
	}
	if len(keep) > 0 {
		query += ` WHERE tab_key NOT IN (` + strings.TrimSuffix(strings.Repeat("?, ", len(keep)), ", ") + `)`
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale playlists: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

// TabState returns the persisted viewing and playing indices.
func (r *PlaylistRepository) TabState(ctx context.Context) (viewing, playing int, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT viewing, playing FROM tab_state WHERE id = 1`).Scan(&viewing, &playing)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read tab state: %w", err)
	}
	return viewing, playing, nil
}

// SetTabState stores the viewing and playing indices when they changed.
func (r *PlaylistRepository) SetTabState(ctx context.Context, viewing, playing int) error {
	query := `
		INSERT INTO tab_state (id, viewing, playing, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			viewing = excluded.viewing,
			playing = excluded.playing,
			updated_at = excluded.updated_at
		WHERE tab_state.viewing != excluded.viewing OR tab_state.playing != excluded.playing
	`

	if _, err := r.db.ExecContext(ctx, query, viewing, playing, time.Now()); err != nil {
		return fmt.Errorf("failed to write tab state: %w", err)
	}
	return nil
}
