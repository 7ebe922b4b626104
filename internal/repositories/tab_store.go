package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/shared"
)

// TabStore implements [playlist.Store] over SQLite.
type TabStore struct {
	db *sql.DB
}

// NewTabStore creates a new TabStore with the given database connection.
func NewTabStore(db *sql.DB) *TabStore {
	return &TabStore{db: db}
}

// SaveTabs writes snap in a single transaction.
//
// Tabs are upserted by key, unsaved tracks are registered by path, membership is rewritten only
// when it differs and tabs absent from snap are deleted. Saving an unchanged snapshot writes nothing.
func (s *TabStore) SaveTabs(ctx context.Context, snap playlist.TabsSnapshot) (map[string]int64, error) {
	ids := make(map[string]int64, len(snap.Tabs))

	err := WithTx(ctx, s.db, func(tx *sql.Tx) error {
		tracks := NewTrackRepository(tx)
		playlists := NewPlaylistRepository(tx)
		entries := NewPlaylistTrackRepository(tx)

		keys := make([]string, 0, len(snap.Tabs))
		for pos, tab := range snap.Tabs {
			row := PlaylistRow{Key: tab.Key, Name: tab.Name, Cursor: tab.Cursor, Position: pos}
			if err := playlists.Upsert(ctx, &row); err != nil {
				return err
			}

			trackIDs := make([]int64, len(tab.Tracks))
			for i, t := range tab.Tracks {
				id, err := ensureTrack(ctx, tracks, t)
				if err != nil {
					return err
				}
				trackIDs[i] = id
			}

			if _, err := entries.Replace(ctx, row.ID, trackIDs); err != nil {
				return err
			}

			ids[tab.Key] = row.ID
			keys = append(keys, tab.Key)
		}

		if _, err := playlists.DeleteMissing(ctx, keys); err != nil {
			return err
		}
		return playlists.SetTabState(ctx, snap.Viewing, snap.Playing)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistenceFailure, err)
	}

	return ids, nil
}

// LoadTabs reads every tab in tab order with tracks sorted by position.
func (s *TabStore) LoadTabs(ctx context.Context) (playlist.TabsSnapshot, error) {
	var snap playlist.TabsSnapshot

	playlists := NewPlaylistRepository(s.db)
	entries := NewPlaylistTrackRepository(s.db)

	rows, err := playlists.List(ctx)
	if err != nil {
		return snap, fmt.Errorf("%w: %v", shared.ErrPersistenceFailure, err)
	}

	for _, row := range rows {
		tracks, err := entries.Tracks(ctx, row.ID)
		if err != nil {
			return snap, fmt.Errorf("%w: %v", shared.ErrPersistenceFailure, err)
		}
		snap.Tabs = append(snap.Tabs, playlist.TabRecord{
			Key:    row.Key,
			ID:     row.ID,
			Name:   row.Name,
			Cursor: row.Cursor,
			Tracks: tracks,
		})
	}

	snap.Viewing, snap.Playing, err = playlists.TabState(ctx)
	if err != nil {
		return snap, fmt.Errorf("%w: %v", shared.ErrPersistenceFailure, err)
	}
	return snap, nil
}

// DeleteTab removes the backing rows of a closed tab. Unsaved tabs are ignored.
func (s *TabStore) DeleteTab(ctx context.Context, key string) error {
	err := NewPlaylistRepository(s.db).DeleteByKey(ctx, key)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}

// ensureTrack returns the store id for t, registering it by path when unsaved.
func ensureTrack(ctx context.Context, tracks *TrackRepository, t models.Track) (int64, error) {
	if t.Persisted() {
		return t.ID, nil
	}

	existing, err := tracks.GetByPath(ctx, t.Path)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return 0, err
	}

	if err := tracks.Upsert(ctx, &t); err != nil {
		return 0, err
	}
	return t.ID, nil
}
