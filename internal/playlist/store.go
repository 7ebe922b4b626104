package playlist

import (
	"context"

	"github.com/desertthunder/jukebox/internal/models"
)

// TabRecord is the persisted form of one tab.
type TabRecord struct {
	Key    string         `json:"key"`
	ID     int64          `json:"id"`
	Name   string         `json:"name"`
	Cursor int            `json:"cursor"`
	Tracks []models.Track `json:"tracks"`
}

// TabsSnapshot is a deep copy of the registry, ordered by tab index.
type TabsSnapshot struct {
	Tabs    []TabRecord `json:"tabs"`
	Viewing int         `json:"viewing"`
	Playing int         `json:"playing"`
}

// Store persists registry snapshots.
//
// SaveTabs must be idempotent: saving the same snapshot twice leaves the store unchanged.
// It returns the store identity assigned to each tab, keyed by [TabRecord.Key].
// LoadTabs must return tracks in their explicit persisted order.
type Store interface {
	SaveTabs(ctx context.Context, snapshot TabsSnapshot) (map[string]int64, error)
	LoadTabs(ctx context.Context) (TabsSnapshot, error)
}
