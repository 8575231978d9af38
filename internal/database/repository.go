package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mediashelf/models"
)

// WatchlistKey is the fixed key the serialized collection lives under. The
// whole list is the unit of durability; there is no per-item row.
const WatchlistKey = "watchlist"

// StateRepository persists the watchlist as a single serialized payload.
type StateRepository struct {
	conn *sql.DB
}

// NewStateRepository creates a repository on the given connection.
func NewStateRepository(conn *sql.DB) *StateRepository {
	return &StateRepository{conn: conn}
}

// LoadWatchlist reads the persisted collection. A missing row yields an empty
// list and no error; a row that fails to decode is reported as an error so
// the caller can decide how to degrade.
func (r *StateRepository) LoadWatchlist() ([]models.WatchlistItem, error) {
	var payload string
	err := r.conn.QueryRow("SELECT payload FROM watchlist_state WHERE key = ?", WatchlistKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query watchlist state: %w", err)
	}

	var items []models.WatchlistItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, fmt.Errorf("decode watchlist state: %w", err)
	}
	return items, nil
}

// SaveWatchlist replaces the persisted collection with the supplied one.
func (r *StateRepository) SaveWatchlist(items []models.WatchlistItem) error {
	if items == nil {
		items = []models.WatchlistItem{}
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode watchlist state: %w", err)
	}

	_, err = r.conn.Exec(
		`INSERT INTO watchlist_state (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		WatchlistKey, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write watchlist state: %w", err)
	}
	return nil
}
