package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/gardenhub/internal/model"
	"github.com/sakif/gardenhub/internal/repository"
)

var _ repository.PlantCache = (*DB)(nil)

// cacheTTL is how long a provider answer stays servable. Plant care data is
// effectively static; a week keeps the metered provider quota mostly idle.
const cacheTTL = 7 * 24 * time.Hour

// Get returns the cached record for (kind, name), or a miss when nothing is
// stored or the entry has outlived the TTL. An expired entry counts as a
// miss, not an error — the caller re-fetches and overwrites it.
func (db *DB) Get(ctx context.Context, kind, name string) (*model.PlantRecord, bool, error) {
	var payload string
	var fetchedAt time.Time

	err := db.conn.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM plant_cache WHERE kind = ? AND name = ?`,
		kind, name,
	).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: reading cache entry: %w", err)
	}

	if time.Since(fetchedAt) > cacheTTL {
		return nil, false, nil
	}

	var record model.PlantRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		// A corrupt row is treated as a miss; the next Put repairs it.
		return nil, false, nil
	}
	return &record, true, nil
}

// Put stores (or refreshes) the record for (kind, name). The upsert keeps
// one row per key, so a refresh resets the TTL instead of accumulating
// stale duplicates.
func (db *DB) Put(ctx context.Context, kind, name string, record *model.PlantRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("sqlite: encoding cache entry: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO plant_cache (id, kind, name, payload, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (kind, name) DO UPDATE SET
		   payload = excluded.payload,
		   fetched_at = excluded.fetched_at`,
		xid.New().String(), kind, name, string(payload), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing cache entry: %w", err)
	}
	return nil
}
