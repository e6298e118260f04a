package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"sluice/internal/media"
)

// Store persists resolved streams in a sqlite file so a restart does not
// throw away work the filler already paid for. Metadata is never persisted;
// it is cheap to refetch and goes stale faster than resolutions.
type Store struct {
	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS resolved (
	bucket      TEXT NOT NULL,
	item_key    TEXT NOT NULL,
	payload     TEXT NOT NULL,
	resolved_at INTEGER NOT NULL,
	PRIMARY KEY (bucket, item_key)
);`

// OpenStore opens or creates the sqlite database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache store: %w", err)
	}
	return &Store{db: db}, nil
}

// Save upserts one resolved stream.
func (s *Store) Save(bucket, itemKey string, stream *media.ResolvedStream, at time.Time) error {
	payload, err := json.Marshal(stream)
	if err != nil {
		return fmt.Errorf("encode stream: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO resolved (bucket, item_key, payload, resolved_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (bucket, item_key) DO UPDATE SET payload = excluded.payload, resolved_at = excluded.resolved_at`,
		bucket, itemKey, string(payload), at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("persist stream: %w", err)
	}
	return nil
}

// Load returns the bucket's persisted streams younger than maxAge, keyed by
// item key. Expired rows are skipped, not deleted; Prune owns deletion.
func (s *Store) Load(bucket string, maxAge time.Duration, now time.Time) (map[string]*media.ResolvedStream, error) {
	cutoff := now.Add(-maxAge).Unix()
	rows, err := s.db.Query(
		`SELECT item_key, payload FROM resolved WHERE bucket = ? AND resolved_at > ?`,
		bucket, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("load cache store: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*media.ResolvedStream)
	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("scan cache row: %w", err)
		}
		var stream media.ResolvedStream
		if err := json.Unmarshal([]byte(payload), &stream); err != nil {
			continue
		}
		out[key] = &stream
	}
	return out, rows.Err()
}

// Prune deletes rows resolved before the cutoff.
func (s *Store) Prune(cutoff time.Time) error {
	if _, err := s.db.Exec(`DELETE FROM resolved WHERE resolved_at <= ?`, cutoff.Unix()); err != nil {
		return fmt.Errorf("prune cache store: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
