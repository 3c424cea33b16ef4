// Package seed drives the providers over a list of listed companies to
// populate a local SQLite store for offline demos. Runs checkpoint their
// progress per (company, report-code, year) and can resume after any
// interruption without re-fetching completed work.
package seed

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver (no CGO required)

	"github.com/kofin-ai/kofin/pkg/models"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS responses (
    key        TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    source     TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS corp_mappings (
    corp_code   TEXT PRIMARY KEY,
    corp_name   TEXT NOT NULL,
    stock_code  TEXT NOT NULL DEFAULT '',
    modify_date TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS seed_progress (
    corp_code    TEXT NOT NULL,
    report_code  TEXT NOT NULL,
    year         TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'done',
    completed_at INTEGER NOT NULL,
    PRIMARY KEY (corp_code, report_code, year)
);

CREATE TABLE IF NOT EXISTS seed_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Store is the demo-seed database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the seed database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open seed store: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init seed schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// PutResponse upserts one fetched payload. Overwriting is safe.
func (s *Store) PutResponse(key string, data []byte, source string) error {
	_, err := s.db.Exec(`
INSERT INTO responses (key, data, source, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET data = excluded.data, source = excluded.source, created_at = excluded.created_at`,
		key, data, source, time.Now().UnixMilli())
	return err
}

// GetResponse reads one stored payload.
func (s *Store) GetResponse(key string) ([]byte, bool) {
	var data []byte
	if err := s.db.QueryRow(`SELECT data FROM responses WHERE key = ?`, key).Scan(&data); err != nil {
		return nil, false
	}
	return data, true
}

// PutMappings upserts the corp-mapping rows.
func (s *Store) PutMappings(mappings []models.CorpMapping) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, m := range mappings {
		if _, err := tx.Exec(`
INSERT INTO corp_mappings (corp_code, corp_name, stock_code, modify_date) VALUES (?, ?, ?, ?)
ON CONFLICT(corp_code) DO UPDATE SET corp_name = excluded.corp_name,
    stock_code = excluded.stock_code, modify_date = excluded.modify_date`,
			m.CorpCode, m.CorpName, m.StockCode, m.ModifyDate); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// IsDone reports whether the checkpoint for one unit of work exists.
func (s *Store) IsDone(corpCode, reportCode, year string) bool {
	var status string
	err := s.db.QueryRow(`SELECT status FROM seed_progress WHERE corp_code = ? AND report_code = ? AND year = ?`,
		corpCode, reportCode, year).Scan(&status)
	return err == nil && status == "done"
}

// MarkDone records the checkpoint for one unit of work.
func (s *Store) MarkDone(corpCode, reportCode, year string) error {
	_, err := s.db.Exec(`
INSERT INTO seed_progress (corp_code, report_code, year, status, completed_at) VALUES (?, ?, ?, 'done', ?)
ON CONFLICT(corp_code, report_code, year) DO UPDATE SET status = 'done', completed_at = excluded.completed_at`,
		corpCode, reportCode, year, time.Now().UnixMilli())
	return err
}

// SetMeta upserts one metadata entry.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO seed_meta (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// GetMeta reads one metadata entry.
func (s *Store) GetMeta(key string) (string, bool) {
	var v string
	if err := s.db.QueryRow(`SELECT value FROM seed_meta WHERE key = ?`, key).Scan(&v); err != nil {
		return "", false
	}
	return v, true
}

// Reset drops all seeded data and checkpoints.
func (s *Store) Reset() error {
	for _, table := range []string{"responses", "corp_mappings", "seed_progress", "seed_meta"} {
		if _, err := s.db.Exec(`DELETE FROM ` + table); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarizes the store for the --status flag.
type Stats struct {
	Responses int    `json:"responses"`
	Mappings  int    `json:"mappings"`
	Completed int    `json:"completed"`
	StartedAt string `json:"started_at,omitempty"`
}

// Stats counts the stored rows.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM responses`).Scan(&st.Responses); err != nil {
		return st, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM corp_mappings`).Scan(&st.Mappings); err != nil {
		return st, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM seed_progress WHERE status = 'done'`).Scan(&st.Completed); err != nil {
		return st, err
	}
	st.StartedAt, _ = s.GetMeta("started_at")
	return st, nil
}
