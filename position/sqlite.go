package position

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/mo"
	_ "modernc.org/sqlite"
)

const sqliteSchemaVersion = 1

// SqliteStore keeps offsets in a single-table SQLite database.
// It writes to the real filesystem; the afero backend does not apply.
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore opens or creates the database at path.
func NewSqliteStore(path string) (*SqliteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create position store dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, (5 * time.Second).Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	s := &SqliteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("position store: migration failed: %w", err)
	}
	return s, nil
}

func (s *SqliteStore) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version >= sqliteSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS positions (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SqliteStore) Save(mediaID string, seconds float64) error {
	raw, err := encode(seconds)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
	INSERT INTO positions (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		Key(mediaID), raw, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SqliteStore) Load(mediaID string) (mo.Option[float64], error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM positions WHERE key = ?`, Key(mediaID)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return mo.None[float64](), nil
	}
	if err != nil {
		return mo.None[float64](), err
	}
	return decode(Key(mediaID), raw), nil
}

// put writes a raw value without validation; used to simulate foreign writers.
func (s *SqliteStore) put(mediaID, raw string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO positions (key, value, updated_at) VALUES (?, ?, ?)`,
		Key(mediaID), raw, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SqliteStore) Delete(mediaID string) error {
	_, err := s.db.Exec(`DELETE FROM positions WHERE key = ?`, Key(mediaID))
	return err
}

func (s *SqliteStore) List() (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT key, value FROM positions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var k, raw string
		if err := rows.Scan(&k, &raw); err != nil {
			return nil, err
		}
		entries[k] = raw
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list(entries), nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}
