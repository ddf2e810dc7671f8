package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/Zachkp/folio/internal/portfolio"
)

// localKeys are the per-section keys the offline admin panel used in browser
// local storage. LocalBackend keeps the same layout.
var localKeys = map[portfolio.Section]string{
	portfolio.SectionPortfolio: "portfolioData",
	portfolio.SectionServices:  "servicesData",
	portfolio.SectionAbout:     "aboutData",
	portfolio.SectionContact:   "contactData",
	portfolio.SectionSettings:  "settingsData",
	portfolio.SectionImages:    "imagesData",
}

const createLocalStorage = `
CREATE TABLE IF NOT EXISTS local_storage (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// LocalBackend is the local-only mode store: a key/value table in SQLite
// holding one JSON value per section under the offline editor's key names.
type LocalBackend struct {
	db *sql.DB
}

// OpenLocalBackend opens (and creates if needed) the SQLite file at path.
func OpenLocalBackend(path string) (*LocalBackend, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create local store dir")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open local store")
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA busy_timeout = 10000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range append(pragmas, createLocalStorage) {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "init local store: %s", p)
		}
	}
	return &LocalBackend{db: db}, nil
}

func (l *LocalBackend) Name() string  { return "local" }
func (l *LocalBackend) Durable() bool { return true }

// Close releases the database handle.
func (l *LocalBackend) Close() error { return l.db.Close() }

func (l *LocalBackend) Load(ctx context.Context) (portfolio.Partial, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT key, value FROM local_storage`)
	if err != nil {
		return nil, errors.Wrap(err, "query local store")
	}
	defer rows.Close()

	bySection := make(map[string]portfolio.Section, len(localKeys))
	for s, k := range localKeys {
		bySection[k] = s
	}

	p := portfolio.Partial{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.Wrap(err, "scan local store")
		}
		s, ok := bySection[key]
		if !ok {
			continue
		}
		if !json.Valid([]byte(value)) {
			return nil, errors.Errorf("local store key %s holds invalid JSON", key)
		}
		p[s] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate local store")
	}
	if len(p) == 0 {
		return nil, ErrNotFound
	}
	return p, nil
}

// Save writes every section in one transaction.
func (l *LocalBackend) Save(ctx context.Context, doc portfolio.Document) error {
	values, err := portfolio.PartialOf(doc, portfolio.Sections...)
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin local store tx")
	}
	defer tx.Rollback()

	// updated_at only moves forward so Version sees every save, even two in
	// the same millisecond.
	var last int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(updated_at), 0) FROM local_storage`).Scan(&last); err != nil {
		return errors.Wrap(err, "read local store version")
	}
	now := time.Now().UnixMilli()
	if now <= last {
		now = last + 1
	}
	for _, s := range portfolio.Sections {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, localKeys[s], string(values[s]), now)
		if err != nil {
			return errors.Wrapf(err, "store %s", localKeys[s])
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit local store tx")
	}
	return nil
}

// Version returns the newest updated_at in the table, or 0 when it is empty.
// It changes on every Save, including saves made through another handle on
// the same file.
func (l *LocalBackend) Version(ctx context.Context) (int64, error) {
	var v int64
	err := l.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(updated_at), 0) FROM local_storage`).Scan(&v)
	if err != nil {
		return 0, errors.Wrap(err, "read local store version")
	}
	return v, nil
}
