/*
Package sqlite persists the exception document in a SQLite database.

PURPOSE:
  Same Store contract as the JSON file store, for deployments that prefer
  a real database file: concurrent readers, WAL journaling, and the
  document split across queryable tables instead of one blob.

SCHEMA:
  sprint_exceptions  one row per sprint (entries as JSON, update stamp)
  settings           one row per policy parameter
  ledger_meta        document-level stamps (created_at, settings_updated_at)

SAVE SEMANTICS:
  The ledger saves the whole document at once, so Save replaces the table
  contents inside a single transaction. Load reassembles the document; a
  database that has never been written loads as (nil, nil).

SEE ALSO:
  - store/file: the JSON file implementation of the same interface
  - exceptions/ledger.go: the only caller
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/capacity-engine/exceptions"
)

const (
	metaCreatedAt         = "created_at"
	metaSettingsUpdatedAt = "settings_updated_at"
)

// Store implements exceptions.Store on SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sprint_exceptions (
		sprint TEXT PRIMARY KEY,
		exceptions_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		name TEXT PRIMARY KEY,
		value REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOAD
// =============================================================================

func (s *Store) Load(ctx context.Context) (*exceptions.Document, error) {
	createdAt, ok, err := s.meta(ctx, metaCreatedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Never written.
		return nil, nil
	}

	doc := &exceptions.Document{
		Sprints:  make(map[string]exceptions.PeriodRecord),
		Settings: exceptions.Settings{},
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		doc.CreatedAt = t
	}
	if stamp, ok, err := s.meta(ctx, metaSettingsUpdatedAt); err != nil {
		return nil, err
	} else if ok {
		if t, err := time.Parse(time.RFC3339, stamp); err == nil {
			doc.SettingsUpdatedAt = &t
		}
	}

	if err := s.loadSprints(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.loadSettings(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) loadSprints(ctx context.Context, doc *exceptions.Document) error {
	rows, err := s.db.QueryContext(ctx, `SELECT sprint, exceptions_json, updated_at FROM sprint_exceptions`)
	if err != nil {
		return fmt.Errorf("loading sprint exceptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sprint, excJSON, updatedAt string
		if err := rows.Scan(&sprint, &excJSON, &updatedAt); err != nil {
			return fmt.Errorf("scanning sprint exceptions: %w", err)
		}
		var exc exceptions.PeriodExceptions
		if err := json.Unmarshal([]byte(excJSON), &exc); err != nil {
			return fmt.Errorf("parsing exceptions for sprint %s: %w", sprint, err)
		}
		rec := exceptions.PeriodRecord{Exceptions: exc}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			rec.UpdatedAt = t
		}
		doc.Sprints[sprint] = rec
	}
	return rows.Err()
}

func (s *Store) loadSettings(ctx context.Context, doc *exceptions.Document) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM settings`)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return fmt.Errorf("scanning settings: %w", err)
		}
		doc.Settings[name] = value
	}
	return rows.Err()
}

func (s *Store) meta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM ledger_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("loading meta %s: %w", key, err)
	}
	return value, true, nil
}

// =============================================================================
// SAVE
// =============================================================================

func (s *Store) Save(ctx context.Context, doc *exceptions.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sprint_exceptions`); err != nil {
		return fmt.Errorf("clearing sprint exceptions: %w", err)
	}
	for sprint, rec := range doc.Sprints {
		excJSON, err := json.Marshal(rec.Exceptions)
		if err != nil {
			return fmt.Errorf("encoding exceptions for sprint %s: %w", sprint, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sprint_exceptions (sprint, exceptions_json, updated_at) VALUES (?, ?, ?)`,
			sprint, string(excJSON), rec.UpdatedAt.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("saving sprint %s: %w", sprint, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("clearing settings: %w", err)
	}
	for name, value := range doc.Settings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (name, value) VALUES (?, ?)`, name, value); err != nil {
			return fmt.Errorf("saving setting %s: %w", name, err)
		}
	}

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if err := saveMeta(ctx, tx, metaCreatedAt, createdAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if doc.SettingsUpdatedAt != nil {
		if err := saveMeta(ctx, tx, metaSettingsUpdatedAt, doc.SettingsUpdatedAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func saveMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("saving meta %s: %w", key, err)
	}
	return nil
}
