package store

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/malonaz/sessionsync/session"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		messages TEXT NOT NULL,
		xml_snapshots TEXT NOT NULL,
		diagram_xml TEXT NOT NULL,
		thumbnail_data_url TEXT,
		diagram_history TEXT,
		has_diagram INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_updated_at ON sessions(updated_at)`,
	`CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// Store implements a SQLite store for sessions.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	migrateOnce sync.Once
	migrateErr  error
}

// New store.
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	// A single connection serializes writers and keeps in-memory databases shared.
	db.SetMaxOpenConns(1)

	for _, statement := range schema {
		if _, err := db.Exec(statement); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "creating schema")
		}
	}
	if err := addHasDiagramColumn(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// addHasDiagramColumn upgrades databases created before has_diagram existed,
// backfilling it from the stored diagrams.
func addHasDiagramColumn(db *sql.DB) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('sessions') WHERE name = 'has_diagram'`).Scan(&count); err != nil {
		return errors.Wrap(err, "inspecting sessions table")
	}
	if count > 0 {
		return nil
	}
	if _, err := db.Exec(`ALTER TABLE sessions ADD COLUMN has_diagram INTEGER NOT NULL DEFAULT 0`); err != nil {
		return errors.Wrap(err, "adding has_diagram column")
	}

	rows, err := db.Query(`SELECT id, diagram_xml FROM sessions`)
	if err != nil {
		return errors.Wrap(err, "querying diagrams")
	}
	var ids []string
	for rows.Next() {
		chatSession := &session.ChatSession{}
		if err := rows.Scan(&chatSession.ID, &chatSession.DiagramXML); err != nil {
			rows.Close()
			return errors.Wrap(err, "scanning diagram")
		}
		if chatSession.HasDiagram() {
			ids = append(ids, chatSession.ID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterating diagrams")
	}
	for _, id := range ids {
		if _, err := db.Exec(`UPDATE sessions SET has_diagram = 1 WHERE id = ?`, id); err != nil {
			return errors.Wrapf(err, "backfilling has_diagram of '%s'", id)
		}
	}
	return nil
}

// IsAvailable returns true if the database can be reached.
func (s *Store) IsAvailable(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
