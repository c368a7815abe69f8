// Package remote stores sessions as per-user JSON documents in Postgres.
package remote

import (
	"context"
	"log/slog"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/backend"
)

// DB is the subset of a pgx pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS chat_sessions (
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		document JSONB NOT NULL,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (user_id, session_id)
	)`,
	`CREATE INDEX IF NOT EXISTS chat_sessions_user_updated ON chat_sessions (user_id, updated_at DESC)`,
}

// Store implements the remote document store.
type Store struct {
	db     DB
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New store on top of db.
func New(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Connect opens a connection pool and returns a store that owns it.
func Connect(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "creating connection pool")
	}
	s := New(pool, logger)
	s.pool = pool
	return s, nil
}

// EnsureSchema creates the sessions table if it doesn't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, statement := range schema {
		if _, err := s.db.Exec(ctx, statement); err != nil {
			return errors.Wrap(classify(err), "creating schema")
		}
	}
	return nil
}

// Collection returns the sessions of a user.
func (s *Store) Collection(userID string) *Collection {
	return &Collection{
		db:     s.db,
		userID: userID,
		logger: s.logger.With("user_id", userID),
	}
}

// Backend adapts Collection to a backend.RemoteFactory.
func (s *Store) Backend(userID string) backend.Backend {
	return s.Collection(userID)
}

// Close the pool if the store owns one.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// classify maps an authorization failure to backend.ErrPermissionDenied.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InsufficientPrivilege {
		return errors.Wrap(backend.ErrPermissionDenied, pgErr.Message)
	}
	return err
}
