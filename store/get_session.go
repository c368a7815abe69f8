package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/session"
)

// Get a session. Returns (session, found, error).
func (s *Store) Get(ctx context.Context, id string) (*session.ChatSession, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	chatSession, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "querying session '%s'", id)
	}
	return chatSession, true, nil
}
