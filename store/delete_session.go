package store

import (
	"context"

	"github.com/pkg/errors"
)

// Delete removes a session. Deleting a missing session is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "deleting session from database")
	}
	return nil
}
