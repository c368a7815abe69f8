package store

import (
	"context"

	"github.com/pkg/errors"
)

// EnforceRetentionLimit deletes the least recently updated sessions until at most max remain.
// Returns the evicted ids. A non-positive max disables the limit.
func (s *Store) EnforceRetentionLimit(ctx context.Context, max int) ([]string, error) {
	if max <= 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM sessions
		ORDER BY updated_at DESC, created_at DESC
		LIMIT -1 OFFSET ?`, max)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions over limit")
	}
	var evicted []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scanning session id")
		}
		evicted = append(evicted, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating session ids")
	}
	if len(evicted) == 0 {
		return nil, nil
	}

	for _, id := range evicted {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return nil, errors.Wrapf(err, "evicting session '%s'", id)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}

	s.logger.Info("evicted sessions over retention limit", "count", len(evicted), "max", max)
	return evicted, nil
}
