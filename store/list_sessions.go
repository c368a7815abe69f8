package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/session"
)

// ListMetadata lists session summaries, most recently updated first.
// Message bodies are never read.
func (s *Store) ListMetadata(ctx context.Context) ([]*session.Metadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id,
			title,
			created_at,
			updated_at,
			json_array_length(messages),
			has_diagram,
			thumbnail_data_url
		FROM sessions
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	defer rows.Close()

	list := []*session.Metadata{}
	for rows.Next() {
		metadata := &session.Metadata{}
		var thumbnail sql.NullString
		if err := rows.Scan(&metadata.ID, &metadata.Title, &metadata.CreatedAt, &metadata.UpdatedAt,
			&metadata.MessageCount, &metadata.HasDiagram, &thumbnail); err != nil {
			return nil, errors.Wrap(err, "scanning session row")
		}
		if thumbnail.Valid {
			metadata.ThumbnailDataURL = &thumbnail.String
		}
		list = append(list, metadata)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating session rows")
	}
	return list, nil
}

// Count returns the number of stored sessions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "counting sessions")
	}
	return count, nil
}
