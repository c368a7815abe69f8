package remote

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/backend"
	"github.com/malonaz/sessionsync/session"
)

// Collection holds the sessions of one user.
// Permission failures are swallowed and reported as an empty result, except on
// ListMetadata where they are returned so callers can keep their current list.
type Collection struct {
	db     DB
	userID string
	logger *slog.Logger
}

var _ backend.Backend = (*Collection)(nil)

// ListMetadata implements backend.Backend.
func (c *Collection) ListMetadata(ctx context.Context) ([]*session.Metadata, error) {
	rows, err := c.db.Query(ctx, `
		SELECT
			session_id,
			COALESCE(document->>'title', ''),
			COALESCE((document->>'createdAt')::BIGINT, 0),
			updated_at,
			CASE WHEN jsonb_typeof(document->'messages') = 'array'
				THEN jsonb_array_length(document->'messages') ELSE 0 END,
			COALESCE((document->>'hasDiagram')::BOOLEAN, false),
			document->>'thumbnailDataUrl'
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC`, c.userID)
	if err != nil {
		return nil, errors.Wrap(classify(err), "listing sessions")
	}
	defer rows.Close()

	list := []*session.Metadata{}
	for rows.Next() {
		metadata := &session.Metadata{}
		if err := rows.Scan(&metadata.ID, &metadata.Title, &metadata.CreatedAt, &metadata.UpdatedAt,
			&metadata.MessageCount, &metadata.HasDiagram, &metadata.ThumbnailDataURL); err != nil {
			return nil, errors.Wrap(err, "scanning session row")
		}
		if metadata.Title == "" {
			metadata.Title = session.DefaultTitle
		}
		list = append(list, metadata)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(classify(err), "iterating session rows")
	}
	return list, nil
}

// Get implements backend.Backend.
func (c *Collection) Get(ctx context.Context, id string) (*session.ChatSession, bool, error) {
	var data []byte
	err := c.db.QueryRow(ctx, `
		SELECT document FROM chat_sessions
		WHERE user_id = $1 AND session_id = $2`, c.userID, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		if err := classify(err); backend.IsPermissionDenied(err) {
			c.logger.Debug("permission denied getting session", "session_id", id, "error", err)
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "getting session '%s'", id)
	}

	chatSession, err := decodeDocument(id, data)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decoding session '%s'", id)
	}
	return chatSession, true, nil
}

// Save implements backend.Backend.
func (c *Collection) Save(ctx context.Context, chatSession *session.ChatSession) error {
	if chatSession == nil {
		return errors.New("session cannot be nil")
	}
	data, err := encodeDocument(chatSession)
	if err != nil {
		return err
	}

	_, err = c.db.Exec(ctx, `
		INSERT INTO chat_sessions (user_id, session_id, document, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, session_id) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at`,
		c.userID, chatSession.ID, json.RawMessage(data), chatSession.UpdatedAt)
	if err != nil {
		if err := classify(err); backend.IsPermissionDenied(err) {
			c.logger.Debug("permission denied saving session", "session_id", chatSession.ID, "error", err)
			return nil
		}
		return errors.Wrapf(err, "saving session '%s'", chatSession.ID)
	}
	return nil
}

// Delete implements backend.Backend.
func (c *Collection) Delete(ctx context.Context, id string) error {
	_, err := c.db.Exec(ctx, `DELETE FROM chat_sessions WHERE user_id = $1 AND session_id = $2`, c.userID, id)
	if err != nil {
		if err := classify(err); backend.IsPermissionDenied(err) {
			c.logger.Debug("permission denied deleting session", "session_id", id, "error", err)
			return nil
		}
		return errors.Wrapf(err, "deleting session '%s'", id)
	}
	return nil
}

// EnforceRetentionLimit implements backend.Backend.
func (c *Collection) EnforceRetentionLimit(ctx context.Context, max int) ([]string, error) {
	if max <= 0 {
		return nil, nil
	}
	rows, err := c.db.Query(ctx, `
		DELETE FROM chat_sessions
		WHERE user_id = $1 AND session_id IN (
			SELECT session_id FROM chat_sessions
			WHERE user_id = $1
			ORDER BY updated_at DESC
			OFFSET $2
		)
		RETURNING session_id`, c.userID, max)
	if err != nil {
		if err := classify(err); backend.IsPermissionDenied(err) {
			c.logger.Debug("permission denied enforcing retention limit", "error", err)
			return nil, nil
		}
		return nil, errors.Wrap(err, "evicting sessions")
	}
	defer rows.Close()

	var evicted []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scanning evicted session id")
		}
		evicted = append(evicted, id)
	}
	if err := rows.Err(); err != nil {
		if err := classify(err); backend.IsPermissionDenied(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "iterating evicted session ids")
	}
	if len(evicted) > 0 {
		c.logger.Info("evicted sessions over retention limit", "count", len(evicted), "max", max)
	}
	return evicted, nil
}
