package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/legacy"
	"github.com/malonaz/sessionsync/session"
)

const legacyMigratedKey = "legacy_migrated"

// LegacySource is the read-only flat storage migrated into the store.
type LegacySource interface {
	Get(key string) (string, bool, error)
}

// MigrateLegacyIfNeeded imports the legacy conversation, at most once per process.
// The import and its completion marker are committed together, so running it
// against an already migrated or half-migrated database is safe.
func (s *Store) MigrateLegacyIfNeeded(ctx context.Context, source LegacySource) error {
	s.migrateOnce.Do(func() {
		s.migrateErr = s.migrateLegacy(ctx, source)
	})
	return s.migrateErr
}

func (s *Store) migrateLegacy(ctx context.Context, source LegacySource) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	var marker string
	err = tx.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = ?`, legacyMigratedKey).Scan(&marker)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(err, "reading migration marker")
	}

	if source != nil {
		chatSession, err := s.readLegacySession(source)
		if err != nil {
			return err
		}
		if chatSession != nil {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = ?)`, chatSession.ID).Scan(&exists); err != nil {
				return errors.Wrap(err, "checking for existing session")
			}
			if !exists {
				if err := upsertSession(ctx, tx, chatSession); err != nil {
					return errors.Wrap(err, "importing legacy session")
				}
				s.logger.Info("imported legacy session", "session_id", chatSession.ID, "messages", len(chatSession.Messages))
			}
		}
	}

	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(ctx, `INSERT INTO store_meta (key, value) VALUES (?, ?)`, legacyMigratedKey, now); err != nil {
		return errors.Wrap(err, "writing migration marker")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

// readLegacySession returns nil when the legacy store holds no conversation.
// Undecodable values are treated as absent.
func (s *Store) readLegacySession(source LegacySource) (*session.ChatSession, error) {
	var messages []*session.Message
	value, ok, err := source.Get(legacy.KeyMessages)
	if err != nil {
		return nil, errors.Wrap(err, "reading legacy messages")
	}
	if ok {
		if err := json.Unmarshal([]byte(value), &messages); err != nil {
			s.logger.Warn("ignoring undecodable legacy messages", "error", err)
			messages = nil
		}
	}

	var snapshots []session.XMLSnapshot
	value, ok, err = source.Get(legacy.KeyXMLSnapshots)
	if err != nil {
		return nil, errors.Wrap(err, "reading legacy xml snapshots")
	}
	if ok {
		if err := json.Unmarshal([]byte(value), &snapshots); err != nil {
			s.logger.Warn("ignoring undecodable legacy xml snapshots", "error", err)
			snapshots = nil
		}
	}

	diagramXML, _, err := source.Get(legacy.KeyDiagramXML)
	if err != nil {
		return nil, errors.Wrap(err, "reading legacy diagram")
	}

	if len(messages) == 0 && strings.TrimSpace(diagramXML) == "" {
		return nil, nil
	}

	id, _, err := source.Get(legacy.KeySessionID)
	if err != nil {
		return nil, errors.Wrap(err, "reading legacy session id")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.New().String()
	}

	chatSession := session.New(id, time.Now())
	chatSession.Apply(&session.SaveData{
		Messages:     messages,
		XMLSnapshots: snapshots,
		DiagramXML:   diagramXML,
	}, time.Now())
	return chatSession, nil
}
