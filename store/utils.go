package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/session"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const sessionColumns = `id, title, created_at, updated_at, messages, xml_snapshots, diagram_xml, thumbnail_data_url, diagram_history`

func scanSession(row interface{ Scan(...any) error }) (*session.ChatSession, error) {
	s := &session.ChatSession{}
	var messagesJSON, snapshotsJSON string
	var thumbnail, historyJSON sql.NullString

	if err := row.Scan(&s.ID, &s.Title, &s.CreatedAt, &s.UpdatedAt,
		&messagesJSON, &snapshotsJSON, &s.DiagramXML, &thumbnail, &historyJSON); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(messagesJSON), &s.Messages); err != nil {
		return nil, errors.Wrap(err, "unmarshaling messages")
	}
	if err := json.Unmarshal([]byte(snapshotsJSON), &s.XMLSnapshots); err != nil {
		return nil, errors.Wrap(err, "unmarshaling xml snapshots")
	}
	if thumbnail.Valid {
		s.ThumbnailDataURL = &thumbnail.String
	}
	if historyJSON.Valid {
		if err := json.Unmarshal([]byte(historyJSON.String), &s.DiagramHistory); err != nil {
			return nil, errors.Wrap(err, "unmarshaling diagram history")
		}
	}
	if s.Messages == nil {
		s.Messages = []*session.Message{}
	}
	if s.XMLSnapshots == nil {
		s.XMLSnapshots = []session.XMLSnapshot{}
	}
	return s, nil
}

func upsertSession(ctx context.Context, db execer, s *session.ChatSession) error {
	messages := s.Messages
	if messages == nil {
		messages = []*session.Message{}
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return errors.Wrap(err, "marshaling messages")
	}
	snapshots := s.XMLSnapshots
	if snapshots == nil {
		snapshots = []session.XMLSnapshot{}
	}
	snapshotsJSON, err := json.Marshal(snapshots)
	if err != nil {
		return errors.Wrap(err, "marshaling xml snapshots")
	}
	var historyJSON sql.NullString
	if s.DiagramHistory != nil {
		bytes, err := json.Marshal(s.DiagramHistory)
		if err != nil {
			return errors.Wrap(err, "marshaling diagram history")
		}
		historyJSON = sql.NullString{String: string(bytes), Valid: true}
	}
	var thumbnail sql.NullString
	if s.ThumbnailDataURL != nil {
		thumbnail = sql.NullString{String: *s.ThumbnailDataURL, Valid: true}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`, has_diagram)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			messages = excluded.messages,
			xml_snapshots = excluded.xml_snapshots,
			diagram_xml = excluded.diagram_xml,
			thumbnail_data_url = excluded.thumbnail_data_url,
			diagram_history = excluded.diagram_history,
			has_diagram = excluded.has_diagram`,
		s.ID,
		s.Title,
		s.CreatedAt,
		s.UpdatedAt,
		string(messagesJSON),
		string(snapshotsJSON),
		s.DiagramXML,
		thumbnail,
		historyJSON,
		s.HasDiagram(),
	)
	if err != nil {
		return errors.Wrap(err, "writing session to database")
	}
	return nil
}
