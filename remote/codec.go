package remote

import (
	"encoding/json"
	"reflect"

	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/session"
)

// snapshotRecord is the transport shape of a snapshot tuple.
// The document store cannot hold nested positional arrays.
type snapshotRecord struct {
	TS  int64  `json:"ts"`
	XML string `json:"xml"`
}

// document is the decoded transport shape of a session.
type document struct {
	ID               string                        `json:"id"`
	Title            string                        `json:"title"`
	Messages         []*session.Message            `json:"messages"`
	XMLSnapshots     []snapshotRecord              `json:"xmlSnapshots"`
	DiagramXML       string                        `json:"diagramXml"`
	ThumbnailDataURL *string                       `json:"thumbnailDataUrl"`
	DiagramHistory   []session.DiagramHistoryEntry `json:"diagramHistory"`
	CreatedAt        int64                         `json:"createdAt"`
	UpdatedAt        int64                         `json:"updatedAt"`
}

func encodeDocument(s *session.ChatSession) ([]byte, error) {
	messages := make([]any, 0, len(s.Messages))
	for _, message := range s.Messages {
		if message == nil {
			continue
		}
		messages = append(messages, map[string]any{
			"role":      message.Role,
			"content":   message.Content,
			"timestamp": message.Timestamp,
		})
	}
	snapshots := make([]any, 0, len(s.XMLSnapshots))
	for _, snapshot := range s.XMLSnapshots {
		snapshots = append(snapshots, map[string]any{
			"ts":  snapshot.Timestamp,
			"xml": snapshot.XML,
		})
	}
	var history []any
	if s.DiagramHistory != nil {
		history = make([]any, 0, len(s.DiagramHistory))
		for _, entry := range s.DiagramHistory {
			history = append(history, map[string]any{
				"svg": entry.SVG,
				"xml": entry.XML,
			})
		}
	}

	doc := map[string]any{
		"id":               s.ID,
		"title":            s.Title,
		"messages":         messages,
		"xmlSnapshots":     snapshots,
		"diagramXml":       s.DiagramXML,
		"hasDiagram":       s.HasDiagram(),
		"thumbnailDataUrl": s.ThumbnailDataURL,
		"diagramHistory":   history,
		"createdAt":        s.CreatedAt,
		"updatedAt":        s.UpdatedAt,
	}
	bytes, err := json.Marshal(sanitize(doc))
	if err != nil {
		return nil, errors.Wrap(err, "marshaling document")
	}
	return bytes, nil
}

func decodeDocument(sessionID string, data []byte) (*session.ChatSession, error) {
	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrap(err, "unmarshaling document")
	}

	s := &session.ChatSession{
		ID:               doc.ID,
		Title:            doc.Title,
		Messages:         doc.Messages,
		XMLSnapshots:     make([]session.XMLSnapshot, 0, len(doc.XMLSnapshots)),
		DiagramXML:       doc.DiagramXML,
		ThumbnailDataURL: doc.ThumbnailDataURL,
		DiagramHistory:   doc.DiagramHistory,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
	if s.ID == "" {
		s.ID = sessionID
	}
	if s.Title == "" {
		s.Title = session.DefaultTitle
	}
	if s.Messages == nil {
		s.Messages = []*session.Message{}
	}
	for _, record := range doc.XMLSnapshots {
		s.XMLSnapshots = append(s.XMLSnapshots, session.XMLSnapshot{Timestamp: record.TS, XML: record.XML})
	}
	return s, nil
}

// sanitize replaces every unset value (nil pointers, slices, maps and interfaces)
// with an explicit null, recursing through maps and slices.
func sanitize(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		sanitized := make(map[string]any, len(v))
		for key, item := range v {
			sanitized[key] = sanitize(item)
		}
		return sanitized
	case []any:
		if v == nil {
			return nil
		}
		sanitized := make([]any, len(v))
		for i, item := range v {
			sanitized[i] = sanitize(item)
		}
		return sanitized
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return nil
		}
	}
	if rv.Kind() == reflect.Pointer {
		return sanitize(rv.Elem().Interface())
	}
	return value
}
