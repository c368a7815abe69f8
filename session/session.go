package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Message is a stored chat message.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// XMLSnapshot pairs a logical timestamp with a diagram document.
// It is encoded as the tuple [ts, xml].
type XMLSnapshot struct {
	Timestamp int64
	XML       string
}

// MarshalJSON implements json.Marshaler.
func (s XMLSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Timestamp, s.XML})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *XMLSnapshot) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return errors.Wrap(err, "unmarshaling snapshot tuple")
	}
	if len(tuple) != 2 {
		return errors.Errorf("snapshot tuple has %d elements, expected 2", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &s.Timestamp); err != nil {
		return errors.Wrap(err, "unmarshaling snapshot timestamp")
	}
	if err := json.Unmarshal(tuple[1], &s.XML); err != nil {
		return errors.Wrap(err, "unmarshaling snapshot xml")
	}
	return nil
}

// DiagramHistoryEntry is a rendered image of a diagram alongside its document.
type DiagramHistoryEntry struct {
	SVG string `json:"svg"`
	XML string `json:"xml"`
}

// ChatSession holds one conversation and its diagram state.
type ChatSession struct {
	// ID of this session. Never changes.
	ID string `json:"id"`
	// Title of this session. DefaultTitle until derived from messages.
	Title string `json:"title"`
	// The messages of this session.
	Messages []*Message `json:"messages"`
	// Chronological diagram snapshots.
	XMLSnapshots []XMLSnapshot `json:"xmlSnapshots"`
	// Latest diagram document. Empty means no diagram yet.
	DiagramXML string `json:"diagramXml"`
	// Optional thumbnail of the diagram.
	ThumbnailDataURL *string `json:"thumbnailDataUrl"`
	// Optional diagram history.
	DiagramHistory []DiagramHistoryEntry `json:"diagramHistory"`
	// Time at which the session was created, in epoch milliseconds.
	CreatedAt int64 `json:"createdAt"`
	// Time at which the session was last saved, in epoch milliseconds.
	UpdatedAt int64 `json:"updatedAt"`
}

// New instantiates and returns an empty session.
func New(id string, now time.Time) *ChatSession {
	ts := now.UnixMilli()
	return &ChatSession{
		ID:           id,
		Title:        DefaultTitle,
		Messages:     []*Message{},
		XMLSnapshots: []XMLSnapshot{},
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

// HasDiagram returns true if the session holds a non-blank diagram.
func (s *ChatSession) HasDiagram() bool {
	return strings.TrimSpace(s.DiagramXML) != ""
}

// Metadata projects the session for list rendering.
func (s *ChatSession) Metadata() *Metadata {
	return &Metadata{
		ID:               s.ID,
		Title:            s.Title,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		MessageCount:     len(s.Messages),
		HasDiagram:       s.HasDiagram(),
		ThumbnailDataURL: cloneString(s.ThumbnailDataURL),
	}
}

// Content returns a copy of the content fields of the session.
func (s *ChatSession) Content() *Content {
	return &Content{
		Messages:         cloneMessages(s.Messages),
		XMLSnapshots:     cloneSnapshots(s.XMLSnapshots),
		DiagramXML:       s.DiagramXML,
		ThumbnailDataURL: cloneString(s.ThumbnailDataURL),
		DiagramHistory:   cloneHistory(s.DiagramHistory),
	}
}

// Clone returns a deep copy of the session.
func (s *ChatSession) Clone() *ChatSession {
	if s == nil {
		return nil
	}
	return &ChatSession{
		ID:               s.ID,
		Title:            s.Title,
		Messages:         cloneMessages(s.Messages),
		XMLSnapshots:     cloneSnapshots(s.XMLSnapshots),
		DiagramXML:       s.DiagramXML,
		ThumbnailDataURL: cloneString(s.ThumbnailDataURL),
		DiagramHistory:   cloneHistory(s.DiagramHistory),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// Apply replaces the content of the session with data.
// Optional fields keep their previous value when absent from data.
func (s *ChatSession) Apply(data *SaveData, now time.Time) {
	s.Messages = cloneMessages(data.Messages)
	s.XMLSnapshots = cloneSnapshots(data.XMLSnapshots)
	s.DiagramXML = data.DiagramXML
	s.ThumbnailDataURL = data.ThumbnailDataURL.Apply(s.ThumbnailDataURL)
	if history := data.DiagramHistory.Apply(&s.DiagramHistory); history != nil {
		s.DiagramHistory = cloneHistory(*history)
	} else {
		s.DiagramHistory = nil
	}
	if s.Title == DefaultTitle && len(data.Messages) > 0 {
		s.Title = DeriveTitle(data.Messages)
	}
	if ts := now.UnixMilli(); ts > s.UpdatedAt {
		s.UpdatedAt = ts
	}
}

// Content is the plain projection of a session handed to callers.
type Content struct {
	Messages         []*Message            `json:"messages"`
	XMLSnapshots     []XMLSnapshot         `json:"xmlSnapshots"`
	DiagramXML       string                `json:"diagramXml"`
	ThumbnailDataURL *string               `json:"thumbnailDataUrl"`
	DiagramHistory   []DiagramHistoryEntry `json:"diagramHistory"`
}

// SaveData is the payload of a save.
type SaveData struct {
	Messages         []*Message                   `json:"messages"`
	XMLSnapshots     []XMLSnapshot                `json:"xmlSnapshots"`
	DiagramXML       string                       `json:"diagramXml"`
	ThumbnailDataURL Patch[string]                `json:"thumbnailDataUrl"`
	DiagramHistory   Patch[[]DiagramHistoryEntry] `json:"diagramHistory"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneMessages(messages []*Message) []*Message {
	cloned := make([]*Message, 0, len(messages))
	for _, message := range messages {
		if message == nil {
			continue
		}
		m := *message
		cloned = append(cloned, &m)
	}
	return cloned
}

func cloneSnapshots(snapshots []XMLSnapshot) []XMLSnapshot {
	cloned := make([]XMLSnapshot, len(snapshots))
	copy(cloned, snapshots)
	return cloned
}

func cloneHistory(history []DiagramHistoryEntry) []DiagramHistoryEntry {
	if history == nil {
		return nil
	}
	cloned := make([]DiagramHistoryEntry, len(history))
	copy(cloned, history)
	return cloned
}
