package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/session"
)

// Save creates or replaces a session.
func (s *Store) Save(ctx context.Context, chatSession *session.ChatSession) error {
	if chatSession == nil {
		return errors.New("session cannot be nil")
	}
	return upsertSession(ctx, s.db, chatSession)
}
