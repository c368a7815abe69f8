// Package backend defines the storage capability shared by the local and
// remote session stores, and the selection between them.
package backend

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/session"
)

// ErrPermissionDenied is returned when the identity lost access to the remote store mid-operation.
var ErrPermissionDenied = errors.New("permission denied")

// IsPermissionDenied returns true if err was classified as a permission failure.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// Backend persists sessions.
type Backend interface {
	// ListMetadata returns session summaries, most recently updated first.
	ListMetadata(ctx context.Context) ([]*session.Metadata, error)
	// Get returns a session by id. Returns (session, found, error).
	Get(ctx context.Context, id string) (*session.ChatSession, bool, error)
	// Save creates or replaces a session.
	Save(ctx context.Context, s *session.ChatSession) error
	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
	// EnforceRetentionLimit deletes the oldest sessions until at most max remain.
	// Returns the evicted ids.
	EnforceRetentionLimit(ctx context.Context, max int) ([]string, error)
}

// Kind identifies a backend.
type Kind int

const (
	// None means no backend can be used.
	None Kind = iota
	// Local is the per-device embedded database.
	Local
	// Remote is the per-user document store.
	Remote
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return "none"
	}
}

// Select picks a backend kind.
func Select(hasTrustedIdentity, localAvailable bool) Kind {
	if hasTrustedIdentity {
		return Remote
	}
	if localAvailable {
		return Local
	}
	return None
}
