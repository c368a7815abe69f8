package backend

import (
	"context"

	"github.com/malonaz/sessionsync/internal/identity"
)

// LocalStore is a backend whose presence depends on the environment.
type LocalStore interface {
	Backend
	// IsAvailable probes the underlying database.
	IsAvailable(ctx context.Context) bool
}

// RemoteFactory returns the backend scoped to a user.
type RemoteFactory func(userID string) Backend

// Resolution is the outcome of a backend selection.
type Resolution struct {
	Backend Backend
	Kind    Kind
	// UserID is set when Kind is Remote.
	UserID string
}

// Selector resolves the active backend.
// Resolve must be called at the start of every operation since identity can change in between.
type Selector struct {
	identity identity.Provider
	local    LocalStore
	remote   RemoteFactory
}

// NewSelector instantiates and returns a new selector.
// local and remote may be nil when they are not configured.
func NewSelector(identityProvider identity.Provider, local LocalStore, remote RemoteFactory) *Selector {
	if identityProvider == nil {
		identityProvider = identity.Anonymous()
	}
	return &Selector{
		identity: identityProvider,
		local:    local,
		remote:   remote,
	}
}

// Resolve selects the active backend.
func (s *Selector) Resolve(ctx context.Context) Resolution {
	user, trusted := s.identity.Current()
	trusted = trusted && s.remote != nil
	localAvailable := s.local != nil && s.local.IsAvailable(ctx)

	switch Select(trusted, localAvailable) {
	case Remote:
		return Resolution{Backend: s.remote(user.UserID), Kind: Remote, UserID: user.UserID}
	case Local:
		return Resolution{Backend: s.local, Kind: Local}
	default:
		return Resolution{Kind: None}
	}
}
