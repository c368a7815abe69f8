// Package identity reports whether a trusted user is signed in.
package identity

import (
	"sync"
	"time"
)

// Identity of a signed in user.
type Identity struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Trusted returns true if the identity names a user and has not expired.
// A zero ExpiresAt never expires.
func (i Identity) Trusted(now time.Time) bool {
	if i.UserID == "" {
		return false
	}
	return i.ExpiresAt.IsZero() || now.Before(i.ExpiresAt)
}

// Provider exposes the current trusted identity.
type Provider interface {
	// Current returns the identity and whether it is trusted right now.
	Current() (Identity, bool)
}

// Static is a provider whose identity is set programmatically.
type Static struct {
	mu       sync.RWMutex
	identity Identity
	now      func() time.Time
}

// NewStatic instantiates and returns a provider with no identity.
func NewStatic() *Static {
	return &Static{now: time.Now}
}

// Anonymous returns a provider that never has an identity.
func Anonymous() Provider {
	return NewStatic()
}

// Set the identity. The zero Identity signs out.
func (s *Static) Set(identity Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
}

// Current implements Provider.
func (s *Static) Current() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.identity.Trusted(s.now())
}
