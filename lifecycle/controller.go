// Package lifecycle owns the in-memory session state of one UI session and
// synchronizes it with the active backend.
//
// The controller never holds its lock across backend I/O. Calls may therefore
// interleave at I/O boundaries; results that became stale while in flight are
// discarded with generation counters rather than cancelled.
package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scylladb/go-set/strset"

	"github.com/malonaz/sessionsync/backend"
	"github.com/malonaz/sessionsync/session"
	"github.com/malonaz/sessionsync/store"
)

// DefaultMaxSessions is the retention limit applied after every session creation.
const DefaultMaxSessions = 50

// Resolver selects the active backend.
type Resolver interface {
	Resolve(ctx context.Context) backend.Resolution
}

type legacyMigrator interface {
	MigrateLegacyIfNeeded(ctx context.Context, source store.LegacySource) error
}

// State is a snapshot of the controller state.
type State struct {
	Sessions         []*session.Metadata  `json:"sessions"`
	CurrentSessionID string               `json:"currentSessionId"`
	CurrentSession   *session.ChatSession `json:"currentSession"`
	IsLoading        bool                 `json:"isLoading"`
	IsAvailable      bool                 `json:"isAvailable"`
}

// Option configures a controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator sets the generator of new session ids.
func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

// WithMaxSessions sets the retention limit. A non-positive value disables it.
func WithMaxSessions(max int) Option {
	return func(c *Controller) { c.maxSessions = max }
}

// WithLegacySource sets the legacy storage migrated into the local backend.
func WithLegacySource(source store.LegacySource) Option {
	return func(c *Controller) { c.legacy = source }
}

// Controller owns the current session of one UI session.
type Controller struct {
	resolver    Resolver
	legacy      store.LegacySource
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
	maxSessions int

	mu          sync.Mutex
	sessions    []*session.Metadata
	currentID   string
	current     *session.ChatSession
	isLoading   bool
	isAvailable bool

	// Initialization runs once per identity.
	initialized    bool
	initializedFor string
	initGeneration uint64
	// Incremented on every navigation request; a load only commits if it still matches.
	navigationSeq uint64
	// Ids deleted or evicted. A write still in flight for one of them is undone.
	removed *strset.Set
}

// New instantiates and returns a new controller.
func New(resolver Resolver, opts ...Option) *Controller {
	c := &Controller{
		resolver:    resolver,
		logger:      slog.Default(),
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
		maxSessions: DefaultMaxSessions,
		sessions:    []*session.Metadata{},
		removed:     strset.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &State{
		Sessions:         session.CloneMetadata(c.sessions),
		CurrentSessionID: c.currentID,
		CurrentSession:   c.current.Clone(),
		IsLoading:        c.isLoading,
		IsAvailable:      c.isAvailable,
	}
}

// CurrentSessionID returns the id of the current session, or "".
func (c *Controller) CurrentSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentID
}

// ClearCurrentSession resets the current session. The backend is not touched.
func (c *Controller) ClearCurrentSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.navigationSeq++
	c.currentID = ""
	c.current = nil
}

// resolve selects the backend for one operation and records availability.
func (c *Controller) resolve(ctx context.Context) (backend.Resolution, bool) {
	resolution := c.resolver.Resolve(ctx)
	available := resolution.Kind != backend.None
	c.mu.Lock()
	c.isAvailable = available
	c.mu.Unlock()
	return resolution, available
}

// upsertMetadata must be called with the lock held.
func (c *Controller) upsertMetadata(metadata *session.Metadata) {
	sessions := make([]*session.Metadata, 0, len(c.sessions)+1)
	replaced := false
	for _, m := range c.sessions {
		if m.ID == metadata.ID {
			sessions = append(sessions, metadata)
			replaced = true
			continue
		}
		sessions = append(sessions, m)
	}
	if !replaced {
		sessions = append([]*session.Metadata{metadata}, sessions...)
	}
	session.SortMetadata(sessions)
	c.sessions = sessions
}

// replaceMetadata updates an existing entry in place. It returns false if the
// list holds no entry for the session. It must be called with the lock held.
func (c *Controller) replaceMetadata(metadata *session.Metadata) bool {
	for i, m := range c.sessions {
		if m.ID != metadata.ID {
			continue
		}
		sessions := session.CloneMetadata(c.sessions)
		sessions[i] = metadata
		session.SortMetadata(sessions)
		c.sessions = sessions
		return true
	}
	return false
}

// removeMetadata must be called with the lock held.
func (c *Controller) removeMetadata(ids ...string) {
	c.removed.Add(ids...)
	set := strset.New(ids...)
	sessions := make([]*session.Metadata, 0, len(c.sessions))
	for _, m := range c.sessions {
		if set.Has(m.ID) {
			continue
		}
		sessions = append(sessions, m)
	}
	c.sessions = sessions
	if set.Has(c.currentID) {
		c.currentID = ""
		c.current = nil
	}
}
