package lifecycle

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/backend"
	"github.com/malonaz/sessionsync/session"
)

// Initialize loads the session list and the desired session from the active backend.
// It runs once per identity; calling it again for the same identity is a no-op.
// A change of identity discards the previous state and any initialization still in flight.
func (c *Controller) Initialize(ctx context.Context, desiredID string) error {
	resolution, available := c.resolve(ctx)

	c.mu.Lock()
	if c.initialized && c.initializedFor == resolution.UserID {
		c.mu.Unlock()
		return nil
	}
	if c.initialized {
		c.logger.Info("identity changed, reinitializing", "kind", resolution.Kind.String())
	}
	c.initialized = true
	c.initializedFor = resolution.UserID
	c.initGeneration++
	generation := c.initGeneration
	c.navigationSeq++
	navigation := c.navigationSeq
	c.sessions = []*session.Metadata{}
	c.currentID = ""
	c.current = nil
	c.isLoading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.initGeneration == generation {
			c.isLoading = false
		}
		c.mu.Unlock()
	}()

	if !available {
		c.logger.Debug("no backend available")
		return nil
	}

	if resolution.Kind == backend.Local && c.legacy != nil {
		if migrator, ok := resolution.Backend.(legacyMigrator); ok {
			if err := migrator.MigrateLegacyIfNeeded(ctx, c.legacy); err != nil {
				c.logger.Warn("legacy migration failed", "error", err)
			}
		}
	}

	var listErr error
	sessions, err := resolution.Backend.ListMetadata(ctx)
	switch {
	case backend.IsPermissionDenied(err):
		c.logger.Debug("permission denied listing sessions", "error", err)
	case err != nil:
		c.logger.Error("listing sessions", "error", err)
		listErr = errors.Wrap(err, "listing sessions")
	default:
		c.mu.Lock()
		if c.initGeneration == generation {
			c.sessions = sessions
		}
		c.mu.Unlock()
	}

	if desiredID == "" {
		return listErr
	}
	chatSession, found, err := resolution.Backend.Get(ctx, desiredID)
	if err != nil {
		c.logger.Error("loading desired session", "session_id", desiredID, "error", err)
		return errors.Wrapf(err, "loading session '%s'", desiredID)
	}
	if !found {
		c.logger.Debug("desired session not found", "session_id", desiredID)
		return listErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initGeneration != generation || c.navigationSeq != navigation {
		c.logger.Debug("discarding stale initial session", "session_id", desiredID)
		return listErr
	}
	c.currentID = chatSession.ID
	c.current = chatSession
	return listErr
}
