package lifecycle

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/backend"
)

// DeleteSession deletes a session and refreshes the session list.
// It returns true if the deleted session was the current one, in which case the
// current session is cleared.
func (c *Controller) DeleteSession(ctx context.Context, id string) (bool, error) {
	resolution, available := c.resolve(ctx)
	if !available {
		return false, nil
	}
	// Marked before the delete so a save landing in between undoes its own write.
	c.mu.Lock()
	c.removed.Add(id)
	c.mu.Unlock()
	if err := resolution.Backend.Delete(ctx, id); err != nil {
		c.mu.Lock()
		c.removed.Remove(id)
		c.mu.Unlock()
		c.logger.Error("deleting session", "session_id", id, "error", err)
		return false, errors.Wrapf(err, "deleting session '%s'", id)
	}

	c.mu.Lock()
	wasCurrent := id != "" && c.currentID == id
	c.removeMetadata(id)
	c.mu.Unlock()

	c.RefreshSessions(ctx)
	return wasCurrent, nil
}

// RefreshSessions reloads the session list from the active backend.
// On failure the current list is kept.
func (c *Controller) RefreshSessions(ctx context.Context) {
	resolution, available := c.resolve(ctx)
	if !available {
		return
	}
	sessions, err := resolution.Backend.ListMetadata(ctx)
	if err != nil {
		if backend.IsPermissionDenied(err) {
			c.logger.Debug("permission denied listing sessions", "error", err)
		} else {
			c.logger.Error("listing sessions", "error", err)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = sessions
}
