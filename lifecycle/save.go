package lifecycle

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/backend"
	"github.com/malonaz/sessionsync/session"
)

// SaveCurrentSession persists data into the current session, creating one if there is none.
// When forSessionID is set and no longer names the current session, the save is
// discarded: it was scheduled for a session the user has since navigated away from.
func (c *Controller) SaveCurrentSession(ctx context.Context, data *session.SaveData, forSessionID string) error {
	if data == nil {
		return errors.New("save data cannot be nil")
	}

	c.mu.Lock()
	if forSessionID != "" && forSessionID != c.currentID {
		c.mu.Unlock()
		c.logger.Debug("discarding save for non-current session", "session_id", forSessionID)
		return nil
	}
	base := c.current.Clone()
	c.mu.Unlock()

	resolution, available := c.resolve(ctx)
	if !available {
		return nil
	}

	if base == nil {
		return c.createSession(ctx, resolution.Backend, data)
	}

	base.Apply(data, c.now())
	if err := resolution.Backend.Save(ctx, base); err != nil {
		c.logger.Error("saving session", "session_id", base.ID, "error", err)
		return errors.Wrapf(err, "saving session '%s'", base.ID)
	}

	c.commitUpdate(ctx, resolution.Backend, base, true)
	return nil
}

// commitUpdate records a written update of an existing session. The list entry
// is updated in place, never added. A session deleted or evicted while the
// write was in flight is deleted again so the write cannot resurrect it.
func (c *Controller) commitUpdate(ctx context.Context, b backend.Backend, saved *session.ChatSession, current bool) {
	c.mu.Lock()
	if c.removed.Has(saved.ID) {
		c.mu.Unlock()
		c.logger.Debug("undoing write of removed session", "session_id", saved.ID)
		if err := b.Delete(ctx, saved.ID); err != nil {
			c.logger.Warn("undoing write of removed session", "session_id", saved.ID, "error", err)
		}
		return
	}
	defer c.mu.Unlock()
	if current && c.currentID == saved.ID {
		c.current = saved
	}
	if !c.replaceMetadata(saved.Metadata()) {
		c.logger.Debug("saved session missing from list", "session_id", saved.ID)
	}
}

func (c *Controller) createSession(ctx context.Context, b backend.Backend, data *session.SaveData) error {
	now := c.now()
	created := session.New(c.newID(), now)
	created.Apply(data, now)
	if err := b.Save(ctx, created); err != nil {
		c.logger.Error("creating session", "session_id", created.ID, "error", err)
		return errors.Wrapf(err, "creating session '%s'", created.ID)
	}
	c.logger.Debug("created session", "session_id", created.ID)

	c.mu.Lock()
	if c.currentID == "" {
		c.currentID = created.ID
		c.current = created.Clone()
	}
	c.upsertMetadata(created.Metadata())
	c.mu.Unlock()

	c.enforceRetentionLimit(ctx, b)
	return nil
}

func (c *Controller) enforceRetentionLimit(ctx context.Context, b backend.Backend) {
	if c.maxSessions <= 0 {
		return
	}
	evicted, err := b.EnforceRetentionLimit(ctx, c.maxSessions)
	if err != nil {
		c.logger.Warn("enforcing retention limit", "error", err)
		return
	}
	if len(evicted) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeMetadata(evicted...)
}
