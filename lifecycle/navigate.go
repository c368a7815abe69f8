package lifecycle

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/session"
)

// ReactToDesiredSessionChange loads the session named by an external navigation.
// Every call supersedes the loads of earlier calls, so only the latest navigation
// can become current. An empty desiredID is ignored: it does not clear the current session.
func (c *Controller) ReactToDesiredSessionChange(ctx context.Context, desiredID string) error {
	c.mu.Lock()
	if !c.initialized || !c.isAvailable {
		c.mu.Unlock()
		return nil
	}
	c.navigationSeq++
	navigation := c.navigationSeq
	if desiredID == "" || desiredID == c.currentID {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	resolution, available := c.resolve(ctx)
	if !available {
		return nil
	}
	chatSession, found, err := resolution.Backend.Get(ctx, desiredID)
	if err != nil {
		c.logger.Error("loading desired session", "session_id", desiredID, "error", err)
		return errors.Wrapf(err, "loading session '%s'", desiredID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.navigationSeq != navigation {
		c.logger.Debug("discarding stale session load", "session_id", desiredID)
		return nil
	}
	if !found {
		c.logger.Debug("desired session not found", "session_id", desiredID)
		return nil
	}
	if chatSession.ID == c.currentID {
		return nil
	}
	c.currentID = chatSession.ID
	c.current = chatSession
	return nil
}

// SwitchSession makes targetID the current session and returns its content.
// A current session with messages is persisted before the switch.
// It returns nil content when there is nothing to switch to: the target is
// already current, it does not exist, or a newer navigation superseded the switch.
func (c *Controller) SwitchSession(ctx context.Context, targetID string) (*session.Content, error) {
	c.mu.Lock()
	if targetID == "" || targetID == c.currentID {
		c.mu.Unlock()
		return nil, nil
	}
	c.navigationSeq++
	navigation := c.navigationSeq
	var outgoing *session.ChatSession
	if c.current != nil && len(c.current.Messages) > 0 {
		outgoing = c.current.Clone()
	}
	c.mu.Unlock()

	resolution, available := c.resolve(ctx)
	if !available {
		return nil, nil
	}

	if outgoing != nil {
		if now := c.now().UnixMilli(); now > outgoing.UpdatedAt {
			outgoing.UpdatedAt = now
		}
		if err := resolution.Backend.Save(ctx, outgoing); err != nil {
			c.logger.Error("saving session before switch", "session_id", outgoing.ID, "error", err)
			return nil, errors.Wrapf(err, "saving session '%s'", outgoing.ID)
		}
		c.commitUpdate(ctx, resolution.Backend, outgoing, false)
	}

	chatSession, found, err := resolution.Backend.Get(ctx, targetID)
	if err != nil {
		c.logger.Error("loading session", "session_id", targetID, "error", err)
		return nil, errors.Wrapf(err, "loading session '%s'", targetID)
	}
	if !found {
		c.logger.Warn("session not found", "session_id", targetID)
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.navigationSeq != navigation {
		c.logger.Debug("discarding stale session switch", "session_id", targetID)
		return nil, nil
	}
	c.currentID = chatSession.ID
	c.current = chatSession
	return chatSession.Content(), nil
}
