package identity

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

const debounceInterval = 100 * time.Millisecond

// FileProvider reads the identity from a JSON credentials file.
// Signing in writes the file, signing out removes it.
type FileProvider struct {
	path   string
	now    func() time.Time
	logger *slog.Logger

	mu       sync.RWMutex
	identity Identity
}

// NewFileProvider instantiates a provider and loads the credentials file if present.
func NewFileProvider(path string, logger *slog.Logger) (*FileProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &FileProvider{
		path:   path,
		now:    time.Now,
		logger: logger,
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Current implements Provider.
func (p *FileProvider) Current() (Identity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity, p.identity.Trusted(p.now())
}

// Reload re-reads the credentials file. A missing file signs out.
func (p *FileProvider) Reload() error {
	identity, err := readCredentials(p.path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.identity = identity
	p.mu.Unlock()
	return nil
}

func readCredentials(path string) (Identity, error) {
	bytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Identity{}, nil
	}
	if err != nil {
		return Identity{}, errors.Wrap(err, "reading credentials file")
	}
	if len(bytes) == 0 {
		return Identity{}, nil
	}
	identity := Identity{}
	if err := json.Unmarshal(bytes, &identity); err != nil {
		return Identity{}, errors.Wrap(err, "unmarshaling credentials")
	}
	return identity, nil
}

// Watch reloads the identity whenever the credentials file changes and emits
// the user id ("" when signed out) each time it differs from the previous one.
// An identity that expires is reported as signed out.
// The channel is closed when ctx is done.
func (p *FileProvider) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating watcher")
	}
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		watcher.Close()
		return nil, errors.Wrap(err, "creating credentials directory")
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "watching %s", dir)
	}

	changes := make(chan string, 1)
	reload := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()

		last := p.userID()
		var debounce *time.Timer
		expiry := p.expiryTimer()
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
			if expiry != nil {
				expiry.Stop()
			}
		}()
		emit := func() bool {
			userID := p.userID()
			if userID == last {
				return true
			}
			last = userID
			p.logger.Info("identity changed", "user_id", userID)
			select {
			case changes <- userID:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			var expired <-chan time.Time
			if expiry != nil {
				expired = expiry.C
			}
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(p.path) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceInterval, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				p.logger.Warn("credentials watcher error", "error", err)
			case <-expired:
				expiry = nil
				p.logger.Info("credentials expired", "path", p.path)
				if !emit() {
					return
				}
			case <-reload:
				if err := p.Reload(); err != nil {
					p.logger.Warn("reloading credentials", "path", p.path, "error", err)
					continue
				}
				if expiry != nil {
					expiry.Stop()
				}
				expiry = p.expiryTimer()
				if !emit() {
					return
				}
			}
		}
	}()
	return changes, nil
}

// expiryTimer returns a timer firing when the loaded identity expires, or nil
// if it is untrusted or never expires.
func (p *FileProvider) expiryTimer() *time.Timer {
	identity, trusted := p.Current()
	if !trusted || identity.ExpiresAt.IsZero() {
		return nil
	}
	return time.NewTimer(identity.ExpiresAt.Sub(p.now()))
}

func (p *FileProvider) userID() string {
	identity, trusted := p.Current()
	if !trusted {
		return ""
	}
	return identity.UserID
}
