package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/sessionsync/backend"
	"github.com/malonaz/sessionsync/legacy"
	"github.com/malonaz/sessionsync/session"
	"github.com/malonaz/sessionsync/store"
)

type fakeBackend struct {
	mu       sync.Mutex
	sessions map[string]*session.ChatSession
	saves    []string
	// Get and Save block on the gate of an id until it is closed.
	gates     map[string]chan struct{}
	saveGates map[string]chan struct{}
	started   chan string
	listErr error
	saveErr error
}

func newFakeBackend(sessions ...*session.ChatSession) *fakeBackend {
	f := &fakeBackend{
		sessions:  map[string]*session.ChatSession{},
		gates:     map[string]chan struct{}{},
		saveGates: map[string]chan struct{}{},
		started:   make(chan string, 16),
	}
	for _, s := range sessions {
		f.sessions[s.ID] = s.Clone()
	}
	return f
}

func (f *fakeBackend) gate(id string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[id] = gate
	return gate
}

func (f *fakeBackend) gateSave(id string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.saveGates[id] = gate
	return gate
}

func (f *fakeBackend) ListMetadata(context.Context) ([]*session.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	list := []*session.Metadata{}
	for _, s := range f.sessions {
		list = append(list, s.Metadata())
	}
	session.SortMetadata(list)
	return list, nil
}

// Get reads the session before blocking on the gate, like a response delayed in transit.
func (f *fakeBackend) Get(_ context.Context, id string) (*session.ChatSession, bool, error) {
	f.mu.Lock()
	gate := f.gates[id]
	s, ok := f.sessions[id]
	s = s.Clone()
	f.mu.Unlock()
	if gate != nil {
		f.started <- id
		<-gate
	}
	return s, ok, nil
}

func (f *fakeBackend) Save(_ context.Context, s *session.ChatSession) error {
	f.mu.Lock()
	gate := f.saveGates[s.ID]
	f.mu.Unlock()
	if gate != nil {
		f.started <- s.ID
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.sessions[s.ID] = s.Clone()
	f.saves = append(f.saves, s.ID)
	return nil
}

func (f *fakeBackend) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeBackend) EnforceRetentionLimit(_ context.Context, max int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := []*session.Metadata{}
	for _, s := range f.sessions {
		list = append(list, s.Metadata())
	}
	session.SortMetadata(list)
	var evicted []string
	for i := max; i < len(list); i++ {
		delete(f.sessions, list[i].ID)
		evicted = append(evicted, list[i].ID)
	}
	return evicted, nil
}

func (f *fakeBackend) savedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.saves...)
}

type fakeResolver struct {
	mu         sync.Mutex
	resolution backend.Resolution
}

func (r *fakeResolver) Resolve(context.Context) backend.Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolution
}

func (r *fakeResolver) set(resolution backend.Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolution = resolution
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newStoredSession(id string, updatedAt int64, messages ...string) *session.ChatSession {
	s := session.New(id, time.UnixMilli(updatedAt))
	for i, content := range messages {
		s.Messages = append(s.Messages, &session.Message{Role: "user", Content: content, Timestamp: updatedAt + int64(i)})
	}
	if len(messages) > 0 {
		s.Title = session.DeriveTitle(s.Messages)
	}
	return s
}

func newTestController(t *testing.T, b backend.Backend, opts ...Option) (*Controller, *fakeResolver) {
	t.Helper()
	resolver := &fakeResolver{resolution: backend.Resolution{Backend: b, Kind: backend.Local}}
	ids := 0
	c := New(resolver, append([]Option{
		WithClock((&clock{now: time.UnixMilli(1_000_000)}).Now),
		WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("new-%d", ids)
		}),
	}, opts...)...)
	return c, resolver
}

func saveData(messages ...string) *session.SaveData {
	data := &session.SaveData{XMLSnapshots: []session.XMLSnapshot{}}
	for _, content := range messages {
		data.Messages = append(data.Messages, &session.Message{Role: "user", Content: content})
	}
	return data
}

func TestInitialize_LoadsListAndDesiredSession(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "first"), newStoredSession("b", 200, "second"))
	c, _ := newTestController(t, b)

	require.NoError(t, c.Initialize(ctx, "a"))
	state := c.State()
	assert.True(t, state.IsAvailable)
	assert.False(t, state.IsLoading)
	assert.Equal(t, "a", state.CurrentSessionID)
	require.NotNil(t, state.CurrentSession)
	assert.Equal(t, "first", state.CurrentSession.Messages[0].Content)
	require.Len(t, state.Sessions, 2)
	assert.Equal(t, "b", state.Sessions[0].ID)
}

func TestInitialize_UnknownDesiredSessionIsBlank(t *testing.T) {
	b := newFakeBackend(newStoredSession("a", 100, "first"))
	c, _ := newTestController(t, b)

	require.NoError(t, c.Initialize(context.Background(), "missing"))
	state := c.State()
	assert.Empty(t, state.CurrentSessionID)
	assert.Nil(t, state.CurrentSession)
	assert.Len(t, state.Sessions, 1)
	assert.False(t, state.IsLoading)
}

func TestInitialize_OncePerIdentity(t *testing.T) {
	ctx := context.Background()
	local := newFakeBackend(newStoredSession("a", 100, "first"))
	c, resolver := newTestController(t, local)
	require.NoError(t, c.Initialize(ctx, ""))
	require.Len(t, c.State().Sessions, 1)

	require.NoError(t, local.Save(ctx, newStoredSession("b", 200, "second")))
	require.NoError(t, c.Initialize(ctx, ""))
	assert.Len(t, c.State().Sessions, 1)

	remote := newFakeBackend(newStoredSession("r", 300, "remote"))
	resolver.set(backend.Resolution{Backend: remote, Kind: backend.Remote, UserID: "u1"})
	require.NoError(t, c.Initialize(ctx, "r"))
	state := c.State()
	require.Len(t, state.Sessions, 1)
	assert.Equal(t, "r", state.Sessions[0].ID)
	assert.Equal(t, "r", state.CurrentSessionID)
}

func TestInitialize_NoBackend(t *testing.T) {
	c, resolver := newTestController(t, nil)
	resolver.set(backend.Resolution{Kind: backend.None})

	require.NoError(t, c.Initialize(context.Background(), "a"))
	state := c.State()
	assert.False(t, state.IsAvailable)
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.Sessions)

	require.NoError(t, c.SaveCurrentSession(context.Background(), saveData("hi"), ""))
	assert.Empty(t, c.State().CurrentSessionID)
}

func TestInitialize_ListFailureStillFinishesLoading(t *testing.T) {
	b := newFakeBackend()
	b.listErr = errors.New("disk I/O error")
	c, _ := newTestController(t, b)

	assert.Error(t, c.Initialize(context.Background(), ""))
	assert.False(t, c.State().IsLoading)
	assert.True(t, c.State().IsAvailable)
}

func TestInitialize_MigratesLegacyConversation(t *testing.T) {
	ctx := context.Background()
	s, err := store.New(filepath.Join(t.TempDir(), "sessions.db"), nil)
	require.NoError(t, err)
	defer s.Close()

	legacyStore := legacy.New(t.TempDir())
	require.NoError(t, legacyStore.Set(legacy.KeyMessages, `[{"role":"user","content":"old chat","timestamp":1}]`))
	require.NoError(t, legacyStore.Set(legacy.KeySessionID, "legacy-1"))

	c, _ := newTestController(t, s, WithLegacySource(legacyStore))
	require.NoError(t, c.Initialize(ctx, "legacy-1"))

	state := c.State()
	require.Len(t, state.Sessions, 1)
	assert.Equal(t, "legacy-1", state.Sessions[0].ID)
	assert.Equal(t, "old chat", state.Sessions[0].Title)
	assert.Equal(t, "legacy-1", state.CurrentSessionID)
}

func TestReactToDesiredSessionChange_LatestNavigationWins(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(
		newStoredSession("a", 100, "a"),
		newStoredSession("b", 200, "b"),
		newStoredSession("c", 300, "c"),
	)
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))

	gate := b.gate("b")
	done := make(chan error)
	go func() { done <- c.ReactToDesiredSessionChange(ctx, "b") }()
	assert.Equal(t, "b", <-b.started)

	require.NoError(t, c.ReactToDesiredSessionChange(ctx, "c"))
	assert.Equal(t, "c", c.CurrentSessionID())

	close(gate)
	require.NoError(t, <-done)
	state := c.State()
	assert.Equal(t, "c", state.CurrentSessionID)
	assert.Equal(t, "c", state.CurrentSession.ID)
}

func TestReactToDesiredSessionChange_LoadOfCurrentSessionIsIgnored(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("new-1", 100, "stored"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, ""))

	gate := b.gate("new-1")
	done := make(chan error)
	go func() { done <- c.ReactToDesiredSessionChange(ctx, "new-1") }()
	assert.Equal(t, "new-1", <-b.started)

	require.NoError(t, c.SaveCurrentSession(ctx, saveData("fresh"), ""))
	require.Equal(t, "new-1", c.CurrentSessionID())

	close(gate)
	require.NoError(t, <-done)
	state := c.State()
	assert.Equal(t, "new-1", state.CurrentSessionID)
	require.Len(t, state.CurrentSession.Messages, 1)
	assert.Equal(t, "fresh", state.CurrentSession.Messages[0].Content)
}

func TestReactToDesiredSessionChange_EmptyIDNeverClears(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))

	require.NoError(t, c.ReactToDesiredSessionChange(ctx, ""))
	assert.Equal(t, "a", c.CurrentSessionID())

	require.NoError(t, c.ReactToDesiredSessionChange(ctx, "missing"))
	assert.Equal(t, "a", c.CurrentSessionID())
}

func TestReactToDesiredSessionChange_BeforeInitializeIsIgnored(t *testing.T) {
	b := newFakeBackend(newStoredSession("a", 100, "a"))
	c, _ := newTestController(t, b)

	require.NoError(t, c.ReactToDesiredSessionChange(context.Background(), "a"))
	assert.Empty(t, c.CurrentSessionID())
}

func TestSaveCurrentSession_CreatesSession(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, ""))

	require.NoError(t, c.SaveCurrentSession(ctx, saveData("draw a cat"), ""))
	state := c.State()
	assert.Equal(t, "new-1", state.CurrentSessionID)
	require.Len(t, state.Sessions, 1)
	assert.Equal(t, "new-1", state.Sessions[0].ID)
	assert.Equal(t, "draw a cat", state.Sessions[0].Title)
	assert.Equal(t, 1, state.Sessions[0].MessageCount)

	stored, ok, err := b.Get(ctx, "new-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "draw a cat", stored.Title)
}

func TestSaveCurrentSession_TitleDerivedOnce(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, ""))

	require.NoError(t, c.SaveCurrentSession(ctx, saveData("first question"), ""))
	require.NoError(t, c.SaveCurrentSession(ctx, saveData("first question", "second question"), "new-1"))
	require.NoError(t, c.SaveCurrentSession(ctx, saveData("rewritten"), "new-1"))

	state := c.State()
	assert.Equal(t, "first question", state.CurrentSession.Title)
	assert.Equal(t, "first question", state.Sessions[0].Title)
	assert.Equal(t, 1, state.Sessions[0].MessageCount)
}

func TestSaveCurrentSession_UpdatesListInPlace(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"), newStoredSession("b", 200, "b"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))
	require.Equal(t, "b", c.State().Sessions[0].ID)

	data := saveData("a", "more")
	data.DiagramXML = "<mxfile/>"
	require.NoError(t, c.SaveCurrentSession(ctx, data, "a"))

	state := c.State()
	require.Len(t, state.Sessions, 2)
	assert.Equal(t, "a", state.Sessions[0].ID)
	assert.Equal(t, 2, state.Sessions[0].MessageCount)
	assert.True(t, state.Sessions[0].HasDiagram)
	assert.Greater(t, state.Sessions[0].UpdatedAt, int64(200))
}

func TestSaveCurrentSession_DeletedWhileSaving(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))

	gate := b.gateSave("a")
	done := make(chan error)
	go func() { done <- c.SaveCurrentSession(ctx, saveData("a", "more"), "a") }()
	assert.Equal(t, "a", <-b.started)

	wasCurrent, err := c.DeleteSession(ctx, "a")
	require.NoError(t, err)
	assert.True(t, wasCurrent)

	close(gate)
	require.NoError(t, <-done)
	state := c.State()
	assert.Empty(t, state.Sessions)
	assert.Empty(t, state.CurrentSessionID)
	assert.Nil(t, state.CurrentSession)
	_, ok, err := b.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveCurrentSession_UpdateNeverAddsListEntry(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"))
	b.listErr = errors.New("disk I/O error")
	c, _ := newTestController(t, b)
	require.Error(t, c.Initialize(ctx, "a"))
	require.Equal(t, "a", c.CurrentSessionID())
	require.Empty(t, c.State().Sessions)

	require.NoError(t, c.SaveCurrentSession(ctx, saveData("a", "more"), "a"))
	state := c.State()
	assert.Empty(t, state.Sessions)
	require.Len(t, state.CurrentSession.Messages, 2)
	stored, ok, err := b.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, stored.Messages, 2)
}

func TestSaveCurrentSession_DiscardsSaveForOtherSession(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"), newStoredSession("b", 200, "b"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "b"))

	require.NoError(t, c.SaveCurrentSession(ctx, saveData("late write for a"), "a"))
	assert.Empty(t, b.savedIDs())
	stored, _, err := b.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Messages[0].Content)
	assert.Equal(t, "b", c.State().CurrentSession.Messages[0].Content)
}

func TestSaveCurrentSession_OptionalFields(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))

	data := saveData("a")
	data.ThumbnailDataURL = session.Set("data:thumb")
	require.NoError(t, c.SaveCurrentSession(ctx, data, "a"))
	require.NoError(t, c.SaveCurrentSession(ctx, saveData("a"), "a"))
	assert.Equal(t, "data:thumb", *c.State().CurrentSession.ThumbnailDataURL)

	data = saveData("a")
	data.ThumbnailDataURL = session.Clear[string]()
	require.NoError(t, c.SaveCurrentSession(ctx, data, "a"))
	assert.Nil(t, c.State().CurrentSession.ThumbnailDataURL)
}

func TestSaveCurrentSession_RetentionLimit(t *testing.T) {
	ctx := context.Background()
	var existing []*session.ChatSession
	for i := 0; i < 50; i++ {
		existing = append(existing, newStoredSession(fmt.Sprintf("s%02d", i), int64(100+i), "hello"))
	}
	b := newFakeBackend(existing...)
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, ""))
	require.Len(t, c.State().Sessions, 50)

	require.NoError(t, c.SaveCurrentSession(ctx, saveData("one more"), ""))
	state := c.State()
	assert.Len(t, state.Sessions, 50)
	assert.Equal(t, "new-1", state.Sessions[0].ID)
	for _, m := range state.Sessions {
		assert.NotEqual(t, "s00", m.ID)
	}
	_, ok, err := b.Get(ctx, "s00")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveCurrentSession_RetentionLimitOnLocalStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.New(filepath.Join(t.TempDir(), "sessions.db"), nil)
	require.NoError(t, err)
	defer s.Close()
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Save(ctx, newStoredSession(fmt.Sprintf("s%02d", i), int64(100+i), "hello")))
	}

	c, _ := newTestController(t, s)
	require.NoError(t, c.Initialize(ctx, ""))
	require.NoError(t, c.SaveCurrentSession(ctx, saveData("one more"), ""))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, count)
	_, ok, err := s.Get(ctx, "s00")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, c.State().Sessions, 50)
}

func TestSaveCurrentSession_FailureIsReturned(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.saveErr = errors.New("disk full")
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, ""))

	assert.Error(t, c.SaveCurrentSession(ctx, saveData("hi"), ""))
	assert.Empty(t, c.State().CurrentSessionID)
	assert.Empty(t, c.State().Sessions)
}

func TestSwitchSession_SavesOutgoingSessionFirst(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"), newStoredSession("b", 200, "b"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))

	content, err := c.SwitchSession(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, content)
	assert.Equal(t, "b", content.Messages[0].Content)
	assert.Equal(t, []string{"a"}, b.savedIDs())
	assert.Equal(t, "b", c.CurrentSessionID())
}

func TestSwitchSession_SkipsSaveOfEmptySession(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100), newStoredSession("b", 200, "b"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))

	_, err := c.SwitchSession(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, b.savedIDs())
}

func TestSwitchSession_NoOps(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))

	content, err := c.SwitchSession(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, content)

	content, err = c.SwitchSession(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, content)
	assert.Equal(t, "a", c.CurrentSessionID())
}

func TestSwitchSession_SaveFailureAbortsSwitch(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"), newStoredSession("b", 200, "b"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))
	b.saveErr = errors.New("disk full")

	_, err := c.SwitchSession(ctx, "b")
	assert.Error(t, err)
	assert.Equal(t, "a", c.CurrentSessionID())
}

func TestSwitchSession_OverridesPendingNavigation(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100), newStoredSession("b", 200, "b"), newStoredSession("c", 300, "c"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))

	gate := b.gate("b")
	done := make(chan error)
	go func() { done <- c.ReactToDesiredSessionChange(ctx, "b") }()
	<-b.started

	_, err := c.SwitchSession(ctx, "c")
	require.NoError(t, err)
	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, "c", c.CurrentSessionID())
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"), newStoredSession("b", 200, "b"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))

	wasCurrent, err := c.DeleteSession(ctx, "b")
	require.NoError(t, err)
	assert.False(t, wasCurrent)
	assert.Equal(t, "a", c.CurrentSessionID())

	wasCurrent, err = c.DeleteSession(ctx, "a")
	require.NoError(t, err)
	assert.True(t, wasCurrent)
	state := c.State()
	assert.Empty(t, state.CurrentSessionID)
	assert.Nil(t, state.CurrentSession)
	assert.Empty(t, state.Sessions)
}

func TestRefreshSessions(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, ""))

	require.NoError(t, b.Save(ctx, newStoredSession("b", 200, "b")))
	c.RefreshSessions(ctx)
	require.Len(t, c.State().Sessions, 2)

	b.mu.Lock()
	b.listErr = errors.Wrap(backend.ErrPermissionDenied, "listing")
	b.mu.Unlock()
	c.RefreshSessions(ctx)
	assert.Len(t, c.State().Sessions, 2)

	b.mu.Lock()
	b.listErr = errors.New("connection reset")
	b.mu.Unlock()
	c.RefreshSessions(ctx)
	assert.Len(t, c.State().Sessions, 2)
}

func TestClearCurrentSession(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))

	c.ClearCurrentSession()
	state := c.State()
	assert.Empty(t, state.CurrentSessionID)
	assert.Nil(t, state.CurrentSession)
	assert.Len(t, state.Sessions, 1)
	assert.Empty(t, b.savedIDs())
}

func TestState_IsACopy(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(newStoredSession("a", 100, "a"))
	c, _ := newTestController(t, b)
	require.NoError(t, c.Initialize(ctx, "a"))

	state := c.State()
	state.CurrentSession.Messages[0].Content = "mutated"
	state.Sessions[0].Title = "mutated"
	assert.Equal(t, "a", c.State().CurrentSession.Messages[0].Content)
	assert.Equal(t, "a", c.State().Sessions[0].Title)
}
