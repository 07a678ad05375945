package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/schemaeditor/internal/backend"
	"evalgo.org/schemaeditor/internal/notify"
	"evalgo.org/schemaeditor/models"
)

// fakeBackend serves schema states from memory. Fetches of schemas listed
// in block wait for their channel to be closed, or for ctx when ignoreCtx
// is false.
type fakeBackend struct {
	mu        sync.Mutex
	states    map[string][]models.Entity
	block     map[string]chan struct{}
	ignoreCtx bool
	started   chan string
	submitted [][]models.RequestModel
	result    *backend.SubmitResult
	submitErr error
	events    chan backend.Event
	fetches   map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		states:  make(map[string][]models.Entity),
		block:   make(map[string]chan struct{}),
		fetches: make(map[string]int),
		started: make(chan string, 32),
		result:  &backend.SubmitResult{},
	}
}

func (f *fakeBackend) set(name string, entities ...models.Entity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[name] = entities
}

func (f *fakeBackend) ListSchemas(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for n := range f.states {
		names = append(names, n)
	}
	return names, nil
}

func (f *fakeBackend) FetchSchemaState(ctx context.Context, name string) (*backend.SchemaState, error) {
	f.mu.Lock()
	wait, blocked := f.block[name]
	ignore := f.ignoreCtx
	f.fetches[name]++
	state := &backend.SchemaState{}
	for _, e := range f.states[name] {
		res, err := models.EncodeEntity(e)
		if err != nil {
			f.mu.Unlock()
			return nil, err
		}
		state.Resources = append(state.Resources, res)
	}
	f.mu.Unlock()

	select {
	case f.started <- name:
	default:
	}
	if blocked {
		if ignore {
			<-wait
		} else {
			select {
			case <-wait:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return state, nil
}

func (f *fakeBackend) fetchCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[name]
}

func (f *fakeBackend) unblock(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.block, name)
}

func (f *fakeBackend) CreateSchema(ctx context.Context, name string) (*models.Resource, error) {
	f.set(name)
	return &models.Resource{Kind: models.KindSettingsFile, Name: name}, nil
}

func (f *fakeBackend) SubmitChanges(ctx context.Context, name string, changes []models.RequestModel) (*backend.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, changes)
	return f.result, nil
}

func (f *fakeBackend) Subscribe(ctx context.Context, name string) (<-chan backend.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events == nil {
		return nil, errors.New("push channel unavailable")
	}
	out := make(chan backend.Event)
	go func() {
		defer close(out)
		for {
			select {
			case ev := <-f.events:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func box(name string, pins ...string) *models.Box {
	b := &models.Box{Name: name, Kind: models.KindBox, Spec: models.BoxSpec{Type: "th2-conn"}}
	for _, p := range pins {
		b.Spec.Pins = append(b.Spec.Pins, models.Pin{Name: p, ConnectionType: models.ConnectionMQ})
	}
	return b
}

func linkDoc(name string, l ...models.Link) *models.LinkDefinition {
	d := models.NewLinkDefinition(name)
	d.Spec.BoxesRelation.RouterMQ = l
	return d
}

func plain(name, fromBox, fromPin, toBox, toPin string) models.Link {
	return models.Link{
		Name: name,
		From: &models.LinkEndpoint{Box: fromBox, Pin: fromPin},
		To:   &models.LinkEndpoint{Box: toBox, Pin: toPin},
	}
}

func demoBackend() *fakeBackend {
	b := newFakeBackend()
	b.set("demo",
		box("svc1", "p1"),
		box("svc2", "p2", "out"),
		box("svc3", "in"),
		linkDoc("user-links",
			plain("L1", "svc1", "p1", "svc2", "p2"),
			plain("L2", "svc2", "out", "svc3", "in"),
		),
	)
	return b
}

func newTestStore(t *testing.T, b *fakeBackend, opts Options) *Store {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = 10 * time.Millisecond
	}
	s := New(b, notify.NewService(0), opts)
	t.Cleanup(s.Close)
	return s
}

func TestSelectSchema_LoadsState(t *testing.T) {
	s := newTestStore(t, demoBackend(), Options{})

	var events []Event
	s.OnChange(func(ev Event) { events = append(events, ev) })

	require.NoError(t, s.SelectSchema(context.Background(), "demo"))
	assert.Equal(t, "demo", s.SchemaName())
	assert.False(t, s.Loading())
	assert.Len(t, s.Boxes(), 3)
	assert.Len(t, s.Links(), 2)
	assert.True(t, s.IsValid())
	assert.Contains(t, events, EventEntities)

	require.True(t, s.SelectBox("svc2"))
	trees := s.ResolvedTrees()
	assert.Equal(t, []string{"svc1"}, trees.To.BoxNames())
	assert.Equal(t, []string{"svc3"}, trees.From.BoxNames())

	assert.Equal(t, trees, s.ResolvedTrees())
}

func TestSelectSchema_CancelsPreviousFetch(t *testing.T) {
	b := demoBackend()
	b.set("slow", box("old"))
	b.block["slow"] = make(chan struct{})
	s := newTestStore(t, b, Options{})

	errc := make(chan error, 1)
	go func() { errc <- s.SelectSchema(context.Background(), "slow") }()
	require.Equal(t, "slow", <-b.started)

	require.NoError(t, s.SelectSchema(context.Background(), "demo"))
	assert.ErrorIs(t, <-errc, context.Canceled)

	assert.Equal(t, "demo", s.SchemaName())
	assert.Len(t, s.Boxes(), 3)
	assert.Empty(t, s.Notifications().List())
}

func TestSelectSchema_DropsStaleResponse(t *testing.T) {
	b := demoBackend()
	b.set("stale", box("old"))
	release := make(chan struct{})
	b.block["stale"] = release
	b.ignoreCtx = true
	s := newTestStore(t, b, Options{})

	errc := make(chan error, 1)
	go func() { errc <- s.SelectSchema(context.Background(), "stale") }()
	require.Equal(t, "stale", <-b.started)

	require.NoError(t, s.SelectSchema(context.Background(), "demo"))
	close(release)
	assert.ErrorIs(t, <-errc, context.Canceled)

	_, ok := findBox(s.Boxes(), "old")
	assert.False(t, ok)
	assert.Len(t, s.Boxes(), 3)
}

func TestSelectSchema_CallerAbortIsAlerted(t *testing.T) {
	b := demoBackend()
	b.block["demo"] = make(chan struct{})
	s := newTestStore(t, b, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.SelectSchema(ctx, "demo") }()
	require.Equal(t, "demo", <-b.started)
	assert.True(t, s.Loading())

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	assert.False(t, s.Loading())
	assert.Equal(t, "demo", s.SchemaName())
	notes := s.Notifications().List()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.TypeAlert, notes[0].Type)

	b.unblock("demo")
	require.NoError(t, s.Refresh(context.Background()))
	assert.Len(t, s.Boxes(), 3)
}

func TestSelectSchema_CloseDuringFetchIsSilent(t *testing.T) {
	b := demoBackend()
	b.block["demo"] = make(chan struct{})
	s := newTestStore(t, b, Options{})

	errc := make(chan error, 1)
	go func() { errc <- s.SelectSchema(context.Background(), "demo") }()
	require.Equal(t, "demo", <-b.started)

	s.Close()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Empty(t, s.Notifications().List())
}

func TestRefresh_DropsOlderOverlappingResponse(t *testing.T) {
	b := demoBackend()
	s := newTestStore(t, b, Options{})
	require.NoError(t, s.SelectSchema(context.Background(), "demo"))
	<-b.started

	release := make(chan struct{})
	b.mu.Lock()
	b.block["demo"] = release
	b.ignoreCtx = true
	b.mu.Unlock()

	errc := make(chan error, 1)
	go func() { errc <- s.Refresh(context.Background()) }()
	require.Equal(t, "demo", <-b.started)

	b.unblock("demo")
	b.set("demo", box("a"), box("b"))
	require.NoError(t, s.Refresh(context.Background()))
	require.Len(t, s.Boxes(), 2)

	close(release)
	require.NoError(t, <-errc)
	assert.Len(t, s.Boxes(), 2)
	_, ok := findBox(s.Boxes(), "svc1")
	assert.False(t, ok)
}

func findBox(boxes []*models.Box, name string) (*models.Box, bool) {
	for _, b := range boxes {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

func TestActions_RequireSchema(t *testing.T) {
	s := newTestStore(t, demoBackend(), Options{})
	assert.ErrorIs(t, s.CreateBox(box("x")), ErrNoSchema)
	_, err := s.DeleteInvalidLinks()
	assert.ErrorIs(t, err, ErrNoSchema)
	assert.NoError(t, s.Submit(context.Background()))
}

func TestRenameBox_UpdatesLinksAndTrees(t *testing.T) {
	s := newTestStore(t, demoBackend(), Options{})
	require.NoError(t, s.SelectSchema(context.Background(), "demo"))
	require.True(t, s.SelectBox("svc2"))
	before := s.ResolvedTrees()
	assert.Equal(t, []string{"svc1"}, before.To.BoxNames())

	require.NoError(t, s.RenameBox("svc1", "svc1-renamed"))

	assert.Equal(t, []string{"svc1-renamed"}, s.ResolvedTrees().To.BoxNames())
	assert.True(t, s.IsValid())

	entries, pointer := s.History()
	assert.Equal(t, len(entries)-1, pointer)
	var linkChanges int
	for _, e := range entries {
		if e.Object == "L1" && e.Operation == models.SnapshotChange {
			linkChanges++
		}
	}
	assert.Equal(t, 1, linkChanges)
}

func TestSubmit_ValidationErrorsClearQueue(t *testing.T) {
	b := demoBackend()
	b.result = &backend.SubmitResult{
		ValidationErrors: &backend.ValidationErrors{
			BoxResourceErrorMessages: []backend.BoxResourceErrorMessage{{Box: "svc1", Message: "bad spec"}},
		},
	}
	s := newTestStore(t, b, Options{})
	require.NoError(t, s.SelectSchema(context.Background(), "demo"))

	updated := box("svc1", "p1")
	updated.Spec.ImageName = "broken"
	require.NoError(t, s.UpdateBox("svc1", updated))
	require.Equal(t, 1, s.PendingCount())

	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, 0, s.PendingCount())

	list := s.Notifications().List()
	require.Len(t, list, 1)
	assert.Equal(t, notify.TypeBoxResourceError, list[0].Type)
	assert.Equal(t, "svc1", list[0].Box)
	assert.Equal(t, "bad spec", list[0].Message)
	require.Len(t, b.submitted, 1)
}

func TestSubmit_TransportFailureKeepsQueue(t *testing.T) {
	b := demoBackend()
	b.submitErr = &backend.HTTPError{StatusCode: 502, Status: "502 Bad Gateway"}
	s := newTestStore(t, b, Options{})
	require.NoError(t, s.SelectSchema(context.Background(), "demo"))
	require.NoError(t, s.CreateBox(box("svc4")))

	err := s.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, s.PendingCount())

	list := s.Notifications().List()
	require.Len(t, list, 1)
	assert.Equal(t, notify.TypeAlert, list[0].Type)
}

func TestDeleteInvalidLinks_DiscardRestores(t *testing.T) {
	s := newTestStore(t, demoBackend(), Options{})
	require.NoError(t, s.SelectSchema(context.Background(), "demo"))

	require.NoError(t, s.DeleteBox("svc3"))
	assert.False(t, s.IsValid())
	require.Len(t, s.InvalidLinks(), 1)

	n, err := s.DeleteInvalidLinks()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"L2"}, s.Backups())
	assert.Len(t, s.Links(), 1)

	require.NoError(t, s.Discard(context.Background()))
	assert.Equal(t, 0, s.PendingCount())
	assert.Empty(t, s.Backups())
	assert.Len(t, s.Links(), 2)
	_, ok := findBox(s.Boxes(), "svc3")
	assert.True(t, ok)
}

func TestRefresh_ReplaysPendingEdits(t *testing.T) {
	b := demoBackend()
	s := newTestStore(t, b, Options{})
	require.NoError(t, s.SelectSchema(context.Background(), "demo"))
	require.NoError(t, s.CreateBox(box("local")))
	require.True(t, s.SelectBox("svc1"))

	b.set("demo", box("svc1", "p1"), box("remote"))
	require.NoError(t, s.Refresh(context.Background()))

	_, ok := findBox(s.Boxes(), "local")
	assert.True(t, ok)
	_, ok = findBox(s.Boxes(), "remote")
	assert.True(t, ok)
	assert.Equal(t, 1, s.PendingCount())
	require.NotNil(t, s.SelectedBox())
	assert.Equal(t, "svc1", s.SelectedBox().Name)
}

func TestWatch_RepositoryUpdateRefreshes(t *testing.T) {
	b := demoBackend()
	b.events = make(chan backend.Event)
	s := newTestStore(t, b, Options{LiveUpdates: true})
	require.NoError(t, s.SelectSchema(context.Background(), "demo"))

	b.events <- backend.Event{Type: backend.EventStatusUpdate, Name: "demo", Status: "running"}
	assert.Eventually(t, func() bool { return s.Status() == "running" }, time.Second, 5*time.Millisecond)

	b.set("demo", box("only"))
	b.events <- backend.Event{Type: backend.EventRepositoryUpdate, Name: "demo"}
	assert.Eventually(t, func() bool { return len(s.Boxes()) == 1 }, time.Second, 5*time.Millisecond)

	b.set("demo", box("a"), box("b"))
	b.events <- backend.Event{Type: backend.EventReconnected, Name: "demo"}
	assert.Eventually(t, func() bool { return len(s.Boxes()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestWatch_ReconnectForcesOneRefresh(t *testing.T) {
	b := demoBackend()
	b.events = make(chan backend.Event)
	s := newTestStore(t, b, Options{LiveUpdates: true})

	var mu sync.Mutex
	events := map[Event]int{}
	defer s.OnChange(func(ev Event) {
		mu.Lock()
		events[ev]++
		mu.Unlock()
	})()
	count := func(ev Event) int {
		mu.Lock()
		defer mu.Unlock()
		return events[ev]
	}

	require.NoError(t, s.SelectSchema(context.Background(), "demo"))
	require.Equal(t, 1, b.fetchCount("demo"))

	b.set("demo", box("a"), box("b"))
	b.events <- backend.Event{Type: backend.EventReconnected, Name: "demo"}

	assert.Eventually(t, func() bool { return len(s.Boxes()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return b.fetchCount("demo") > 2 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 2, b.fetchCount("demo"))
	assert.Equal(t, 1, count(EventConnection))
	assert.Equal(t, 1, count(EventRefreshed))
}

func TestSetSearch_Debounced(t *testing.T) {
	s := newTestStore(t, demoBackend(), Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, s.SelectSchema(context.Background(), "demo"))

	searched := make(chan struct{}, 4)
	s.OnChange(func(ev Event) {
		if ev == EventSearch {
			searched <- struct{}{}
		}
	})

	s.SetSearch("svc")
	s.SetSearch("svc[12]")
	select {
	case <-searched:
	case <-time.After(time.Second):
		t.Fatal("search not evaluated")
	}

	names := []string{}
	for _, b := range s.SearchResults() {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"svc1", "svc2"}, names)
	assert.Len(t, searched, 0)
}

func TestUndoRedo(t *testing.T) {
	s := newTestStore(t, demoBackend(), Options{})
	require.NoError(t, s.SelectSchema(context.Background(), "demo"))

	require.NoError(t, s.CreateBox(box("a")))
	require.NoError(t, s.CreateBox(box("b")))

	snap, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, "b", snap.Object)

	require.NoError(t, s.CreateBox(box("c")))
	_, ok = s.Redo()
	assert.False(t, ok)

	entries, _ := s.History()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Object)
	assert.Equal(t, "c", entries[1].Object)
}

func TestCreateSchema(t *testing.T) {
	b := newFakeBackend()
	s := newTestStore(t, b, Options{})

	require.NoError(t, s.CreateSchema(context.Background(), "fresh"))
	assert.Equal(t, "fresh", s.SchemaName())
	assert.Equal(t, []string{"fresh"}, s.Schemas())
}
