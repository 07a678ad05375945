// Package store is the schema store: it owns the state of the active
// schema, drives fetching with cancel-on-switch, stages and submits edits,
// and keeps the state current from the backend push channel.
//
// Reads are served from the underlying registries and are safe at any
// time. Actions are serialized; network calls never run under the action
// lock.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"evalgo.org/schemaeditor/internal/backend"
	"evalgo.org/schemaeditor/internal/debounce"
	"evalgo.org/schemaeditor/internal/dictlinks"
	"evalgo.org/schemaeditor/internal/history"
	"evalgo.org/schemaeditor/internal/links"
	"evalgo.org/schemaeditor/internal/notify"
	"evalgo.org/schemaeditor/internal/observe"
	"evalgo.org/schemaeditor/internal/registry"
	"evalgo.org/schemaeditor/internal/requests"
	"evalgo.org/schemaeditor/internal/updater"
	"evalgo.org/schemaeditor/models"
)

// ErrNoSchema is returned by actions that need a selected schema.
var ErrNoSchema = errors.New("no schema selected")

// Event names the part of the state that changed.
type Event string

const (
	EventSchema     Event = "schema"
	EventEntities   Event = "entities"
	EventSelection  Event = "selection"
	EventQueue      Event = "queue"
	EventHistory    Event = "history"
	EventStatus     Event = "status"
	EventSearch     Event = "search"
	EventSubmitted  Event = "submitted"
	EventRefreshed  Event = "refreshed"
	EventConnection Event = "connection"
)

// Options configure a Store.
type Options struct {
	// MaxDepth bounds link resolution (default 2)
	MaxDepth int

	// HistoryLimit bounds the history stack (default 100)
	HistoryLimit int

	// Debounce is the quiet window for search (default 600ms)
	Debounce time.Duration

	// LiveUpdates subscribes to the push channel of the selected schema
	LiveUpdates bool

	Logger *zap.Logger
}

// Store orchestrates the state of one active schema.
type Store struct {
	mu sync.Mutex

	backend backend.Backend
	notify  *notify.Service
	logger  *zap.Logger

	registry *registry.Registry
	dicts    *dictlinks.Store
	history  *history.Stack
	queue    *requests.Queue
	updater  *updater.Updater

	schema           string
	schemas          []string
	loading          bool
	status           string
	validationErrors *backend.ValidationErrors
	backups          []models.ExtendedLink

	generation  uint64
	refreshSeq  uint64
	appliedSeq  uint64
	fetchCancel context.CancelFunc
	watchCancel context.CancelFunc
	liveUpdates bool

	baseCtx    context.Context
	baseCancel context.CancelFunc

	maxDepth    int
	trees       observe.Memo[treeKey, Trees]
	invalid     observe.Memo[versionKey, []links.InvalidLink]
	listeners   observe.Listeners[Event]
	search      string
	results     []*models.Box
	searchTimer *debounce.Debouncer
}

type versionKey struct {
	boxes uint64
	links uint64
}

type treeKey struct {
	box   string
	ver   versionKey
	depth int
}

// New creates a store backed by b that reports to n.
func New(b backend.Backend, n *notify.Service, opts Options) *Store {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = links.DefaultMaxDepth
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 100
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if n == nil {
		n = notify.NewService(0)
	}

	s := &Store{
		backend:     b,
		notify:      n,
		logger:      opts.Logger.Named("store"),
		registry:    registry.New(),
		dicts:       dictlinks.New(),
		history:     history.New(opts.HistoryLimit),
		queue:       requests.New(),
		liveUpdates: opts.LiveUpdates,
		maxDepth:    opts.MaxDepth,
		searchTimer: debounce.New(opts.Debounce),
	}
	s.updater = updater.New(s.registry, s.dicts, s.history, s.queue, opts.Logger.Named("updater"))
	s.baseCtx, s.baseCancel = context.WithCancel(context.Background())
	return s
}

// Notifications returns the notification service the store reports to.
func (s *Store) Notifications() *notify.Service {
	return s.notify
}

// OnChange registers fn for state change events. The returned function
// unregisters it.
func (s *Store) OnChange(fn func(Event)) func() {
	return s.listeners.Add(fn)
}

func (s *Store) emit(events ...Event) {
	for _, ev := range events {
		s.listeners.Notify(ev)
	}
}

// Close stops background work: the push channel, pending fetches and the
// search debounce.
func (s *Store) Close() {
	s.mu.Lock()
	s.generation++
	if s.fetchCancel != nil {
		s.fetchCancel()
		s.fetchCancel = nil
	}
	s.watchCancel = nil
	s.mu.Unlock()

	s.searchTimer.Cancel()
	s.baseCancel()
}

// ListSchemas fetches and remembers the schema names.
func (s *Store) ListSchemas(ctx context.Context) ([]string, error) {
	names, err := s.backend.ListSchemas(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.schemas = append([]string(nil), names...)
	s.mu.Unlock()
	return names, nil
}

// CreateSchema creates a schema on the backend and selects it.
func (s *Store) CreateSchema(ctx context.Context, name string) error {
	if _, err := s.backend.CreateSchema(ctx, name); err != nil {
		s.alert(name, err)
		return err
	}
	s.mu.Lock()
	s.schemas = append(s.schemas, name)
	s.mu.Unlock()
	return s.SelectSchema(ctx, name)
}

// SelectSchema makes name the active schema. Any fetch still running for
// the previous schema is cancelled before the state is reset, and a
// response that arrives for a superseded selection is dropped. A fetch
// cut short by a later selection or by Close returns context.Canceled and
// raises no notification; a fetch aborted through ctx is a failure like
// any other and raises an alert.
func (s *Store) SelectSchema(ctx context.Context, name string) error {
	s.mu.Lock()
	if s.fetchCancel != nil {
		s.fetchCancel()
	}
	s.stopWatchLocked()

	s.generation++
	gen := s.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	s.fetchCancel = cancel

	s.schema = name
	s.loading = true
	s.status = ""
	s.validationErrors = nil
	s.backups = nil
	s.updater.Load(models.Schema{})
	s.queue.Clear()
	s.history.Reset()
	s.mu.Unlock()
	s.emit(EventSchema)

	s.logger.Info("schema selected", zap.String("schema", name))
	state, err := s.backend.FetchSchemaState(fetchCtx, name)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		cancel()
		s.logger.Debug("schema fetch discarded", zap.String("schema", name))
		return context.Canceled
	}
	s.fetchCancel = nil
	cancel()
	s.loading = false

	if err == nil {
		err = s.applyStateLocked(state, false)
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("schema fetch failed", zap.String("schema", name), zap.Error(err))
		s.alert(name, err)
		s.emit(EventSchema)
		return err
	}

	if s.liveUpdates {
		s.startWatchLocked(name, gen)
	}
	s.mu.Unlock()
	s.emit(EventSchema, EventEntities)
	return nil
}

// Refresh reloads the active schema from the backend and replays the
// pending edits on top of it, so local edits win over remote state. When
// refreshes overlap, a response older than one already applied is dropped.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	name, gen := s.schema, s.generation
	s.refreshSeq++
	seq := s.refreshSeq
	s.mu.Unlock()
	if name == "" {
		return ErrNoSchema
	}

	state, err := s.backend.FetchSchemaState(ctx, name)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("schema refresh failed", zap.String("schema", name), zap.Error(err))
		}
		return err
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return context.Canceled
	}
	if seq < s.appliedSeq {
		s.mu.Unlock()
		s.logger.Debug("stale refresh dropped", zap.String("schema", name), zap.Uint64("seq", seq))
		return nil
	}
	err = s.applyStateLocked(state, true)
	if err == nil {
		s.appliedSeq = seq
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Debug("schema refreshed", zap.String("schema", name), zap.Int("pending", s.queue.Len()))
	s.emit(EventRefreshed, EventEntities)
	return nil
}

// applyStateLocked loads a fetched state. With replay, the pending queue
// is applied on top and the selection is kept when it still exists.
func (s *Store) applyStateLocked(state *backend.SchemaState, replay bool) error {
	entities, err := state.Entities()
	if err != nil {
		return err
	}

	var selectedBox, selectedDict string
	if replay {
		if b := s.registry.SelectedBox(); b != nil {
			selectedBox = b.Name
		}
		if d := s.registry.SelectedDictionary(); d != nil {
			selectedDict = d.Name
		}
	}

	s.updater.Load(models.SplitEntities(entities))
	s.validationErrors = state.ValidationErrors

	if replay {
		for _, req := range s.queue.Requests() {
			if err := s.updater.Apply(req); err != nil {
				s.logger.Warn("pending edit not replayed", zap.String("entity", req.Payload.EntityName()), zap.Error(err))
			}
		}
		if selectedBox != "" {
			s.registry.SelectBox(selectedBox)
		} else if selectedDict != "" {
			s.registry.SelectDictionary(selectedDict)
		}
	}
	return nil
}

func (s *Store) alert(schema string, err error) {
	s.notify.Add(notify.Notification{
		Type:    notify.TypeAlert,
		Schema:  schema,
		Message: err.Error(),
	})
}
