package store

import (
	"context"

	"go.uber.org/zap"

	"evalgo.org/schemaeditor/internal/backend"
)

// Watch subscribes to the push channel of the active schema. It is called
// automatically on selection when live updates are enabled.
func (s *Store) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schema == "" {
		return ErrNoSchema
	}
	if s.watchCancel == nil {
		s.startWatchLocked(s.schema, s.generation)
	}
	return nil
}

func (s *Store) startWatchLocked(name string, gen uint64) {
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.watchCancel = cancel
	go s.watch(ctx, name, gen)
}

func (s *Store) stopWatchLocked() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
}

func (s *Store) watch(ctx context.Context, name string, gen uint64) {
	logger := s.logger.With(zap.String("schema", name))

	events, err := s.backend.Subscribe(ctx, name)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("live updates unavailable", zap.Error(err))
		}
		return
	}
	logger.Debug("live updates started")

	for ev := range events {
		if !s.current(gen) {
			return
		}

		switch ev.Type {
		case backend.EventStatusUpdate:
			s.mu.Lock()
			s.status = ev.Status
			s.mu.Unlock()
			s.emit(EventStatus)
		case backend.EventRepositoryUpdate:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("refresh after repository update failed", zap.Error(err))
			}
		case backend.EventReconnected:
			logger.Info("push channel reconnected, refreshing")
			s.emit(EventConnection)
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("refresh after reconnect failed", zap.Error(err))
			}
		default:
			logger.Debug("ignoring push event", zap.String("type", string(ev.Type)))
		}
	}
	logger.Debug("live updates stopped")
}

func (s *Store) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}
