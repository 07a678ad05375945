package store

import (
	"context"

	"go.uber.org/zap"

	"evalgo.org/schemaeditor/internal/backend"
	"evalgo.org/schemaeditor/internal/links"
	"evalgo.org/schemaeditor/internal/notify"
)

// Submit sends every pending request to the backend in one batch.
//
// When the backend answers, the submitted requests leave the queue even if
// it reported validation errors; those errors become notifications. A
// transport failure keeps the queue intact, raises an alert and returns
// the error so the user can retry.
func (s *Store) Submit(ctx context.Context) error {
	s.mu.Lock()
	name := s.schema
	batch := s.queue.Requests()
	s.mu.Unlock()

	if name == "" || len(batch) == 0 {
		return nil
	}

	result, err := s.backend.SubmitChanges(ctx, name, batch)
	if err != nil {
		s.logger.Error("submit failed", zap.String("schema", name), zap.Error(err))
		s.alert(name, err)
		return err
	}

	s.mu.Lock()
	acked := s.queue.Ack(batch)
	s.backups = nil
	s.mu.Unlock()

	commit := ""
	if result.CommitRef != nil {
		commit = *result.CommitRef
	}
	s.logger.Info("changes submitted",
		zap.String("schema", name),
		zap.Int("requests", acked),
		zap.String("commit", commit),
		zap.Bool("validation_errors", !result.ValidationErrors.Empty()))

	s.reportValidation(name, result.ValidationErrors)
	s.emit(EventSubmitted, EventQueue)
	return nil
}

func (s *Store) reportValidation(schema string, v *backend.ValidationErrors) {
	if v.Empty() {
		return
	}
	for _, e := range v.LinkErrorMessages {
		s.notify.Add(notify.Notification{
			Type:    notify.TypeLinkError,
			Schema:  schema,
			Link:    e.LinkName,
			Message: e.Message,
		})
	}
	for _, e := range v.BoxResourceErrorMessages {
		s.notify.Add(notify.Notification{
			Type:    notify.TypeBoxResourceError,
			Schema:  schema,
			Box:     e.Box,
			Message: e.Message,
		})
	}
	for _, e := range v.ExceptionMessages {
		s.notify.Add(notify.Notification{
			Type:    notify.TypeException,
			Schema:  schema,
			Message: e.Message,
		})
	}
}

// Discard drops every pending request and puts back the links removed by
// DeleteInvalidLinks, then reloads the schema so other local edits are
// reverted too.
func (s *Store) Discard(ctx context.Context) error {
	s.mu.Lock()
	name := s.schema
	s.queue.Clear()
	for _, l := range s.backups {
		if err := s.updater.RestoreLink(l); err != nil {
			s.logger.Warn("link not restored", zap.String("link", l.Name), zap.Error(err))
		}
	}
	s.backups = nil
	// the backend never saw the deletions, so the restore needs no requests
	s.queue.Clear()
	s.mu.Unlock()
	s.emit(EventQueue, EventEntities)

	if name == "" {
		return nil
	}
	return s.Refresh(ctx)
}

// DeleteInvalidLinks deletes every link with a lost box or pin and keeps a
// backup of each so Discard can restore it. It returns the number of
// links deleted.
func (s *Store) DeleteInvalidLinks() (int, error) {
	s.mu.Lock()
	if s.schema == "" {
		s.mu.Unlock()
		return 0, ErrNoSchema
	}

	deleted := 0
	for _, inv := range links.FindInvalidLinks(s.updater.Links(), s.registry.BoxesByName()) {
		if s.updater.DeleteLink(inv.Link) {
			s.backups = append(s.backups, inv.Link.Clone())
			deleted++
		}
	}
	s.mu.Unlock()

	if deleted > 0 {
		s.emit(EventEntities, EventQueue, EventHistory)
	}
	return deleted, nil
}

// Backups returns the links DeleteInvalidLinks removed since the last
// submit or discard.
func (s *Store) Backups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.backups))
	for i, l := range s.backups {
		names[i] = l.Name
	}
	return names
}
