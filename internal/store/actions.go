package store

import (
	"fmt"

	"evalgo.org/schemaeditor/internal/updater"
	"evalgo.org/schemaeditor/models"
)

// edit runs fn as one serialized action on the selected schema and
// announces the change when it succeeds.
func (s *Store) edit(fn func() error, events ...Event) error {
	s.mu.Lock()
	if s.schema == "" {
		s.mu.Unlock()
		return ErrNoSchema
	}
	err := fn()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.emit(events...)
	return nil
}

var structural = []Event{EventEntities, EventQueue, EventHistory}

// SelectBox selects a box by name, clearing any dictionary selection.
func (s *Store) SelectBox(name string) bool {
	ok := s.registry.SelectBox(name)
	if ok {
		s.emit(EventSelection)
	}
	return ok
}

// SelectDictionary selects a dictionary by name, clearing any box selection.
func (s *Store) SelectDictionary(name string) bool {
	ok := s.registry.SelectDictionary(name)
	if ok {
		s.emit(EventSelection)
	}
	return ok
}

// CreateBox adds a box to the schema.
func (s *Store) CreateBox(box *models.Box) error {
	return s.edit(func() error { return s.updater.CreateBox(box) }, structural...)
}

// UpdateBox replaces the box called oldName.
func (s *Store) UpdateBox(oldName string, box *models.Box) error {
	return s.edit(func() error { return s.updater.UpdateBox(oldName, box) }, structural...)
}

// RenameBox renames a box, carrying the new name into its links and
// dictionary relations.
func (s *Store) RenameBox(oldName, newName string) error {
	return s.edit(func() error {
		box, ok := s.registry.Box(oldName)
		if !ok {
			return fmt.Errorf("%w: %s", updater.ErrBoxNotFound, oldName)
		}
		box.Name = newName
		return s.updater.UpdateBox(oldName, box)
	}, structural...)
}

// DeleteBox removes a box.
func (s *Store) DeleteBox(name string) error {
	return s.edit(func() error { return s.updater.DeleteBox(name) }, structural...)
}

// CreateDictionary adds a dictionary to the schema.
func (s *Store) CreateDictionary(dict *models.Dictionary) error {
	return s.edit(func() error { return s.updater.CreateDictionary(dict) }, structural...)
}

// UpdateDictionary replaces the dictionary called oldName.
func (s *Store) UpdateDictionary(oldName string, dict *models.Dictionary) error {
	return s.edit(func() error { return s.updater.UpdateDictionary(oldName, dict) }, structural...)
}

// DeleteDictionary removes a dictionary and its relations.
func (s *Store) DeleteDictionary(name string) error {
	return s.edit(func() error { return s.updater.DeleteDictionary(name) }, structural...)
}

// AddLink adds a link to the editor-generated links document.
func (s *Store) AddLink(link models.ExtendedLink) error {
	return s.edit(func() error { return s.updater.AddLink(link) }, structural...)
}

// ChangeLink replaces oldLink with newLink.
func (s *Store) ChangeLink(oldLink, newLink models.ExtendedLink) error {
	return s.edit(func() error { return s.updater.ChangeLink(oldLink, newLink) }, structural...)
}

// DeleteLink removes a link. It reports whether the link existed.
func (s *Store) DeleteLink(link models.ExtendedLink) (bool, error) {
	var deleted bool
	err := s.edit(func() error {
		deleted = s.updater.DeleteLink(link)
		return nil
	}, structural...)
	return deleted, err
}

// AddDictionaryRelation makes box use a dictionary.
func (s *Store) AddDictionaryRelation(box string, dict models.DictionaryAlias) (bool, error) {
	var added bool
	err := s.edit(func() error {
		var err error
		added, err = s.updater.AddDictionaryRelation(box, dict)
		return err
	}, structural...)
	return added, err
}

// RemoveDictionaryRelation stops box from using a dictionary.
func (s *Store) RemoveDictionaryRelation(box, dictionary string) (bool, error) {
	var removed bool
	err := s.edit(func() error {
		removed = s.updater.RemoveDictionaryRelation(box, dictionary)
		return nil
	}, structural...)
	return removed, err
}

// MigrateDictionaryRelations converts legacy dictionary relations.
func (s *Store) MigrateDictionaryRelations() ([]models.MultiDictionaryRelation, error) {
	var created []models.MultiDictionaryRelation
	err := s.edit(func() error {
		created = s.updater.MigrateDictionaryRelations()
		return nil
	}, EventEntities, EventQueue)
	return created, err
}

// EnqueueEntity applies and stages an arbitrary entity mutation.
func (s *Store) EnqueueEntity(entity models.Entity, op models.Operation) (bool, error) {
	var changed bool
	err := s.edit(func() error {
		var err error
		changed, err = s.updater.EnqueueEntity(entity, op)
		return err
	}, EventEntities, EventQueue)
	return changed, err
}

// PushHistory records a snapshot made outside the store.
func (s *Store) PushHistory(snap models.Snapshot) {
	s.history.Push(snap)
	s.emit(EventHistory)
}

// Undo moves the history pointer back and returns the snapshot it passed.
// Applying the inverse edit is up to the caller.
func (s *Store) Undo() (models.Snapshot, bool) {
	snap, ok := s.history.Undo()
	if ok {
		s.emit(EventHistory)
	}
	return snap, ok
}

// Redo moves the history pointer forward and returns the snapshot.
func (s *Store) Redo() (models.Snapshot, bool) {
	snap, ok := s.history.Redo()
	if ok {
		s.emit(EventHistory)
	}
	return snap, ok
}

// SetMaxDepth changes the link resolution depth.
func (s *Store) SetMaxDepth(depth int) {
	if depth <= 0 {
		return
	}
	s.mu.Lock()
	s.maxDepth = depth
	s.mu.Unlock()
	s.emit(EventSelection)
}

// SetSearch updates the box search query. The result is recomputed once
// input has been quiet for the debounce window.
func (s *Store) SetSearch(query string) {
	s.mu.Lock()
	s.search = query
	s.mu.Unlock()

	s.searchTimer.Trigger(func() {
		results := s.registry.Search(query)
		s.mu.Lock()
		if s.search != query {
			s.mu.Unlock()
			return
		}
		s.results = results
		s.mu.Unlock()
		s.emit(EventSearch)
	})
}
