package store

import (
	"evalgo.org/schemaeditor/internal/backend"
	"evalgo.org/schemaeditor/internal/links"
	"evalgo.org/schemaeditor/internal/registry"
	"evalgo.org/schemaeditor/models"
)

// Trees holds the connection trees of the selected box in both directions.
type Trees struct {
	To   links.Tree `json:"to"`
	From links.Tree `json:"from"`
}

// SchemaName returns the active schema, or "".
func (s *Store) SchemaName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// Schemas returns the schema names from the last ListSchemas call.
func (s *Store) Schemas() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.schemas...)
}

// Loading reports whether the active schema is being fetched.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Status returns the last status pushed for the active schema.
func (s *Store) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ValidationErrors returns the validation errors the backend attached to
// the last fetched state.
func (s *Store) ValidationErrors() *backend.ValidationErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validationErrors
}

func (s *Store) Boxes() []*models.Box               { return s.registry.Boxes() }
func (s *Store) Dictionaries() []*models.Dictionary { return s.registry.Dictionaries() }
func (s *Store) Links() []models.ExtendedLink       { return s.updater.Links() }
func (s *Store) SelectedBox() *models.Box           { return s.registry.SelectedBox() }
func (s *Store) SelectedDictionary() *models.Dictionary {
	return s.registry.SelectedDictionary()
}

// LinkDefinitions returns the link definition documents of the schema.
func (s *Store) LinkDefinitions() []*models.LinkDefinition {
	return s.updater.LinkDefinitions()
}

// GroupByType returns the boxes grouped by their type.
func (s *Store) GroupByType() []registry.TypeGroup {
	return s.registry.GroupByType()
}

// SearchResults returns the boxes matching the current search query as of
// the last debounced evaluation. Without a query every box matches.
func (s *Store) SearchResults() []*models.Box {
	s.mu.Lock()
	query, results := s.search, s.results
	s.mu.Unlock()

	if query == "" {
		return s.registry.Boxes()
	}
	return results
}

// SearchQuery returns the current search query.
func (s *Store) SearchQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// DictionariesForBox returns the dictionaries related to a box.
func (s *Store) DictionariesForBox(box string) []models.DictionaryAlias {
	return s.updater.DictionariesForBox(box)
}

// BoxesForDictionary returns the boxes related to a dictionary.
func (s *Store) BoxesForDictionary(dictionary string) []string {
	return s.updater.BoxesForDictionary(dictionary)
}

func (s *Store) versions() versionKey {
	return versionKey{boxes: s.registry.Version(), links: s.updater.Version()}
}

// ResolvedTrees returns the connection trees of the selected box. The
// result is recomputed only when the selection, the boxes, the links or
// the depth change.
func (s *Store) ResolvedTrees() Trees {
	s.mu.Lock()
	depth := s.maxDepth
	s.mu.Unlock()

	selected := s.registry.SelectedBox()
	key := treeKey{ver: s.versions(), depth: depth}
	if selected != nil {
		key.box = selected.Name
	}

	return s.trees.Get(key, func() Trees {
		if selected == nil {
			return Trees{To: links.Resolve(nil, nil, nil, models.DirectionTo, depth), From: links.Resolve(nil, nil, nil, models.DirectionFrom, depth)}
		}
		byName := s.registry.BoxesByName()
		all := s.updater.Links()
		return Trees{
			To:   links.Resolve(selected, byName, all, models.DirectionTo, depth),
			From: links.Resolve(selected, byName, all, models.DirectionFrom, depth),
		}
	})
}

// Resolve computes the connection tree of any box.
func (s *Store) Resolve(box string, direction models.Direction, depth int) (links.Tree, bool) {
	if depth <= 0 {
		s.mu.Lock()
		depth = s.maxDepth
		s.mu.Unlock()
	}
	root, ok := s.registry.Box(box)
	if !ok {
		return links.Resolve(nil, nil, nil, direction, depth), false
	}
	return links.Resolve(root, s.registry.BoxesByName(), s.updater.Links(), direction, depth), true
}

// InvalidLinks returns the links with a lost box or pin.
func (s *Store) InvalidLinks() []links.InvalidLink {
	return s.invalid.Get(s.versions(), func() []links.InvalidLink {
		return links.FindInvalidLinks(s.updater.Links(), s.registry.BoxesByName())
	})
}

// IsValid reports whether the schema has no invalid links.
func (s *Store) IsValid() bool {
	return len(s.InvalidLinks()) == 0
}

// PendingCount returns the number of queued requests.
func (s *Store) PendingCount() int {
	return s.queue.Len()
}

// Requests returns the queued requests.
func (s *Store) Requests() []models.RequestModel {
	return s.queue.Requests()
}

// History returns the history entries and the current pointer.
func (s *Store) History() ([]models.Snapshot, int) {
	return s.history.Entries(), s.history.Pointer()
}
