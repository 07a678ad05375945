// Package dictlinks tracks which dictionaries each box uses.
//
// Relations arrive in two shapes: the legacy one-box-one-dictionary record
// and the current multi-dictionary record. MigrateToMulti folds the former
// into the latter.
package dictlinks

import (
	"sort"
	"sync"

	"evalgo.org/schemaeditor/models"
)

// Store holds the dictionary relations of a schema.
type Store struct {
	mu     sync.RWMutex
	legacy []models.DictionaryRelation
	multi  []models.MultiDictionaryRelation
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Load replaces the store contents with the relations found in the given
// link definition documents, in document order.
func (s *Store) Load(defs []*models.LinkDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.legacy = nil
	s.multi = nil
	for _, d := range defs {
		s.legacy = append(s.legacy, d.Spec.DictionariesRelation...)
		for _, r := range d.Spec.MultiDictionariesRelation {
			s.multi = append(s.multi, r.Clone())
		}
	}
}

// Legacy returns a copy of the legacy relations.
func (s *Store) Legacy() []models.DictionaryRelation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DictionaryRelation(nil), s.legacy...)
}

// Multi returns a copy of the multi-dictionary relations.
func (s *Store) Multi() []models.MultiDictionaryRelation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMulti(s.multi)
}

// MigrateToMulti groups the legacy relations by box into multi-dictionary
// relations, in order of first appearance, and empties the legacy list.
// A box that already has a multi relation keeps that single record, with
// the migrated dictionaries it does not yet reference appended to it.
// It returns the per-box groups it migrated; a second call returns nothing.
func (s *Store) MigrateToMulti() []models.MultiDictionaryRelation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.legacy) == 0 {
		return nil
	}

	var created []models.MultiDictionaryRelation
	index := make(map[string]int)
	for _, rel := range s.legacy {
		i, ok := index[rel.Box]
		if !ok {
			i = len(created)
			index[rel.Box] = i
			created = append(created, models.MultiDictionaryRelation{
				Name: relationName(rel.Box),
				Box:  rel.Box,
			})
		}
		if created[i].Has(rel.Dictionary.Name) {
			continue
		}
		created[i].Dictionaries = append(created[i].Dictionaries, models.DictionaryAlias{
			Name:  rel.Dictionary.Name,
			Alias: rel.Dictionary.Type,
		})
	}

	s.legacy = nil
	for _, group := range created {
		s.mergeLocked(group)
	}
	return created
}

// mergeLocked folds rel into the existing record for its box, or appends
// a copy when the box has none.
func (s *Store) mergeLocked(rel models.MultiDictionaryRelation) {
	for i := range s.multi {
		if s.multi[i].Box != rel.Box {
			continue
		}
		for _, d := range rel.Dictionaries {
			if !s.multi[i].Has(d.Name) {
				s.multi[i].Dictionaries = append(s.multi[i].Dictionaries, d)
			}
		}
		return
	}
	s.multi = append(s.multi, rel.Clone())
}

// HasLegacy reports whether unmigrated relations remain.
func (s *Store) HasLegacy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.legacy) > 0
}

// AddRelation links a dictionary to a box under an alias. It reports false
// if the box already references the dictionary.
func (s *Store) AddRelation(box string, dict models.DictionaryAlias) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.multi {
		if s.multi[i].Box != box {
			continue
		}
		if s.multi[i].Has(dict.Name) {
			return false
		}
		s.multi[i].Dictionaries = append(s.multi[i].Dictionaries, dict)
		return true
	}
	s.multi = append(s.multi, models.MultiDictionaryRelation{
		Name:         relationName(box),
		Box:          box,
		Dictionaries: []models.DictionaryAlias{dict},
	})
	return true
}

// RemoveRelation unlinks a dictionary from a box. Relations left without
// dictionaries are dropped. It reports whether anything was removed.
func (s *Store) RemoveRelation(box, dictionary string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	kept := s.multi[:0]
	for _, rel := range s.multi {
		if rel.Box == box {
			dicts := rel.Dictionaries[:0]
			for _, d := range rel.Dictionaries {
				if d.Name == dictionary {
					removed = true
					continue
				}
				dicts = append(dicts, d)
			}
			rel.Dictionaries = dicts
			if len(rel.Dictionaries) == 0 {
				continue
			}
		}
		kept = append(kept, rel)
	}
	s.multi = kept

	legacy := s.legacy[:0]
	for _, rel := range s.legacy {
		if rel.Box == box && rel.Dictionary.Name == dictionary {
			removed = true
			continue
		}
		legacy = append(legacy, rel)
	}
	s.legacy = legacy
	return removed
}

// RenameBox rewrites relations of box oldName to newName. It reports
// whether any relation changed.
func (s *Store) RenameBox(oldName, newName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.multi {
		if s.multi[i].Box == oldName {
			s.multi[i].Box = newName
			s.multi[i].Name = relationName(newName)
			changed = true
		}
	}
	for i := range s.legacy {
		if s.legacy[i].Box == oldName {
			s.legacy[i].Box = newName
			changed = true
		}
	}
	return changed
}

// RenameDictionary rewrites references to dictionary oldName.
func (s *Store) RenameDictionary(oldName, newName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.multi {
		for j := range s.multi[i].Dictionaries {
			if s.multi[i].Dictionaries[j].Name == oldName {
				s.multi[i].Dictionaries[j].Name = newName
				changed = true
			}
		}
	}
	for i := range s.legacy {
		if s.legacy[i].Dictionary.Name == oldName {
			s.legacy[i].Dictionary.Name = newName
			changed = true
		}
	}
	return changed
}

// RemoveBox drops every relation of the box.
func (s *Store) RemoveBox(box string) bool {
	changed := false
	for _, d := range s.DictionariesForBox(box) {
		if s.RemoveRelation(box, d.Name) {
			changed = true
		}
	}
	return changed
}

// RemoveDictionary drops every reference to the dictionary.
func (s *Store) RemoveDictionary(dictionary string) bool {
	changed := false
	for _, box := range s.BoxesForDictionary(dictionary) {
		if s.RemoveRelation(box, dictionary) {
			changed = true
		}
	}
	return changed
}

// DictionariesForBox returns the dictionaries the box uses, across both
// relation shapes, without duplicates.
func (s *Store) DictionariesForBox(box string) []models.DictionaryAlias {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []models.DictionaryAlias
	for _, rel := range s.multi {
		if rel.Box != box {
			continue
		}
		for _, d := range rel.Dictionaries {
			if !seen[d.Name] {
				seen[d.Name] = true
				out = append(out, d)
			}
		}
	}
	for _, rel := range s.legacy {
		if rel.Box == box && !seen[rel.Dictionary.Name] {
			seen[rel.Dictionary.Name] = true
			out = append(out, models.DictionaryAlias{Name: rel.Dictionary.Name, Alias: rel.Dictionary.Type})
		}
	}
	return out
}

// BoxesForDictionary returns the sorted names of boxes using the dictionary.
func (s *Store) BoxesForDictionary(dictionary string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, rel := range s.multi {
		if rel.Has(dictionary) {
			seen[rel.Box] = true
		}
	}
	for _, rel := range s.legacy {
		if rel.Dictionary.Name == dictionary {
			seen[rel.Box] = true
		}
	}

	boxes := make([]string, 0, len(seen))
	for b := range seen {
		boxes = append(boxes, b)
	}
	sort.Strings(boxes)
	return boxes
}

func relationName(box string) string {
	return box + "-dictionaries"
}

func cloneMulti(in []models.MultiDictionaryRelation) []models.MultiDictionaryRelation {
	if in == nil {
		return nil
	}
	out := make([]models.MultiDictionaryRelation, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
