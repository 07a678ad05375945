// Package registry holds the authoritative boxes and dictionaries of the
// active schema, along with the current selection.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"evalgo.org/schemaeditor/models"
)

// Registry owns the box and dictionary lists of a schema. Callers get
// copies; the only way to change an entity is through the registry.
type Registry struct {
	mu                 sync.RWMutex
	boxes              []*models.Box
	dictionaries       []*models.Dictionary
	selectedBox        string
	selectedDictionary string
	version            uint64
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Load replaces the registry contents and clears the selection.
func (r *Registry) Load(boxes []*models.Box, dictionaries []*models.Dictionary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.boxes = make([]*models.Box, 0, len(boxes))
	for _, b := range boxes {
		r.boxes = append(r.boxes, b.Clone())
	}
	r.dictionaries = make([]*models.Dictionary, 0, len(dictionaries))
	for _, d := range dictionaries {
		r.dictionaries = append(r.dictionaries, d.Clone())
	}
	r.selectedBox = ""
	r.selectedDictionary = ""
	r.version++
}

// Version increments on every change to the box or dictionary lists.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Boxes returns copies of every box in registry order.
func (r *Registry) Boxes() []*models.Box {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Box, len(r.boxes))
	for i, b := range r.boxes {
		out[i] = b.Clone()
	}
	return out
}

// BoxesByName returns copies of every box indexed by name.
func (r *Registry) BoxesByName() map[string]*models.Box {
	return models.BoxesByName(r.Boxes())
}

// Box returns a copy of the named box.
func (r *Registry) Box(name string) (*models.Box, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.boxIndex(name); i >= 0 {
		return r.boxes[i].Clone(), true
	}
	return nil, false
}

func (r *Registry) boxIndex(name string) int {
	for i, b := range r.boxes {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// PutBox adds the box, or replaces the box with the same name in place.
// It reports whether the box was new.
func (r *Registry) PutBox(box *models.Box) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.version++
	if i := r.boxIndex(box.Name); i >= 0 {
		r.boxes[i] = box.Clone()
		return false
	}
	r.boxes = append(r.boxes, box.Clone())
	return true
}

// ReplaceBox swaps the box called oldName for box, keeping its position.
// The selection follows a renamed box.
func (r *Registry) ReplaceBox(oldName string, box *models.Box) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.boxIndex(oldName)
	if i < 0 {
		return false
	}
	r.boxes[i] = box.Clone()
	if r.selectedBox == oldName {
		r.selectedBox = box.Name
	}
	r.version++
	return true
}

// RemoveBox deletes the named box and clears it from the selection.
func (r *Registry) RemoveBox(name string) (*models.Box, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.boxIndex(name)
	if i < 0 {
		return nil, false
	}
	removed := r.boxes[i]
	r.boxes = append(r.boxes[:i], r.boxes[i+1:]...)
	if r.selectedBox == name {
		r.selectedBox = ""
	}
	r.version++
	return removed, true
}

// Dictionaries returns copies of every dictionary in registry order.
func (r *Registry) Dictionaries() []*models.Dictionary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Dictionary, len(r.dictionaries))
	for i, d := range r.dictionaries {
		out[i] = d.Clone()
	}
	return out
}

// Dictionary returns a copy of the named dictionary.
func (r *Registry) Dictionary(name string) (*models.Dictionary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.dictionaryIndex(name); i >= 0 {
		return r.dictionaries[i].Clone(), true
	}
	return nil, false
}

func (r *Registry) dictionaryIndex(name string) int {
	for i, d := range r.dictionaries {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// PutDictionary adds or replaces a dictionary. It reports whether it was new.
func (r *Registry) PutDictionary(dict *models.Dictionary) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.version++
	if i := r.dictionaryIndex(dict.Name); i >= 0 {
		r.dictionaries[i] = dict.Clone()
		return false
	}
	r.dictionaries = append(r.dictionaries, dict.Clone())
	return true
}

// ReplaceDictionary swaps the dictionary called oldName for dict.
func (r *Registry) ReplaceDictionary(oldName string, dict *models.Dictionary) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.dictionaryIndex(oldName)
	if i < 0 {
		return false
	}
	r.dictionaries[i] = dict.Clone()
	if r.selectedDictionary == oldName {
		r.selectedDictionary = dict.Name
	}
	r.version++
	return true
}

// RemoveDictionary deletes the named dictionary.
func (r *Registry) RemoveDictionary(name string) (*models.Dictionary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.dictionaryIndex(name)
	if i < 0 {
		return nil, false
	}
	removed := r.dictionaries[i]
	r.dictionaries = append(r.dictionaries[:i], r.dictionaries[i+1:]...)
	if r.selectedDictionary == name {
		r.selectedDictionary = ""
	}
	r.version++
	return removed, true
}

// SelectBox selects the named box; an empty name clears the selection.
// Selecting a box clears the dictionary selection. Unknown names are ignored.
func (r *Registry) SelectBox(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name != "" && r.boxIndex(name) < 0 {
		return false
	}
	r.selectedBox = name
	if name != "" {
		r.selectedDictionary = ""
	}
	return true
}

// SelectDictionary selects the named dictionary; an empty name clears it.
func (r *Registry) SelectDictionary(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name != "" && r.dictionaryIndex(name) < 0 {
		return false
	}
	r.selectedDictionary = name
	if name != "" {
		r.selectedBox = ""
	}
	return true
}

// SelectedBox returns a copy of the selected box, or nil.
func (r *Registry) SelectedBox() *models.Box {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.boxIndex(r.selectedBox); i >= 0 {
		return r.boxes[i].Clone()
	}
	return nil
}

// SelectedDictionary returns a copy of the selected dictionary, or nil.
func (r *Registry) SelectedDictionary() *models.Dictionary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.dictionaryIndex(r.selectedDictionary); i >= 0 {
		return r.dictionaries[i].Clone()
	}
	return nil
}

// TypeGroup is the boxes sharing one spec.type.
type TypeGroup struct {
	Type  string        `json:"type"`
	Boxes []*models.Box `json:"boxes"`
}

// GroupByType groups the registered boxes as GroupBoxes does.
func (r *Registry) GroupByType() []TypeGroup {
	return GroupBoxes(r.Boxes())
}

// GroupBoxes groups boxes by spec.type. Groups and the boxes in them are
// sorted by name; boxes without a type are grouped under their kind.
func GroupBoxes(boxes []*models.Box) []TypeGroup {
	groups := make(map[string][]*models.Box)
	for _, b := range boxes {
		key := b.Spec.Type
		if key == "" {
			key = string(b.Kind)
		}
		groups[key] = append(groups[key], b)
	}

	out := make([]TypeGroup, 0, len(groups))
	for typ, boxes := range groups {
		sort.Slice(boxes, func(i, j int) bool { return boxes[i].Name < boxes[j].Name })
		out = append(out, TypeGroup{Type: typ, Boxes: boxes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Search returns the boxes whose name matches pattern, as Filter does.
func (r *Registry) Search(pattern string) []*models.Box {
	return Filter(r.Boxes(), pattern)
}

// Filter returns the boxes whose name matches pattern. A pattern without
// glob metacharacters matches as a case-insensitive substring. An empty
// pattern matches every box. Malformed patterns match nothing.
func Filter(boxes []*models.Box, pattern string) []*models.Box {
	if pattern == "" {
		return boxes
	}

	glob := strings.ContainsAny(pattern, "*?[{")
	if glob && !doublestar.ValidatePattern(pattern) {
		return nil
	}
	needle := strings.ToLower(pattern)

	var out []*models.Box
	for _, b := range boxes {
		if glob {
			if ok, _ := doublestar.Match(pattern, b.Name); ok {
				out = append(out, b)
			}
			continue
		}
		if strings.Contains(strings.ToLower(b.Name), needle) {
			out = append(out, b)
		}
	}
	return out
}
