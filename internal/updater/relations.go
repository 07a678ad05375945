package updater

import (
	"fmt"

	"evalgo.org/schemaeditor/models"
)

// AddDictionaryRelation makes box use dict. Legacy relations are migrated
// first so the schema only ever gains multi-dictionary relations. It
// reports false when the box already uses the dictionary.
func (u *Updater) AddDictionaryRelation(box string, dict models.DictionaryAlias) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.boxes.Box(box); !ok {
		return false, fmt.Errorf("%w: %s", ErrBoxNotFound, box)
	}
	if _, ok := u.boxes.Dictionary(dict.Name); !ok {
		return false, fmt.Errorf("%w: %s", ErrDictionaryNotFound, dict.Name)
	}

	migrated := len(u.dicts.MigrateToMulti()) > 0
	added := u.dicts.AddRelation(box, dict)
	if added || migrated {
		u.writeDictionaryRelations()
	}
	if added {
		u.history.Push(models.NewSnapshot(dict.Name, models.ObjectDictionary, models.SnapshotAdd, nil, relation(box, dict)))
	}
	return added, nil
}

// RemoveDictionaryRelation stops box from using the named dictionary.
func (u *Updater) RemoveDictionaryRelation(box, dictionary string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	var alias models.DictionaryAlias
	for _, d := range u.dicts.DictionariesForBox(box) {
		if d.Name == dictionary {
			alias = d
		}
	}

	migrated := len(u.dicts.MigrateToMulti()) > 0
	removed := u.dicts.RemoveRelation(box, dictionary)
	if removed || migrated {
		u.writeDictionaryRelations()
	}
	if removed {
		u.history.Push(models.NewSnapshot(dictionary, models.ObjectDictionary, models.SnapshotRemove, relation(box, alias), nil))
	}
	return removed
}

// MigrateDictionaryRelations converts every legacy relation into the
// multi-dictionary form and stages the rewritten documents.
func (u *Updater) MigrateDictionaryRelations() []models.MultiDictionaryRelation {
	u.mu.Lock()
	defer u.mu.Unlock()

	created := u.dicts.MigrateToMulti()
	if len(created) > 0 {
		u.writeDictionaryRelations()
	}
	return created
}

// DictionariesForBox returns the dictionaries the box uses.
func (u *Updater) DictionariesForBox(box string) []models.DictionaryAlias {
	return u.dicts.DictionariesForBox(box)
}

// BoxesForDictionary returns the boxes using the dictionary.
func (u *Updater) BoxesForDictionary(dictionary string) []string {
	return u.dicts.BoxesForDictionary(dictionary)
}

// writeDictionaryRelations consolidates all relations into the editor
// document and clears them from every other link definition.
func (u *Updater) writeDictionaryRelations() {
	u.dicts.MigrateToMulti()

	doc, created := u.editorDocument()
	for _, d := range u.defs {
		if d == doc {
			continue
		}
		if len(d.Spec.DictionariesRelation) == 0 && len(d.Spec.MultiDictionariesRelation) == 0 {
			continue
		}
		d.Spec.DictionariesRelation = nil
		d.Spec.MultiDictionariesRelation = nil
		u.enqueueDocument(d, false)
	}

	doc.Spec.DictionariesRelation = nil
	doc.Spec.MultiDictionariesRelation = u.dicts.Multi()
	u.enqueueDocument(doc, created)
}

func relation(box string, dict models.DictionaryAlias) models.MultiDictionaryRelation {
	return models.MultiDictionaryRelation{
		Name:         box + "-dictionaries",
		Box:          box,
		Dictionaries: []models.DictionaryAlias{dict},
	}
}
