package updater

import (
	"fmt"

	"go.uber.org/zap"

	"evalgo.org/schemaeditor/models"
)

// CreateBox adds a new box to the schema.
func (u *Updater) CreateBox(box *models.Box) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.validator.ValidateBox(box).Err(); err != nil {
		return err
	}
	if _, ok := u.boxes.Box(box.Name); ok {
		return fmt.Errorf("%w: %s", ErrBoxExists, box.Name)
	}

	u.boxes.PutBox(box)
	u.queue.Enqueue(box, models.OperationAdd)
	u.history.Push(models.NewSnapshot(box.Name, models.ObjectBox, models.SnapshotAdd, nil, box.Clone()))
	u.logger.Info("box created", zap.String("box", box.Name), zap.String("kind", string(box.Kind)))
	return nil
}

// UpdateBox replaces the box called oldName. When the name changes, the
// box document is re-created under the new name and every link and
// dictionary relation referencing the old name follows.
func (u *Updater) UpdateBox(oldName string, box *models.Box) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	prev, ok := u.boxes.Box(oldName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBoxNotFound, oldName)
	}
	if err := u.validator.ValidateBox(box).Err(); err != nil {
		return err
	}
	renamed := box.Name != oldName
	if renamed {
		if _, exists := u.boxes.Box(box.Name); exists {
			return fmt.Errorf("%w: %s", ErrBoxExists, box.Name)
		}
	}

	u.boxes.ReplaceBox(oldName, box)
	if renamed {
		u.enqueueRemoval(prev)
		u.queue.Enqueue(box, models.OperationAdd)
	} else {
		u.queue.Enqueue(box, u.opFor(box.Name, false))
	}
	u.history.Push(models.NewSnapshot(oldName, models.ObjectBox, models.SnapshotChange, prev, box.Clone()))

	if !renamed {
		return nil
	}
	err := u.renameBox(oldName, box.Name)
	if u.dicts.RenameBox(oldName, box.Name) {
		u.writeDictionaryRelations()
	}
	return err
}

// DeleteBox removes the box and its dictionary relations. Links that
// reference it are kept and show up as invalid until deleted.
func (u *Updater) DeleteBox(name string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	prev, ok := u.boxes.RemoveBox(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBoxNotFound, name)
	}
	u.enqueueRemoval(prev)
	u.history.Push(models.NewSnapshot(name, models.ObjectBox, models.SnapshotRemove, prev.Clone(), nil))
	if u.dicts.RemoveBox(name) {
		u.writeDictionaryRelations()
	}
	u.logger.Info("box deleted", zap.String("box", name))
	return nil
}

// CreateDictionary adds a new dictionary to the schema.
func (u *Updater) CreateDictionary(dict *models.Dictionary) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.validator.ValidateDictionary(dict).Err(); err != nil {
		return err
	}
	if _, ok := u.boxes.Dictionary(dict.Name); ok {
		return fmt.Errorf("%w: %s", ErrDictionaryExists, dict.Name)
	}

	u.boxes.PutDictionary(dict)
	u.queue.Enqueue(dict, models.OperationAdd)
	u.history.Push(models.NewSnapshot(dict.Name, models.ObjectDictionary, models.SnapshotAdd, nil, dict.Clone()))
	return nil
}

// UpdateDictionary replaces the dictionary called oldName. A rename is
// carried into every relation that references it.
func (u *Updater) UpdateDictionary(oldName string, dict *models.Dictionary) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	prev, ok := u.boxes.Dictionary(oldName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDictionaryNotFound, oldName)
	}
	if err := u.validator.ValidateDictionary(dict).Err(); err != nil {
		return err
	}
	renamed := dict.Name != oldName
	if renamed {
		if _, exists := u.boxes.Dictionary(dict.Name); exists {
			return fmt.Errorf("%w: %s", ErrDictionaryExists, dict.Name)
		}
	}

	u.boxes.ReplaceDictionary(oldName, dict)
	if renamed {
		u.enqueueRemoval(prev)
		u.queue.Enqueue(dict, models.OperationAdd)
	} else {
		u.queue.Enqueue(dict, u.opFor(dict.Name, false))
	}
	u.history.Push(models.NewSnapshot(oldName, models.ObjectDictionary, models.SnapshotChange, prev, dict.Clone()))

	if renamed && u.dicts.RenameDictionary(oldName, dict.Name) {
		u.writeDictionaryRelations()
	}
	return nil
}

// DeleteDictionary removes the dictionary and every relation to it.
func (u *Updater) DeleteDictionary(name string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	prev, ok := u.boxes.RemoveDictionary(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDictionaryNotFound, name)
	}
	u.enqueueRemoval(prev)
	u.history.Push(models.NewSnapshot(name, models.ObjectDictionary, models.SnapshotRemove, prev.Clone(), nil))
	if u.dicts.RemoveDictionary(name) {
		u.writeDictionaryRelations()
	}
	return nil
}
