package updater

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"evalgo.org/schemaeditor/models"
)

// checkLink rejects links that cannot be persisted.
func checkLink(link models.ExtendedLink) error {
	if link.From == nil {
		return ErrFromEndpointRequired
	}
	if link.To == nil {
		return ErrToEndpointRequired
	}
	if link.Name == "" {
		return ErrLinkNameRequired
	}
	if ct := link.ConnectionType(); !ct.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownConnectionType, ct)
	}
	return nil
}

// normalize stamps both endpoints with the link's connection type.
func normalize(link models.ExtendedLink) models.ExtendedLink {
	return models.ToExtended(models.ToPlain(link), link.ConnectionType())
}

// findLink locates the named link in the bucket for ct. An unknown
// connection type searches both buckets.
func (u *Updater) findLink(name string, ct models.ConnectionType) (*models.LinkDefinition, models.ConnectionType, int) {
	cts := []models.ConnectionType{ct}
	if !ct.Valid() {
		cts = []models.ConnectionType{models.ConnectionMQ, models.ConnectionGRPC}
	}
	for _, c := range cts {
		for _, d := range u.defs {
			if i := d.IndexOfLink(c, name); i >= 0 {
				return d, c, i
			}
		}
	}
	return nil, "", -1
}

// AddLink appends the link to the editor-generated links document.
func (u *Updater) AddLink(link models.ExtendedLink) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.addLink(link, true)
}

// RestoreLink adds a link back without recording history.
func (u *Updater) RestoreLink(link models.ExtendedLink) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.addLink(link, false)
}

func (u *Updater) addLink(link models.ExtendedLink, record bool) error {
	if err := checkLink(link); err != nil {
		return err
	}
	link = normalize(link)
	ct := link.ConnectionType()
	if doc, _, _ := u.findLink(link.Name, ct); doc != nil {
		return fmt.Errorf("%w: %s in %s", ErrLinkExists, link.Name, doc.Name)
	}

	doc, created := u.editorDocument()
	bucket := doc.Spec.BoxesRelation.Bucket(ct)
	*bucket = append(*bucket, models.ToPlain(link))
	u.enqueueDocument(doc, created)

	if record {
		u.history.Push(models.NewSnapshot(link.Name, models.ObjectLink, models.SnapshotAdd, nil, link))
	}
	u.logger.Debug("link added",
		zap.String("link", link.Name),
		zap.String("connection_type", string(ct)),
		zap.Bool("document_created", created))
	return nil
}

// DeleteLink removes the same-named link from whichever document holds it.
// It reports false, and records nothing, when no document holds the link.
func (u *Updater) DeleteLink(link models.ExtendedLink) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.deleteLink(link, true)
	return ok
}

func (u *Updater) deleteLink(link models.ExtendedLink, record bool) (models.ExtendedLink, bool) {
	doc, ct, i := u.findLink(link.Name, link.ConnectionType())
	if doc == nil {
		return models.ExtendedLink{}, false
	}

	bucket := doc.Spec.BoxesRelation.Bucket(ct)
	removed := models.ToExtended((*bucket)[i], ct)
	*bucket = append((*bucket)[:i], (*bucket)[i+1:]...)
	u.enqueueDocument(doc, false)

	if record {
		u.history.Push(models.NewSnapshot(removed.Name, models.ObjectLink, models.SnapshotRemove, removed, nil))
	}
	u.logger.Debug("link deleted", zap.String("link", removed.Name), zap.String("document", doc.Name))
	return removed, true
}

// ChangeLink replaces oldLink with newLink and records a single change
// snapshot. The new link is checked before anything is touched, so a
// rejected change leaves the old link in place.
func (u *Updater) ChangeLink(oldLink, newLink models.ExtendedLink) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.changeLink(oldLink, newLink)
}

func (u *Updater) changeLink(oldLink, newLink models.ExtendedLink) error {
	if err := checkLink(newLink); err != nil {
		return err
	}
	newLink = normalize(newLink)

	oldDoc, oldCt, oldIdx := u.findLink(oldLink.Name, oldLink.ConnectionType())
	if doc, ct, i := u.findLink(newLink.Name, newLink.ConnectionType()); doc != nil {
		if doc != oldDoc || ct != oldCt || i != oldIdx {
			return fmt.Errorf("%w: %s in %s", ErrLinkExists, newLink.Name, doc.Name)
		}
	}

	removed, found := u.deleteLink(oldLink, false)
	if err := u.addLink(newLink, false); err != nil {
		if found {
			bucket := oldDoc.Spec.BoxesRelation.Bucket(oldCt)
			*bucket = append((*bucket)[:oldIdx], append([]models.Link{models.ToPlain(removed)}, (*bucket)[oldIdx:]...)...)
			u.enqueueDocument(oldDoc, false)
		}
		return err
	}

	from := normalize(oldLink)
	if found {
		from = removed
	}
	u.history.Push(models.Snapshot{
		Object:     oldLink.Name,
		Type:       models.ObjectLink,
		Operation:  models.SnapshotChange,
		ChangeList: []models.Change{{Object: oldLink.Name, From: from, To: newLink}},
	})
	return nil
}

// RenameBox points every link endpoint on box oldName at newName. Each
// affected link goes through ChangeLink, so N links produce N change
// snapshots.
func (u *Updater) RenameBox(oldName, newName string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.renameBox(oldName, newName)
}

func (u *Updater) renameBox(oldName, newName string) error {
	var errs []error
	changed := 0
	for _, l := range u.allLinks() {
		from := l.From != nil && l.From.Box == oldName
		to := l.To != nil && l.To.Box == oldName
		if !from && !to {
			continue
		}

		updated := l.Clone()
		if from {
			updated.From.Box = newName
		}
		if to {
			updated.To.Box = newName
		}
		if err := u.changeLink(l, updated); err != nil {
			errs = append(errs, fmt.Errorf("link %s: %w", l.Name, err))
			continue
		}
		changed++
	}

	u.logger.Info("box links renamed",
		zap.String("from", oldName),
		zap.String("to", newName),
		zap.Int("links", changed))
	return errors.Join(errs...)
}
