// Package updater applies structural edits to a loaded schema.
//
// It owns the link definition documents of the schema, mutates boxes and
// dictionaries through the registry, records every structural edit in the
// history stack and stages the resulting entity documents in the requests
// queue. Links the editor creates always go to the editor-generated links
// document so user-authored link documents are only ever shrunk or cleared,
// never extended.
package updater

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"evalgo.org/schemaeditor/internal/dictlinks"
	"evalgo.org/schemaeditor/internal/history"
	"evalgo.org/schemaeditor/internal/registry"
	"evalgo.org/schemaeditor/internal/requests"
	"evalgo.org/schemaeditor/internal/validation"
	"evalgo.org/schemaeditor/models"
)

var (
	ErrFromEndpointRequired  = errors.New("from endpoint required")
	ErrToEndpointRequired    = errors.New("to endpoint required")
	ErrLinkNameRequired      = errors.New("link name required")
	ErrUnknownConnectionType = errors.New("unknown connection type")
	ErrLinkExists            = errors.New("link already exists")
	ErrBoxExists             = errors.New("box already exists")
	ErrBoxNotFound           = errors.New("box not found")
	ErrDictionaryExists      = errors.New("dictionary already exists")
	ErrDictionaryNotFound    = errors.New("dictionary not found")
)

// Updater mutates the state of one schema. All exported methods are atomic
// with respect to each other.
type Updater struct {
	mu sync.Mutex

	defs    []*models.LinkDefinition
	others  []*models.GenericResource
	version uint64

	boxes     *registry.Registry
	dicts     *dictlinks.Store
	history   *history.Stack
	queue     *requests.Queue
	validator *validation.Validator
	logger    *zap.Logger
}

// New creates an updater working on the given stores. A nil logger
// disables logging.
func New(boxes *registry.Registry, dicts *dictlinks.Store, hist *history.Stack, queue *requests.Queue, logger *zap.Logger) *Updater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Updater{
		boxes:     boxes,
		dicts:     dicts,
		history:   hist,
		queue:     queue,
		validator: validation.New(),
		logger:    logger,
	}
}

// Load replaces the schema state. Link definitions and other documents are
// copied; boxes and dictionaries go to the registry.
func (u *Updater) Load(schema models.Schema) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.boxes.Load(schema.Boxes, schema.Dictionaries)

	u.defs = make([]*models.LinkDefinition, 0, len(schema.LinkDefinitions))
	for _, d := range schema.LinkDefinitions {
		u.defs = append(u.defs, d.Clone())
	}
	u.others = make([]*models.GenericResource, 0, len(schema.Other))
	for _, o := range schema.Other {
		u.others = append(u.others, models.CloneEntity(o).(*models.GenericResource))
	}
	u.dicts.Load(u.defs)
	u.version++
}

// Version increments on every change to the link definition documents.
func (u *Updater) Version() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.version
}

// LinkDefinitions returns copies of the link definition documents.
func (u *Updater) LinkDefinitions() []*models.LinkDefinition {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]*models.LinkDefinition, len(u.defs))
	for i, d := range u.defs {
		out[i] = d.Clone()
	}
	return out
}

// Others returns copies of the documents whose kind the editor does not model.
func (u *Updater) Others() []*models.GenericResource {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]*models.GenericResource, len(u.others))
	for i, o := range u.others {
		out[i] = models.CloneEntity(o).(*models.GenericResource)
	}
	return out
}

// Links returns every link of the schema in extended form.
func (u *Updater) Links() []models.ExtendedLink {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.allLinks()
}

func (u *Updater) allLinks() []models.ExtendedLink {
	var out []models.ExtendedLink
	for _, d := range u.defs {
		out = append(out, d.ExtendedLinks()...)
	}
	return out
}

// EnqueueEntity applies an arbitrary entity mutation locally and stages it
// for submission. It reports whether the queue changed.
func (u *Updater) EnqueueEntity(entity models.Entity, op models.Operation) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.apply(models.RequestModel{Operation: op, Payload: entity}); err != nil {
		return false, err
	}
	return u.queue.Enqueue(entity, op), nil
}

// Apply replays a request on the local state without queueing it. It is
// used to put pending edits back on top of freshly fetched state.
func (u *Updater) Apply(req models.RequestModel) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.apply(req)
}

func (u *Updater) apply(req models.RequestModel) error {
	remove := req.Operation == models.OperationRemove

	switch e := req.Payload.(type) {
	case *models.Box:
		if remove {
			u.boxes.RemoveBox(e.Name)
		} else {
			u.boxes.PutBox(e)
		}
	case *models.Dictionary:
		if remove {
			u.boxes.RemoveDictionary(e.Name)
		} else {
			u.boxes.PutDictionary(e)
		}
	case *models.LinkDefinition:
		i := u.defIndex(e.Name)
		switch {
		case remove && i >= 0:
			u.defs = append(u.defs[:i], u.defs[i+1:]...)
		case remove:
		case i >= 0:
			u.defs[i] = e.Clone()
		default:
			u.defs = append(u.defs, e.Clone())
		}
		u.dicts.Load(u.defs)
		u.version++
	case *models.GenericResource:
		i := -1
		for j, o := range u.others {
			if o.Name == e.Name {
				i = j
				break
			}
		}
		clone := models.CloneEntity(e).(*models.GenericResource)
		switch {
		case remove && i >= 0:
			u.others = append(u.others[:i], u.others[i+1:]...)
		case remove:
		case i >= 0:
			u.others[i] = clone
		default:
			u.others = append(u.others, clone)
		}
	default:
		return fmt.Errorf("apply %s: unsupported entity %T", req.Operation, req.Payload)
	}
	return nil
}

func (u *Updater) defIndex(name string) int {
	for i, d := range u.defs {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// editorDocument returns the editor-generated links document, creating it
// when the schema has none yet.
func (u *Updater) editorDocument() (doc *models.LinkDefinition, created bool) {
	if i := u.defIndex(models.EditorLinksName); i >= 0 {
		doc = u.defs[i]
		if doc.Spec.BoxesRelation == nil {
			doc.Spec.BoxesRelation = &models.BoxesRelation{}
		}
		return doc, false
	}
	doc = models.NewLinkDefinition(models.EditorLinksName)
	u.defs = append(u.defs, doc)
	return doc, true
}

// opFor picks the request operation for a document that now holds new
// content. A document the backend has not seen yet stays an add.
func (u *Updater) opFor(name string, created bool) models.Operation {
	if created {
		return models.OperationAdd
	}
	if req, ok := u.queue.Pending(name); ok && req.Operation == models.OperationAdd {
		return models.OperationAdd
	}
	return models.OperationUpdate
}

func (u *Updater) enqueueDocument(doc *models.LinkDefinition, created bool) {
	u.queue.Enqueue(doc, u.opFor(doc.Name, created))
	u.version++
}

// enqueueRemoval stages the removal of an entity. An entity the backend
// never saw only loses its pending add.
func (u *Updater) enqueueRemoval(e models.Entity) {
	if req, ok := u.queue.Pending(e.EntityName()); ok && req.Operation == models.OperationAdd {
		u.queue.Drop(e.EntityName())
		return
	}
	u.queue.Enqueue(e, models.OperationRemove)
}
