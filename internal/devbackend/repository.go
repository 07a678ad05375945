// Package devbackend is an in-memory schema backend for local development
// and tests. It serves the same HTTP and websocket contract the editor's
// backend client speaks, validates submitted batches, and pushes repository
// updates to subscribers.
package devbackend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"evalgo.org/schemaeditor/internal/backend"
	"evalgo.org/schemaeditor/internal/links"
	"evalgo.org/schemaeditor/internal/validation"
	"evalgo.org/schemaeditor/models"
)

var (
	// ErrSchemaExists is returned when creating a schema twice.
	ErrSchemaExists = errors.New("schema already exists")
	// ErrSchemaNotFound is returned for unknown schema names.
	ErrSchemaNotFound = errors.New("schema not found")
)

// Status values reported on the push channel.
const (
	StatusApplied  = "APPLIED"
	StatusRejected = "REJECTED"
)

type schema struct {
	resources []models.Resource
	commit    string
	status    string
}

func indexOf(resources []models.Resource, name string) int {
	for i, r := range resources {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// Repository holds every schema in memory.
type Repository struct {
	mu        sync.RWMutex
	schemas   map[string]*schema
	validator *validation.Validator
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		schemas:   make(map[string]*schema),
		validator: validation.New(),
	}
}

// List returns the sorted schema names.
func (r *Repository) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Create adds an empty schema. It returns the settings resource every new
// schema starts with.
func (r *Repository) Create(name string) (models.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schemas[name]; ok {
		return models.Resource{}, fmt.Errorf("%w: %s", ErrSchemaExists, name)
	}
	settings := models.Resource{
		Kind: models.KindSettingsFile,
		Name: "schema-settings",
		Spec: []byte(`{}`),
	}
	r.schemas[name] = &schema{resources: []models.Resource{settings}, commit: ulid.Make().String()}
	return settings, nil
}

// Get returns the stored resources of a schema.
func (r *Repository) Get(name string) (*backend.SchemaState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	return &backend.SchemaState{Resources: append([]models.Resource(nil), s.resources...)}, nil
}

// Status returns the last status and commit of a schema.
func (r *Repository) Status(name string) (status, commit string, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[name]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	return s.status, s.commit, nil
}

// Apply validates a batch against the schema and commits it when the
// result is valid. A rejected batch changes nothing and returns the
// validation errors with a nil commit ref.
func (r *Repository) Apply(name string, changes []models.RequestModel) (*backend.SubmitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}

	verrs := &backend.ValidationErrors{}
	next := append([]models.Resource(nil), s.resources...)
	for _, req := range changes {
		next = r.applyOne(next, req, verrs)
	}
	r.checkTopology(next, verrs)

	if !verrs.Empty() {
		s.status = StatusRejected
		return &backend.SubmitResult{ValidationErrors: verrs}, nil
	}

	s.resources = next
	s.commit = ulid.Make().String()
	s.status = StatusApplied
	ref := s.commit
	return &backend.SubmitResult{CommitRef: &ref}, nil
}

func (r *Repository) applyOne(resources []models.Resource, req models.RequestModel, verrs *backend.ValidationErrors) []models.Resource {
	entity := req.Payload
	if entity == nil {
		verrs.ExceptionMessages = append(verrs.ExceptionMessages, backend.ExceptionMessage{Message: "request without payload"})
		return resources
	}
	name := entity.EntityName()

	if req.Operation != models.OperationRemove {
		if result := r.validator.ValidateEntity(entity); !result.Valid {
			reportInvalid(entity, result, verrs)
			return resources
		}
	}

	res, err := models.EncodeEntity(entity)
	if err != nil {
		verrs.ExceptionMessages = append(verrs.ExceptionMessages, backend.ExceptionMessage{Message: err.Error()})
		return resources
	}

	i := indexOf(resources, name)
	switch req.Operation {
	case models.OperationAdd:
		if i >= 0 {
			verrs.ExceptionMessages = append(verrs.ExceptionMessages, backend.ExceptionMessage{
				Message: fmt.Sprintf("resource %s already exists", name),
			})
			return resources
		}
		return append(resources, res)
	case models.OperationUpdate:
		if i < 0 {
			verrs.ExceptionMessages = append(verrs.ExceptionMessages, backend.ExceptionMessage{
				Message: fmt.Sprintf("resource %s does not exist", name),
			})
			return resources
		}
		resources[i] = res
		return resources
	case models.OperationRemove:
		if i < 0 {
			verrs.ExceptionMessages = append(verrs.ExceptionMessages, backend.ExceptionMessage{
				Message: fmt.Sprintf("resource %s does not exist", name),
			})
			return resources
		}
		return append(resources[:i], resources[i+1:]...)
	default:
		verrs.ExceptionMessages = append(verrs.ExceptionMessages, backend.ExceptionMessage{
			Message: fmt.Sprintf("unknown operation %q", req.Operation),
		})
		return resources
	}
}

// reportInvalid files validation failures under the entity they concern.
func reportInvalid(entity models.Entity, result *validation.ValidationResult, verrs *backend.ValidationErrors) {
	for _, e := range result.Errors {
		msg := fmt.Sprintf("%s: %s", e.Field, e.Message)
		switch entity.(type) {
		case *models.Box:
			verrs.BoxResourceErrorMessages = append(verrs.BoxResourceErrorMessages, backend.BoxResourceErrorMessage{
				Box: entity.EntityName(), Message: msg,
			})
		case *models.LinkDefinition:
			verrs.LinkErrorMessages = append(verrs.LinkErrorMessages, backend.LinkErrorMessage{
				LinkName: entity.EntityName(), Message: msg,
			})
		default:
			verrs.ExceptionMessages = append(verrs.ExceptionMessages, backend.ExceptionMessage{
				Message: fmt.Sprintf("%s: %s", entity.EntityName(), msg),
			})
		}
	}
}

// checkTopology reports links whose endpoints name missing boxes or pins.
func (r *Repository) checkTopology(resources []models.Resource, verrs *backend.ValidationErrors) {
	var (
		boxes []*models.Box
		all   []models.ExtendedLink
	)
	for _, res := range resources {
		entity, err := models.DecodeResource(res)
		if err != nil {
			verrs.ExceptionMessages = append(verrs.ExceptionMessages, backend.ExceptionMessage{Message: err.Error()})
			continue
		}
		switch e := entity.(type) {
		case *models.Box:
			boxes = append(boxes, e)
		case *models.LinkDefinition:
			all = append(all, e.ExtendedLinks()...)
		}
	}

	for _, inv := range links.FindInvalidLinks(all, models.BoxesByName(boxes)) {
		for _, lb := range inv.LostBoxes {
			verrs.LinkErrorMessages = append(verrs.LinkErrorMessages, backend.LinkErrorMessage{
				LinkName: inv.Link.Name,
				Message:  fmt.Sprintf("%s box %s does not exist", lb.Direction, lb.Box),
			})
		}
		for _, lp := range inv.LostPins {
			verrs.LinkErrorMessages = append(verrs.LinkErrorMessages, backend.LinkErrorMessage{
				LinkName: inv.Link.Name,
				Message:  fmt.Sprintf("%s pin %s.%s does not exist", lp.Direction, lp.Box, lp.Pin),
			})
		}
	}
}
