// Package backend defines the contract between the schema store and the
// service that persists schemas, and provides an HTTP and websocket client
// for it.
package backend

import (
	"context"
	"errors"
	"fmt"

	"evalgo.org/schemaeditor/models"
)

var (
	// ErrUnauthorized is wrapped by errors for 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is wrapped by errors for 404 responses.
	ErrNotFound = errors.New("not found")
)

// Backend is the network contract the schema store consumes.
type Backend interface {
	ListSchemas(ctx context.Context) ([]string, error)
	FetchSchemaState(ctx context.Context, name string) (*SchemaState, error)
	CreateSchema(ctx context.Context, name string) (*models.Resource, error)
	SubmitChanges(ctx context.Context, name string, changes []models.RequestModel) (*SubmitResult, error)
	// Subscribe streams push events for the schema until ctx is done. The
	// channel is closed when the subscription ends.
	Subscribe(ctx context.Context, name string) (<-chan Event, error)
}

// SchemaState is the stored content of a schema.
type SchemaState struct {
	Resources        []models.Resource `json:"resources"`
	ValidationErrors *ValidationErrors `json:"validationErrors,omitempty"`
}

// Entities decodes every resource into its entity variant.
func (s *SchemaState) Entities() ([]models.Entity, error) {
	out := make([]models.Entity, 0, len(s.Resources))
	for _, r := range s.Resources {
		e, err := models.DecodeResource(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// LinkErrorMessage is a validation error about one link.
type LinkErrorMessage struct {
	LinkName string `json:"linkName"`
	Message  string `json:"message"`
}

// BoxResourceErrorMessage is a validation error about one box.
type BoxResourceErrorMessage struct {
	Box     string `json:"box"`
	Message string `json:"message"`
}

// ExceptionMessage is a validation error not tied to an entity.
type ExceptionMessage struct {
	Message string `json:"message"`
}

// ValidationErrors itemizes why the backend did not accept a schema.
type ValidationErrors struct {
	LinkErrorMessages        []LinkErrorMessage        `json:"linkErrorMessages,omitempty"`
	BoxResourceErrorMessages []BoxResourceErrorMessage `json:"boxResourceErrorMessages,omitempty"`
	ExceptionMessages        []ExceptionMessage        `json:"exceptionMessages,omitempty"`
}

// Empty reports whether v carries no errors. A nil v is empty.
func (v *ValidationErrors) Empty() bool {
	return v == nil ||
		len(v.LinkErrorMessages) == 0 && len(v.BoxResourceErrorMessages) == 0 && len(v.ExceptionMessages) == 0
}

// SubmitResult is the backend answer to a change batch. A nil CommitRef
// means nothing was committed.
type SubmitResult struct {
	CommitRef        *string           `json:"commitRef"`
	ValidationErrors *ValidationErrors `json:"validationErrors,omitempty"`
}

// EventType names a push event.
type EventType string

const (
	EventStatusUpdate     EventType = "statusUpdate"
	EventRepositoryUpdate EventType = "repositoryUpdate"
	// EventReconnected is emitted by the client after the push channel came
	// back from a drop. Events may have been missed while it was down.
	EventReconnected EventType = "reconnected"
)

// Event is one message on the push channel.
type Event struct {
	Type   EventType `json:"type"`
	Name   string    `json:"name,omitempty"`
	Status string    `json:"status,omitempty"`
}

// HTTPError is returned for responses outside the 2xx range.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("backend returned %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("backend returned %s", e.Status)
}

// Unwrap maps well-known status codes onto sentinel errors.
func (e *HTTPError) Unwrap() error {
	switch e.StatusCode {
	case 401, 403:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	}
	return nil
}
