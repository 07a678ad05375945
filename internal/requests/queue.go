// Package requests batches the entity mutations that wait to be submitted to
// the backend.
package requests

import (
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"evalgo.org/schemaeditor/models"
)

// Queue holds at most one pending request per entity name. A newer request
// for a name supersedes the older one, whatever its operation. Enqueuing a
// request identical to the queued one for that name is a no-op.
type Queue struct {
	mu    sync.Mutex
	items []models.RequestModel
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue stages op on entity. It reports whether the queue changed.
func (q *Queue) Enqueue(entity models.Entity, op models.Operation) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	name := entity.EntityName()
	for _, r := range q.items {
		if r.Payload.EntityName() == name && r.Operation == op && samePayload(r.Payload, entity) {
			return false
		}
	}

	kept := q.items[:0]
	for _, r := range q.items {
		if r.Payload.EntityName() != name {
			kept = append(kept, r)
		}
	}
	q.items = append(kept, models.RequestModel{
		Operation: op,
		Payload:   models.CloneEntity(entity),
	})
	return true
}

// Pending returns the queued request for the named entity.
func (q *Queue) Pending(name string) (models.RequestModel, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, r := range q.items {
		if r.Payload.EntityName() == name {
			return r, true
		}
	}
	return models.RequestModel{}, false
}

// Requests returns a copy of the queued requests in submission order.
func (q *Queue) Requests() []models.RequestModel {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.RequestModel(nil), q.items...)
}

// Len returns the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear drops every pending request.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

func samePayload(a, b models.Entity) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}

// Drop removes the pending request for the named entity. It reports whether
// one was queued.
func (q *Queue) Drop(name string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, r := range q.items {
		if r.Payload.EntityName() == name {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Ack removes the submitted requests that are still queued unchanged.
// Requests superseded while the submission was in flight stay queued.
// It returns the number of requests removed.
func (q *Queue) Ack(submitted []models.RequestModel) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	kept := q.items[:0]
	for _, r := range q.items {
		if containsRequest(submitted, r) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	q.items = kept
	return removed
}

func containsRequest(list []models.RequestModel, r models.RequestModel) bool {
	for _, s := range list {
		if s.Operation == r.Operation && s.Payload.EntityName() == r.Payload.EntityName() && samePayload(s.Payload, r.Payload) {
			return true
		}
	}
	return false
}
