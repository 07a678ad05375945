// Package notify collects user-facing notifications raised by the schema
// store. A Service is created once by the application and passed to every
// component that reports to the user.
package notify

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Type classifies a notification.
type Type string

const (
	// TypeLinkError is a backend validation error about a link.
	TypeLinkError Type = "link-error"
	// TypeBoxResourceError is a backend validation error about a box.
	TypeBoxResourceError Type = "box-resource-error"
	// TypeException is any other backend validation error.
	TypeException Type = "exception"
	// TypeAlert is a blocking failure such as a transport error.
	TypeAlert Type = "alert"
	TypeInfo  Type = "info"
)

// Notification is one message for the user.
type Notification struct {
	ID      string    `json:"id"`
	Type    Type      `json:"type"`
	Message string    `json:"message"`
	Box     string    `json:"box,omitempty"`
	Link    string    `json:"link,omitempty"`
	Schema  string    `json:"schema,omitempty"`
	Time    time.Time `json:"time"`
}

// Service stores notifications in arrival order and fans them out to
// subscribers.
type Service struct {
	mu          sync.Mutex
	items       []Notification
	limit       int
	subscribers map[int]func(Notification)
	nextSub     int
}

// NewService creates a service keeping at most limit notifications.
// A limit of zero or less keeps everything.
func NewService(limit int) *Service {
	return &Service{
		limit:       limit,
		subscribers: make(map[int]func(Notification)),
	}
}

// Add records n, assigning an ID and time when missing, and returns the
// stored notification.
func (s *Service) Add(n Notification) Notification {
	if n.ID == "" {
		n.ID = ulid.Make().String()
	}
	if n.Time.IsZero() {
		n.Time = time.Now()
	}

	s.mu.Lock()
	s.items = append(s.items, n)
	if s.limit > 0 && len(s.items) > s.limit {
		s.items = append([]Notification(nil), s.items[len(s.items)-s.limit:]...)
	}
	subs := make([]func(Notification), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
	return n
}

// List returns the stored notifications, oldest first.
func (s *Service) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.items...)
}

// Dismiss removes the notification with the given ID.
func (s *Service) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops every notification.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Subscribe registers fn for every future notification. The returned
// function unregisters it.
func (s *Service) Subscribe(fn func(Notification)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}
