package api

import (
	"time"

	"evalgo.org/schemaeditor/internal/store"
	"evalgo.org/schemaeditor/models"
)

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
}

// StateResponse summarizes the store for the UI header.
type StateResponse struct {
	Schema             string   `json:"schema"`
	Schemas            []string `json:"schemas"`
	Loading            bool     `json:"loading"`
	Status             string   `json:"status,omitempty"`
	Pending            int      `json:"pending"`
	Valid              bool     `json:"valid"`
	SelectedBox        string   `json:"selectedBox,omitempty"`
	SelectedDictionary string   `json:"selectedDictionary,omitempty"`
	HistoryLength      int      `json:"historyLength"`
	HistoryPointer     int      `json:"historyPointer"`
	Search             string   `json:"search,omitempty"`
	Backups            []string `json:"backups,omitempty"`
}

// BoxesResponse represents a page of boxes.
type BoxesResponse struct {
	Count int           `json:"count"`
	Total int           `json:"total"`
	Boxes []*models.Box `json:"boxes"`
}

// HistoryResponse is the undo history and its pointer.
type HistoryResponse struct {
	Snapshots []models.Snapshot `json:"snapshots"`
	Pointer   int               `json:"pointer"`
}

// NameRequest carries a single name.
type NameRequest struct {
	Name string `json:"name"`
}

// RenameRequest renames a box.
type RenameRequest struct {
	Name string `json:"name"`
}

// SearchRequest sets the box search query.
type SearchRequest struct {
	Query string `json:"query"`
}

// DepthRequest sets the resolver depth.
type DepthRequest struct {
	Depth int `json:"depth"`
}

// ChangedResponse reports whether an action had an effect.
type ChangedResponse struct {
	Changed bool `json:"changed"`
}

// CountResponse reports how many items an action touched.
type CountResponse struct {
	Count int `json:"count"`
}

// StateChangedEvent is pushed to websocket clients after store changes.
// Events lists the parts of the state that changed since the last push.
type StateChangedEvent struct {
	Type      string        `json:"type"`
	Events    []store.Event `json:"events"`
	Timestamp time.Time     `json:"timestamp"`
}

// NotificationEvent is pushed to websocket clients for every notification.
type NotificationEvent struct {
	Type         string      `json:"type"`
	Notification interface{} `json:"notification"`
	Timestamp    time.Time   `json:"timestamp"`
}

const (
	eventStateChanged = "state_changed"
	eventNotification = "notification"
)
