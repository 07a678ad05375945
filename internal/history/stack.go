// Package history keeps the undo/redo stack of structural edits.
//
// The stack only does bookkeeping: undo and redo hand back snapshots, and
// applying their inverse is up to the caller.
package history

import (
	"sync"

	"evalgo.org/schemaeditor/models"
)

// Stack is a single linear list of snapshots with a cursor. The cursor
// points at the last applied snapshot; -1 means there is nothing to undo.
// A limit above zero bounds the number of kept snapshots, dropping the
// oldest first.
type Stack struct {
	mu      sync.Mutex
	entries []models.Snapshot
	pointer int
	limit   int
}

// New creates an empty stack. A limit of 0 keeps every snapshot.
func New(limit int) *Stack {
	return &Stack{pointer: -1, limit: limit}
}

// Push records a snapshot. Any undone snapshots after the cursor are
// discarded first.
func (s *Stack) Push(snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pointer < len(s.entries)-1 {
		s.entries = s.entries[:s.pointer+1]
	}
	s.entries = append(s.entries, snap)
	s.pointer = len(s.entries) - 1

	if s.limit > 0 && len(s.entries) > s.limit {
		drop := len(s.entries) - s.limit
		s.entries = append([]models.Snapshot(nil), s.entries[drop:]...)
		s.pointer -= drop
	}
}

// Undo returns the snapshot under the cursor and moves the cursor back.
// It returns false when there is nothing to undo.
func (s *Stack) Undo() (models.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pointer < 0 {
		return models.Snapshot{}, false
	}
	snap := s.entries[s.pointer]
	s.pointer--
	return snap, true
}

// Redo moves the cursor forward and returns the snapshot it lands on.
// It returns false when the cursor is already at the top.
func (s *Stack) Redo() (models.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pointer >= len(s.entries)-1 {
		return models.Snapshot{}, false
	}
	s.pointer++
	return s.entries[s.pointer], true
}

// Entries returns a copy of every kept snapshot, oldest first.
func (s *Stack) Entries() []models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Snapshot(nil), s.entries...)
}

// Pointer returns the cursor position.
func (s *Stack) Pointer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer
}

// CanUndo reports whether Undo would return a snapshot.
func (s *Stack) CanUndo() bool {
	return s.Pointer() >= 0
}

// CanRedo reports whether Redo would return a snapshot.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer < len(s.entries)-1
}

// Len returns the number of kept snapshots.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reset drops every snapshot.
func (s *Stack) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.pointer = -1
}
