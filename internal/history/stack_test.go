package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/schemaeditor/models"
)

func snap(name string) models.Snapshot {
	return models.NewSnapshot(name, models.ObjectBox, models.SnapshotAdd, nil, name)
}

func TestStack_UndoEmpty(t *testing.T) {
	s := New(0)
	_, ok := s.Undo()
	assert.False(t, ok)
	_, ok = s.Redo()
	assert.False(t, ok)
	assert.Equal(t, -1, s.Pointer())
}

func TestStack_PushAfterUndoTruncatesFuture(t *testing.T) {
	s := New(0)
	s.Push(snap("A"))
	s.Push(snap("B"))

	undone, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, "B", undone.Object)
	assert.Equal(t, 0, s.Pointer())

	s.Push(snap("C"))

	_, ok = s.Redo()
	assert.False(t, ok, "future must be truncated")

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].Object)
	assert.Equal(t, "C", entries[1].Object)
}

func TestStack_UndoRedoWalk(t *testing.T) {
	s := New(0)
	s.Push(snap("A"))
	s.Push(snap("B"))

	b, _ := s.Undo()
	a, _ := s.Undo()
	_, ok := s.Undo()
	assert.Equal(t, "B", b.Object)
	assert.Equal(t, "A", a.Object)
	assert.False(t, ok)
	assert.False(t, s.CanUndo())
	assert.True(t, s.CanRedo())

	a, _ = s.Redo()
	b, _ = s.Redo()
	_, ok = s.Redo()
	assert.Equal(t, "A", a.Object)
	assert.Equal(t, "B", b.Object)
	assert.False(t, ok)
}

func TestStack_Limit(t *testing.T) {
	s := New(2)
	s.Push(snap("A"))
	s.Push(snap("B"))
	s.Push(snap("C"))

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[0].Object)
	assert.Equal(t, 1, s.Pointer())

	c, _ := s.Undo()
	b, _ := s.Undo()
	_, ok := s.Undo()
	assert.Equal(t, "C", c.Object)
	assert.Equal(t, "B", b.Object)
	assert.False(t, ok)
}

func TestStack_Reset(t *testing.T) {
	s := New(0)
	s.Push(snap("A"))
	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.CanUndo())
}
