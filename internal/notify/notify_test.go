package notify

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_AddAssignsID(t *testing.T) {
	s := NewService(0)
	n := s.Add(Notification{Type: TypeAlert, Message: "boom"})

	_, err := ulid.Parse(n.ID)
	require.NoError(t, err)
	assert.False(t, n.Time.IsZero())
	assert.Equal(t, []Notification{n}, s.List())
}

func TestService_Limit(t *testing.T) {
	s := NewService(2)
	s.Add(Notification{Message: "1"})
	s.Add(Notification{Message: "2"})
	s.Add(Notification{Message: "3"})

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "2", list[0].Message)
	assert.Equal(t, "3", list[1].Message)
}

func TestService_Dismiss(t *testing.T) {
	s := NewService(0)
	n := s.Add(Notification{Message: "x"})

	assert.True(t, s.Dismiss(n.ID))
	assert.False(t, s.Dismiss(n.ID))
	assert.Empty(t, s.List())
}

func TestService_Subscribe(t *testing.T) {
	s := NewService(0)

	var got []string
	unsubscribe := s.Subscribe(func(n Notification) { got = append(got, n.Message) })
	s.Add(Notification{Message: "a"})
	unsubscribe()
	s.Add(Notification{Message: "b"})

	assert.Equal(t, []string{"a"}, got)
}
