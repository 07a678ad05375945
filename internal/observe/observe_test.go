package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListeners(t *testing.T) {
	var l Listeners[string]
	var got []string

	remove := l.Add(func(s string) { got = append(got, "a:"+s) })
	l.Add(func(s string) { got = append(got, "b:"+s) })
	assert.Equal(t, 2, l.Len())

	l.Notify("1")
	assert.ElementsMatch(t, []string{"a:1", "b:1"}, got)

	remove()
	got = nil
	l.Notify("2")
	assert.Equal(t, []string{"b:2"}, got)
}

func TestMemo(t *testing.T) {
	var m Memo[int, string]
	calls := 0
	compute := func() string {
		calls++
		return "v"
	}

	assert.Equal(t, "v", m.Get(1, compute))
	assert.Equal(t, "v", m.Get(1, compute))
	assert.Equal(t, 1, calls)

	m.Get(2, compute)
	assert.Equal(t, 2, calls)

	m.Invalidate()
	m.Get(2, compute)
	assert.Equal(t, 3, calls)
}
