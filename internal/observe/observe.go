// Package observe provides the small reactive primitives the schema store
// is built from: listener sets for change notification and memoized values
// recomputed only when their dependency key changes.
package observe

import "sync"

// Listeners is a set of callbacks notified with a value of type T.
type Listeners[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

// Add registers fn and returns a function that removes it.
func (l *Listeners[T]) Add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

// Len returns the number of registered listeners.
func (l *Listeners[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}

// Notify calls every listener with v. Listeners run outside the lock and
// may add or remove listeners.
func (l *Listeners[T]) Notify(v T) {
	l.mu.Lock()
	fns := make([]func(T), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Memo caches the result of a pure computation keyed by the identity of
// its inputs.
type Memo[K comparable, V any] struct {
	mu    sync.Mutex
	key   K
	value V
	valid bool
}

// Get returns the cached value when key matches the key of the last
// computation, and otherwise calls compute and caches its result.
func (m *Memo[K, V]) Get(key K, compute func() V) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.key == key {
		return m.value
	}
	m.value = compute()
	m.key = key
	m.valid = true
	return m.value
}

// Invalidate forces the next Get to recompute.
func (m *Memo[K, V]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
}
