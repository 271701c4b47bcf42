package engine

import "sync"

// Shared guards a Render. The audio thread only ever tries the lock; the
// control thread takes it for structural edits.
type Shared struct {
	mu     sync.Mutex
	render *Render
}

// NewShared wraps r.
func NewShared(r *Render) *Shared { return &Shared{render: r} }

// With runs fn with the lock held, blocking until it is available.
func (s *Shared) With(fn func(*Render) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.render)
}

// TryWith runs fn only if the lock is free and reports whether it ran.
func (s *Shared) TryWith(fn func(*Render)) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	fn(s.render)
	return true
}

// TryProcess applies pending messages and renders out if the lock is
// free. It reports false when out was left untouched.
func (s *Shared) TryProcess(out []float32) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	s.render.ParseMessages()
	s.render.Process(out)
	return true
}
