// Package postctx holds the original post that generated replies refer to.
package postctx

import "sync"

// Store is a single-value cell for the saved post. The zero value is an
// empty store ready to use.
type Store struct {
	mu   sync.RWMutex
	text string
}

// Set replaces the saved post.
func (s *Store) Set(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

// Get returns the saved post, or "" if none was saved.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// Empty reports whether no post has been saved.
func (s *Store) Empty() bool {
	return s.Get() == ""
}
