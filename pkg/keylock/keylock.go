package keylock

import "sync"

// Set hands out one mutex per key. Entries are dropped once no goroutine holds
// or waits on them, so the set only grows with the number of active keys.
type Set struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	sync.Mutex
	refs int
}

func New() *Set {
	return &Set{locks: make(map[string]*entry)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (s *Set) Lock(key string) func() {
	s.mu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*entry)
	}
	e, ok := s.locks[key]
	if !ok {
		e = &entry{}
		s.locks[key] = e
	}
	e.refs++
	s.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		s.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

func (s *Set) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
