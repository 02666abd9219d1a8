package auth

import "sync"

// Session tracks the current identity of one workspace and fans changes out to
// listeners. A nil identity means signed out.
type Session struct {
	mu        sync.RWMutex
	identity  *Identity
	nextID    uint64
	listeners map[uint64]func(*Identity)
}

func NewSession() *Session {
	return &Session{listeners: make(map[uint64]func(*Identity))}
}

func (s *Session) Current() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	cp := *s.identity
	return &cp
}

// Set replaces the identity and notifies listeners.
func (s *Session) Set(identity *Identity) {
	s.mu.Lock()
	if identity != nil {
		cp := *identity
		identity = &cp
	}
	s.identity = identity
	fns := make([]func(*Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(identity)
	}
}

func (s *Session) Clear() {
	s.Set(nil)
}

// OnChange registers fn for identity changes and returns its removal func.
func (s *Session) OnChange(fn func(*Identity)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
