package paging

import (
	"sync"
)

// Sessions hands out one pager per logical session key (the authenticated
// user ID). The pager is the only mutable shared state in the workflow core
// and is never shared across sessions.
type Sessions struct {
	mu     sync.Mutex
	make   func() *Pager
	pagers map[string]*Pager
}

// NewSessions creates a registry whose pagers are built by make.
func NewSessions(make func() *Pager) *Sessions {
	return &Sessions{
		make:   make,
		pagers: map[string]*Pager{},
	}
}

// Get returns the pager for key, creating it on first use.
func (s *Sessions) Get(key string) *Pager {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pagers[key]
	if !ok {
		p = s.make()
		s.pagers[key] = p
	}
	return p
}

// InvalidateAll drops cached pages in every session's pager, used after a
// write so each listing refetches on next render.
func (s *Sessions) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pagers {
		p.Invalidate()
	}
}
