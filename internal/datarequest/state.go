package datarequest

import "sync"

// State is the application's standing data request.
type State struct {
	mu  sync.Mutex
	req Request
}

// NewState returns a State holding items.
func NewState(items ...Item) *State { return &State{req: Build(items...)} }

// SetState replaces the request with items. No items resets it.
func (s *State) SetState(items ...Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req = Build(items...)
}

// Patch overlays items on the current request.
func (s *State) Patch(items ...Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.req.clone()
	for _, it := range items {
		it.applyTo(&next)
	}
	s.req = next
}

// Get returns a copy of the current request.
func (s *State) Get() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req.clone()
}
