package pubsub

import "sync"

// Subject fans published values out to subscribers.
type Subject[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]chan T
	nextID uint64
	buffer int
	replay bool
	last   T
	has    bool
	closed bool
}

// NewSubject returns a replaying subject seeded with initial.
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{
		subs:   make(map[uint64]chan T),
		buffer: 1,
		replay: true,
		last:   initial,
		has:    true,
	}
}

// NewBroadcaster returns a non-replaying subject whose subscribers buffer up
// to buffer values.
func NewBroadcaster[T any](buffer int) *Subject[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Subject[T]{
		subs:   make(map[uint64]chan T),
		buffer: buffer,
	}
}

// Publish delivers v to every subscriber without blocking.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.replay {
		s.last, s.has = v, true
	}
	for _, ch := range s.subs {
		deliver(ch, v)
	}
}

// Value returns the latest value of a replaying subject.
func (s *Subject[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.has
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (s *Subject[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan T, s.buffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	if s.replay && s.has {
		ch <- s.last
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// deliver sends v, evicting the oldest buffered value when ch is full.
func deliver[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
