package extension

import (
	"sync"

	"dappkit/internal/domain"
)

// inbox queues the messages addressed to one interaction. Pushing never
// blocks and never drops, so a slow reader cannot lose its response to
// traffic for other interactions.
type inbox struct {
	mu     sync.Mutex
	queue  []Incoming
	closed bool
	ready  chan struct{}
}

func newInbox() *inbox { return &inbox{ready: make(chan struct{}, 1)} }

func (b *inbox) push(m Incoming) {
	b.mu.Lock()
	b.queue = append(b.queue, m)
	b.mu.Unlock()
	b.notify()
}

func (b *inbox) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.notify()
}

func (b *inbox) notify() {
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// Ready fires after a push or close.
func (b *inbox) Ready() <-chan struct{} { return b.ready }

// drain takes every queued message, oldest first.
func (b *inbox) drain() ([]Incoming, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := b.queue
	b.queue = nil
	return q, b.closed
}

// inboxes routes incoming messages by interaction id.
type inboxes struct {
	mu     sync.Mutex
	byID   map[domain.InteractionID]map[*inbox]struct{}
	closed bool
}

func newInboxes() *inboxes {
	return &inboxes{byID: make(map[domain.InteractionID]map[*inbox]struct{})}
}

// listen registers an inbox for id. The returned func unregisters it.
func (r *inboxes) listen(id domain.InteractionID) (*inbox, func()) {
	b := newInbox()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		b.close()
		return b, func() {}
	}
	set := r.byID[id]
	if set == nil {
		set = make(map[*inbox]struct{})
		r.byID[id] = set
	}
	set[b] = struct{}{}
	return b, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(set, b)
		if cur, ok := r.byID[id]; ok && len(cur) == 0 {
			delete(r.byID, id)
		}
	}
}

// route hands m to every inbox listening on its interaction. Messages
// nobody waits for are dropped.
func (r *inboxes) route(m Incoming) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.byID[m.InteractionID]
	for b := range set {
		b.push(m)
	}
	return len(set) > 0
}

// closeAll wakes every listener with a closed inbox.
func (r *inboxes) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, set := range r.byID {
		for b := range set {
			b.close()
		}
		delete(r.byID, id)
	}
}
