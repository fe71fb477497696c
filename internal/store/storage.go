package store

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"dappkit/internal/domain"
	"dappkit/internal/pubsub"
)

// Partition names used under a dApp prefix.
const (
	PartitionRequests           = "requests"
	PartitionState              = "state"
	PartitionIdentities         = "identities"
	PartitionSessions           = "sessions"
	PartitionWalletResponses    = "walletResponses"
	PartitionConnectorExtension = "connectorExtension"
)

const keySeparator = ":"

// changeBuffer bounds how many undelivered changes a subscriber may lag.
const changeBuffer = 64

// Change is one write observed on the backend.
type Change struct {
	Key      string
	OldValue json.RawMessage
	NewValue json.RawMessage
}

// root is shared by a Storage and every partition derived from it.
type root struct {
	backend domain.KeyValueBackend
	mu      sync.Mutex
	changes *pubsub.Subject[Change]
	log     zerolog.Logger
}

// Storage is a key holding either one state value or a record of items keyed
// by id. Partitions share the root's lock, so every read-modify-write is
// atomic within the process.
type Storage struct {
	root *root
	key  string
}

// Option configures a Storage.
type Option func(*root)

// WithLogger sets the logger used for storage diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(r *root) { r.log = l.With().Str("component", "store").Logger() }
}

// New returns the Storage for prefix over backend.
func New(backend domain.KeyValueBackend, prefix string, opts ...Option) *Storage {
	r := &root{
		backend: backend,
		changes: pubsub.NewBroadcaster[Change](changeBuffer),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return &Storage{root: r, key: prefix}
}

// Key returns the backend key of this storage.
func (s *Storage) Key() string { return s.key }

// Partition returns the child storage name under this key.
func (s *Storage) Partition(name string) *Storage {
	return &Storage{root: s.root, key: s.key + keySeparator + name}
}

// Subscribe delivers every change written through any storage sharing this
// root. Subscribers lagging more than a fixed buffer lose the oldest changes.
func (s *Storage) Subscribe() (<-chan Change, func()) { return s.root.changes.Subscribe() }

// GetState decodes the state value into out, reporting whether it exists.
func (s *Storage) GetState(ctx context.Context, out any) (bool, error) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	raw, err := s.read(ctx)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, &Error{Reason: ReasonDecode, Key: s.key, Err: err}
	}
	return true, nil
}

// SetState replaces the state value.
func (s *Storage) SetState(ctx context.Context, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &Error{Reason: ReasonEncode, Key: s.key, Err: err}
	}

	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	old, err := s.read(ctx)
	if err != nil {
		return err
	}
	return s.write(ctx, s.key, old, raw)
}

// GetItems returns every item, undecoded.
func (s *Storage) GetItems(ctx context.Context) (map[string]json.RawMessage, error) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	return s.readItems(ctx)
}

// SetItems upserts items by id.
func (s *Storage) SetItems(ctx context.Context, items map[string]any) error {
	encoded := make(map[string]json.RawMessage, len(items))
	for id, v := range items {
		raw, err := json.Marshal(v)
		if err != nil {
			return &Error{Reason: ReasonEncode, Key: s.key, Err: err}
		}
		encoded[id] = raw
	}

	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	current, err := s.readItems(ctx)
	if err != nil {
		return err
	}
	for id, raw := range encoded {
		current[id] = raw
	}
	return s.writeItems(ctx, current)
}

// GetItemByID decodes the item id into out, reporting whether it exists.
func (s *Storage) GetItemByID(ctx context.Context, id string, out any) (bool, error) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	items, err := s.readItems(ctx)
	if err != nil {
		return false, err
	}
	raw, ok := items[id]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, &Error{Reason: ReasonDecode, Key: s.key, Err: err}
	}
	return true, nil
}

// RemoveItemByID deletes the item id. Removing a missing item is a no-op.
func (s *Storage) RemoveItemByID(ctx context.Context, id string) error {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	items, err := s.readItems(ctx)
	if err != nil {
		return err
	}
	if _, ok := items[id]; !ok {
		return nil
	}
	delete(items, id)
	return s.writeItems(ctx, items)
}

// PatchItem shallow-merges the JSON fields of patch into the item id.
func (s *Storage) PatchItem(ctx context.Context, id string, patch any) error {
	fields, err := json.Marshal(patch)
	if err != nil {
		return &Error{Reason: ReasonEncode, Key: s.key, Err: err}
	}
	return s.UpdateItem(ctx, id, func(raw json.RawMessage) (json.RawMessage, error) {
		merged := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &merged); err != nil {
			return nil, &Error{Reason: ReasonDecode, Key: s.key, Err: err}
		}
		over := map[string]json.RawMessage{}
		if err := json.Unmarshal(fields, &over); err != nil {
			return nil, &Error{Reason: ReasonEncode, Key: s.key, Err: err}
		}
		for k, v := range over {
			merged[k] = v
		}
		return json.Marshal(merged)
	})
}

// UpdateItem atomically replaces the item id with fn's result. A nil result
// leaves the item untouched. Missing items fail with ReasonNotFound.
func (s *Storage) UpdateItem(
	ctx context.Context,
	id string,
	fn func(raw json.RawMessage) (json.RawMessage, error),
) error {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	items, err := s.readItems(ctx)
	if err != nil {
		return err
	}
	raw, ok := items[id]
	if !ok {
		return &Error{Reason: ReasonNotFound, Key: s.key + keySeparator + id}
	}
	next, err := fn(raw)
	if err != nil || next == nil {
		return err
	}
	items[id] = next
	return s.writeItems(ctx, items)
}

// Clear removes this key and every key nested under it.
func (s *Storage) Clear(ctx context.Context) error {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	keys, err := s.root.backend.Keys(ctx, s.key)
	if err != nil {
		return &Error{Reason: ReasonRead, Key: s.key, Err: err}
	}
	for _, k := range keys {
		if k != s.key && !strings.HasPrefix(k, s.key+keySeparator) {
			continue
		}
		old, _, err := s.root.backend.Get(ctx, k)
		if err != nil {
			return &Error{Reason: ReasonRead, Key: k, Err: err}
		}
		if err := s.root.backend.Delete(ctx, k); err != nil {
			return &Error{Reason: ReasonWrite, Key: k, Err: err}
		}
		s.root.changes.Publish(Change{Key: k, OldValue: old})
	}
	return nil
}

func (s *Storage) read(ctx context.Context) (json.RawMessage, error) {
	b, ok, err := s.root.backend.Get(ctx, s.key)
	if err != nil {
		return nil, &Error{Reason: ReasonRead, Key: s.key, Err: err}
	}
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (s *Storage) readItems(ctx context.Context) (map[string]json.RawMessage, error) {
	raw, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	items := map[string]json.RawMessage{}
	if raw == nil {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &Error{Reason: ReasonDecode, Key: s.key, Err: err}
	}
	return items, nil
}

func (s *Storage) writeItems(ctx context.Context, items map[string]json.RawMessage) error {
	old, err := s.read(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return &Error{Reason: ReasonEncode, Key: s.key, Err: err}
	}
	return s.write(ctx, s.key, old, raw)
}

func (s *Storage) write(ctx context.Context, key string, old, raw json.RawMessage) error {
	if bytes.Equal(old, raw) {
		return nil
	}
	if err := s.root.backend.Set(ctx, key, raw); err != nil {
		s.root.log.Error().Err(err).Str("key", key).Msg("write failed")
		return &Error{Reason: ReasonWrite, Key: key, Err: err}
	}
	s.root.changes.Publish(Change{Key: key, OldValue: old, NewValue: raw})
	return nil
}
