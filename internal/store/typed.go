package store

import (
	"context"
	"encoding/json"
)

// Items is a typed view over a storage holding a record of T keyed by id.
type Items[T any] struct {
	s *Storage
}

// NewItems returns a typed item view over s.
func NewItems[T any](s *Storage) Items[T] { return Items[T]{s: s} }

// Storage returns the underlying storage.
func (i Items[T]) Storage() *Storage { return i.s }

// Get returns the item id.
func (i Items[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var v T
	ok, err := i.s.GetItemByID(ctx, id, &v)
	return v, ok, err
}

// All returns every item keyed by id.
func (i Items[T]) All(ctx context.Context) (map[string]T, error) {
	raw, err := i.s.GetItems(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(raw))
	for id, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, &Error{Reason: ReasonDecode, Key: i.s.key + keySeparator + id, Err: err}
		}
		out[id] = v
	}
	return out, nil
}

// Put upserts the item id.
func (i Items[T]) Put(ctx context.Context, id string, v T) error {
	return i.s.SetItems(ctx, map[string]any{id: v})
}

// Remove deletes the item id.
func (i Items[T]) Remove(ctx context.Context, id string) error {
	return i.s.RemoveItemByID(ctx, id)
}

// Update atomically applies fn to the item id. fn reports whether it changed
// the item; unchanged items are not written. Missing items fail with
// ReasonNotFound.
func (i Items[T]) Update(ctx context.Context, id string, fn func(*T) (bool, error)) (T, bool, error) {
	var (
		out     T
		changed bool
	)
	err := i.s.UpdateItem(ctx, id, func(raw json.RawMessage) (json.RawMessage, error) {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, &Error{Reason: ReasonDecode, Key: i.s.key + keySeparator + id, Err: err}
		}
		var err error
		if changed, err = fn(&out); err != nil || !changed {
			return nil, err
		}
		next, err := json.Marshal(out)
		if err != nil {
			return nil, &Error{Reason: ReasonEncode, Key: i.s.key, Err: err}
		}
		return next, nil
	})
	return out, changed, err
}

// Clear removes every item.
func (i Items[T]) Clear(ctx context.Context) error { return i.s.Clear(ctx) }

// State is a typed view over a storage holding a single T.
type State[T any] struct {
	s *Storage
}

// NewState returns a typed state view over s.
func NewState[T any](s *Storage) State[T] { return State[T]{s: s} }

// Get returns the stored value.
func (st State[T]) Get(ctx context.Context) (T, bool, error) {
	var v T
	ok, err := st.s.GetState(ctx, &v)
	return v, ok, err
}

// Set replaces the stored value.
func (st State[T]) Set(ctx context.Context, v T) error { return st.s.SetState(ctx, v) }

// Clear removes the stored value.
func (st State[T]) Clear(ctx context.Context) error { return st.s.Clear(ctx) }
