package restmap

import (
	"iter"
	"reflect"
	"sort"
)

// ComponentStore is a namespace-scoped key/value container: an
// insertion-ordered mapping from remote name to value plus the set of keys
// changed since the last synchronization point.
type ComponentStore struct {
	attrs map[string]any
	order []string
	dirty map[string]struct{}
}

// NewComponentStore seeds a store from attrs. With synchronized true the data
// is considered authoritative and the dirty set starts empty; with false the
// data is considered locally originated and every initial key starts dirty.
func NewComponentStore(attrs map[string]any, synchronized bool) *ComponentStore {
	s := &ComponentStore{
		attrs: make(map[string]any, len(attrs)),
		dirty: make(map[string]struct{}),
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.attrs[k] = attrs[k]
		s.order = append(s.order, k)
		if !synchronized {
			s.dirty[k] = struct{}{}
		}
	}
	return s
}

// Get returns the stored value for key and whether the key is present.
func (s *ComponentStore) Get(key string) (any, bool) {
	v, ok := s.attrs[key]
	return v, ok
}

// Set stores value under key. The key turns dirty only when the value
// actually changes relative to the store's knowledge; re-setting a key to its
// already-stored value leaves it clean.
func (s *ComponentStore) Set(key string, value any) {
	old, existed := s.attrs[key]
	if existed && reflect.DeepEqual(old, value) {
		return
	}
	if !existed {
		s.order = append(s.order, key)
	}
	s.attrs[key] = value
	s.dirty[key] = struct{}{}
}

// Delete removes key from the mapping and marks it dirty, so a later commit
// can express the deletion. Deleting an absent key is a no-op.
func (s *ComponentStore) Delete(key string) {
	if _, ok := s.attrs[key]; !ok {
		return
	}
	delete(s.attrs, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.dirty[key] = struct{}{}
}

// Update applies Set for every key in attrs, in sorted key order.
func (s *ComponentStore) Update(attrs map[string]any) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.Set(k, attrs[k])
	}
}

// Keys returns the full key set in insertion order, not just the dirty keys.
func (s *ComponentStore) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Values returns the values in insertion order.
func (s *ComponentStore) Values() []any {
	out := make([]any, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.attrs[k])
	}
	return out
}

// All iterates over the full mapping in insertion order.
func (s *ComponentStore) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range s.order {
			if !yield(k, s.attrs[k]) {
				return
			}
		}
	}
}

// Len reports the number of stored keys.
func (s *ComponentStore) Len() int { return len(s.attrs) }

// Attributes returns a snapshot of the full mapping.
func (s *ComponentStore) Attributes() map[string]any {
	out := make(map[string]any, len(s.attrs))
	for k, v := range s.attrs {
		out[k] = v
	}
	return out
}

// Dirty returns a snapshot of only the changed keys and their current
// values. A deleted key appears with a nil value.
func (s *ComponentStore) Dirty() map[string]any {
	out := make(map[string]any, len(s.dirty))
	for k := range s.dirty {
		out[k] = s.attrs[k]
	}
	return out
}

// IsDirty reports whether any key changed since the last synchronization.
func (s *ComponentStore) IsDirty() bool { return len(s.dirty) > 0 }

// Clean empties the dirty set without altering values. Call after a
// successful synchronization with the server.
func (s *ComponentStore) Clean() {
	s.dirty = make(map[string]struct{})
}

// MarkClean removes individual keys from the dirty set. It supports the
// "this ID travels in the path, not the body" calling convention.
func (s *ComponentStore) MarkClean(keys ...string) {
	for _, k := range keys {
		delete(s.dirty, k)
	}
}

// Equal compares stores by contained mapping only; dirty state is not part
// of a store's identity.
func (s *ComponentStore) Equal(other *ComponentStore) bool {
	if s == nil || other == nil {
		return s == other
	}
	return reflect.DeepEqual(s.attrs, other.attrs)
}
