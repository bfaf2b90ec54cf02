// Package munch provides an attribute-accessible wrapper over nested
// mapping/sequence structures and cycle-safe converters between the wrapper
// and plain maps. Shared objects in the input — including self-referential
// containers — stay shared in the output instead of being duplicated.
package munch

import (
	"reflect"
	"strings"

	json "github.com/goccy/go-json"
)

// Munch is a string-keyed mapping with attribute-style accessors.
type Munch map[string]any

// New returns an empty Munch.
func New() Munch { return Munch{} }

// Get returns the value stored under key, or nil when absent.
func (m Munch) Get(key string) any { return m[key] }

// GetOk returns the value stored under key and whether it was present.
func (m Munch) GetOk(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Path resolves a dotted path ("a.b.c") through nested Munch values.
func (m Munch) Path(path string) (any, bool) {
	var cur any = m
	for part := range strings.SplitSeq(path, ".") {
		mm, ok := cur.(Munch)
		if !ok {
			return nil, false
		}
		cur, ok = mm[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ToDict recursively converts the Munch back into plain maps.
func (m Munch) ToDict() map[string]any {
	out, _ := Unmunchify(m).(map[string]any)
	return out
}

// Copy returns a deep copy made through a Munchify round trip.
func (m Munch) Copy() Munch {
	out, _ := Munchify(m.ToDict()).(Munch)
	return out
}

// MarshalJSON encodes the Munch as a plain JSON object.
func (m Munch) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(m))
}

// identity keys the visited map by object identity, not structural equality.
// Only reference kinds (maps, slices, pointers) carry identity; everything
// else is copied by value and needs no cycle guard.
type identity struct {
	ptr  uintptr
	kind reflect.Kind
}

// Munchify recursively converts nested maps and sequences into Munch values
// and []any slices. Scalars pass through unchanged. A container appearing
// twice in the input (including a container referencing itself) converts to
// the same output container.
func Munchify(v any) any {
	return convertCycles(v, map[identity]any{}, true)
}

// Unmunchify is the inverse of Munchify: it converts Munch values (and any
// other string-keyed maps) back into plain map[string]any, with the same
// identity-preserving behavior.
func Unmunchify(v any) any {
	return convertCycles(v, map[identity]any{}, false)
}

func convertCycles(v any, seen map[identity]any, toMunch bool) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		id := identity{rv.Pointer(), reflect.Map}
		if out, ok := seen[id]; ok {
			return out
		}
		// Register the empty shell before recursing so a cycle resolves to it.
		if toMunch {
			out := make(Munch, rv.Len())
			seen[id] = out
			fillMap(rv, out, seen, toMunch)
			return out
		}
		out := make(map[string]any, rv.Len())
		seen[id] = out
		fillMap(rv, out, seen, toMunch)
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		id := identity{rv.Pointer(), reflect.Slice}
		if out, ok := seen[id]; ok {
			return out
		}
		out := make([]any, rv.Len())
		seen[id] = out
		for i := range rv.Len() {
			out[i] = convertCycles(rv.Index(i).Interface(), seen, toMunch)
		}
		return out
	case reflect.Array:
		// Fixed-arity tuples are value types; convert element-wise.
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			out[i] = convertCycles(rv.Index(i).Interface(), seen, toMunch)
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		id := identity{rv.Pointer(), reflect.Pointer}
		if out, ok := seen[id]; ok {
			return out
		}
		out := convertCycles(rv.Elem().Interface(), seen, toMunch)
		seen[id] = out
		return out
	default:
		return v
	}
}

func fillMap(rv reflect.Value, out map[string]any, seen map[identity]any, toMunch bool) {
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = convertCycles(iter.Value().Interface(), seen, toMunch)
	}
}
