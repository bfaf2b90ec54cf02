package restmap

import (
	"github.com/reoring/restmap/format"
)

// Kind partitions a resource's fields by where they travel on the wire.
type Kind int

const (
	KindBody Kind = iota
	KindHeader
	KindURI
	KindComputed
)

func (k Kind) String() string {
	switch k {
	case KindBody:
		return "body"
	case KindHeader:
		return "header"
	case KindURI:
		return "uri"
	case KindComputed:
		return "computed"
	default:
		return "unknown"
	}
}

// ConvertFunc is the plain-constructor coercion shape for a descriptor's
// Type. Implementations return the value unchanged when it already has the
// target type.
type ConvertFunc func(v any) (any, error)

// Field declares one logical attribute: the name used on the owning
// resource, the key used in the wire representation for its namespace, an
// optional coercion target, a default, and identity/alias behavior.
type Field struct {
	// Name is the identifier used on the owning resource.
	Name string
	// Remote is the key used in the wire representation.
	Remote string
	// Kind selects which of the four namespaces the field binds to.
	Kind Kind
	// Type is the optional coercion target: a format.Formatter, a
	// ConvertFunc, or nil for pass-through. Detected by capability.
	Type any
	// Default is returned when Remote is absent from the backing store. It
	// is never run through Type.
	Default any
	// AlternateID marks this field as the resource identity when no field
	// is literally named "id".
	AlternateID bool
	// Aka is an additional local alias for the same remote value.
	Aka string
}

// FieldOption customizes a Field at declaration time.
type FieldOption func(*Field)

// WithType sets the coercion target (a format.Formatter or a ConvertFunc).
func WithType(t any) FieldOption { return func(f *Field) { f.Type = t } }

// WithDefault sets the value returned when the key is absent.
func WithDefault(v any) FieldOption { return func(f *Field) { f.Default = v } }

// AlternateID marks the field as the resource's identity field.
func AlternateID() FieldOption { return func(f *Field) { f.AlternateID = true } }

// Aka declares a secondary local name reading and writing the same value.
func Aka(alias string) FieldOption { return func(f *Field) { f.Aka = alias } }

func newField(kind Kind, name, remote string, opts []FieldOption) Field {
	f := Field{Name: name, Remote: remote, Kind: kind}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Body declares a field sourced from the request/response body.
func Body(name, remote string, opts ...FieldOption) Field {
	return newField(KindBody, name, remote, opts)
}

// Header declares a field sourced from HTTP headers.
func Header(name, remote string, opts ...FieldOption) Field {
	return newField(KindHeader, name, remote, opts)
}

// URI declares a field resolved into the base path template.
func URI(name, remote string, opts ...FieldOption) Field {
	return newField(KindURI, name, remote, opts)
}

// Computed declares a purely client-side field.
func Computed(name, remote string, opts ...FieldOption) Field {
	return newField(KindComputed, name, remote, opts)
}

// read looks up the field's remote key in store. An absent key yields the
// unqualified default; a nil value short-circuits coercion; otherwise the
// raw value runs through the deserializing side of Type.
func (f *Field) read(store *ComponentStore) (any, error) {
	raw, ok := store.Get(f.Remote)
	if !ok {
		return f.Default, nil
	}
	if raw == nil {
		return nil, nil
	}
	return f.deserialize(raw)
}

// write runs the serializing side of Type and stores the result under the
// field's remote key, updating the store's dirty tracking.
func (f *Field) write(store *ComponentStore, value any) error {
	if value != nil {
		v, err := f.serialize(value)
		if err != nil {
			return err
		}
		value = v
	}
	store.Set(f.Remote, value)
	return nil
}

// remove deletes the remote key from the store; removing an absent key is a
// silent no-op (the store already guarantees that).
func (f *Field) remove(store *ComponentStore) {
	store.Delete(f.Remote)
}

func (f *Field) deserialize(raw any) (any, error) {
	switch t := f.Type.(type) {
	case nil:
		return raw, nil
	case format.Formatter:
		v, err := t.Deserialize(raw)
		if err != nil {
			return nil, errConversion(f.Name, err)
		}
		return v, nil
	case ConvertFunc:
		return f.convert(t, raw)
	case func(any) (any, error):
		return f.convert(t, raw)
	default:
		return raw, nil
	}
}

func (f *Field) serialize(value any) (any, error) {
	switch t := f.Type.(type) {
	case nil:
		return value, nil
	case format.Formatter:
		v, err := t.Serialize(value)
		if err != nil {
			return nil, errConversion(f.Name, err)
		}
		return v, nil
	case ConvertFunc:
		return f.convert(t, value)
	case func(any) (any, error):
		return f.convert(t, value)
	default:
		return value, nil
	}
}

func (f *Field) convert(fn func(any) (any, error), v any) (any, error) {
	out, err := fn(v)
	if err != nil {
		return nil, errConversion(f.Name, err)
	}
	return out, nil
}
