package restmap

import (
	"fmt"
	"iter"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/reoring/restmap/munch"
)

// Resource is one remote entity held in memory: four component stores (body,
// header, uri, computed) populated under the owning schema's merged attribute
// tables, plus the original body snapshot used for JSON-Patch diffing.
//
// A Resource is a plain value with no internal locking; it is not meant to be
// mutated from multiple goroutines.
type Resource struct {
	schema   *Schema
	body     *ComponentStore
	header   *ComponentStore
	uri      *ComponentStore
	computed *ComponentStore

	// originalBody is the body as last synchronized with the server; patch
	// mode diffs dirty values against it.
	originalBody map[string]any
}

// New constructs a locally originated, about-to-be-created resource: every
// supplied field starts dirty.
func (s *Schema) New(attrs map[string]any) *Resource {
	return s.newResource(attrs, false)
}

// Existing constructs a resource whose state is considered loaded from the
// server: every supplied field starts clean.
func (s *Schema) Existing(attrs map[string]any) *Resource {
	return s.newResource(attrs, true)
}

func (s *Schema) newResource(attrs map[string]any, synchronized bool) *Resource {
	body, header, uri, computed := s.collectAttrs(attrs)
	r := &Resource{
		schema:   s,
		body:     NewComponentStore(body, synchronized),
		header:   NewComponentStore(header, synchronized),
		uri:      NewComponentStore(uri, synchronized),
		computed: NewComponentStore(computed, synchronized),
	}
	if synchronized {
		r.originalBody = r.body.Attributes()
	} else {
		r.originalBody = map[string]any{}
	}
	return r
}

// Schema returns the declaration this resource was built from.
func (r *Resource) Schema() *Schema { return r.schema }

// BodyStore exposes the body component store, mainly so a caller can mark
// the identity clean ("this ID travels in the path, not the body").
func (r *Resource) BodyStore() *ComponentStore { return r.body }

// HeaderStore exposes the header component store.
func (r *Resource) HeaderStore() *ComponentStore { return r.header }

// collectAttrs classifies a flat mapping into the four namespaces, keyed by
// remote name. Keys matching no descriptor follow the unknown-attribute
// policy: folded under properties, passed through to the body, or dropped.
func (s *Schema) collectAttrs(attrs map[string]any) (body, header, uri, computed map[string]any) {
	rest := make(map[string]any, len(attrs))
	for k, v := range attrs {
		rest[k] = v
	}
	body = s.consumeAttrs(KindBody, rest)
	header = s.consumeAttrs(KindHeader, rest)
	uri = s.consumeAttrs(KindURI, rest)
	computed = s.consumeAttrs(KindComputed, rest)
	if len(rest) > 0 {
		switch {
		case s.storeUnknownAttrsAsProperties:
			packAttrsUnderProperties(body, rest)
		case s.allowUnknownAttrsInBody:
			for k, v := range rest {
				body[k] = v
			}
		}
	}
	return body, header, uri, computed
}

// packAttrsUnderProperties folds unclassified keys into body["properties"].
// An existing dict there is merged into; an existing scalar is preserved
// under its own "properties" sub-key.
func packAttrsUnderProperties(body, rest map[string]any) {
	merged := map[string]any{}
	switch props := body["properties"].(type) {
	case nil:
	case map[string]any:
		for k, v := range props {
			merged[k] = v
		}
	default:
		merged["properties"] = props
	}
	for k, v := range rest {
		merged[k] = v
	}
	body["properties"] = merged
}

// mergeProperties merges an incoming properties value into the currently
// stored one. A literal scalar replaces wholesale; two dicts merge with the
// incoming keys winning.
func mergeProperties(current, incoming any) any {
	in, ok := incoming.(map[string]any)
	if !ok {
		return incoming
	}
	cur, ok := current.(map[string]any)
	if !ok {
		return incoming
	}
	merged := make(map[string]any, len(cur)+len(in))
	for k, v := range cur {
		merged[k] = v
	}
	for k, v := range in {
		merged[k] = v
	}
	return merged
}

// Update classifies attrs like construction and applies them on top of the
// current state, updating dirty tracking as values actually change.
func (r *Resource) Update(attrs map[string]any) {
	body, header, uri, computed := r.schema.collectAttrs(attrs)
	if r.schema.storeUnknownAttrsAsProperties {
		if incoming, ok := body["properties"]; ok {
			cur, _ := r.body.Get("properties")
			body["properties"] = mergeProperties(cur, incoming)
		}
	}
	r.body.Update(body)
	r.header.Update(header)
	r.uri.Update(uri)
	r.computed.Update(computed)
}

// identity resolves the effective resource identity: the literal id key in
// the body if present, else the alternate-id field, else the id descriptor's
// own remote key.
func (r *Resource) identity() any {
	if v, ok := r.body.Get("id"); ok {
		return v
	}
	if alt := r.schema.alternateIDRemote; alt != "" {
		v, _ := r.body.Get(alt)
		return v
	}
	if f, ok := r.schema.byLocal["id"]; ok {
		v, _ := f.read(r.body)
		return v
	}
	return nil
}

// ID returns the resource identity value, or nil when none is set.
func (r *Resource) ID() any { return r.identity() }

func (r *Resource) storeFor(kind Kind) *ComponentStore {
	switch kind {
	case KindHeader:
		return r.header
	case KindURI:
		return r.uri
	case KindComputed:
		return r.computed
	default:
		return r.body
	}
}

// Get reads an attribute by local name, aka alias, or remote name. An unset
// known attribute yields its descriptor default. Unknown names resolve from
// the body only under the pass-through policy; otherwise a lookup failure is
// returned.
func (r *Resource) Get(name string) (any, error) {
	if name == "id" {
		return r.identity(), nil
	}
	if f, ok := r.schema.fieldFor(name); ok {
		return f.read(r.storeFor(f.Kind))
	}
	if r.schema.allowUnknownAttrsInBody {
		if v, ok := r.body.Get(name); ok {
			return v, nil
		}
	}
	return nil, errUnknownAttribute(name)
}

// Set writes an attribute by local name, alias, or remote name, running the
// descriptor's serializing coercion. Unknown names are absorbed per the
// unknown-attribute policy or rejected.
func (r *Resource) Set(name string, value any) error {
	if f, ok := r.schema.fieldFor(name); ok {
		if pf, has := r.schema.propertiesField(); has && f == pf && r.schema.storeUnknownAttrsAsProperties {
			cur, _ := r.body.Get(pf.Remote)
			value = mergeProperties(cur, value)
		}
		return f.write(r.storeFor(f.Kind), value)
	}
	if r.schema.storeUnknownAttrsAsProperties {
		if pf, has := r.schema.propertiesField(); has {
			cur, _ := r.body.Get(pf.Remote)
			r.body.Set(pf.Remote, mergeProperties(cur, map[string]any{name: value}))
			return nil
		}
	}
	if r.schema.allowUnknownAttrsInBody {
		r.body.Set(name, value)
		return nil
	}
	return errUnknownAttribute(name)
}

// Remove deletes an attribute's backing key; removing an unset known
// attribute is a silent no-op. The wire-level counterpart is Delete.
func (r *Resource) Remove(name string) error {
	if f, ok := r.schema.fieldFor(name); ok {
		f.remove(r.storeFor(f.Kind))
		return nil
	}
	if r.schema.allowUnknownAttrsInBody {
		r.body.Delete(name)
		return nil
	}
	return errUnknownAttribute(name)
}

// Has reports whether name resolves against the schema or, under the
// pass-through policy, against a stored unknown body key.
func (r *Resource) Has(name string) bool {
	if _, ok := r.schema.fieldFor(name); ok {
		return true
	}
	if r.schema.allowUnknownAttrsInBody {
		_, ok := r.body.Get(name)
		return ok
	}
	return false
}

// Keys returns the union of local names and aka aliases across all
// namespaces, plus stored unknown body keys under the pass-through policy,
// in sorted order.
func (r *Resource) Keys() []string {
	seen := map[string]struct{}{}
	for local := range r.schema.byLocal {
		seen[local] = struct{}{}
	}
	for alias := range r.schema.byAlias {
		seen[alias] = struct{}{}
	}
	if r.schema.allowUnknownAttrsInBody {
		for _, k := range r.body.Keys() {
			if _, mapped := r.schema.reverse[KindBody][k]; !mapped {
				seen[k] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// All iterates attribute name/value pairs over the same key union as Keys.
func (r *Resource) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range r.Keys() {
			v, err := r.Get(k)
			if err != nil {
				continue
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

// ToDictOpts selects which namespaces ToDict flattens. The zero value is
// invalid; use DefaultToDictOpts or set at least one namespace.
type ToDictOpts struct {
	Body       bool
	Headers    bool
	Computed   bool
	URI        bool
	IgnoreNone bool
}

// DefaultToDictOpts includes body, headers and computed attributes.
func DefaultToDictOpts() *ToDictOpts {
	return &ToDictOpts{Body: true, Headers: true, Computed: true}
}

// ToDict flattens the selected namespaces into one plain mapping keyed by
// local name, expanding aka aliases as duplicate keys and recursively
// flattening nested Resource values. With IgnoreNone, nil-valued keys (and
// their aliases) are dropped.
func (r *Resource) ToDict(opts *ToDictOpts) (map[string]any, error) {
	if opts == nil {
		opts = DefaultToDictOpts()
	}
	if !opts.Body && !opts.Headers && !opts.Computed {
		return nil, errInvalidArgument("at least one of Body, Headers or Computed must be true")
	}
	include := map[Kind]bool{
		KindBody:     opts.Body,
		KindHeader:   opts.Headers,
		KindComputed: opts.Computed,
		KindURI:      opts.URI,
	}
	out := map[string]any{}
	emit := func(name string, f *Field) {
		v, err := r.Get(name)
		if err != nil {
			return
		}
		v = flattenValue(v)
		if opts.IgnoreNone && v == nil {
			return
		}
		out[name] = v
	}
	for local, f := range r.schema.byLocal {
		if !include[f.Kind] {
			continue
		}
		emit(local, f)
	}
	for alias, f := range r.schema.byAlias {
		if !include[f.Kind] {
			continue
		}
		emit(alias, f)
	}
	if r.schema.allowUnknownAttrsInBody && opts.Body {
		for k, v := range r.body.All() {
			if _, mapped := r.schema.reverse[KindBody][k]; mapped {
				continue
			}
			if opts.IgnoreNone && v == nil {
				continue
			}
			out[k] = flattenValue(v)
		}
	}
	return out, nil
}

// flattenValue recursively flattens Resource values, alone or inside a
// sequence, into plain mappings.
func flattenValue(v any) any {
	switch val := v.(type) {
	case *Resource:
		d, err := val.ToDict(nil)
		if err != nil {
			return nil
		}
		return d
	case []*Resource:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, flattenValue(item))
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, flattenValue(item))
		}
		return out
	default:
		return v
	}
}

// ToMunch is ToDict followed by the structural transform into an
// attribute-accessible Munch, nested values included.
func (r *Resource) ToMunch(opts *ToDictOpts) (munch.Munch, error) {
	d, err := r.ToDict(opts)
	if err != nil {
		return nil, err
	}
	m, _ := munch.Munchify(d).(munch.Munch)
	return m, nil
}

// MarshalJSON encodes the default ToDict flattening.
func (r *Resource) MarshalJSON() ([]byte, error) {
	d, err := r.ToDict(nil)
	if err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

// Equal compares two resources by schema and contained body, header and uri
// mappings; dirty state does not participate.
func (r *Resource) Equal(other *Resource) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.schema == other.schema &&
		r.body.Equal(other.body) &&
		r.header.Equal(other.header) &&
		r.uri.Equal(other.uri)
}

func (r *Resource) String() string {
	return fmt.Sprintf("%s%v", r.schema.name, r.body.Attributes())
}
