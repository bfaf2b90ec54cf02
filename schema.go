package restmap

import (
	"fmt"
	"strings"
)

// Schema is the compiled declaration of a remote resource type: its base
// path, capability flags, behavior flags, query-parameter mapping, and the
// merged attribute tables collected across its inheritance chain. A Schema
// is immutable after Build and safe for concurrent use; the Resources it
// produces are not.
type Schema struct {
	name   string
	parent *Schema

	basePath     string
	resourceKey  string
	resourcesKey string

	allowCreate bool
	allowFetch  bool
	allowCommit bool
	allowDelete bool
	allowList   bool
	allowHead   bool

	createMethod    string
	commitMethod    string
	commitJSONPatch bool

	allowUnknownAttrsInBody       bool
	storeUnknownAttrsAsProperties bool

	query  *QueryParameters
	fields []Field

	// merged tables, computed once at Build time
	byLocal           map[string]*Field
	byAlias           map[string]*Field
	forward           map[Kind]map[string]string // local -> remote
	reverse           map[Kind]map[string]string // remote -> local
	alternateIDLocal  string
	alternateIDRemote string
}

// baseSchema is the implicit root of every inheritance chain. It mirrors the
// attributes every remote resource carries: an identity, a name, and the
// client-side location.
var baseSchema = func() *Schema {
	s := &Schema{
		name:         "resource",
		createMethod: "POST",
		commitMethod: "PUT",
		query:        NewQueryParameters(),
		fields: []Field{
			Body("id", "id"),
			Body("name", "name"),
			Computed("location", "location"),
		},
	}
	s.compile()
	return s
}()

// BaseSchema returns the implicit ancestor of every schema.
func BaseSchema() *Schema { return baseSchema }

// Name returns the resource type name given at declaration.
func (s *Schema) Name() string { return s.name }

// BasePath returns the path template requests are prepared against.
func (s *Schema) BasePath() string { return s.basePath }

// Query returns the client-side query parameter mapping.
func (s *Schema) Query() *QueryParameters { return s.query }

// SchemaBuilder assembles a Schema. Zero or more declaration calls are
// chained and sealed with Build or MustBuild.
type SchemaBuilder struct {
	s Schema
}

// NewSchema starts a schema declaration for the named resource type.
func NewSchema(name string) *SchemaBuilder {
	b := &SchemaBuilder{}
	b.s.name = name
	return b
}

// Extends sets the parent schema; the child's declarations overlay the
// parent's, most-derived winning. Without Extends the parent is the package
// base schema.
func (b *SchemaBuilder) Extends(parent *Schema) *SchemaBuilder {
	b.s.parent = parent
	return b
}

// BasePath sets the path template; {name} placeholders resolve from URI
// attributes at request-preparation time.
func (b *SchemaBuilder) BasePath(p string) *SchemaBuilder {
	b.s.basePath = p
	return b
}

// ResourceKey sets the singular envelope key bodies are nested under.
func (b *SchemaBuilder) ResourceKey(k string) *SchemaBuilder {
	b.s.resourceKey = k
	return b
}

// ResourcesKey sets the plural envelope key list bodies are nested under.
func (b *SchemaBuilder) ResourcesKey(k string) *SchemaBuilder {
	b.s.resourcesKey = k
	return b
}

func (b *SchemaBuilder) AllowCreate() *SchemaBuilder { b.s.allowCreate = true; return b }
func (b *SchemaBuilder) AllowFetch() *SchemaBuilder  { b.s.allowFetch = true; return b }
func (b *SchemaBuilder) AllowCommit() *SchemaBuilder { b.s.allowCommit = true; return b }
func (b *SchemaBuilder) AllowDelete() *SchemaBuilder { b.s.allowDelete = true; return b }
func (b *SchemaBuilder) AllowList() *SchemaBuilder   { b.s.allowList = true; return b }
func (b *SchemaBuilder) AllowHead() *SchemaBuilder   { b.s.allowHead = true; return b }

// CreateMethod overrides the HTTP method used by Create (default POST).
func (b *SchemaBuilder) CreateMethod(m string) *SchemaBuilder {
	b.s.createMethod = m
	return b
}

// CommitMethod overrides the HTTP method used by Commit (default PUT).
func (b *SchemaBuilder) CommitMethod(m string) *SchemaBuilder {
	b.s.commitMethod = m
	return b
}

// CommitJSONPatch switches Commit to diff-based JSON-Patch bodies instead of
// full-body updates.
func (b *SchemaBuilder) CommitJSONPatch() *SchemaBuilder {
	b.s.commitJSONPatch = true
	return b
}

// AllowUnknownAttrsInBody stores keys matching no descriptor verbatim as
// extra body fields. Mutually exclusive with StoreUnknownAttrsAsProperties.
func (b *SchemaBuilder) AllowUnknownAttrsInBody() *SchemaBuilder {
	b.s.allowUnknownAttrsInBody = true
	return b
}

// StoreUnknownAttrsAsProperties folds keys matching no descriptor into the
// body's "properties" field. Mutually exclusive with AllowUnknownAttrsInBody.
func (b *SchemaBuilder) StoreUnknownAttrsAsProperties() *SchemaBuilder {
	b.s.storeUnknownAttrsAsProperties = true
	return b
}

// Query sets the client-side query parameter mapping.
func (b *SchemaBuilder) Query(q *QueryParameters) *SchemaBuilder {
	b.s.query = q
	return b
}

// Fields appends attribute declarations.
func (b *SchemaBuilder) Fields(fields ...Field) *SchemaBuilder {
	b.s.fields = append(b.s.fields, fields...)
	return b
}

// Build validates the declaration, fills inherited defaults, computes the
// merged attribute tables, and returns the sealed schema.
func (b *SchemaBuilder) Build() (*Schema, error) {
	s := b.s // copy; the builder can be discarded
	if s.allowUnknownAttrsInBody && s.storeUnknownAttrsAsProperties {
		return nil, errInvalidArgument(
			"%s: AllowUnknownAttrsInBody and StoreUnknownAttrsAsProperties are mutually exclusive", s.name)
	}
	if s.parent == nil {
		s.parent = baseSchema
	}
	if s.basePath == "" {
		s.basePath = s.parent.basePath
	}
	if s.createMethod == "" {
		s.createMethod = s.parent.createMethod
	}
	if s.commitMethod == "" {
		s.commitMethod = s.parent.commitMethod
	}
	if s.query == nil {
		s.query = s.parent.query
	}
	s.compile()
	return &s, nil
}

// MustBuild is Build panicking on error, for package-level declarations.
func (b *SchemaBuilder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("restmap: %v", err))
	}
	return s
}

// compile walks the inheritance chain most-derived first, skipping local
// names already claimed, so a subclass's override of a base mapping is never
// clobbered by the base's own entry. Reverse (remote -> local) entries keep
// the most-derived claim as well.
func (s *Schema) compile() {
	s.byLocal = map[string]*Field{}
	s.byAlias = map[string]*Field{}
	s.forward = map[Kind]map[string]string{}
	s.reverse = map[Kind]map[string]string{}
	for _, k := range []Kind{KindBody, KindHeader, KindURI, KindComputed} {
		s.forward[k] = map[string]string{}
		s.reverse[k] = map[string]string{}
	}
	for sc := s; sc != nil; sc = sc.parent {
		for i := range sc.fields {
			f := &sc.fields[i]
			if _, claimed := s.byLocal[f.Name]; claimed {
				continue
			}
			s.byLocal[f.Name] = f
			s.forward[f.Kind][f.Name] = f.Remote
			if _, taken := s.reverse[f.Kind][f.Remote]; !taken {
				s.reverse[f.Kind][f.Remote] = f.Name
			}
			if f.Aka != "" {
				if _, taken := s.byAlias[f.Aka]; !taken {
					s.byAlias[f.Aka] = f
				}
			}
			if f.AlternateID && s.alternateIDLocal == "" {
				s.alternateIDLocal = f.Name
				s.alternateIDRemote = f.Remote
			}
		}
	}
}

// AlternateID returns the remote name of the field designated as the
// resource identity, or "" when the literal id field is the identity.
func (s *Schema) AlternateID() string { return s.alternateIDRemote }

// Mapping returns a copy of the merged remote -> local table for one
// namespace, for introspection.
func (s *Schema) Mapping(kind Kind) map[string]string {
	out := make(map[string]string, len(s.reverse[kind]))
	for remote, local := range s.reverse[kind] {
		out[remote] = local
	}
	return out
}

// FieldByName returns the effective descriptor for a local name or alias.
func (s *Schema) FieldByName(name string) (Field, bool) {
	if f, ok := s.fieldFor(name); ok {
		return *f, true
	}
	return Field{}, false
}

// fieldFor resolves a name against the merged tables: local names first,
// then aka aliases, then remote names.
func (s *Schema) fieldFor(name string) (*Field, bool) {
	if f, ok := s.byLocal[name]; ok {
		return f, true
	}
	if f, ok := s.byAlias[name]; ok {
		return f, true
	}
	for _, k := range []Kind{KindBody, KindHeader, KindURI, KindComputed} {
		if local, ok := s.reverse[k][name]; ok {
			return s.byLocal[local], true
		}
	}
	return nil, false
}

// propertiesField returns the declared body descriptor literally named
// "properties", if any. The unknown-attribute folding policy targets it.
func (s *Schema) propertiesField() (*Field, bool) {
	f, ok := s.byLocal["properties"]
	if !ok || f.Kind != KindBody {
		return nil, false
	}
	return f, true
}

// consumeHeaderAttrs matches response headers against the header namespace,
// keyed by the declared remote name. HTTP header keys are case-insensitive
// and transports deliver whatever canonicalization they apply, so matching
// folds case on both sides.
func (s *Schema) consumeHeaderAttrs(headers map[string]string) map[string]any {
	folded := make(map[string]string, len(headers))
	for k, v := range headers {
		folded[strings.ToLower(k)] = v
	}
	out := map[string]any{}
	for local, remote := range s.forward[KindHeader] {
		if v, ok := folded[strings.ToLower(local)]; ok {
			out[remote] = v
			continue
		}
		if v, ok := folded[strings.ToLower(remote)]; ok {
			out[remote] = v
		}
	}
	return out
}

// consumeAttrs pops every key of attrs matching one of kind's declared
// local names, aka aliases, or remote names, and returns the values keyed by
// their remote name. Local names win over remote names over aliases when a
// caller supplies more than one spelling.
func (s *Schema) consumeAttrs(kind Kind, attrs map[string]any) map[string]any {
	out := map[string]any{}
	// full locals pass before any remote matching, so a key serving as one
	// field's local name and another's remote name always classifies local
	for local, remote := range s.forward[kind] {
		if v, ok := attrs[local]; ok {
			out[remote] = v
			delete(attrs, local)
		}
	}
	for _, remote := range s.forward[kind] {
		if v, ok := attrs[remote]; ok {
			if _, done := out[remote]; !done {
				out[remote] = v
			}
			delete(attrs, remote)
		}
	}
	for alias, f := range s.byAlias {
		if f.Kind != kind {
			continue
		}
		if v, ok := attrs[alias]; ok {
			if _, done := out[f.Remote]; !done {
				out[f.Remote] = v
			}
			delete(attrs, alias)
		}
	}
	return out
}
