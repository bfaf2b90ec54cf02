package restmap

// QueryTypeFunc coerces a client-supplied query value. The owning resource
// schema is passed for coercions that depend on the resource type.
type QueryTypeFunc func(value any, s *Schema) (any, error)

type queryEntry struct {
	remote string
	typ    QueryTypeFunc
}

// QueryParameters maps client-facing query argument names to server-facing
// query-string names, with optional per-argument type coercion. The
// pagination cursor parameters (limit, marker) are present in every mapping.
type QueryParameters struct {
	mapping map[string]queryEntry
}

// NewQueryParameters declares query arguments whose client and server names
// coincide. Use With/WithTyped for renames and coercions.
func NewQueryParameters(names ...string) *QueryParameters {
	q := &QueryParameters{mapping: map[string]queryEntry{
		"limit":  {remote: "limit"},
		"marker": {remote: "marker"},
	}}
	for _, n := range names {
		q.mapping[n] = queryEntry{remote: n}
	}
	return q
}

// With declares an argument renamed on the wire.
func (q *QueryParameters) With(local, remote string) *QueryParameters {
	q.mapping[local] = queryEntry{remote: remote}
	return q
}

// WithTyped declares a renamed argument with a type coercion.
func (q *QueryParameters) WithTyped(local, remote string, fn QueryTypeFunc) *QueryParameters {
	q.mapping[local] = queryEntry{remote: remote, typ: fn}
	return q
}

// Keys returns the declared client-facing argument names.
func (q *QueryParameters) Keys() []string {
	out := make([]string, 0, len(q.mapping))
	for k := range q.mapping {
		out = append(out, k)
	}
	return out
}

// Transpose renames and coerces a caller-supplied argument mapping into a
// server query mapping. Arguments absent from the declared mapping are
// dropped silently.
func (q *QueryParameters) Transpose(args map[string]any, s *Schema) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for key, value := range args {
		entry, ok := q.mapping[key]
		if !ok {
			continue
		}
		if entry.typ != nil {
			coerced, err := entry.typ(value, s)
			if err != nil {
				return nil, errConversion(key, err)
			}
			value = coerced
		}
		out[entry.remote] = value
	}
	return out, nil
}
