package restmap

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// Request is the transient triple assembled immediately before a wire call.
// It is owned exclusively by the call that built it.
type Request struct {
	URL     string
	Body    any // mapping, []PatchOp, or nil
	Headers map[string]string
}

// Response is the transport collaborator's reply.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// DecodeBody unmarshals the response body into v.
func (r *Response) DecodeBody(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Transport is the external collaborator performing the blocking round trip.
// This layer never constructs connections, TLS, or auth headers, and leaves
// retries and timeouts to the implementation.
type Transport interface {
	Send(ctx context.Context, method string, req *Request) (*Response, error)
}

// PatchOp is one RFC-6902-style operation.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// RequestOpts controls PrepareRequest.
type RequestOpts struct {
	// RequiresID appends the resource identity to the URL.
	RequiresID bool
	// PrependKey nests the body one level under the schema's resource key.
	// Never applied in patch mode.
	PrependKey bool
	// Patch builds a JSON-Patch body by diffing against the original
	// synchronized body instead of sending the dirty fields wholesale.
	Patch bool
	// BasePath overrides the schema's base path template.
	BasePath string
	// ResourceRequestKey overrides the schema's resource key for this call.
	ResourceRequestKey string
	// Params is appended to the URL as a query string.
	Params url.Values
}

// URLJoin joins path segments with slashes, stripping surrounding slashes
// from each. Unlike a real URL join it carries no web-anchor semantics.
func URLJoin(parts ...any) string {
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		s := ""
		if p != nil {
			s = fmt.Sprintf("%v", p)
		}
		segs = append(segs, strings.Trim(s, "/"))
	}
	return strings.Join(segs, "/")
}

var pathPlaceholder = regexp.MustCompile(`\{([^{}]+)\}`)

// expandPath resolves {name} placeholders from lookup; any unresolved token
// fails the request.
func expandPath(template string, lookup func(string) (any, bool)) (string, error) {
	var missing []string
	out := pathPlaceholder.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := lookup(name)
		if !ok || v == nil {
			missing = append(missing, name)
			return m
		}
		return fmt.Sprintf("%v", v)
	})
	if len(missing) > 0 {
		return "", errInvalidRequest("could not resolve path segment(s) %v in %q",
			missing, template)
	}
	return out, nil
}

// PrepareRequest resolves the base path against URI attributes and assembles
// the url/body/headers triple for a wire call, in full-body or patch mode.
func (r *Resource) PrepareRequest(opts *RequestOpts) (*Request, error) {
	if opts == nil {
		opts = &RequestOpts{}
	}
	basePath := opts.BasePath
	if basePath == "" {
		basePath = r.schema.basePath
	}
	path, err := expandPath(basePath, r.uri.Get)
	if err != nil {
		return nil, err
	}

	var body any
	if opts.Patch {
		body = r.patchBody()
	} else {
		dirty := r.body.Dirty()
		if r.schema.storeUnknownAttrsAsProperties {
			dirty = unpackPropertiesToRoot(dirty)
		}
		if key := resolveRequestKey(opts.ResourceRequestKey, r.schema.resourceKey); opts.PrependKey && key != "" {
			body = map[string]any{key: dirty}
		} else {
			body = dirty
		}
	}

	headers := map[string]string{}
	for k, v := range r.header.Dirty() {
		headers[k] = fmt.Sprintf("%v", v)
	}

	reqURL := path
	if opts.RequiresID {
		id := r.identity()
		if id == nil || id == "" {
			return nil, errInvalidRequest("a request requires an ID but none was found")
		}
		reqURL = URLJoin(path, id)
	}
	if len(opts.Params) > 0 {
		reqURL += "?" + opts.Params.Encode()
	}
	return &Request{URL: reqURL, Body: body, Headers: headers}, nil
}

func resolveRequestKey(override, schemaKey string) string {
	if override != "" {
		return override
	}
	return schemaKey
}

// patchBody diffs the dirty body fields against the original synchronized
// snapshot: a changed key present in the original yields replace, an absent
// one yields add, and a deleted one yields remove. Operations are ordered by
// descending path so child paths precede their parents, and the identity
// path is never emitted — the ID travels in the URL.
func (r *Resource) patchBody() []PatchOp {
	dirty := r.body.Dirty()
	original := r.originalBody
	if r.schema.storeUnknownAttrsAsProperties {
		dirty = unpackPropertiesToRoot(dirty)
		original = unpackPropertiesToRoot(copyMap(original))
	}

	idPath := "/id"
	if alt := r.schema.alternateIDRemote; alt != "" {
		idPath = "/" + alt
	}

	keys := make([]string, 0, len(dirty))
	for k := range dirty {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	ops := make([]PatchOp, 0, len(keys))
	for _, key := range keys {
		path := "/" + key
		if path == idPath {
			continue
		}
		val := dirty[key]
		orig, had := original[key]
		switch {
		case val == nil && had:
			ops = append(ops, PatchOp{Op: "remove", Path: path})
		case val == nil:
			// Deleted before it ever reached the server; nothing to express.
		case !had:
			ops = append(ops, PatchOp{Op: "add", Path: path, Value: val})
		case !reflect.DeepEqual(orig, val):
			ops = append(ops, PatchOp{Op: "replace", Path: path, Value: val})
		}
	}
	return ops
}

// unpackPropertiesToRoot splices a dict-valued properties field flat into the
// top level; a scalar value stays under its own key. Mirrors the flat splice
// of full-body mode so both commit modes agree on paths.
func unpackPropertiesToRoot(body map[string]any) map[string]any {
	props, ok := body["properties"]
	if !ok {
		return body
	}
	delete(body, "properties")
	switch pv := props.(type) {
	case nil:
	case map[string]any:
		for k, v := range pv {
			body[k] = v
		}
	default:
		body["properties"] = pv
	}
	return body
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CheckAndDecode surfaces an error status as a ResponseError and otherwise
// unmarshals the reply body into v. For action endpoints whose replies do not
// map onto a declared resource type.
func CheckAndDecode(resp *Response, v any) error {
	if err := checkResponse(resp); err != nil {
		return err
	}
	if len(resp.Body) == 0 {
		return nil
	}
	return resp.DecodeBody(v)
}

// checkResponse converts a non-success reply into a ResponseError; the
// collaborator's payload travels upward unmodified.
func checkResponse(resp *Response) error {
	if resp.StatusCode >= 400 {
		return &ResponseError{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.Body,
		}
	}
	return nil
}

// translateResponse absorbs a reply: body and computed attributes load as
// synchronized (clean), as do recognized headers. The stored state is now
// known to match the server, so the dirty sets reset.
func (r *Resource) translateResponse(resp *Response, hasBody bool, responseKey string) error {
	if err := checkResponse(resp); err != nil {
		return err
	}

	if hasBody && len(resp.Body) > 0 {
		var parsed map[string]any
		if err := json.Unmarshal(resp.Body, &parsed); err != nil {
			return errInvalidRequest("decoding response body: %v", err)
		}
		key := responseKey
		if key == "" {
			key = r.schema.resourceKey
		}
		if key != "" {
			if nested, ok := parsed[key].(map[string]any); ok {
				parsed = nested
			}
		}

		bodyAttrs := r.schema.consumeAttrs(KindBody, parsed)
		computedAttrs := r.schema.consumeAttrs(KindComputed, parsed)
		if len(parsed) > 0 {
			switch {
			case r.schema.allowUnknownAttrsInBody:
				for k, v := range parsed {
					bodyAttrs[k] = v
				}
			case r.schema.storeUnknownAttrsAsProperties:
				packAttrsUnderProperties(bodyAttrs, parsed)
			}
		}
		r.body.Update(bodyAttrs)
		r.body.Clean()
		r.computed.Update(computedAttrs)
		r.computed.Clean()
		if r.schema.commitJSONPatch || r.schema.storeUnknownAttrsAsProperties {
			r.originalBody = copyMap(bodyAttrs)
		} else {
			r.originalBody = r.body.Attributes()
		}
	}

	headerAttrs := r.schema.consumeHeaderAttrs(resp.Headers)
	r.header.Update(headerAttrs)
	r.header.Clean()
	return nil
}
