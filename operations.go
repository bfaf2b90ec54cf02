package restmap

import (
	"context"
	"fmt"
	"iter"
	"net/url"

	json "github.com/goccy/go-json"

	"github.com/reoring/restmap/format"
)

// Create persists a new resource. The method comes from the schema's create
// method; PUT-style creation places the identity in the URL, POST-style does
// not. The reply is absorbed into the receiver.
func (r *Resource) Create(ctx context.Context, t Transport) error {
	if !r.schema.allowCreate {
		return errMethodNotSupported(r.schema.name, "create")
	}
	opts := &RequestOpts{
		RequiresID: r.schema.createMethod == "PUT",
		PrependKey: true,
	}
	req, err := r.PrepareRequest(opts)
	if err != nil {
		return err
	}
	resp, err := t.Send(ctx, r.schema.createMethod, req)
	if err != nil {
		return err
	}
	return r.translateResponse(resp, true, r.schema.resourceKey)
}

// Fetch retrieves the current server-side representation and absorbs it into
// the receiver.
func (r *Resource) Fetch(ctx context.Context, t Transport) error {
	if !r.schema.allowFetch {
		return errMethodNotSupported(r.schema.name, "fetch")
	}
	req, err := r.PrepareRequest(&RequestOpts{RequiresID: true})
	if err != nil {
		return err
	}
	resp, err := t.Send(ctx, "GET", req)
	if err != nil {
		return err
	}
	return r.translateResponse(resp, true, r.schema.resourceKey)
}

// Commit pushes accumulated modifications to the server. When nothing is
// dirty the call succeeds without touching the transport — checked before the
// capability gate, so a clean commit on a commit-less type is still a no-op.
func (r *Resource) Commit(ctx context.Context, t Transport) error {
	if !r.body.IsDirty() && !r.header.IsDirty() {
		return nil
	}
	if !r.schema.allowCommit {
		return errMethodNotSupported(r.schema.name, "commit")
	}
	opts := &RequestOpts{
		RequiresID: true,
		PrependKey: true,
		Patch:      r.schema.commitJSONPatch,
	}
	req, err := r.PrepareRequest(opts)
	if err != nil {
		return err
	}
	resp, err := t.Send(ctx, r.schema.commitMethod, req)
	if err != nil {
		return err
	}
	return r.translateResponse(resp, true, r.schema.resourceKey)
}

// Patch pushes an explicit JSON-Patch document, appended after the diff of
// local modifications, regardless of the schema's commit style.
func (r *Resource) Patch(ctx context.Context, t Transport, extra []PatchOp) error {
	if !r.schema.allowCommit {
		return errMethodNotSupported(r.schema.name, "patch")
	}
	req, err := r.PrepareRequest(&RequestOpts{RequiresID: true, Patch: true})
	if err != nil {
		return err
	}
	ops, _ := req.Body.([]PatchOp)
	req.Body = append(ops, extra...)
	resp, err := t.Send(ctx, "PATCH", req)
	if err != nil {
		return err
	}
	return r.translateResponse(resp, true, r.schema.resourceKey)
}

// Delete removes the remote resource. The reply carries no representation;
// only an error status is interpreted.
func (r *Resource) Delete(ctx context.Context, t Transport) error {
	if !r.schema.allowDelete {
		return errMethodNotSupported(r.schema.name, "delete")
	}
	req, err := r.PrepareRequest(&RequestOpts{RequiresID: true})
	if err != nil {
		return err
	}
	resp, err := t.Send(ctx, "DELETE", req)
	if err != nil {
		return err
	}
	return r.translateResponse(resp, false, "")
}

// Head retrieves headers only; the body stays untouched.
func (r *Resource) Head(ctx context.Context, t Transport) error {
	if !r.schema.allowHead {
		return errMethodNotSupported(r.schema.name, "head")
	}
	req, err := r.PrepareRequest(&RequestOpts{RequiresID: true})
	if err != nil {
		return err
	}
	resp, err := t.Send(ctx, "HEAD", req)
	if err != nil {
		return err
	}
	return r.translateResponse(resp, false, "")
}

// List lazily enumerates the remote collection. Nothing touches the wire
// until the first pull, and iterating a second time restarts from the first
// page. Query arguments first resolve any {name} placeholders in the base
// path, then transpose through the schema's query mapping; when a limit
// argument is present, pagination continues with the marker set to the last
// identity of each page until a short or empty page arrives.
func (s *Schema) List(ctx context.Context, t Transport, query map[string]any) iter.Seq2[*Resource, error] {
	return func(yield func(*Resource, error) bool) {
		if !s.allowList {
			yield(nil, errMethodNotSupported(s.name, "list"))
			return
		}

		args := copyMap(query)
		path, err := expandPath(s.basePath, func(name string) (any, bool) {
			v, ok := args[name]
			if ok {
				delete(args, name)
			}
			return v, ok
		})
		if err != nil {
			yield(nil, err)
			return
		}

		params, err := s.query.Transpose(args, s)
		if err != nil {
			yield(nil, err)
			return
		}
		limit := 0
		if v, ok := params["limit"]; ok {
			if n, err := format.ToInt(v); err == nil {
				limit = n.(int)
			}
		}
		paginate := limit > 0

		for {
			values := url.Values{}
			for k, v := range params {
				values.Set(k, fmt.Sprintf("%v", v))
			}
			req := &Request{URL: path + "?" + values.Encode(), Headers: map[string]string{}}
			if len(values) == 0 {
				req.URL = path
			}
			resp, err := t.Send(ctx, "GET", req)
			if err != nil {
				yield(nil, err)
				return
			}
			if err := checkResponse(resp); err != nil {
				yield(nil, err)
				return
			}

			elements, err := s.decodeListBody(resp.Body)
			if err != nil {
				yield(nil, err)
				return
			}

			var lastID any
			for _, element := range elements {
				res := s.Existing(element)
				if !yield(res, nil) {
					return
				}
				lastID = res.identity()
			}

			// a short or empty page means the collection is exhausted
			if !paginate || len(elements) < limit || lastID == nil {
				return
			}
			params["marker"] = lastID
		}
	}
}

// decodeListBody unwraps the plural envelope when the schema declares one and
// returns the raw element mappings.
func (s *Schema) decodeListBody(body []byte) ([]map[string]any, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errInvalidRequest("decoding list body: %v", err)
	}
	if s.resourcesKey != "" {
		envelope, ok := raw.(map[string]any)
		if !ok {
			return nil, errInvalidRequest("list body is not an object with key %q", s.resourcesKey)
		}
		raw = envelope[s.resourcesKey]
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errInvalidRequest("list body does not contain an array of resources")
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errInvalidRequest("list element is not an object")
		}
		out = append(out, m)
	}
	return out, nil
}
