package lease_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	restmap "github.com/reoring/restmap"
	"github.com/reoring/restmap/lease"
)

type fakeTransport struct {
	calls     []call
	responses []*restmap.Response
}

type call struct {
	method string
	req    *restmap.Request
}

func (f *fakeTransport) Send(ctx context.Context, method string, req *restmap.Request) (*restmap.Response, error) {
	f.calls = append(f.calls, call{method: method, req: req})
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func respond(status int, body string) *restmap.Response {
	return &restmap.Response{StatusCode: status, Body: []byte(body)}
}

func TestLeaseSchema_IdentityIsUUID(t *testing.T) {
	r := lease.LeaseSchema.Existing(map[string]any{"uuid": "lease-1", "status": "live"})
	assert.Equal(t, "lease-1", r.ID())

	status, err := r.Get("status")
	require.NoError(t, err)
	assert.Equal(t, "live", status)
}

func TestLeaseSchema_RenamedFields(t *testing.T) {
	r := lease.LeaseSchema.Existing(map[string]any{
		"resource_type": "baremetal",
		"resource_uuid": "node-7",
		"resource":      "node-7-name",
	})

	nodeType, err := r.Get("node_type")
	require.NoError(t, err)
	assert.Equal(t, "baremetal", nodeType)

	resourceID, err := r.Get("resource_id")
	require.NoError(t, err)
	assert.Equal(t, "node-7", resourceID)

	leaseResource, err := r.Get("lease_resource")
	require.NoError(t, err)
	assert.Equal(t, "node-7-name", leaseResource)
}

func TestLeaseSchema_UndeclaredAttrsDropped(t *testing.T) {
	r := lease.LeaseSchema.Existing(map[string]any{"uuid": "u", "rack": "r42"})

	_, err := r.Get("rack")
	require.Error(t, err)
	assert.True(t, restmap.HasCode(err, restmap.CodeUnknownAttribute))

	// the declared properties field carries only what the server sends for it
	props, err := r.Get("properties")
	require.NoError(t, err)
	assert.Nil(t, props)
}

func TestLease_FetchAbsorbsCanonicalizedTimestampHeader(t *testing.T) {
	ft := &fakeTransport{responses: []*restmap.Response{{
		StatusCode: 200,
		Headers:    map[string]string{"X-Timestamp": "2026-08-24T00:00:00Z"},
		Body:       []byte(`{"uuid": "u"}`),
	}}}

	r := lease.LeaseSchema.Existing(map[string]any{"uuid": "u"})
	require.NoError(t, r.Fetch(context.Background(), ft))

	ts, err := r.Get("timestamp")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-24T00:00:00Z", ts)
}

func TestLease_CommitUsesJSONPatch(t *testing.T) {
	ft := &fakeTransport{responses: []*restmap.Response{
		respond(200, `{"uuid": "u", "name": "renamed"}`),
	}}

	r := lease.LeaseSchema.Existing(map[string]any{"uuid": "u", "name": "old"})
	require.NoError(t, r.Set("name", "renamed"))
	require.NoError(t, r.Commit(context.Background(), ft))

	require.Len(t, ft.calls, 1)
	assert.Equal(t, "PATCH", ft.calls[0].method)
	assert.Equal(t, "leases/u", ft.calls[0].req.URL)
	assert.Equal(t, []restmap.PatchOp{{Op: "replace", Path: "/name", Value: "renamed"}}, ft.calls[0].req.Body)
}

func TestLease_ListUnwrapsEnvelope(t *testing.T) {
	ft := &fakeTransport{responses: []*restmap.Response{
		respond(200, `{"leases": [{"uuid": "a"}, {"uuid": "b"}]}`),
	}}

	var ids []any
	for r, err := range lease.LeaseSchema.List(context.Background(), ft, map[string]any{"status": "live"}) {
		require.NoError(t, err)
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []any{"a", "b"}, ids)
	require.Len(t, ft.calls, 1)
	assert.Equal(t, "/leases?status=live", ft.calls[0].req.URL)
}

func TestNodeSchema_IsReadOnly(t *testing.T) {
	ft := &fakeTransport{responses: []*restmap.Response{respond(200, `{}`)}}
	r := lease.NodeSchema.New(map[string]any{"id": "n1", "name": "node"})

	err := r.Create(context.Background(), ft)
	require.Error(t, err)
	assert.True(t, restmap.HasCode(err, restmap.CodeMethodNotSupported))

	err = r.Delete(context.Background(), ft)
	require.Error(t, err)
	assert.True(t, restmap.HasCode(err, restmap.CodeMethodNotSupported))
	assert.Empty(t, ft.calls)
}

func TestClaimOffer(t *testing.T) {
	ft := &fakeTransport{responses: []*restmap.Response{
		respond(201, `{"uuid": "new-lease", "offer_uuid": "offer-1"}`),
	}}

	offer := lease.OfferSchema.Existing(map[string]any{"uuid": "offer-1"})
	created, err := lease.ClaimOffer(context.Background(), ft, offer, map[string]any{
		"start_time": "2026-08-24 00:00:00",
	})
	require.NoError(t, err)

	require.Len(t, ft.calls, 1)
	assert.Equal(t, "POST", ft.calls[0].method)
	assert.Equal(t, "offers/offer-1/claim", ft.calls[0].req.URL)
	assert.Equal(t, map[string]any{"start_time": "2026-08-24 00:00:00"}, ft.calls[0].req.Body)

	assert.Equal(t, "new-lease", created.ID())
	offerID, err := created.Get("offer_uuid")
	require.NoError(t, err)
	assert.Equal(t, "offer-1", offerID)
}

func TestClaimOffer_ErrorStatus(t *testing.T) {
	ft := &fakeTransport{responses: []*restmap.Response{respond(409, `{"error": "conflict"}`)}}

	offer := lease.OfferSchema.Existing(map[string]any{"uuid": "offer-1"})
	_, err := lease.ClaimOffer(context.Background(), ft, offer, nil)
	require.Error(t, err)
	re, ok := restmap.AsResponseError(err)
	require.True(t, ok)
	assert.Equal(t, 409, re.StatusCode)
}
