// Package lease declares the bare-metal leasing resource types: leases,
// offers, and the nodes they cover. Leases and offers commit with JSON-Patch;
// nodes are read-only.
package lease

import (
	"context"

	restmap "github.com/reoring/restmap"
)

// LeaseSchema describes a lease contract on a leasable resource.
var LeaseSchema = restmap.NewSchema("lease").
	BasePath("/leases").
	ResourcesKey("leases").
	AllowCreate().
	AllowFetch().
	AllowCommit().
	AllowDelete().
	AllowList().
	CommitMethod("PATCH").
	CommitJSONPatch().
	Query(restmap.NewQueryParameters(
		"resource_uuid",
		"resource_type",
		"status",
		"uuid",
	)).
	Fields(
		restmap.Header("timestamp", "x-timestamp"),
		restmap.Body("id", "uuid", restmap.AlternateID()),
		restmap.Body("node_type", "resource_type"),
		restmap.Body("resource_id", "resource_uuid"),
		restmap.Body("resource_class", "resource_class"),
		restmap.Body("offer_uuid", "offer_uuid"),
		restmap.Body("owner", "owner"),
		restmap.Body("owner_id", "owner_id"),
		restmap.Body("parent_lease_uuid", "parent_lease_uuid"),
		restmap.Body("start_time", "start_time"),
		restmap.Body("end_time", "end_time"),
		restmap.Body("fulfill_time", "fulfill_time"),
		restmap.Body("expire_time", "expire_time"),
		restmap.Body("status", "status"),
		restmap.Body("name", "name"),
		restmap.Body("project", "project"),
		restmap.Body("project_id", "project_id"),
		restmap.Body("lease_resource", "resource"),
		restmap.Body("properties", "properties"),
		restmap.Body("purpose", "purpose"),
	).
	MustBuild()

// OfferSchema describes an offer of a leasable resource.
var OfferSchema = restmap.NewSchema("offer").
	BasePath("/offers").
	ResourcesKey("offers").
	AllowCreate().
	AllowFetch().
	AllowCommit().
	AllowDelete().
	AllowList().
	CommitMethod("PATCH").
	CommitJSONPatch().
	Query(restmap.NewQueryParameters(
		"resource_uuid",
		"resource_type",
		"status",
		"uuid",
		"lessee",
	)).
	Fields(
		restmap.Header("timestamp", "x-timestamp"),
		restmap.Body("id", "uuid", restmap.AlternateID()),
		restmap.Body("node_type", "resource_type"),
		restmap.Body("resource_id", "resource_uuid"),
		restmap.Body("resource_class", "resource_class"),
		restmap.Body("lessee", "lessee"),
		restmap.Body("lessee_id", "lessee_id"),
		restmap.Body("parent_lease_uuid", "parent_lease_uuid"),
		restmap.Body("start_time", "start_time"),
		restmap.Body("end_time", "end_time"),
		restmap.Body("status", "status"),
		restmap.Body("availabilities", "availabilities"),
		restmap.Body("name", "name"),
		restmap.Body("project", "project"),
		restmap.Body("project_id", "project_id"),
		restmap.Body("offer_resource", "resource"),
		restmap.Body("properties", "properties"),
	).
	MustBuild()

// NodeSchema describes a leasable node; nodes are read-only through this API.
var NodeSchema = restmap.NewSchema("node").
	BasePath("/nodes").
	ResourcesKey("nodes").
	AllowFetch().
	AllowList().
	Query(restmap.NewQueryParameters(
		"name",
		"owner",
		"lessee",
		"offer_uuid",
		"lease_uuid",
	)).
	Fields(
		restmap.Header("timestamp", "x-timestamp"),
		restmap.Body("id", "uuid", restmap.AlternateID()),
		restmap.Body("name", "name"),
		restmap.Body("owner", "owner"),
		restmap.Body("lessee", "lessee"),
		restmap.Body("provision_state", "provision_state"),
		restmap.Body("maintenance", "maintenance"),
		restmap.Body("offer_id", "offer_uuid"),
		restmap.Body("lease_id", "lease_uuid"),
		restmap.Body("future_offers", "future_offers"),
		restmap.Body("future_leases", "future_leases"),
	).
	MustBuild()

// ClaimOffer claims an offer by POSTing args to the offer's claim action and
// returns the created lease as reported by the server.
func ClaimOffer(ctx context.Context, t restmap.Transport, offer *restmap.Resource, args map[string]any) (*restmap.Resource, error) {
	req, err := offer.PrepareRequest(&restmap.RequestOpts{RequiresID: true})
	if err != nil {
		return nil, err
	}
	req.URL = restmap.URLJoin(req.URL, "claim")
	req.Body = args
	resp, err := t.Send(ctx, "POST", req)
	if err != nil {
		return nil, err
	}
	var parsed map[string]any
	if err := restmap.CheckAndDecode(resp, &parsed); err != nil {
		return nil, err
	}
	return LeaseSchema.Existing(parsed), nil
}
