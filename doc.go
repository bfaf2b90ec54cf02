package restmap

// Package restmap maps remote REST resources onto in-memory values:
//
// - Schema declarations describe a resource type once (base path, attribute
//   descriptors across body/header/URI/computed namespaces, capabilities)
// - Resource instances track local modifications per attribute and prepare
//   full-body or JSON-Patch requests from exactly the dirty state
// - Responses are translated back through the same declarations, so the wire
//   naming never leaks into calling code
//
// Design policy:
// - Keep the engine in the root package; put value formatters under format/,
//   the structural transform under munch/, and concrete resource types under
//   their own packages (see lease/).
// - The transport is an injected collaborator; this package never opens
//   connections or handles auth.
//
// Typical usage:
//
//	server := lease.LeaseSchema.New(map[string]any{"resource_uuid": "abc"})
//	err := server.Create(ctx, transport)
//
//	for res, err := range lease.LeaseSchema.List(ctx, transport, nil) {
//		...
//	}
