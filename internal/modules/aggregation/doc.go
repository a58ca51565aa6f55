// Package aggregation resolves which hosts and paths a collection listing
// aggregates from.
//
// Starting at a collection, the resolver follows the "aggregation" property
// of every node to other collections (local or on other hosts) and collects
// the "manually approved" resources along the way. The walk is bounded by a
// per-node fan-out limit and a maximum recursion depth; the starting
// collection and anything already resolved are never followed again, which
// breaks cycles in the underlying data.
//
// All state of a walk lives in a per-call resolution value, so one Resolver
// may serve concurrent callers as long as its Lookup does.
package aggregation
