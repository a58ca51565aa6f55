package aggregation

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	aggdomain "github.com/yungbote/collection-listing/internal/domain/aggregation"
	"github.com/yungbote/collection-listing/internal/domain/resources"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
	"github.com/yungbote/collection-listing/internal/platform/ctxutil"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

type ResolverDeps struct {
	Lookup Lookup
	Log    *logger.Logger
}

type Resolver struct {
	lookup Lookup
	log    *logger.Logger
	tracer trace.Tracer

	mu       sync.RWMutex
	limit    int
	maxDepth int
}

func NewResolver(deps ResolverDeps, cfg Config) *Resolver {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	r := &Resolver{
		lookup:   deps.Lookup,
		log:      log.With("component", "AggregationResolver"),
		tracer:   otel.Tracer("collection-listing/aggregation"),
		limit:    DefaultLimit,
		maxDepth: DefaultMaxRecursiveDepth,
	}
	if cfg.Limit != 0 {
		r.SetLimit(cfg.Limit)
	}
	if cfg.MaxRecursiveDepth != 0 {
		r.SetMaxRecursiveDepth(cfg.MaxRecursiveDepth)
	}
	return r
}

// resolution is the state of a single top-level Resolve call.
type resolution struct {
	ctx      context.Context
	token    string
	start    resourceurl.URL
	limit    int
	maxDepth int

	aggregation aggdomain.HostPathSet
	approved    aggdomain.HostPathSet
	report      Report
}

// Resolve computes the aggregation of req.Collection.
func (r *Resolver) Resolve(ctx context.Context, req Request) aggdomain.Result {
	res, _ := r.ResolveWithReport(ctx, req)
	return res
}

// ResolveWithReport is Resolve plus a record of every skipped reference.
// Lookup failures never fail the call; they leave the affected node without
// children.
func (r *Resolver) ResolveWithReport(ctx context.Context, req Request) (aggdomain.Result, Report) {
	ctx = ctxutil.Default(ctx)
	if req.Collection == nil || r.lookup == nil {
		return aggdomain.NewResult(nil, nil), Report{}
	}
	start := req.Collection.CanonicalURL()
	if start.IsZero() {
		return aggdomain.NewResult(nil, nil), Report{}
	}

	cfg := r.Config()
	ctx, span := r.tracer.Start(ctx, "aggregation.Resolve", trace.WithAttributes(
		attribute.String("aggregation.collection", start.String()),
		attribute.Int("aggregation.limit", cfg.Limit),
		attribute.Int("aggregation.max_depth", cfg.MaxRecursiveDepth),
	))
	defer span.End()

	st := &resolution{
		ctx:         ctx,
		token:       req.Token,
		start:       start,
		limit:       cfg.Limit,
		maxDepth:    cfg.MaxRecursiveDepth,
		aggregation: aggdomain.NewHostPathSet(),
		approved:    aggdomain.NewHostPathSet(),
	}
	r.visit(st, req.Collection, start.HostRoot(), 0)

	span.SetAttributes(
		attribute.Int("aggregation.paths", st.aggregation.Len()),
		attribute.Int("aggregation.approved", st.approved.Len()),
		attribute.Int("aggregation.lookups", st.report.Lookups),
		attribute.Int("aggregation.skips", len(st.report.Skips)),
	)
	return aggdomain.NewResult(st.aggregation, st.approved), st.report
}

// AggregationPathsOf resolves the local collection at path and returns the
// aggregated paths on the local host. ok is false when the collection cannot
// be retrieved.
func (r *Resolver) AggregationPathsOf(ctx context.Context, token string, path resourceurl.Path) (paths []resourceurl.Path, ok bool) {
	if r.lookup == nil {
		return nil, false
	}
	node, err := r.lookup.Retrieve(ctxutil.Default(ctx), token, path)
	if err != nil || node == nil {
		r.log.Debug("Cannot retrieve collection for aggregation paths", "path", path.String(), "error", err)
		return nil, false
	}
	res := r.Resolve(ctx, Request{Collection: node, Token: token})
	return res.LocalAggregationPaths(r.lookup.LocalHost()), true
}

func (r *Resolver) visit(st *resolution, node Node, host resourceurl.URL, depth int) {
	if depth > st.report.Depth {
		st.report.Depth = depth
	}
	nodeURL := node.CanonicalURL()

	if node.Bool(resources.PropDisplayManuallyApproved) {
		// Approved values are absolute URLs; unlike aggregation references
		// they are never resolved against the node's host.
		for _, raw := range node.Strings(resources.PropManuallyApproved) {
			u, err := resourceurl.Parse(raw)
			if err != nil {
				r.skip(st, Skip{Reason: SkipMalformedReference, Node: nodeURL, Value: raw, Depth: depth, Err: err})
				continue
			}
			st.approved.Add(u)
		}
	}

	if !node.Bool(resources.PropDisplayAggregation) {
		return
	}

	values := node.Strings(resources.PropAggregation)
	if len(values) > st.limit {
		discarded := values[st.limit:]
		r.log.Warn("Aggregation exceeds limit, discarding tail",
			"collection", nodeURL.String(),
			"limit", st.limit,
			"discarded", discarded,
		)
		for _, raw := range discarded {
			st.report.Skips = append(st.report.Skips, Skip{Reason: SkipFanoutLimit, Node: nodeURL, Value: raw, Depth: depth})
		}
		values = values[:st.limit]
	}

	candidates := make([]resourceurl.URL, 0, len(values))
	batched := map[resourceurl.URL]struct{}{}
	for _, raw := range values {
		u, err := resourceurl.Resolve(raw, host)
		if err != nil {
			r.skip(st, Skip{Reason: SkipMalformedReference, Node: nodeURL, Value: raw, Depth: depth, Err: err})
			continue
		}
		if u.Equal(st.start) {
			r.skip(st, Skip{Reason: SkipSelfReference, Node: nodeURL, Value: raw, Depth: depth})
			continue
		}
		if st.aggregation.Contains(u) {
			r.skip(st, Skip{Reason: SkipAlreadyResolved, Node: nodeURL, Value: raw, Depth: depth})
			continue
		}
		if _, dup := batched[u]; dup {
			continue
		}
		batched[u] = struct{}{}
		candidates = append(candidates, u)
	}
	if len(candidates) == 0 {
		return
	}

	found, err := r.lookupBatch(st, nodeURL, candidates, depth)
	if err != nil {
		r.log.Warn("Aggregation lookup failed, continuing without children",
			"collection", nodeURL.String(),
			"depth", depth,
			"candidates", len(candidates),
			"error", err,
		)
		st.report.Skips = append(st.report.Skips, Skip{Reason: SkipLookupFailed, Node: nodeURL, Depth: depth, Err: err})
		return
	}

	// The canonical URL of a found resource is authoritative; checking it
	// again catches aliases that only resolve to a known node after lookup.
	children := make([]Node, 0, len(found))
	for _, child := range found {
		if child == nil {
			continue
		}
		cu := child.CanonicalURL()
		if cu.IsZero() {
			continue
		}
		if cu.Equal(st.start) {
			r.skip(st, Skip{Reason: SkipSelfReference, Node: nodeURL, Value: cu.String(), Depth: depth})
			continue
		}
		if !st.aggregation.Add(cu) {
			r.skip(st, Skip{Reason: SkipAlreadyResolved, Node: nodeURL, Value: cu.String(), Depth: depth})
			continue
		}
		children = append(children, child)
	}

	if depth >= st.maxDepth {
		return
	}
	for _, child := range children {
		if st.ctx.Err() != nil {
			return
		}
		r.visit(st, child, child.CanonicalURL().HostRoot(), depth+1)
	}
}

// lookupBatch performs one lookup for all candidates of a node. Multi-host
// mode is used only when a candidate lives on another host and the lookup
// supports it; otherwise remote candidates are dropped.
func (r *Resolver) lookupBatch(st *resolution, nodeURL resourceurl.URL, candidates []resourceurl.URL, depth int) ([]Node, error) {
	local := r.lookup.LocalHost()
	remote := false
	for _, u := range candidates {
		if !u.SameHost(local) {
			remote = true
			break
		}
	}

	ctx, span := r.tracer.Start(st.ctx, "aggregation.lookup", trace.WithAttributes(
		attribute.Int("aggregation.depth", depth),
		attribute.Int("aggregation.candidates", len(candidates)),
	))
	defer span.End()

	var (
		found []Node
		err   error
	)
	if remote && r.lookup.MultiHostEnabled() {
		span.SetAttributes(attribute.String("aggregation.mode", "multi_host"))
		st.report.Lookups++
		found, err = r.lookup.LookupMultiHost(ctx, st.token, candidates)
	} else {
		paths := make([]resourceurl.Path, 0, len(candidates))
		for _, u := range candidates {
			if !u.SameHost(local) {
				r.skip(st, Skip{Reason: SkipRemoteHostDisabled, Node: nodeURL, Value: u.String(), Depth: depth})
				continue
			}
			paths = append(paths, u.Path)
		}
		if len(paths) == 0 {
			return nil, nil
		}
		span.SetAttributes(attribute.String("aggregation.mode", "local"))
		st.report.Lookups++
		found, err = r.lookup.LookupLocal(ctx, st.token, paths)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("aggregation.found", len(found)))
	return found, nil
}

func (r *Resolver) skip(st *resolution, s Skip) {
	st.report.Skips = append(st.report.Skips, s)
	fields := []interface{}{
		"reason", string(s.Reason),
		"collection", s.Node.String(),
		"value", s.Value,
		"depth", s.Depth,
	}
	if s.Err != nil {
		fields = append(fields, "error", s.Err)
	}
	r.log.Debug("Skipping aggregation reference", fields...)
}
