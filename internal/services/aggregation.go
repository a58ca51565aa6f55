package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/collection-listing/internal/data/graph"
	aggdomain "github.com/yungbote/collection-listing/internal/domain/aggregation"
	"github.com/yungbote/collection-listing/internal/modules/aggregation"
	"github.com/yungbote/collection-listing/internal/observability"
	pkgerrors "github.com/yungbote/collection-listing/internal/pkg/errors"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
	"github.com/yungbote/collection-listing/internal/platform/ctxutil"
	"github.com/yungbote/collection-listing/internal/platform/logger"
	"github.com/yungbote/collection-listing/internal/platform/neo4jdb"
	"github.com/yungbote/collection-listing/internal/platform/redis"
)

const (
	visibilityAnonymous     = "anon"
	visibilityAuthenticated = "auth"
)

// Resolution is a resolved aggregation for one collection.
type Resolution struct {
	Collection resourceurl.URL  `json:"collection"`
	Result     aggdomain.Result `json:"result"`
	// IncludesOtherHosts tells listing UIs to disclose remote content.
	IncludesOtherHosts bool `json:"includes_other_hosts"`
	Cached             bool `json:"cached"`
}

type AggregationService interface {
	Resolve(ctx context.Context, token string, path resourceurl.Path) (*Resolution, error)
	AggregationPathsOf(ctx context.Context, token string, path resourceurl.Path) ([]resourceurl.Path, bool)
	IncludesOtherHosts(res aggdomain.Result) bool
	Invalidate(ctx context.Context, path resourceurl.Path) error
	LocalHost() resourceurl.URL
	// Close waits for background graph writes.
	Close(ctx context.Context) error
}

type AggregationServiceDeps struct {
	Log      *logger.Logger
	Lookup   aggregation.Lookup
	Resolver *aggregation.Resolver
	Auth     AuthService
	// Cache, Graph and Metrics are optional.
	Cache   redis.AggregationCache
	Graph   *neo4jdb.Client
	Metrics *observability.Metrics
	// GraphMirrorConcurrency bounds in-flight graph writes (default 4).
	GraphMirrorConcurrency int
}

type aggregationService struct {
	log      *logger.Logger
	lookup   aggregation.Lookup
	resolver *aggregation.Resolver
	auth     AuthService
	cache    redis.AggregationCache
	graph    *neo4jdb.Client
	mirror   *graphMirror
	metrics  *observability.Metrics
}

func NewAggregationService(deps AggregationServiceDeps) (AggregationService, error) {
	if deps.Lookup == nil {
		return nil, fmt.Errorf("aggregation service: lookup required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("aggregation service: resolver required")
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	s := &aggregationService{
		log:      log.With("service", "AggregationService"),
		lookup:   deps.Lookup,
		resolver: deps.Resolver,
		auth:     deps.Auth,
		cache:    deps.Cache,
		graph:    deps.Graph,
		metrics:  deps.Metrics,
	}
	if deps.Graph.Available() {
		s.mirror = newGraphMirror(s.log, func(ctx context.Context, collection resourceurl.URL, res aggdomain.Result) error {
			return graph.UpsertAggregationGraph(ctx, deps.Graph, collection, res)
		}, deps.GraphMirrorConcurrency)
	}
	return s, nil
}

func (s *aggregationService) Close(ctx context.Context) error {
	if s.mirror == nil {
		return nil
	}
	return s.mirror.close(ctxutil.Default(ctx))
}

func (s *aggregationService) LocalHost() resourceurl.URL { return s.lookup.LocalHost() }

func (s *aggregationService) IncludesOtherHosts(res aggdomain.Result) bool {
	return res.IncludesOtherHosts(s.lookup.LocalHost())
}

// visibility partitions cached results: restricted resources can change the
// outcome for authenticated callers.
func (s *aggregationService) visibility(token string) string {
	if token == "" || s.auth == nil {
		return visibilityAnonymous
	}
	if p, err := s.auth.Principal(token); err != nil || p == "" {
		return visibilityAnonymous
	}
	return visibilityAuthenticated
}

// Resolve retrieves the local collection at path and resolves its
// aggregation. Cache and graph failures are logged and never fail the call.
func (s *aggregationService) Resolve(ctx context.Context, token string, path resourceurl.Path) (*Resolution, error) {
	ctx = ctxutil.Default(ctx)
	node, err := s.lookup.Retrieve(ctx, token, path)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("collection %s: %w", path, pkgerrors.ErrNotFound)
	}
	collection := node.CanonicalURL()
	if collection.IsZero() {
		return nil, fmt.Errorf("collection %s has no canonical url: %w", path, pkgerrors.ErrNotFound)
	}

	var key string
	if s.cache != nil {
		key = s.cache.Key(collection.String(), s.visibility(token))
		cached, ok, cerr := s.cache.Get(ctx, key)
		if cerr != nil {
			s.log.Warn("Aggregation cache read failed", "collection", collection.String(), "error", cerr)
		} else {
			s.metrics.ObserveCache(ok)
		}
		if ok {
			return &Resolution{
				Collection:         collection,
				Result:             cached,
				IncludesOtherHosts: s.IncludesOtherHosts(cached),
				Cached:             true,
			}, nil
		}
	}

	start := time.Now()
	res, report := s.resolver.ResolveWithReport(ctx, aggregation.Request{Collection: node, Token: token})
	skips := map[string]int{}
	for _, sk := range report.Skips {
		skips[string(sk.Reason)]++
	}
	s.metrics.ObserveResolve(time.Since(start), report.Lookups, report.Depth, skips)
	s.log.Debug("Resolved aggregation",
		"collection", collection.String(),
		"paths", res.Aggregation().Len(),
		"approved", res.ManuallyApproved().Len(),
		"lookups", report.Lookups,
		"skips", len(report.Skips),
		"depth", report.Depth,
	)

	// A failed lookup leaves part of the graph unresolved; that result is
	// served once and neither cached nor mirrored.
	if failed := report.Count(aggregation.SkipLookupFailed); failed > 0 {
		s.log.Warn("Aggregation incomplete, not caching",
			"collection", collection.String(),
			"failed_lookups", failed,
		)
	} else {
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, res); err != nil {
				s.log.Warn("Aggregation cache write failed", "collection", collection.String(), "error", err)
			}
		}
		if s.mirror != nil {
			s.mirror.enqueue(collection, res)
		}
	}

	return &Resolution{
		Collection:         collection,
		Result:             res,
		IncludesOtherHosts: s.IncludesOtherHosts(res),
	}, nil
}

func (s *aggregationService) AggregationPathsOf(ctx context.Context, token string, path resourceurl.Path) ([]resourceurl.Path, bool) {
	r, err := s.Resolve(ctx, token, path)
	if err != nil {
		s.log.Debug("Cannot resolve aggregation paths", "path", path.String(), "error", err)
		return nil, false
	}
	return r.Result.LocalAggregationPaths(s.lookup.LocalHost()), true
}

// Invalidate drops cached results and mirrored edges of the local
// collection at path.
func (s *aggregationService) Invalidate(ctx context.Context, path resourceurl.Path) error {
	ctx = ctxutil.Default(ctx)
	collection := s.lookup.LocalHost().WithPath(path)
	if s.cache != nil {
		keys := []string{
			s.cache.Key(collection.String(), visibilityAnonymous),
			s.cache.Key(collection.String(), visibilityAuthenticated),
		}
		if err := s.cache.Delete(ctx, keys...); err != nil {
			return fmt.Errorf("invalidate aggregation cache: %w", err)
		}
	}
	if s.graph != nil {
		if err := graph.DeleteAggregationGraph(ctx, s.graph, collection); err != nil {
			s.log.Warn("Aggregation graph delete failed (continuing)", "collection", collection.String(), "error", err)
		}
	}
	return nil
}
