package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	resourcerepos "github.com/yungbote/collection-listing/internal/data/repos/resources"
	"github.com/yungbote/collection-listing/internal/domain/resources"
	"github.com/yungbote/collection-listing/internal/modules/aggregation"
	pkgerrors "github.com/yungbote/collection-listing/internal/pkg/errors"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
	"github.com/yungbote/collection-listing/internal/platform/dbctx"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

const defaultLookupConcurrency = 4

type ResourceLookupDeps struct {
	Repo resourcerepos.ResourceRepo
	Auth AuthService
	Log  *logger.Logger

	LocalHost        resourceurl.URL
	MultiHostEnabled bool
	// MaxConcurrency bounds the per-host queries of a multi-host lookup.
	MaxConcurrency int
}

// ResourceLookup serves the aggregation resolver from the resource index.
type ResourceLookup struct {
	repo           resourcerepos.ResourceRepo
	auth           AuthService
	log            *logger.Logger
	local          resourceurl.URL
	multiHost      bool
	maxConcurrency int
}

var _ aggregation.Lookup = (*ResourceLookup)(nil)

func NewResourceLookup(deps ResourceLookupDeps) (*ResourceLookup, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("resource lookup: repo required")
	}
	if deps.LocalHost.IsZero() {
		return nil, fmt.Errorf("resource lookup: local host required")
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	conc := deps.MaxConcurrency
	if conc <= 0 {
		conc = defaultLookupConcurrency
	}
	return &ResourceLookup{
		repo:           deps.Repo,
		auth:           deps.Auth,
		log:            log.With("service", "ResourceLookup"),
		local:          deps.LocalHost.HostRoot(),
		multiHost:      deps.MultiHostEnabled,
		maxConcurrency: conc,
	}, nil
}

func (l *ResourceLookup) LocalHost() resourceurl.URL { return l.local }

func (l *ResourceLookup) MultiHostEnabled() bool { return l.multiHost }

// canSeeRestricted reports whether token belongs to a verified principal.
// Invalid tokens read as anonymous.
func (l *ResourceLookup) canSeeRestricted(token string) bool {
	if token == "" || l.auth == nil {
		return false
	}
	principal, err := l.auth.Principal(token)
	if err != nil {
		l.log.Debug("Treating unverifiable token as anonymous", "error", err)
		return false
	}
	return principal != ""
}

func (l *ResourceLookup) Retrieve(ctx context.Context, token string, path resourceurl.Path) (aggregation.Node, error) {
	row, err := l.repo.GetByHostURI(dbctx.Context{Ctx: ctx}, l.local.String(), path.String())
	if err != nil {
		return nil, err
	}
	if row.ReadRestricted && !l.canSeeRestricted(token) {
		return nil, fmt.Errorf("resource %s: %w", path, pkgerrors.ErrNotFound)
	}
	return row, nil
}

func (l *ResourceLookup) LookupLocal(ctx context.Context, token string, paths []resourceurl.Path) ([]aggregation.Node, error) {
	if len(paths) == 0 {
		return []aggregation.Node{}, nil
	}
	uris := make([]string, 0, len(paths))
	for _, p := range paths {
		uris = append(uris, p.String())
	}
	rows, err := l.repo.GetByHostURIs(dbctx.Context{Ctx: ctx}, l.local.String(), uris)
	if err != nil {
		return nil, fmt.Errorf("local lookup: %w", err)
	}
	return l.visible(rows, l.canSeeRestricted(token)), nil
}

// LookupMultiHost runs one query per host concurrently. The first failing
// host fails the whole batch.
func (l *ResourceLookup) LookupMultiHost(ctx context.Context, token string, urls []resourceurl.URL) ([]aggregation.Node, error) {
	if len(urls) == 0 {
		return []aggregation.Node{}, nil
	}

	byHost := map[resourceurl.URL][]string{}
	hosts := []resourceurl.URL{}
	for _, u := range urls {
		h := u.HostRoot()
		if _, ok := byHost[h]; !ok {
			hosts = append(hosts, h)
		}
		byHost[h] = append(byHost[h], u.Path.String())
	}

	var (
		mu    sync.Mutex
		found = map[resourceurl.URL][]*resources.Resource{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.maxConcurrency)
	for _, h := range hosts {
		h := h
		g.Go(func() error {
			rows, err := l.repo.GetByHostURIs(dbctx.Context{Ctx: gctx}, h.String(), byHost[h])
			if err != nil {
				return fmt.Errorf("lookup on %s: %w", h, err)
			}
			mu.Lock()
			found[h] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seeRestricted := l.canSeeRestricted(token)
	out := []aggregation.Node{}
	for _, h := range hosts {
		out = append(out, l.visible(found[h], seeRestricted)...)
	}
	return out, nil
}

func (l *ResourceLookup) visible(rows []*resources.Resource, seeRestricted bool) []aggregation.Node {
	out := make([]aggregation.Node, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		if r.ReadRestricted && !seeRestricted {
			continue
		}
		out = append(out, r)
	}
	return out
}
