package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	resourcerepos "github.com/yungbote/collection-listing/internal/data/repos/resources"
	"github.com/yungbote/collection-listing/internal/domain/resources"
	pkgerrors "github.com/yungbote/collection-listing/internal/pkg/errors"
	"github.com/yungbote/collection-listing/internal/pkg/query"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
	"github.com/yungbote/collection-listing/internal/platform/ctxutil"
	"github.com/yungbote/collection-listing/internal/platform/dbctx"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

var DefaultListingTypes = []string{
	resources.ResourceTypeFile,
	resources.ResourceTypeStructuredArticle,
}

type ListingParams struct {
	// Types restricts entries to these resource types. Empty uses
	// DefaultListingTypes.
	Types  []string
	Limit  int
	Offset int
}

type ListingEntry struct {
	URL   string `json:"url"`
	URI   string `json:"uri"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type Listing struct {
	Collection string         `json:"collection"`
	Entries    []ListingEntry `json:"entries"`
	// HasRemoteContent is set when the aggregation reaches other hosts whose
	// content is not part of Entries.
	HasRemoteContent bool   `json:"has_remote_content"`
	Query            string `json:"query"`
}

type ListingService interface {
	List(ctx context.Context, token string, collection resourceurl.Path, params ListingParams) (*Listing, error)
}

type ListingServiceDeps struct {
	Log         *logger.Logger
	Repo        resourcerepos.ResourceRepo
	Aggregation AggregationService
	Auth        AuthService
}

type listingService struct {
	log  *logger.Logger
	repo resourcerepos.ResourceRepo
	agg  AggregationService
	auth AuthService
}

func NewListingService(deps ListingServiceDeps) (ListingService, error) {
	if deps.Repo == nil || deps.Aggregation == nil {
		return nil, fmt.Errorf("listing service: repo and aggregation required")
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &listingService{
		log:  log.With("service", "ListingService"),
		repo: deps.Repo,
		agg:  deps.Aggregation,
		auth: deps.Auth,
	}, nil
}

// BuildListingQuery returns the entry query for collection extended with
// the aggregated prefixes and the manually approved resources.
func BuildListingQuery(collection resourceurl.Path, types []string, aggregated, approved []resourceurl.Path) (query.Query, error) {
	var typeFilter query.Query
	switch len(types) {
	case 0:
	case 1:
		typeFilter = query.TypeTerm{Type: types[0], Op: query.OpEq}
	default:
		terms := make([]query.Query, 0, len(types))
		for _, t := range types {
			terms = append(terms, query.TypeTerm{Type: t, Op: query.OpEq})
		}
		typeFilter = query.Or{Queries: terms}
	}

	withTypes := func(q query.Query) query.Query {
		if typeFilter == nil {
			return q
		}
		return query.And{Queries: []query.Query{q, typeFilter}}
	}

	base, err := query.ExtendWithAggregation(withTypes(query.Prefix(collection)), aggregated)
	if err != nil {
		return nil, err
	}
	if len(approved) == 0 {
		return base, nil
	}
	picked := make([]query.Query, 0, len(approved))
	for _, p := range approved {
		picked = append(picked, query.URIPrefix{URI: p, Op: query.OpEq, IncludeSelf: true})
	}
	return query.Or{Queries: []query.Query{base, withTypes(query.Or{Queries: picked})}}, nil
}

func (s *listingService) List(ctx context.Context, token string, collection resourceurl.Path, params ListingParams) (*Listing, error) {
	ctx = ctxutil.Default(ctx)
	types := params.Types
	if len(types) == 0 {
		types = DefaultListingTypes
	}
	local := s.agg.LocalHost()

	var (
		aggregated []resourceurl.Path
		approved   []resourceurl.Path
		remote     bool
	)
	res, err := s.agg.Resolve(ctx, token, collection)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		return nil, err
	case err != nil:
		s.log.Warn("Aggregation unavailable, listing collection only", "collection", collection.String(), "error", err)
	default:
		aggregated = res.Result.LocalAggregationPaths(local)
		approved = res.Result.LocalManuallyApprovedPaths(local)
		remote = res.IncludesOtherHosts
	}

	q, err := BuildListingQuery(collection, types, aggregated, approved)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Search(dbctx.Context{Ctx: ctx}, resourcerepos.SearchParams{
		Hosts:             []string{local.String()},
		Query:             q,
		IncludeRestricted: s.authenticated(token),
		Limit:             params.Limit,
		Offset:            params.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}

	entries := make([]ListingEntry, 0, len(rows))
	for _, r := range rows {
		u := r.CanonicalURL()
		if u.IsZero() {
			continue
		}
		entries = append(entries, ListingEntry{
			URL:   u.String(),
			URI:   r.URI,
			Title: strings.TrimSpace(r.Title),
			Type:  r.ResourceType,
		})
	}

	return &Listing{
		Collection:       local.WithPath(collection).String(),
		Entries:          entries,
		HasRemoteContent: remote,
		Query:            q.String(),
	}, nil
}

func (s *listingService) authenticated(token string) bool {
	if token == "" || s.auth == nil {
		return false
	}
	p, err := s.auth.Principal(token)
	return err == nil && p != ""
}
