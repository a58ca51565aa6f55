package resources

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/collection-listing/internal/data/repos/testutil"
	types "github.com/yungbote/collection-listing/internal/domain/resources"
	pkgerrors "github.com/yungbote/collection-listing/internal/pkg/errors"
	"github.com/yungbote/collection-listing/internal/pkg/query"
	"github.com/yungbote/collection-listing/internal/platform/dbctx"
)

const localHost = "http://localhost/"

func uris(rows []*types.Resource) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.URI)
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResourceRepoCRUD(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewResourceRepo(db, testutil.Logger(t))

	news := testutil.SeedResource(t, ctx, tx, "http://localhost/news", types.ResourceTypeCollection, map[string]any{
		types.PropDisplayAggregation: true,
		types.PropAggregation:        []string{"/events"},
	})
	testutil.SeedResource(t, ctx, tx, "http://localhost/events", types.ResourceTypeCollection, nil)

	got, err := repo.GetByHostURI(dbc, localHost, "/news")
	if err != nil {
		t.Fatalf("GetByHostURI: %v", err)
	}
	if got.ID != news.ID {
		t.Fatalf("GetByHostURI: want=%s got=%s", news.ID, got.ID)
	}
	if vals := got.Strings(types.PropAggregation); len(vals) != 1 || vals[0] != "/events" {
		t.Fatalf("properties round trip: got=%v", vals)
	}

	if _, err := repo.GetByHostURI(dbc, localHost, "/missing"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("GetByHostURI missing: want ErrNotFound got=%v", err)
	}

	rows, err := repo.GetByHostURIs(dbc, localHost, []string{"/news", "/events", "/missing"})
	if err != nil {
		t.Fatalf("GetByHostURIs: %v", err)
	}
	if want := []string{"/events", "/news"}; !equalStrings(uris(rows), want) {
		t.Fatalf("GetByHostURIs: want=%v got=%v", want, uris(rows))
	}

	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{news.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}

	if err := repo.UpdateProperties(dbc, news.ID, map[string]any{types.PropDisplayAggregation: false}); err != nil {
		t.Fatalf("UpdateProperties: %v", err)
	}
	got, err = repo.GetByHostURI(dbc, localHost, "/news")
	if err != nil {
		t.Fatalf("GetByHostURI after update: %v", err)
	}
	if got.Bool(types.PropDisplayAggregation) {
		t.Fatalf("UpdateProperties: display-aggregation still set")
	}
	if err := repo.UpdateProperties(dbc, uuid.New(), nil); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("UpdateProperties unknown id: want ErrNotFound got=%v", err)
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{news.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if _, err := repo.GetByHostURI(dbc, localHost, "/news"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("after SoftDeleteByIDs: want ErrNotFound got=%v", err)
	}
}

func TestResourceRepoCreateConflict(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewResourceRepo(db, testutil.Logger(t))

	host := "http://conflict.example/"
	first := &types.Resource{Host: host, URI: "/a", ResourceType: types.ResourceTypeFile}
	if _, err := repo.Create(dbc, []*types.Resource{first}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == uuid.Nil {
		t.Fatalf("Create: id not assigned")
	}

	dup := &types.Resource{Host: host, URI: "/a", ResourceType: types.ResourceTypeFile}
	if _, err := repo.Create(dbc, []*types.Resource{dup}); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("Create duplicate: want ErrConflict got=%v", err)
	}
}

func TestResourceRepoSearch(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewResourceRepo(db, testutil.Logger(t))

	host := "http://search.example/"
	seed := func(path, typ string, props map[string]any) {
		testutil.SeedResource(t, ctx, tx, "http://search.example"+path, typ, props)
	}
	seed("/news", types.ResourceTypeCollection, nil)
	seed("/news/a", types.ResourceTypeFile, map[string]any{"tag": "local"})
	seed("/news/b", types.ResourceTypeStructuredArticle, nil)
	seed("/news/sub/c", types.ResourceTypeFile, nil)
	seed("/newsletter/x", types.ResourceTypeFile, nil)
	seed("/events/e1", types.ResourceTypeFile, map[string]any{"tag": "event"})
	seed("/odd_name/f", types.ResourceTypeFile, nil)
	seed("/oddxname/g", types.ResourceTypeFile, nil)
	testutil.SeedRestricted(t, ctx, tx, "http://search.example/news/secret", types.ResourceTypeFile)
	testutil.SeedResource(t, ctx, tx, "http://other.example/news/remote", types.ResourceTypeFile, nil)

	cases := []struct {
		name       string
		q          query.Query
		restricted bool
		want       []string
	}{
		{
			name: "prefix",
			q:    query.Prefix("/news"),
			want: []string{"/news/a", "/news/b", "/news/sub/c"},
		},
		{
			name: "prefix include self",
			q:    query.URIPrefix{URI: "/news", Op: query.OpEq, IncludeSelf: true},
			want: []string{"/news", "/news/a", "/news/b", "/news/sub/c"},
		},
		{
			name:       "restricted rows need a principal",
			q:          query.Prefix("/news"),
			restricted: true,
			want:       []string{"/news/a", "/news/b", "/news/secret", "/news/sub/c"},
		},
		{
			name: "like wildcards are literal",
			q:    query.Prefix("/odd_name"),
			want: []string{"/odd_name/f"},
		},
		{
			name: "prefix and type",
			q: query.And{Queries: []query.Query{
				query.Prefix("/news"),
				query.TypeTerm{Type: types.ResourceTypeFile, Op: query.OpEq},
			}},
			want: []string{"/news/a", "/news/sub/c"},
		},
		{
			name: "or of prefixes",
			q: query.Or{Queries: []query.Query{
				query.Prefix("/news/sub"),
				query.Prefix("/events"),
			}},
			want: []string{"/events/e1", "/news/sub/c"},
		},
		{
			name: "not equal prefix",
			q: query.And{Queries: []query.Query{
				query.Prefix("/news"),
				query.URIPrefix{URI: "/news/sub", Op: query.OpNe},
			}},
			want: []string{"/news/a", "/news/b"},
		},
		{
			name: "depth",
			q: query.And{Queries: []query.Query{
				query.URIPrefix{URI: "/", Op: query.OpEq},
				query.URIDepth{Depth: 1, Op: query.OpEq},
			}},
			want: []string{"/news"},
		},
		{
			name: "property",
			q:    query.PropertyTerm{Name: "tag", Value: "event", Op: query.OpEq},
			want: []string{"/events/e1"},
		},
		{
			name: "type not equal",
			q: query.And{Queries: []query.Query{
				query.Prefix("/news"),
				query.TypeTerm{Type: types.ResourceTypeFile, Op: query.OpNe},
			}},
			want: []string{"/news/b"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := repo.Search(dbc, SearchParams{
				Hosts:             []string{host},
				Query:             tc.q,
				IncludeRestricted: tc.restricted,
			})
			if err != nil {
				t.Fatalf("Search(%s): %v", tc.q, err)
			}
			if !equalStrings(uris(rows), tc.want) {
				t.Fatalf("Search(%s): want=%v got=%v", tc.q, tc.want, uris(rows))
			}
		})
	}
}

func TestResourceRepoSearchAllHostsAndPaging(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewResourceRepo(db, testutil.Logger(t))

	testutil.SeedResource(t, ctx, tx, "http://a.paging/shared/1", types.ResourceTypeFile, nil)
	testutil.SeedResource(t, ctx, tx, "http://b.paging/shared/2", types.ResourceTypeFile, nil)
	testutil.SeedResource(t, ctx, tx, "http://b.paging/shared/3", types.ResourceTypeFile, nil)

	hosts := []string{"http://a.paging/", "http://b.paging/"}
	rows, err := repo.Search(dbc, SearchParams{Hosts: hosts, Query: query.Prefix("/shared")})
	if err != nil || len(rows) != 3 {
		t.Fatalf("Search across hosts: err=%v len=%d", err, len(rows))
	}

	page, err := repo.Search(dbc, SearchParams{Hosts: hosts, Query: query.Prefix("/shared"), Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Search page: %v", err)
	}
	if want := []string{"/shared/2", "/shared/3"}; !equalStrings(uris(page), want) {
		t.Fatalf("Search page: want=%v got=%v", want, uris(page))
	}
}

type unknownQuery struct{ query.TypeTerm }

func TestConditionRejectsBadQueries(t *testing.T) {
	cases := []struct {
		name string
		q    query.Query
		code OperationErrorCode
	}{
		{name: "nil", q: nil, code: OperationErrorValidation},
		{name: "relative prefix", q: query.Prefix("news"), code: OperationErrorValidation},
		{name: "negative depth", q: query.URIDepth{Depth: -1}, code: OperationErrorValidation},
		{name: "empty property", q: query.PropertyTerm{Value: "x"}, code: OperationErrorValidation},
		{name: "unknown type", q: unknownQuery{}, code: OperationErrorUnsupportedQuery},
		{
			name: "nested",
			q:    query.And{Queries: []query.Query{query.Prefix("/ok"), query.TypeTerm{}}},
			code: OperationErrorValidation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Condition(tc.q)
			var opErr *OperationError
			if !errors.As(err, &opErr) {
				t.Fatalf("expected OperationError, got=%T (%v)", err, err)
			}
			if opErr.Code != tc.code {
				t.Fatalf("error code: want=%q got=%q", tc.code, opErr.Code)
			}
			if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument in chain: %v", err)
			}
		})
	}
}
